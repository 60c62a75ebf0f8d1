package tldscan

/*
lookalike — bulk DNS/WHOIS reconnaissance for look-alike domains
Copyright (C) 2026  Marit Deelstra <lookalike@driftsec.dev>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCatalog(t *testing.T) {
	t.Parallel()
	input := []string{"com", ".ORG", " .net ", "com", "", ".", "xyz"}
	expected := []string{".com", ".net", ".org", ".xyz"}
	assert.Equal(t, expected, NormalizeCatalog(input))
}

// The built-in catalog must already be in canonical form: normalizing it is
// a no-op.
func TestDefaultTLDsCanonical(t *testing.T) {
	t.Parallel()
	normalized := NormalizeCatalog(DefaultTLDs)
	assert.Len(t, normalized, len(DefaultTLDs), "built-in catalog contains duplicates")

	sorted := append([]string(nil), DefaultTLDs...)
	sort.Strings(sorted)
	assert.Equal(t, sorted, normalized)
	for _, tld := range DefaultTLDs {
		assert.True(t, strings.HasPrefix(tld, "."), "TLD %q missing leading dot", tld)
		assert.Equal(t, strings.ToLower(tld), tld, "TLD %q not lowercase", tld)
	}
}

func TestLoadCatalog(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "tlds.txt")
	content := "# squatter favourites\n.com\nxyz\n\n.COM\n.top\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tlds, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, []string{".com", ".top", ".xyz"}, tlds)
}

func TestLoadCatalogEmpty(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "tlds.txt")
	require.NoError(t, os.WriteFile(path, []byte("# nothing here\n\n"), 0o644))

	_, err := LoadCatalog(path)
	assert.Error(t, err)
}

func TestLoadCatalogMissingFile(t *testing.T) {
	t.Parallel()
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}
