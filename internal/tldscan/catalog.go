/*
Package tldscan implements the TLD variant checker: line-delimited domains in,
one CSV row out for every (base name, TLD) combination. The base name is the
public-suffix-stripped remainder of each input, and the TLD catalog defaults
to a fixed set of extensions commonly abused for look-alike registrations.
*/
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
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// DefaultTLDs is the built-in catalog: generic TLDs, cheap novelty TLDs
// popular with squatters, and common ccTLDs.
var DefaultTLDs = []string{
	".com", ".org", ".net", ".co", ".info", ".biz", ".us", ".ca", ".uk",
	".io", ".ai", ".tech", ".app", ".online", ".site", ".website", ".space",
	".store", ".xyz", ".club", ".vip", ".link", ".click", ".top", ".loan",
	".support", ".help", ".services", ".company", ".solutions", ".agency",
	".email", ".cc", ".tv", ".me", ".asia", ".mobi", ".pro", ".name",
	".de", ".fr", ".au", ".nl", ".ru", ".cn", ".br", ".in", ".jp",
	".live", ".shop", ".world", ".guru", ".news", ".today", ".ltd", ".group",
}

// NormalizeCatalog lowercases entries, guarantees the leading dot, and
// returns the de-duplicated, sorted catalog. Blank entries are dropped.
func NormalizeCatalog(tlds []string) []string {
	seen := make(map[string]struct{}, len(tlds))
	out := make([]string, 0, len(tlds))
	for _, tld := range tlds {
		tld = strings.ToLower(strings.TrimSpace(tld))
		if tld == "" || tld == "." {
			continue
		}
		if !strings.HasPrefix(tld, ".") {
			tld = "." + tld
		}
		if _, ok := seen[tld]; ok {
			continue
		}
		seen[tld] = struct{}{}
		out = append(out, tld)
	}
	sort.Strings(out)
	return out
}

// LoadCatalog reads one TLD per line from path, ignoring blank lines and
// lines starting with '#'.
func LoadCatalog(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening TLD catalog: %w", err)
	}
	defer f.Close()

	var tlds []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tlds = append(tlds, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading TLD catalog: %w", err)
	}
	if len(tlds) == 0 {
		return nil, fmt.Errorf("TLD catalog %s contains no entries", path)
	}
	return NormalizeCatalog(tlds), nil
}
