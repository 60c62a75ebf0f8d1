/*
Package domain holds the query-name handling shared by both lookalike
pipelines: loose validation of input domains, normalization, and
public-suffix-aware base-name extraction.
*/
package domain

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
	"fmt"
	"strings"
)

// MaxNameLength is the RFC 1035 limit on a full domain name.
const MaxNameLength = 253

// Normalize lowercases a raw input name and strips surrounding whitespace and
// trailing dots. It performs no validity checking; junk in, junk out.
func Normalize(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	return strings.TrimRight(name, ".")
}

// Validate applies the loose acceptance rule for input queries: the name must
// contain a dot, carry no internal whitespace, and fit in MaxNameLength bytes.
// Anything that fails here is reported per-row and never reaches the network.
func Validate(name string) error {
	if name == "" {
		return fmt.Errorf("empty domain name")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("domain name exceeds %d characters", MaxNameLength)
	}
	if strings.ContainsAny(name, " \t") {
		return fmt.Errorf("domain name contains whitespace")
	}
	if !strings.Contains(name, ".") {
		return fmt.Errorf("domain name has no dot")
	}
	return nil
}
