package dnsx

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
	"sort"
	"strings"
)

// UniqueSorted returns values de-duplicated and sorted ascending. The input
// slice is not modified. Deterministic answer order is part of the output
// contract; resolvers rotate record order between queries.
func UniqueSorted(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// JoinSorted renders values as a single comma-separated field, de-duplicated
// and sorted.
func JoinSorted(values []string) string {
	return strings.Join(UniqueSorted(values), ", ")
}

// SortMX orders records by preference, then exchange host. Ties on preference
// are common (round-robin MX sets) and must still render deterministically.
func SortMX(records []MX) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Pref != records[j].Pref {
			return records[i].Pref < records[j].Pref
		}
		return records[i].Host < records[j].Host
	})
}

// FormatMX renders sorted MX records as "pref host" pairs joined by commas,
// e.g. "10 mx1.example.com, 20 mx2.example.com".
func FormatMX(records []MX) string {
	parts := make([]string, 0, len(records))
	for _, mx := range records {
		parts = append(parts, fmt.Sprintf("%d %s", mx.Pref, mx.Host))
	}
	return strings.Join(parts, ", ")
}
