package whoisx

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
	"sort"
	"strings"
)

// NotAvailable is the placeholder written for any absent field. It is part of
// the output contract; downstream consumers grep for it.
const NotAvailable = "N/A"

// Display returns s trimmed, or NotAvailable when empty.
func Display(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return NotAvailable
	}
	return s
}

// DisplayList renders values comma-joined, de-duplicated and sorted, or
// NotAvailable when nothing remains.
func DisplayList(values []string) string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return NotAvailable
	}
	sort.Strings(out)
	return strings.Join(out, ", ")
}

// GuessRegistrarURL returns the registrar's published referral URL when
// present, otherwise a guessed https://www.<name>.com built from the first
// comma segment of the registrar name with spaces and periods removed. The
// guess is a heuristic carried over from the report format this tool
// replaces; it is frequently wrong for multi-word registrars and that is
// accepted.
func GuessRegistrarURL(referralURL, registrar string) string {
	if url := strings.TrimSpace(referralURL); url != "" {
		return url
	}
	name := registrar
	if idx := strings.Index(name, ","); idx >= 0 {
		name = name[:idx]
	}
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "")
	name = strings.ReplaceAll(name, ".", "")
	if name == "" {
		return NotAvailable
	}
	return "https://www." + name + ".com"
}
