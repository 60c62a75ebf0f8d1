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
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ExtractBase returns the meaningful part of a fully-qualified domain name:
// every label in front of the public suffix, dot-joined. The suffix split is
// list-based (golang.org/x/net/publicsuffix), not label counting, so
// multi-label suffixes like co.uk are handled:
//
//	"sub.example.com"   -> "sub.example"
//	"example.com"       -> "example"
//	"sub.example.co.uk" -> "sub.example"
//
// An empty result means no registrable label could be identified (the input
// is itself a public suffix, or empty). Callers treat that as a per-input,
// non-fatal error.
func ExtractBase(fqdn string) string {
	name := Normalize(fqdn)
	if name == "" {
		return ""
	}

	suffix, _ := publicsuffix.PublicSuffix(name)
	if suffix == "" || suffix == name {
		// The whole name is a suffix; there is no domain label to keep.
		return ""
	}

	base := strings.TrimSuffix(name, "."+suffix)
	if base == name {
		// Name does not actually end in ".<suffix>"; treat as unextractable.
		return ""
	}
	return base
}
