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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplay(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "hello", Display("hello"))
	assert.Equal(t, "hello", Display("  hello  "))
	assert.Equal(t, NotAvailable, Display(""))
	assert.Equal(t, NotAvailable, Display("   "))
}

func TestDisplayList(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name     string
		input    []string
		expected string
	}{
		{"Nil", nil, NotAvailable},
		{"Blanks only", []string{"", "  "}, NotAvailable},
		{"Dedupe and sort", []string{"b", "a", "b"}, "a, b"},
		{"Trims entries", []string{" ns2.example.com ", "ns1.example.com"}, "ns1.example.com, ns2.example.com"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, DisplayList(tc.input))
		})
	}
}

// TestGuessRegistrarURL covers the first-comma-segment heuristic and its
// published-URL bypass.
func TestGuessRegistrarURL(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name      string
		referral  string
		registrar string
		expected  string
	}{
		{"Published URL wins", "https://registrar.example", "NameCheap, Inc.", "https://registrar.example"},
		{"Comma segment", "", "NameCheap, Inc.", "https://www.namecheap.com"},
		{"Spaces and periods stripped", "", "Gandi SAS", "https://www.gandisas.com"},
		{"Periods stripped", "", "Key-Systems GmbH.", "https://www.key-systemsgmbh.com"},
		{"Empty both", "", "", NotAvailable},
		{"Only punctuation", "", " . ", NotAvailable},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, GuessRegistrarURL(tc.referral, tc.registrar))
		})
	}
}
