package collect

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
	"sync/atomic"
	"time"
)

// Stats tracks collector progress. All fields are atomically updated; the
// display goroutine reads them live while workers write.
type Stats struct {
	RowsRead       atomic.Int64
	EmptyRows      atomic.Int64
	InvalidRows    atomic.Int64
	RowsWritten    atomic.Int64
	RowsWithIssues atomic.Int64
	WhoisFailures  atomic.Int64

	start time.Time
}

// NewStats returns a Stats with the clock started.
func NewStats() *Stats {
	return &Stats{start: time.Now()}
}

// Progress renders the single-line live status.
func (s *Stats) Progress() string {
	return fmt.Sprintf("Rows: %d read, %d written (%d with issues) | Elapsed: %s",
		s.RowsRead.Load(), s.RowsWritten.Load(), s.RowsWithIssues.Load(),
		time.Since(s.start).Round(time.Second))
}

// Summary renders the final multi-line report.
func (s *Stats) Summary() string {
	return fmt.Sprintf(
		"Rows read:        %d\n"+
			"Rows written:     %d\n"+
			"Empty rows:       %d\n"+
			"Invalid domains:  %d\n"+
			"Rows with issues: %d\n"+
			"WHOIS failures:   %d\n"+
			"Elapsed:          %s",
		s.RowsRead.Load(), s.RowsWritten.Load(), s.EmptyRows.Load(),
		s.InvalidRows.Load(), s.RowsWithIssues.Load(), s.WhoisFailures.Load(),
		time.Since(s.start).Round(time.Second))
}
