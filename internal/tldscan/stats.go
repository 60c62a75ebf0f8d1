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
	"fmt"
	"sync/atomic"
	"time"
)

// Stats tracks scanner progress. All fields are atomically updated; the
// display goroutine reads them live while workers write.
type Stats struct {
	InputDomains    atomic.Int64
	ExtractFailures atomic.Int64
	VariantsQueued  atomic.Int64
	RowsWritten     atomic.Int64
	Resolved        atomic.Int64
	Registered      atomic.Int64
	WhoisSkipped    atomic.Int64
	WhoisFailures   atomic.Int64

	start time.Time
}

// NewStats returns a Stats with the clock started.
func NewStats() *Stats {
	return &Stats{start: time.Now()}
}

// Progress renders the single-line live status.
func (s *Stats) Progress() string {
	queued := s.VariantsQueued.Load()
	done := s.RowsWritten.Load()
	pct := 0.0
	if queued > 0 {
		pct = float64(done) / float64(queued) * 100
	}
	return fmt.Sprintf("Variants: %d/%d (%.1f%%) | Resolved: %d | Registered: %d | Elapsed: %s",
		done, queued, pct, s.Resolved.Load(), s.Registered.Load(),
		time.Since(s.start).Round(time.Second))
}

// Summary renders the final multi-line report.
func (s *Stats) Summary() string {
	return fmt.Sprintf(
		"Input domains:       %d\n"+
			"Extraction failures: %d\n"+
			"Variants checked:    %d\n"+
			"Rows written:        %d\n"+
			"DNS resolved:        %d\n"+
			"WHOIS registered:    %d\n"+
			"WHOIS skipped:       %d\n"+
			"WHOIS failures:      %d\n"+
			"Elapsed:             %s",
		s.InputDomains.Load(), s.ExtractFailures.Load(), s.VariantsQueued.Load(),
		s.RowsWritten.Load(), s.Resolved.Load(), s.Registered.Load(),
		s.WhoisSkipped.Load(), s.WhoisFailures.Load(),
		time.Since(s.start).Round(time.Second))
}
