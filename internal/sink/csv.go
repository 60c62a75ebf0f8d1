/*
Package sink writes result rows to disk. The CSV file doubles as the audit
log of a long-running scan, so every row is flushed as it is written; a
killed process keeps everything already reported.
*/
package sink

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
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/driftsec/lookalike/internal/metrics"
)

// CSV is a concurrency-safe CSV writer. Workers on different shards report
// rows in completion order; the mutex keeps rows intact, not ordered.
type CSV struct {
	mu     sync.Mutex
	file   *os.File
	gz     *gzip.Writer
	w      *csv.Writer
	name   string
	rows   int64
	closed bool
}

// NewCSV creates path (and any missing parent directories) and writes header
// as the first row. A ".gz" suffix on path enables gzip compression.
func NewCSV(path string, header []string) (*CSV, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating output file: %w", err)
	}

	s := &CSV{file: file, name: filepath.Base(path)}
	var out io.Writer = file
	if strings.HasSuffix(path, ".gz") {
		s.gz = gzip.NewWriter(file)
		out = s.gz
	}
	s.w = csv.NewWriter(out)

	if err := s.w.Write(header); err != nil {
		file.Close()
		return nil, fmt.Errorf("writing header: %w", err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		file.Close()
		return nil, fmt.Errorf("flushing header: %w", err)
	}
	return s, nil
}

// WriteRow appends one record and flushes it to the OS.
func (s *CSV) WriteRow(record []string) error {
	done := metrics.MeasureDuration(metrics.GetMetrics().SinkWriteDuration, prometheus.Labels{"output": s.name})
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("output %s already closed", s.name)
	}
	if err := s.w.Write(record); err != nil {
		s.countError()
		return fmt.Errorf("writing row: %w", err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		s.countError()
		return fmt.Errorf("flushing row: %w", err)
	}
	s.rows++
	done()
	return nil
}

func (s *CSV) countError() {
	if metrics.IsMetricsEnabled() {
		metrics.GetMetrics().SinkErrors.WithLabelValues(s.name).Inc()
	}
}

// Rows returns the number of data rows written so far, excluding the header.
func (s *CSV) Rows() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows
}

// Close flushes buffered data and closes the underlying file. Safe to call
// more than once.
func (s *CSV) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	s.w.Flush()
	err := s.w.Error()
	if s.gz != nil {
		if gzErr := s.gz.Close(); err == nil {
			err = gzErr
		}
	}
	if fileErr := s.file.Close(); err == nil {
		err = fileErr
	}
	return err
}
