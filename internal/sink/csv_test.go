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
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
)

func TestCSVWriteAndReadBack(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "out.csv")

	s, err := NewCSV(path, []string{"Domain", "Information"})
	if err != nil {
		t.Fatalf("NewCSV failed: %v", err)
	}
	if err := s.WriteRow([]string{"example.com", "multi\nline, with comma"}); err != nil {
		t.Fatalf("WriteRow failed: %v", err)
	}
	if err := s.WriteRow([]string{"example.org", "OK"}); err != nil {
		t.Fatalf("WriteRow failed: %v", err)
	}
	if got := s.Rows(); got != 2 {
		t.Errorf("Rows() = %d; want 2", got)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening output: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}

	expected := [][]string{
		{"Domain", "Information"},
		{"example.com", "multi\nline, with comma"},
		{"example.org", "OK"},
	}
	if !reflect.DeepEqual(records, expected) {
		t.Errorf("records = %v; want %v", records, expected)
	}
}

func TestCSVGzip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "out.csv.gz")

	s, err := NewCSV(path, []string{"Domain"})
	if err != nil {
		t.Fatalf("NewCSV failed: %v", err)
	}
	if err := s.WriteRow([]string{"example.com"}); err != nil {
		t.Fatalf("WriteRow failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening output: %v", err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("not a gzip stream: %v", err)
	}
	records, err := csv.NewReader(gz).ReadAll()
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("record count = %d; want 2", len(records))
	}
}

func TestCSVCreatesParentDirs(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "deeper", "out.csv")

	s, err := NewCSV(path, []string{"Domain"})
	if err != nil {
		t.Fatalf("NewCSV failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("output file missing: %v", err)
	}
}

// Rows from concurrent writers may interleave in any order but must never
// tear; the reader must see every row intact.
func TestCSVConcurrentWrites(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "out.csv")

	s, err := NewCSV(path, []string{"Domain", "Information"})
	if err != nil {
		t.Fatalf("NewCSV failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				row := []string{fmt.Sprintf("w%d-%d.example.com", n, j), "OK"}
				if err := s.WriteRow(row); err != nil {
					t.Errorf("WriteRow failed: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening output: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if len(records) != 1+8*25 {
		t.Errorf("record count = %d; want %d", len(records), 1+8*25)
	}
	for _, rec := range records[1:] {
		if len(rec) != 2 || rec[1] != "OK" {
			t.Fatalf("torn record: %v", rec)
		}
	}
}

func TestCSVWriteAfterClose(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "out.csv")

	s, err := NewCSV(path, []string{"Domain"})
	if err != nil {
		t.Fatalf("NewCSV failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.WriteRow([]string{"late.example.com"}); err == nil {
		t.Error("WriteRow after Close succeeded; want error")
	}
	// Double close is a no-op.
	if err := s.Close(); err != nil {
		t.Errorf("second Close = %v; want nil", err)
	}
}
