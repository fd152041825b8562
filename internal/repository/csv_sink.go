package repository

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"sync"

	drepo "SerialScope/internal/domain/repository"
)

// CSVSink writes one row per decoded line to a CSV file. When a new
// signal registers mid-session the whole file is rewritten: the new
// header plus every prior row padded with empty cells, so the column
// count stays consistent for any consumer of the file.
//
// NaN values (signals absent from a line, or malformed numbers) are
// written as empty cells.
type CSVSink struct {
	mu      sync.Mutex
	path    string
	headers []string
	rows    [][]string
	file    *os.File
	w       *csv.Writer
}

// NewCSVSink creates the sink. The file is created lazily on the first
// schema change, since there is nothing to write before the first
// signal registers.
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

func (s *CSVSink) OnSchemaChanged(headers []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.headers = append([]string(nil), headers...)
	return s.rewrite()
}

// rewrite truncates the file and replays header plus padded rows.
// Caller holds the lock.
func (s *CSVSink) rewrite() error {
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("csv sink create: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(s.headers); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv sink header: %w", err)
	}
	for i := range s.rows {
		s.rows[i] = padRow(s.rows[i], len(s.headers))
		if err := w.Write(s.rows[i]); err != nil {
			_ = f.Close()
			return fmt.Errorf("csv sink replay: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv sink flush: %w", err)
	}
	s.file = f
	s.w = w
	return nil
}

func (s *CSVSink) OnLine(ts float64, values []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w == nil {
		// No schema yet means the line carried no signals; skip it.
		return nil
	}

	row := make([]string, 0, len(values)+1)
	row = append(row, formatCell(ts))
	for _, v := range values {
		row = append(row, formatCell(v))
	}
	row = padRow(row, len(s.headers))
	s.rows = append(s.rows, row)

	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("csv sink write: %w", err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("csv sink flush: %w", err)
	}
	return nil
}

func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w != nil {
		s.w.Flush()
	}
	if s.file != nil {
		err := s.file.Close()
		s.file = nil
		return err
	}
	return nil
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func padRow(row []string, width int) []string {
	for len(row) < width {
		row = append(row, "")
	}
	return row
}

var _ drepo.RecordSink = (*CSVSink)(nil)
