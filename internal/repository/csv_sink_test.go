package repository

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	recs, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return recs
}

func TestCSVSinkHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scope.csv")
	s := NewCSVSink(path)

	if err := s.OnSchemaChanged([]string{"Time", "A"}); err != nil {
		t.Fatal(err)
	}
	if err := s.OnLine(0, []float64{1}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	got := readCSV(t, path)
	want := [][]string{{"Time", "A"}, {"0", "1"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestCSVSinkRewriteOnSchemaChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scope.csv")
	s := NewCSVSink(path)

	if err := s.OnSchemaChanged([]string{"Time", "A"}); err != nil {
		t.Fatal(err)
	}
	if err := s.OnLine(0, []float64{1}); err != nil {
		t.Fatal(err)
	}

	// A second signal arrives: file is rewritten, old rows padded.
	if err := s.OnSchemaChanged([]string{"Time", "A", "B"}); err != nil {
		t.Fatal(err)
	}
	if err := s.OnLine(1, []float64{2, 5}); err != nil {
		t.Fatal(err)
	}
	if err := s.OnLine(2, []float64{math.NaN(), 6}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	got := readCSV(t, path)
	want := [][]string{
		{"Time", "A", "B"},
		{"0", "1", ""},
		{"1", "2", "5"},
		{"2", "", "6"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestCSVSinkNoFileBeforeSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scope.csv")
	s := NewCSVSink(path)

	// A line before any schema carries no signals; nothing to write.
	if err := s.OnLine(0, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file should not exist yet: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
}
