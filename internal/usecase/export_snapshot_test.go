package usecase

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

func TestExportFullSession(t *testing.T) {
	ing := newTestIngestor(t, &recordingSink{})
	for _, line := range []string{
		"Time:0,A:1",
		"Time:1,A:2,B:5",
		"Time:2,B:garbage",
	} {
		if err := ing.IngestLine(line); err != nil {
			t.Fatal(err)
		}
	}

	path := filepath.Join(t.TempDir(), "snapshot.csv")
	uc := NewExportUseCase(ing.Registry(), ing.Store())
	rows, err := uc.Export(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if rows != 4 {
		t.Fatalf("rows: %d", rows)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	if len(recs) != 5 {
		t.Fatalf("record count: %d", len(recs))
	}
	if recs[0][0] != "signal" || recs[0][1] != "timestamp" || recs[0][2] != "value" {
		t.Fatalf("header: %v", recs[0])
	}
	// Long format, signals in registration order.
	if recs[1][0] != "A" || recs[1][1] != "0" || recs[1][2] != "1" {
		t.Fatalf("first row: %v", recs[1])
	}
	// The malformed value exports as an empty cell.
	if recs[4][0] != "B" || recs[4][2] != "" {
		t.Fatalf("NaN row: %v", recs[4])
	}
}

func TestExportTrailingWindow(t *testing.T) {
	ing := newTestIngestor(t, &recordingSink{})
	for _, line := range []string{
		"Time:0,A:1",
		"Time:5,A:2",
		"Time:10,A:3",
	} {
		if err := ing.IngestLine(line); err != nil {
			t.Fatal(err)
		}
	}

	path := filepath.Join(t.TempDir(), "window.csv")
	uc := NewExportUseCase(ing.Registry(), ing.Store())

	// Latest is 10; a 6-unit window keeps timestamps >= 4.
	rows, err := uc.Export(path, 6)
	if err != nil {
		t.Fatal(err)
	}
	if rows != 2 {
		t.Fatalf("rows: %d", rows)
	}
}
