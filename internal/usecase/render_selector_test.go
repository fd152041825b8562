package usecase

import (
	"errors"
	"testing"

	"SerialScope/internal/domain/models"
	"SerialScope/internal/signal"
)

func seededSelector(t *testing.T) (*RenderSelector, *Ingestor) {
	t.Helper()
	ing := newTestIngestor(t, &recordingSink{})
	for _, line := range []string{
		"Time:0,A:1,B:10",
		"Time:1,A:2,B:20",
		"Time:2,A:3,B:30",
	} {
		if err := ing.IngestLine(line); err != nil {
			t.Fatal(err)
		}
	}
	return NewRenderSelector(ing.Registry(), ing.Store()), ing
}

func TestVisibleSeriesAllIncluded(t *testing.T) {
	sel, _ := seededSelector(t)

	order, series, err := sel.VisibleSeries(30)
	if err != nil {
		t.Fatal(err)
	}
	if len(order) != 2 || order[0] != "A" || order[1] != "B" {
		t.Fatalf("order: %v", order)
	}
	if series["A"].Len() != 3 || series["B"].Len() != 3 {
		t.Fatalf("series lengths: A=%d B=%d", series["A"].Len(), series["B"].Len())
	}
}

func TestToggleExcludeAndReinclude(t *testing.T) {
	sel, _ := seededSelector(t)

	if err := sel.Toggle("B", false); err != nil {
		t.Fatal(err)
	}
	order, series, err := sel.VisibleSeries(30)
	if err != nil {
		t.Fatal(err)
	}
	if len(order) != 1 || order[0] != "A" {
		t.Fatalf("order after exclude: %v", order)
	}
	if _, ok := series["B"]; ok {
		t.Fatal("excluded signal must not appear")
	}

	// Re-inclusion restores full history: samples kept arriving-while-
	// hidden semantics are covered by the store, the view only filters.
	if err := sel.Toggle("B", true); err != nil {
		t.Fatal(err)
	}
	order, series, err = sel.VisibleSeries(30)
	if err != nil {
		t.Fatal(err)
	}
	if len(order) != 2 || series["B"].Len() != 3 {
		t.Fatalf("after re-include: order=%v lenB=%d", order, series["B"].Len())
	}
}

func TestToggleUnknownSignal(t *testing.T) {
	sel, _ := seededSelector(t)
	err := sel.Toggle("ghost", false)
	if !errors.Is(err, signal.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestVisibleSeriesInvalidWindow(t *testing.T) {
	sel, _ := seededSelector(t)
	for _, w := range []float64{0, -1} {
		if _, _, err := sel.VisibleSeries(w); !errors.Is(err, models.ErrInvalidWindowSize) {
			t.Fatalf("window %v: expected ErrInvalidWindowSize, got %v", w, err)
		}
	}
}

func TestVisibleSeriesEmptyStore(t *testing.T) {
	ing := newTestIngestor(t, &recordingSink{})
	sel := NewRenderSelector(ing.Registry(), ing.Store())

	order, series, err := sel.VisibleSeries(30)
	if err != nil {
		t.Fatal(err)
	}
	if len(order) != 0 || len(series) != 0 {
		t.Fatalf("expected empty frame, got %v %v", order, series)
	}
}

func TestVisibleSeriesWindowCut(t *testing.T) {
	sel, _ := seededSelector(t)

	// Latest is 2; a 1-unit window keeps timestamps >= 1.
	_, series, err := sel.VisibleSeries(1)
	if err != nil {
		t.Fatal(err)
	}
	if got := series["A"].Len(); got != 2 {
		t.Fatalf("windowed length: %d", got)
	}
	if series["A"].Timestamps[0] != 1 {
		t.Fatalf("window start: %v", series["A"].Timestamps[0])
	}
}

func TestReadIsIdempotent(t *testing.T) {
	sel, _ := seededSelector(t)
	for i := 0; i < 3; i++ {
		_, series, err := sel.VisibleSeries(30)
		if err != nil {
			t.Fatal(err)
		}
		if series["A"].Len() != 3 {
			t.Fatalf("read %d changed state: %d", i, series["A"].Len())
		}
	}
}

func TestSignalsListing(t *testing.T) {
	sel, _ := seededSelector(t)
	_ = sel.Toggle("B", false)

	infos := sel.Signals()
	if len(infos) != 2 {
		t.Fatalf("infos: %+v", infos)
	}
	if infos[0].Name != "A" || infos[0].Index != 0 || !infos[0].Included {
		t.Fatalf("info A: %+v", infos[0])
	}
	if infos[1].Name != "B" || infos[1].Included {
		t.Fatalf("info B: %+v", infos[1])
	}
	if infos[1].Count != 3 || infos[1].Last != 30 {
		t.Fatalf("info B counters: %+v", infos[1])
	}
}
