package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"SerialScope/internal/domain/models"
	"SerialScope/internal/service/decode"
	"SerialScope/internal/signal"
	applogger "SerialScope/pkg/logger"
)

// --- test fakes ---

type nopMetrics struct{}

func (nopMetrics) RecordLineDecoded()              {}
func (nopMetrics) RecordDecodeError(string)        {}
func (nopMetrics) RecordSignalRegistered()         {}
func (nopMetrics) RecordSampleAppended(string)     {}
func (nopMetrics) RecordLastValue(string, float64) {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordLatency(string, float64)   {}

type sinkCall struct {
	ts     float64
	values []float64
}

type recordingSink struct {
	mu      sync.Mutex
	schemas [][]string
	lines   []sinkCall
	events  []string // interleaving order: "schema" / "line"
}

func (s *recordingSink) OnSchemaChanged(headers []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := make([]string, len(headers))
	copy(h, headers)
	s.schemas = append(s.schemas, h)
	s.events = append(s.events, "schema")
	return nil
}

func (s *recordingSink) OnLine(ts float64, values []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]float64, len(values))
	copy(v, values)
	s.lines = append(s.lines, sinkCall{ts: ts, values: v})
	s.events = append(s.events, "line")
	return nil
}

func (s *recordingSink) Close() error { return nil }

type fakeTransport struct {
	mu     sync.Mutex
	lines  []string
	writes []string
	open   bool
}

func (t *fakeTransport) Open(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.open = true
	return nil
}

func (t *fakeTransport) IsLineAvailable() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.lines) > 0
}

func (t *fakeTransport) ReadLine() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.lines) == 0 {
		return "", errors.New("no line")
	}
	line := t.lines[0]
	t.lines = t.lines[1:]
	return line, nil
}

func (t *fakeTransport) WriteLine(s string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writes = append(t.writes, s)
	return nil
}

func (t *fakeTransport) Reconnect(context.Context) error { return nil }

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.open = false
	return nil
}

func (t *fakeTransport) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open
}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func newTestIngestor(t *testing.T, sink *recordingSink) *Ingestor {
	t.Helper()
	return NewIngestor(signal.NewRegistry(), signal.NewStore(), sink, nopMetrics{}, testLogger(t), 30)
}

// --- tests ---

func TestIngestThreeLineScenario(t *testing.T) {
	sink := &recordingSink{}
	ing := newTestIngestor(t, sink)

	var frames []models.Frame
	ing.SetFrameFunc(func(f models.Frame) { frames = append(frames, f) })

	for _, line := range []string{
		"Time:0,A:1",
		"Time:1,A:2,B:5",
		"Time:2,B:6",
	} {
		if err := ing.IngestLine(line); err != nil {
			t.Fatalf("ingest %q: %v", line, err)
		}
	}

	// Registration order follows first appearance.
	names := ing.Registry().Names()
	if len(names) != 2 || names[0] != "A" || names[1] != "B" {
		t.Fatalf("names: %v", names)
	}

	a, _ := ing.Store().Series("A")
	if a.Len() != 2 || a.Timestamps[1] != 1 || a.Values[1] != 2 {
		t.Fatalf("series A: %+v", a)
	}
	b, _ := ing.Store().Series("B")
	if b.Len() != 2 || b.Timestamps[0] != 1 || b.Values[0] != 5 {
		t.Fatalf("series B: %+v", b)
	}

	// Two schema notifications, widening the header each time.
	if len(sink.schemas) != 2 {
		t.Fatalf("schema calls: %d", len(sink.schemas))
	}
	if got := sink.schemas[0]; len(got) != 2 || got[0] != "Time" || got[1] != "A" {
		t.Fatalf("first schema: %v", got)
	}
	if got := sink.schemas[1]; len(got) != 3 || got[2] != "B" {
		t.Fatalf("second schema: %v", got)
	}

	// Third line: A was absent, so its cell is NaN.
	last := sink.lines[2]
	if last.ts != 2 || !math.IsNaN(last.values[0]) || last.values[1] != 6 {
		t.Fatalf("third row: %+v", last)
	}

	if len(frames) != 3 || frames[2].LineCount != 3 || frames[2].SignalCount != 2 {
		t.Fatalf("frames: %+v", frames)
	}
}

func TestSchemaChangeDeliveredBeforeRow(t *testing.T) {
	sink := &recordingSink{}
	ing := newTestIngestor(t, sink)

	if err := ing.IngestLine("Time:0,A:1"); err != nil {
		t.Fatal(err)
	}
	if err := ing.IngestLine("Time:1,B:2"); err != nil {
		t.Fatal(err)
	}

	want := []string{"schema", "line", "schema", "line"}
	if len(sink.events) != len(want) {
		t.Fatalf("events: %v", sink.events)
	}
	for i := range want {
		if sink.events[i] != want[i] {
			t.Fatalf("events: %v", sink.events)
		}
	}
}

func TestIngestMissingTimestampLeavesNoTrace(t *testing.T) {
	sink := &recordingSink{}
	ing := newTestIngestor(t, sink)

	err := ing.IngestLine("A:1,B:2")
	if !errors.Is(err, decode.ErrMissingTimestamp) {
		t.Fatalf("expected ErrMissingTimestamp, got %v", err)
	}
	if ing.Registry().Len() != 0 {
		t.Fatal("dropped line must not register signals")
	}
	if ing.Store().LineCount() != 0 {
		t.Fatal("dropped line must not commit to the time index")
	}
	if len(sink.lines) != 0 || len(sink.schemas) != 0 {
		t.Fatal("dropped line must not reach the sinks")
	}
}

func TestIngestNaNValueStored(t *testing.T) {
	sink := &recordingSink{}
	ing := newTestIngestor(t, sink)

	if err := ing.IngestLine("Time:0,A:garbage"); err != nil {
		t.Fatal(err)
	}
	a, _ := ing.Store().Series("A")
	if a.Len() != 1 || !math.IsNaN(a.Values[0]) {
		t.Fatalf("series A: %+v", a)
	}
}
