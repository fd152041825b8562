package usecase

import (
	"context"
	"testing"
	"time"
)

func newTestPump(t *testing.T, tr *fakeTransport) (*StreamPump, *Ingestor) {
	t.Helper()
	ing := newTestIngestor(t, &recordingSink{})
	return NewStreamPump(tr, ing, nopMetrics{}, testLogger(t), time.Millisecond), ing
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestPumpIngestsQueuedLines(t *testing.T) {
	tr := &fakeTransport{lines: []string{
		"Time:0,A:1",
		"Time:1,A:2,B:5",
		"Time:2,B:6",
	}}
	pump, ing := newTestPump(t, tr)

	if err := pump.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !pump.IsRunning() {
		t.Fatal("pump should be running")
	}

	waitFor(t, func() bool { return ing.Store().LineCount() == 3 })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := pump.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}
	if pump.IsRunning() {
		t.Fatal("pump should be idle after shutdown")
	}
	if tr.IsOpen() {
		t.Fatal("transport should be closed after shutdown")
	}
}

func TestPumpSurvivesMalformedLine(t *testing.T) {
	tr := &fakeTransport{lines: []string{
		"Time:0,A:1",
		"A:2,B:3", // no Time field; dropped, stream continues
		"Time:1,A:4",
	}}
	pump, ing := newTestPump(t, tr)

	if err := pump.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = pump.Shutdown(ctx)
	}()

	waitFor(t, func() bool { return ing.Store().LineCount() == 2 })

	if !pump.IsRunning() {
		t.Fatal("pump must stay running after a dropped line")
	}
	a, _ := ing.Store().Series("A")
	if a.Len() != 2 || a.Values[1] != 4 {
		t.Fatalf("series A: %+v", a)
	}
}

func TestPumpDoubleStart(t *testing.T) {
	tr := &fakeTransport{}
	pump, _ := newTestPump(t, tr)

	if err := pump.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := pump.Start(context.Background()); err == nil {
		t.Fatal("second Start must fail while running")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := pump.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestPumpRestartable(t *testing.T) {
	tr := &fakeTransport{lines: []string{"Time:0,A:1"}}
	pump, ing := newTestPump(t, tr)

	if err := pump.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return ing.Store().LineCount() == 1 })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := pump.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}

	// Idle -> Running again; previously stored samples are retained.
	tr.mu.Lock()
	tr.lines = append(tr.lines, "Time:1,A:2")
	tr.mu.Unlock()
	if err := pump.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return ing.Store().LineCount() == 2 })

	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	if err := pump.Shutdown(ctx2); err != nil {
		t.Fatal(err)
	}
}

func TestSendRequiresRunning(t *testing.T) {
	tr := &fakeTransport{}
	pump, _ := newTestPump(t, tr)

	if err := pump.Send("reset"); err == nil {
		t.Fatal("Send on idle pump must fail")
	}

	if err := pump.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := pump.Send("reset"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = pump.Shutdown(ctx)

	tr.mu.Lock()
	defer tr.mu.Unlock()
	if len(tr.writes) != 1 || tr.writes[0] != "reset" {
		t.Fatalf("writes: %v", tr.writes)
	}
}
