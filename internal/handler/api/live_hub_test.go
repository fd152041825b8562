package api

import (
	"testing"
	"time"

	"SerialScope/internal/domain/models"
	"SerialScope/internal/signal"
	"SerialScope/internal/usecase"
	applogger "SerialScope/pkg/logger"
)

func newTestHub(t *testing.T) *LiveHub {
	t.Helper()
	logger, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatal(err)
	}
	sel := usecase.NewRenderSelector(signal.NewRegistry(), signal.NewStore())
	return NewLiveHub(sel, logger, 30, 10*time.Millisecond)
}

func TestHubRestartAfterStop(t *testing.T) {
	h := newTestHub(t)

	h.Start()
	h.Stop()
	h.Stop() // repeated Stop must not panic

	h.Start()
	defer h.Stop()

	// The restarted redraw loop must pick up new frames without fault.
	h.OnFrame(models.Frame{LatestTime: 1, LineCount: 1})
	time.Sleep(50 * time.Millisecond)
}

func TestHubStartIsIdempotent(t *testing.T) {
	h := newTestHub(t)
	h.Start()
	h.Start()
	h.Stop()
}
