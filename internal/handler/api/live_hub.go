package api

import (
	"encoding/json"
	"math"
	"net/http"
	"sync"
	"time"

	"SerialScope/internal/domain/models"
	"SerialScope/internal/service/metrics"
	"SerialScope/internal/service/ratelimit"
	"SerialScope/internal/usecase"
	applogger "SerialScope/pkg/logger"

	"github.com/gorilla/websocket"
)

// livePayload is one websocket redraw message: the current frame plus
// the visible windowed series in registry order. NaN values are
// shipped as nulls since JSON cannot carry NaN.
type livePayload struct {
	Frame  models.Frame              `json:"frame"`
	Order  []string                  `json:"order"`
	Series map[string]jsonSafeSeries `json:"series"`
}

type jsonSafeSeries struct {
	Timestamps []float64  `json:"timestamps"`
	Values     []*float64 `json:"values"`
}

// LiveHub pushes redraw payloads to connected websocket clients. The
// pump marks the hub dirty on every ingested line; an independent
// redraw ticker coalesces bursts into at most one broadcast per tick,
// so rendering stays decoupled from ingestion rate.
type LiveHub struct {
	sel            *usecase.RenderSelector
	logger         *applogger.Logger
	windowSize     float64
	redrawInterval time.Duration
	rl             *ratelimit.Limiter

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	dirty   bool
	frame   models.Frame
	stopCh  chan struct{}
	started bool
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 8192,
	CheckOrigin:     func(*http.Request) bool { return true },
}

func NewLiveHub(sel *usecase.RenderSelector, logger *applogger.Logger, windowSize float64, redrawInterval time.Duration) *LiveHub {
	if redrawInterval <= 0 {
		redrawInterval = 100 * time.Millisecond
	}
	return &LiveHub{
		sel:            sel,
		logger:         logger,
		windowSize:     windowSize,
		redrawInterval: redrawInterval,
		rl:             ratelimit.New(),
		clients:        make(map[*websocket.Conn]struct{}),
	}
}

// OnFrame is the pump's redraw callback. It only marks state; the
// broadcast happens on the hub's own tick.
func (h *LiveHub) OnFrame(f models.Frame) {
	h.mu.Lock()
	h.dirty = true
	h.frame = f
	h.mu.Unlock()
}

// Start launches the redraw loop. The stop channel is remade here so
// a Start after Stop resumes broadcasting.
func (h *LiveHub) Start() {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return
	}
	h.started = true
	h.stopCh = make(chan struct{})
	stop := h.stopCh
	h.mu.Unlock()

	go func() {
		ticker := time.NewTicker(h.redrawInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				h.redraw()
			}
		}
	}()
}

// Stop halts the redraw loop and disconnects all clients.
func (h *LiveHub) Stop() {
	h.mu.Lock()
	if !h.started {
		h.mu.Unlock()
		return
	}
	h.started = false
	clients := h.clients
	h.clients = make(map[*websocket.Conn]struct{})
	h.mu.Unlock()

	close(h.stopCh)
	for c := range clients {
		_ = c.Close()
	}
	metrics.LiveClients.Set(0)
}

func (h *LiveHub) redraw() {
	h.mu.Lock()
	if !h.dirty || len(h.clients) == 0 {
		h.mu.Unlock()
		return
	}
	h.dirty = false
	frame := h.frame
	h.mu.Unlock()

	// An invalid window skips this tick; clients keep their previous
	// frame.
	order, series, err := h.sel.VisibleSeries(h.windowSize)
	if err != nil {
		h.logger.Warn("live redraw skipped", applogger.Error(err))
		return
	}

	payload := livePayload{
		Frame:  frame,
		Order:  order,
		Series: make(map[string]jsonSafeSeries, len(series)),
	}
	for name, s := range series {
		payload.Series[name] = toJSONSafe(s)
	}
	b, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("live payload marshal failed", applogger.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			delete(h.clients, c)
			_ = c.Close()
			metrics.LiveClients.Dec()
		}
	}
}

// Serve upgrades the request and registers the client. One connection
// attempt per second per remote address.
func (h *LiveHub) Serve(w http.ResponseWriter, r *http.Request) {
	if !h.rl.Allow(r.RemoteAddr+":live", 3, 1) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("live upgrade failed", applogger.Error(err))
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
	metrics.LiveClients.Inc()
	h.logger.Info("live client connected", applogger.String("remote", r.RemoteAddr))

	// Drain (and discard) client frames to observe disconnects.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.mu.Lock()
				if _, ok := h.clients[conn]; ok {
					delete(h.clients, conn)
					metrics.LiveClients.Dec()
				}
				h.mu.Unlock()
				_ = conn.Close()
				return
			}
		}
	}()
}

func toJSONSafe(s models.Series) jsonSafeSeries {
	out := jsonSafeSeries{
		Timestamps: s.Timestamps,
		Values:     make([]*float64, len(s.Values)),
	}
	for i := range s.Values {
		if math.IsNaN(s.Values[i]) {
			continue
		}
		v := s.Values[i]
		out.Values[i] = &v
	}
	return out
}
