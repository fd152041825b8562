package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"SerialScope/internal/domain/models"
	drepo "SerialScope/internal/domain/repository"
	"SerialScope/internal/service/metrics"
	"SerialScope/internal/signal"
	"SerialScope/internal/usecase"
	pkgcache "SerialScope/pkg/cache"
	xhttp "SerialScope/pkg/http"
	applogger "SerialScope/pkg/logger"
	"SerialScope/pkg/queue"
	xutil "SerialScope/pkg/util"

	"github.com/labstack/echo/v4"
)

// ScopeEchoHandler exposes the live scope over HTTP: registry listing,
// inclusion toggles, windowed series, window statistics, archive
// history, snapshot export, and the websocket live view.
type ScopeEchoHandler struct {
	logger  *applogger.Logger
	sel     *usecase.RenderSelector
	statsUC *usecase.StatsAggregateUseCase
	histUC  *usecase.HistoryUseCase
	pump    *usecase.StreamPump
	hub     *LiveHub
	cache   pkgcache.Store
	q       queue.QueueService

	defaultWindow float64
}

func NewScopeEchoHandler(
	logger *applogger.Logger,
	sel *usecase.RenderSelector,
	statsUC *usecase.StatsAggregateUseCase,
	pump *usecase.StreamPump,
	hub *LiveHub,
	defaultWindow float64,
) *ScopeEchoHandler {
	metrics.Register()
	return &ScopeEchoHandler{
		logger:        logger,
		sel:           sel,
		statsUC:       statsUC,
		pump:          pump,
		hub:           hub,
		defaultWindow: defaultWindow,
	}
}

// SetCache injects a response cache for the stats endpoint.
func (h *ScopeEchoHandler) SetCache(c pkgcache.Store) { h.cache = c }

// SetHistory enables the archive history endpoint.
func (h *ScopeEchoHandler) SetHistory(uc *usecase.HistoryUseCase) { h.histUC = uc }

// SetQueue enables async snapshot exports.
func (h *ScopeEchoHandler) SetQueue(q queue.QueueService) { h.q = q }

func (h *ScopeEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.GET("/signals", h.Signals)
	g.PUT("/signals/:name", h.ToggleSignal)
	g.GET("/series", h.Series)
	g.GET("/stats", h.Stats)
	g.GET("/history", h.History)
	g.POST("/export", h.Export)
	g.POST("/command", h.Command)
	g.GET("/live", h.Live)
	e.GET("/health", h.Health)
}

func (h *ScopeEchoHandler) Signals(c echo.Context) error {
	return xhttp.ListResponse(c, h.sel.Signals(), int64(len(h.sel.Signals())))
}

func (h *ScopeEchoHandler) ToggleSignal(c echo.Context) error {
	req := &models.ToggleRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	name := c.Param("name")
	if err := h.sel.Toggle(name, *req.Included); err != nil {
		if errors.Is(err, signal.ErrNotFound) {
			return xhttp.NotFoundResponse(c, fmt.Sprintf("signal %q not registered", name))
		}
		h.logger.Error("toggle error", applogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"name":     name,
		"included": *req.Included,
	})
}

type seriesResponse struct {
	Window float64                   `json:"window"`
	Order  []string                  `json:"order"`
	Series map[string]jsonSafeSeries `json:"series"`
}

func (h *ScopeEchoHandler) Series(c echo.Context) error {
	start := time.Now()
	endpoint := "series"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.SeriesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	order, series, err := h.sel.VisibleSeries(req.Window)
	if err != nil {
		if errors.Is(err, models.ErrInvalidWindowSize) {
			return xhttp.BadRequestResponse(c, err.Error())
		}
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("series error", applogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	res := seriesResponse{
		Window: req.Window,
		Order:  order,
		Series: make(map[string]jsonSafeSeries, len(series)),
	}
	for name, s := range series {
		res.Series[name] = toJSONSafe(s)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ScopeEchoHandler) Stats(c echo.Context) error {
	start := time.Now()
	endpoint := "stats"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.StatsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	cacheKey := pkgcache.Key("stats", req.Signal, req.Window)
	if h.cache != nil {
		if cached, ok := h.cache.Get(c.Request().Context(), cacheKey); ok {
			return xhttp.SuccessResponse(c, json.RawMessage(cached))
		}
	}

	res, err := h.statsUC.GetAllStats(c.Request().Context(), req.Window)
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("stats error", applogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	st, ok := res.Stats[req.Signal]
	if !ok {
		return xhttp.NotFoundResponse(c, fmt.Sprintf("signal %q not visible", req.Signal))
	}

	if h.cache != nil {
		if b, err := json.Marshal(st); err == nil {
			h.cache.Set(c.Request().Context(), cacheKey, string(b), 2*time.Second)
		}
	}
	return xhttp.SuccessResponse(c, st)
}

func (h *ScopeEchoHandler) History(c echo.Context) error {
	start := time.Now()
	endpoint := "history"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	if h.histUC == nil {
		return xhttp.NotFoundResponse(c, "archive not configured")
	}
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	now := time.Now()
	p := usecase.GetHistoryParams{
		Signal:    req.Signal,
		From:      xutil.ParseTimeDefault(req.From, now.Add(-time.Hour)),
		To:        xutil.ParseTimeDefault(req.To, now),
		Timeframe: drepo.NormalizeTimeframe(req.TF),
		Limit:     req.Limit,
	}
	res, err := h.histUC.GetHistory(c.Request().Context(), p)
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("history error", applogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ScopeEchoHandler) Export(c echo.Context) error {
	req := &models.ExportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.q == nil {
		return xhttp.NotFoundResponse(c, "export queue not configured")
	}
	if err := h.q.PublishMessage(c.Request().Context(), "export", req); err != nil {
		h.logger.Error("export enqueue error", applogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, map[string]string{"path": req.Path, "status": "queued"})
}

func (h *ScopeEchoHandler) Command(c echo.Context) error {
	var req struct {
		Line string `json:"line" validate:"required"`
	}
	if verr := xhttp.ReadAndValidateRequest(c, &req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.pump == nil {
		return xhttp.NotFoundResponse(c, "no writable transport configured")
	}
	if err := h.pump.Send(req.Line); err != nil {
		h.logger.Warn("command send error", applogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("send: %v", err).WithError(err))
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "sent"})
}

func (h *ScopeEchoHandler) Live(c echo.Context) error {
	h.hub.Serve(c.Response(), c.Request())
	return nil
}

func (h *ScopeEchoHandler) Health(c echo.Context) error {
	running := h.pump != nil && h.pump.IsRunning()
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"pump_running": running,
		"signals":      len(h.sel.Signals()),
	})
}
