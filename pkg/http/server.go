package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"SerialScope/pkg/http/middleware"
	applogger "SerialScope/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler registers routes on the echo instance.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type Option func(*Options)

// WithPort sets the listen port.
func WithPort(port int) Option {
	return func(o *Options) {
		o.Port = port
	}
}

// WithTimeouts sets read/write/shutdown timeouts.
func WithTimeouts(read, write, shutdown time.Duration) Option {
	return func(o *Options) {
		o.ReadTimeout = read
		o.WriteTimeout = write
		o.ShutdownTimeout = shutdown
	}
}

// Server wraps echo with the middleware stack and the prometheus
// scrape endpoint. The live-view UI is served from another origin
// during development, so CORS stays permissive.
type Server struct {
	echo   *echo.Echo
	opts   Options
	logger *applogger.Logger
}

func NewServer(handler Handler, logger *applogger.Logger, opts ...Option) *Server {
	o := Options{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = o.ReadTimeout
	e.Server.WriteTimeout = o.WriteTimeout

	e.Use(middleware.Recover(logger))
	e.Use(middleware.Metrics())
	e.Use(middleware.RequestLog(logger))
	e.Use(middleware.CORS())

	if handler != nil {
		handler.RegisterRoutes(e)
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return &Server{echo: e, opts: o, logger: logger}
}

// Start begins listening in the background; startup failures surface
// through the logger, not the return value.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	go func() {
		s.logger.Info("http server listening", applogger.String("addr", addr))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server", applogger.Error(err))
		}
	}()
	return nil
}

// Stop drains in-flight requests within the context deadline.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (s *Server) Echo() *echo.Echo {
	return s.echo
}
