package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"SerialScope/internal/handler/api"
	mid "SerialScope/internal/middleware"
	"SerialScope/internal/usecase"
	pkgch "SerialScope/pkg/clickhouse"
	"SerialScope/pkg/config"
	xhttp "SerialScope/pkg/http"
	pkgkafka "SerialScope/pkg/kafka"
	applogger "SerialScope/pkg/logger"
	"SerialScope/pkg/queue"
)

// App encapsulates the entire application lifecycle: the stream pump
// (or the kafka ingress when lines arrive from a broker), the live
// websocket hub, the sink pipeline, and the HTTP surface.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	pump        *usecase.StreamPump
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	hub         *api.LiveHub
	pipeline    *mid.SinkPipeline
	jobQueue    *queue.RedisQueue
	chClient    *pkgch.Client
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with the core dependencies. Optional
// pieces (kafka ingress, job queue, clickhouse) are injected via setters.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	pump *usecase.StreamPump,
	hub *api.LiveHub,
	pipeline *mid.SinkPipeline,
) *App {
	return &App{
		cfg:      cfg,
		logger:   logger,
		pump:     pump,
		hub:      hub,
		pipeline: pipeline,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// SetKafkaIngress wires a kafka consumer as the line source instead of
// a polled transport.
func (a *App) SetKafkaIngress(consumer *pkgkafka.Consumer, kh pkgkafka.MessageHandler) {
	a.consumer = consumer
	a.kh = kh
}

// SetJobQueue wires the redis-backed export job queue.
func (a *App) SetJobQueue(q *queue.RedisQueue) { a.jobQueue = q }

// SetClickHouse registers the archive client for shutdown.
func (a *App) SetClickHouse(c *pkgch.Client) { a.chClient = c }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.logger

	a.httpServer = xhttp.NewServer(a.httpHandler, a.logger,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if a.pipeline != nil {
		a.pipeline.Start()
	}

	a.hub.Start()

	// Line source: either the polled transport pump or the kafka ingress.
	if a.pump != nil {
		if err := a.pump.Start(ctx); err != nil {
			l.Error("pump start error", applogger.Error(err))
			return err
		}
		l.Info("stream pump started", applogger.String("transport", a.cfg.Transport.Type))
	} else if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka ingress started", applogger.String("topic", a.kh.Topic()))
	}

	if a.jobQueue != nil {
		if err := a.jobQueue.Start(); err != nil {
			l.Warn("job queue start error", applogger.Error(err))
		}
	}

	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown stops services in reverse dependency order: line sources
// first so no new samples arrive, then the render/HTTP surfaces, then
// the sinks so buffered rows flush, then the infrastructure clients.
func (a *App) shutdown(ctx context.Context) error {
	l := a.logger

	if a.pump != nil {
		if err := a.pump.Shutdown(ctx); err != nil {
			l.Warn("pump stop error", applogger.Error(err))
		}
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	a.hub.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	if a.pipeline != nil {
		if err := a.pipeline.Close(); err != nil {
			l.Warn("sink pipeline close error", applogger.Error(err))
		}
	}

	if a.jobQueue != nil {
		if err := a.jobQueue.Stop(shutdownCtx); err != nil {
			l.Warn("job queue stop error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
