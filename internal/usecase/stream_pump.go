package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	drepo "SerialScope/internal/domain/repository"
	"SerialScope/internal/service/decode"
	applogger "SerialScope/pkg/logger"
)

// StreamPump polls the line transport and feeds the ingestor. It is a
// two-state machine, Idle and Running; Shutdown returns it to Idle and
// the transport may be reopened by a later Start.
//
// The loop is cooperative: each tick checks line availability and
// processes at most one line, so a slow sink only delays future reads
// (the transport buffers) and the read side stays responsive.
type StreamPump struct {
	transport    drepo.LineTransport
	ing          *Ingestor
	metrics      drepo.Metrics
	logger       *applogger.Logger
	pollInterval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewStreamPump(
	transport drepo.LineTransport,
	ing *Ingestor,
	metrics drepo.Metrics,
	logger *applogger.Logger,
	pollInterval time.Duration,
) *StreamPump {
	if pollInterval <= 0 {
		pollInterval = 10 * time.Millisecond
	}
	return &StreamPump{
		transport:    transport,
		ing:          ing,
		metrics:      metrics,
		logger:       logger,
		pollInterval: pollInterval,
	}
}

// IsRunning reports whether the polling loop is active.
func (p *StreamPump) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Start opens the transport and launches the polling loop.
func (p *StreamPump) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("stream pump already running")
	}
	if err := p.transport.Open(ctx); err != nil {
		p.mu.Unlock()
		return fmt.Errorf("open transport: %w", err)
	}
	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.mu.Unlock()

	go p.loop(loopCtx)
	return nil
}

func (p *StreamPump) loop(ctx context.Context) {
	defer close(p.done)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick processes at most one line.
func (p *StreamPump) tick(ctx context.Context) {
	if !p.transport.IsLineAvailable() {
		return
	}
	line, err := p.transport.ReadLine()
	if err != nil {
		p.metrics.RecordError("transport_read")
		p.logger.Warn("transport read failed", applogger.Error(err))
		if rerr := p.transport.Reconnect(ctx); rerr != nil {
			p.logger.Error("transport reconnect failed", applogger.Error(rerr))
		}
		return
	}

	start := time.Now()
	if err := p.ing.IngestLine(line); err != nil {
		// A malformed line is a reported, recoverable event. The pump
		// stays Running.
		if errors.Is(err, decode.ErrMissingTimestamp) {
			p.logger.Warn("line dropped", applogger.Error(err))
			return
		}
		p.metrics.RecordError("ingest")
		p.logger.Error("ingest failed", applogger.Error(err))
		return
	}
	p.metrics.RecordLatency("ingest_line", time.Since(start).Seconds())
}

// Send writes one outbound command line to the transport.
func (p *StreamPump) Send(line string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return fmt.Errorf("stream pump not running")
	}
	return p.transport.WriteLine(line)
}

// Shutdown stops the polling loop and closes the transport. No new
// ticks are scheduled once it returns; the pump is back in Idle and
// restartable.
func (p *StreamPump) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	cancel := p.cancel
	done := p.done
	p.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return p.transport.Close()
}
