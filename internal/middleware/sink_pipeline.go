package middleware

import (
	"sync"
	"time"

	drepo "SerialScope/internal/domain/repository"
)

// row is one buffered line for the async sinks.
type row struct {
	ts     float64
	values []float64
}

// SinkPipeline fans one decoded line out to every persistence sink.
// Synchronous sinks (the CSV file) are written on the producer's tick;
// a slow sync sink backpressures the pump, which is acceptable since
// the transport buffers. Asynchronous sinks (Kafka, the archive) go
// through a bounded buffer with retry backoff, dropping on overflow.
//
// Schema changes are always delivered synchronously to every sink, in
// registration order, before any row carrying the new column.
type SinkPipeline struct {
	sync    []drepo.RecordSink
	async   []drepo.RecordSink
	metrics drepo.Metrics

	bufSize int
	bufCh   chan row
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex
}

type PipelineOption func(*SinkPipeline)

// WithBufferSize sets the buffer for async sinks.
func WithBufferSize(n int) PipelineOption {
	return func(p *SinkPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithSyncSink appends a sink written on the producer's tick.
func WithSyncSink(s drepo.RecordSink) PipelineOption {
	return func(p *SinkPipeline) {
		if s != nil {
			p.sync = append(p.sync, s)
		}
	}
}

// WithAsyncSink appends a buffered sink.
func WithAsyncSink(s drepo.RecordSink) PipelineOption {
	return func(p *SinkPipeline) {
		if s != nil {
			p.async = append(p.async, s)
		}
	}
}

func NewSinkPipeline(metrics drepo.Metrics, opts ...PipelineOption) *SinkPipeline {
	p := &SinkPipeline{
		metrics: metrics,
		bufSize: 1000,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan row, p.bufSize)
	return p
}

// Start launches background flushing for the async sinks. The stop
// channel is remade here so a Start after Stop resumes flushing.
func (p *SinkPipeline) Start() {
	p.mu.Lock()
	if p.started || len(p.async) == 0 {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.stopCh = make(chan struct{})
	stop := p.stopCh
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-stop:
				return
			case r := <-p.bufCh:
				failed := false
				for _, s := range p.async {
					if err := s.OnLine(r.ts, r.values); err != nil {
						failed = true
						p.metrics.RecordError("pipeline_flush")
					}
				}
				if failed {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					time.Sleep(backoff)
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops background flushing. Safe to call repeatedly.
func (p *SinkPipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	p.started = false
	close(p.stopCh)
}

// OnSchemaChanged notifies every sink. The first sync failure is
// returned so the pump can report it; async sink failures are counted
// but a header miss there must not block the CSV header rewrite.
func (p *SinkPipeline) OnSchemaChanged(headers []string) error {
	var firstErr error
	for _, s := range p.sync {
		if err := s.OnSchemaChanged(headers); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, s := range p.async {
		if err := s.OnSchemaChanged(headers); err != nil {
			p.metrics.RecordError("pipeline_schema_async")
		}
	}
	return firstErr
}

// OnLine writes sync sinks inline and enqueues for the async sinks.
func (p *SinkPipeline) OnLine(ts float64, values []float64) error {
	var firstErr error
	for _, s := range p.sync {
		if err := s.OnLine(ts, values); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if len(p.async) > 0 {
		vals := make([]float64, len(values))
		copy(vals, values)
		select {
		case p.bufCh <- row{ts: ts, values: vals}:
		default:
			p.metrics.RecordError("pipeline_buffer_drop")
		}
	}
	return firstErr
}

// Close stops flushing and closes every sink.
func (p *SinkPipeline) Close() error {
	p.Stop()
	var firstErr error
	for _, s := range append(append([]drepo.RecordSink{}, p.sync...), p.async...) {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ drepo.RecordSink = (*SinkPipeline)(nil)
