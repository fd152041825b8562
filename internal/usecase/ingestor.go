package usecase

import (
	"errors"
	"fmt"
	"math"

	"SerialScope/internal/domain/models"
	drepo "SerialScope/internal/domain/repository"
	"SerialScope/internal/service/decode"
	"SerialScope/internal/signal"
	applogger "SerialScope/pkg/logger"
)

// FrameFunc receives a redraw notification after each ingested line.
type FrameFunc func(models.Frame)

// Ingestor drives one decoded line through registry, store, and sinks.
// It is shared by the polling stream pump and the Kafka line handler
// so both ingress paths have identical semantics. Not safe for
// concurrent callers; exactly one producer drives it at a time.
type Ingestor struct {
	reg        *signal.Registry
	store      *signal.Store
	sink       drepo.RecordSink
	metrics    drepo.Metrics
	logger     *applogger.Logger
	windowSize float64
	onFrame    FrameFunc
}

func NewIngestor(
	reg *signal.Registry,
	store *signal.Store,
	sink drepo.RecordSink,
	metrics drepo.Metrics,
	logger *applogger.Logger,
	windowSize float64,
) *Ingestor {
	return &Ingestor{
		reg:        reg,
		store:      store,
		sink:       sink,
		metrics:    metrics,
		logger:     logger,
		windowSize: windowSize,
	}
}

// SetFrameFunc installs the redraw callback. Must be called before
// ingestion starts.
func (in *Ingestor) SetFrameFunc(f FrameFunc) { in.onFrame = f }

// Registry exposes the registry for read-side collaborators.
func (in *Ingestor) Registry() *signal.Registry { return in.reg }

// Store exposes the store for read-side collaborators.
func (in *Ingestor) Store() *signal.Store { return in.store }

// IngestLine decodes and applies one raw line. A missing timestamp is
// returned to the caller for reporting; the line leaves no trace in
// registry, store, or sinks. All sink failures are recorded and
// logged but never abort ingestion.
func (in *Ingestor) IngestLine(line string) error {
	rec, err := decode.Decode(line)
	if err != nil {
		if errors.Is(err, decode.ErrMissingTimestamp) {
			in.metrics.RecordDecodeError("missing_timestamp")
			return fmt.Errorf("ingest line: %w", err)
		}
		in.metrics.RecordDecodeError("decode")
		return fmt.Errorf("ingest line: %w", err)
	}
	in.metrics.RecordLineDecoded()

	// Register unseen names first so the schema-change notification
	// reaches every sink before any sample from this line is stored.
	anyNew := false
	for _, s := range rec.Samples {
		if _, isNew := in.reg.RegisterIfNew(s.Name); isNew {
			in.store.Register(s.Name)
			in.metrics.RecordSignalRegistered()
			anyNew = true
			in.logger.Info("signal registered", applogger.String("signal", s.Name))
		}
	}
	if anyNew {
		if err := in.sink.OnSchemaChanged(in.headers()); err != nil {
			in.metrics.RecordError("sink_schema")
			in.logger.Warn("sink schema change failed", applogger.Error(err))
		}
	}

	for _, s := range rec.Samples {
		if err := in.store.Append(s.Name, rec.Timestamp, s.Value); err != nil {
			// Unreachable after registration above; fail loudly.
			return fmt.Errorf("append %s: %w", s.Name, err)
		}
		in.metrics.RecordSampleAppended(s.Name)
		if !math.IsNaN(s.Value) {
			in.metrics.RecordLastValue(s.Name, s.Value)
		}
	}
	in.store.CommitLine(rec.Timestamp)

	if err := in.sink.OnLine(rec.Timestamp, in.rowValues(&rec)); err != nil {
		in.metrics.RecordError("sink_line")
		in.logger.Warn("sink line write failed", applogger.Error(err))
	}

	if in.onFrame != nil {
		in.onFrame(models.Frame{
			LatestTime:  rec.Timestamp,
			WindowStart: in.store.WindowStart(in.windowSize),
			LineCount:   in.store.LineCount(),
			SignalCount: in.reg.Len(),
		})
	}
	return nil
}

// headers returns the sink header sequence: Time first, then every
// registered signal in first-appearance order.
func (in *Ingestor) headers() []string {
	names := in.reg.Names()
	headers := make([]string, 0, len(names)+1)
	headers = append(headers, models.TimeKey)
	return append(headers, names...)
}

// rowValues orders the line's samples to match the current header
// sequence (minus the leading Time column). Signals absent from this
// line are NaN; the sinks decide how to render the gap.
func (in *Ingestor) rowValues(rec *models.Record) []float64 {
	names := in.reg.Names()
	values := make([]float64, len(names))
	for i, name := range names {
		if v, ok := rec.Value(name); ok {
			values[i] = v
		} else {
			values[i] = math.NaN()
		}
	}
	return values
}
