package repository

import (
	"context"
)

// LineTransport is a serial-like source of text lines. The engine only
// depends on "lines of text arrive"; serial ports, TCP bridges,
// websockets, and test fakes all satisfy it.
type LineTransport interface {
	Open(ctx context.Context) error
	IsLineAvailable() bool
	ReadLine() (string, error)
	WriteLine(s string) error
	Reconnect(ctx context.Context) error
	Close() error
	IsOpen() bool
}

// RecordSink consumes the full per-line sample set. OnSchemaChanged is
// delivered before any row carrying the new column.
type RecordSink interface {
	OnSchemaChanged(headers []string) error
	OnLine(ts float64, values []float64) error
	Close() error
}

// Metrics abstracts ingestion metrics recording.
type Metrics interface {
	RecordLineDecoded()
	RecordDecodeError(kind string)
	RecordSignalRegistered()
	RecordSampleAppended(signal string)
	RecordLastValue(signal string, v float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
