package repository

import (
	"context"
	"time"

	"SerialScope/internal/domain/models"
)

// Timeframe is the downsampling resolution for archive queries.
type Timeframe string

const (
	TFRaw Timeframe = "raw"
	TF1s  Timeframe = "1s"
	TF1m  Timeframe = "1m"
)

// NormalizeTimeframe maps arbitrary input to a supported timeframe.
func NormalizeTimeframe(s string) Timeframe {
	switch Timeframe(s) {
	case TF1s:
		return TF1s
	case TF1m:
		return TF1m
	default:
		return TFRaw
	}
}

// HistoryStore provides read access to archived samples beyond the
// in-memory session window.
type HistoryStore interface {
	QuerySamples(ctx context.Context, signal string, from, to time.Time, tf Timeframe, limit int) ([]models.ArchiveRow, error)
}

// SampleArchive is the write side of the long-term sample archive.
type SampleArchive interface {
	Init(ctx context.Context) error
	StoreBatch(ctx context.Context, rows []models.ArchiveRow) error
	Health(ctx context.Context) error
	Close() error
}
