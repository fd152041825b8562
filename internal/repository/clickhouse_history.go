package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"SerialScope/internal/domain/models"
	drepo "SerialScope/internal/domain/repository"
	applogger "SerialScope/pkg/logger"
)

// ClickHouseHistory reads archived samples back out for the history
// endpoint. Raw queries return stored rows; 1s/1m timeframes
// downsample by averaging value per ingestion-time bucket, keeping the
// latest device timestamp of the bucket.
type ClickHouseHistory struct {
	db     *sql.DB
	table  string
	logger *applogger.Logger
}

func NewClickHouseHistory(db *sql.DB, table string) *ClickHouseHistory {
	return &ClickHouseHistory{db: db, table: table}
}

// SetLogger injects a structured logger.
func (h *ClickHouseHistory) SetLogger(l *applogger.Logger) { h.logger = l }

func (h *ClickHouseHistory) QuerySamples(ctx context.Context, sig string, from, to time.Time, tf drepo.Timeframe, limit int) ([]models.ArchiveRow, error) {
	start := time.Now()
	var q string
	switch tf {
	case drepo.TF1s, drepo.TF1m:
		interval := "1 second"
		if tf == drepo.TF1m {
			interval = "1 minute"
		}
		q = fmt.Sprintf(`SELECT signal, max(ts) AS ts, avg(value) AS value
			FROM %s
			WHERE signal = ? AND ingested_at >= ? AND ingested_at <= ?
			GROUP BY signal, toStartOfInterval(ingested_at, INTERVAL %s) AS bucket
			ORDER BY bucket
			LIMIT ?`, h.table, interval)
	default:
		q = fmt.Sprintf(`SELECT signal, ts, value FROM %s
			WHERE signal = ? AND ingested_at >= ? AND ingested_at <= ?
			ORDER BY ts
			LIMIT ?`, h.table)
	}

	rows, err := h.db.QueryContext(ctx, q, sig, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("history query: %w", err)
	}
	defer rows.Close()

	var out []models.ArchiveRow
	for rows.Next() {
		var r models.ArchiveRow
		if err := rows.Scan(&r.Signal, &r.Timestamp, &r.Value); err != nil {
			return nil, fmt.Errorf("history scan: %w", err)
		}
		out = append(out, r)
	}
	if h.logger != nil {
		h.logger.Debug("history query",
			applogger.String("signal", sig),
			applogger.Int("rows", len(out)),
			applogger.Duration("took", time.Since(start)),
		)
	}
	return out, rows.Err()
}

var _ drepo.HistoryStore = (*ClickHouseHistory)(nil)
