package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"SerialScope/internal/domain/models"
	drepo "SerialScope/internal/domain/repository"
)

// ClickHouseArchive implements the long-term sample archive. Each
// decoded line fans out to one row per non-NaN signal value.
type ClickHouseArchive struct {
	db    *sql.DB
	table string
}

func NewClickHouseArchive(db *sql.DB, table string) drepo.SampleArchive {
	return &ClickHouseArchive{db: db, table: table}
}

func (a *ClickHouseArchive) Init(ctx context.Context) error {
	return nil // Schema init in pkg/clickhouse via DI
}

func (a *ClickHouseArchive) StoreBatch(ctx context.Context, rows []models.ArchiveRow) error {
	if len(rows) == 0 {
		return nil
	}
	// Multi-row VALUES insert to reduce round-trips. Chunked so one
	// giant batch cannot exceed query size limits.
	const chunkSize = 2000
	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*3)
		for _, r := range rows[start:end] {
			if r.Signal == "" || math.IsNaN(r.Value) {
				continue
			}
			values = append(values, "(?, ?, ?)")
			args = append(args, r.Signal, r.Timestamp, r.Value)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (signal, ts, value) VALUES %s", a.table, strings.Join(values, ","))
		if _, err := a.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("archive insert: %w", err)
		}
	}
	return nil
}

func (a *ClickHouseArchive) Health(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *ClickHouseArchive) Close() error {
	return nil // Connection pool managed by pkg/clickhouse
}

// ArchiveSink adapts the archive to the RecordSink contract: it tracks
// the header set, expands each line into per-signal rows, and batches
// inserts. Rows are flushed when the batch fills or the batch timeout
// elapses since the first buffered row.
type ArchiveSink struct {
	archive   drepo.SampleArchive
	batchSize int
	batchTO   time.Duration

	mu       sync.Mutex
	signals  []string
	batch    []models.ArchiveRow
	firstBuf time.Time
}

func NewArchiveSink(archive drepo.SampleArchive, batchSize int, batchTimeout time.Duration) drepo.RecordSink {
	if batchSize <= 0 {
		batchSize = 500
	}
	if batchTimeout <= 0 {
		batchTimeout = 2 * time.Second
	}
	return &ArchiveSink{archive: archive, batchSize: batchSize, batchTO: batchTimeout}
}

func (s *ArchiveSink) OnSchemaChanged(headers []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(headers) > 1 {
		s.signals = append([]string(nil), headers[1:]...)
	}
	return nil
}

func (s *ArchiveSink) OnLine(ts float64, values []float64) error {
	s.mu.Lock()
	if len(s.batch) == 0 {
		s.firstBuf = time.Now()
	}
	for i, v := range values {
		if i >= len(s.signals) || math.IsNaN(v) {
			continue
		}
		s.batch = append(s.batch, models.ArchiveRow{Signal: s.signals[i], Timestamp: ts, Value: v})
	}
	flush := len(s.batch) >= s.batchSize || (len(s.batch) > 0 && time.Since(s.firstBuf) >= s.batchTO)
	var out []models.ArchiveRow
	if flush {
		out = s.batch
		s.batch = nil
	}
	s.mu.Unlock()

	if !flush {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.archive.StoreBatch(ctx, out)
}

func (s *ArchiveSink) Close() error {
	s.mu.Lock()
	out := s.batch
	s.batch = nil
	s.mu.Unlock()
	if len(out) == 0 {
		return s.archive.Close()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.archive.StoreBatch(ctx, out); err != nil {
		return err
	}
	return s.archive.Close()
}
