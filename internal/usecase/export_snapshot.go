package usecase

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"SerialScope/internal/domain/models"
	"SerialScope/internal/signal"
	applogger "SerialScope/pkg/logger"
	"SerialScope/pkg/queue"
)

// ExportUseCase writes a point-in-time snapshot of stored samples to a
// CSV file in long format (signal, timestamp, value), one row per
// sample. window == 0 exports the full session; window > 0 exports
// the trailing window only. NaN values export as empty cells.
type ExportUseCase struct {
	reg   *signal.Registry
	store *signal.Store
}

func NewExportUseCase(reg *signal.Registry, store *signal.Store) *ExportUseCase {
	return &ExportUseCase{reg: reg, store: store}
}

func (uc *ExportUseCase) Export(path string, window float64) (int, error) {
	boundary := 0.0
	if window > 0 {
		if b, ok := uc.store.Boundary(window); ok {
			boundary = b
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("export create: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"signal", "timestamp", "value"}); err != nil {
		return 0, fmt.Errorf("export header: %w", err)
	}

	rows := 0
	for _, name := range uc.reg.Names() {
		s, err := uc.store.SeriesSince(name, boundary)
		if err != nil {
			return rows, fmt.Errorf("export %s: %w", name, err)
		}
		for i := range s.Timestamps {
			cell := ""
			if !math.IsNaN(s.Values[i]) {
				cell = strconv.FormatFloat(s.Values[i], 'g', -1, 64)
			}
			if err := w.Write([]string{
				name,
				strconv.FormatFloat(s.Timestamps[i], 'g', -1, 64),
				cell,
			}); err != nil {
				return rows, fmt.Errorf("export row: %w", err)
			}
			rows++
		}
	}
	w.Flush()
	return rows, w.Error()
}

// ExportJob runs snapshot exports from the job queue so a large export
// never blocks an HTTP worker.
type ExportJob struct {
	uc     *ExportUseCase
	logger *applogger.Logger
}

func NewExportJob(uc *ExportUseCase, logger *applogger.Logger) *ExportJob {
	return &ExportJob{uc: uc, logger: logger}
}

func (j *ExportJob) Name() string { return "export_snapshot" }
func (j *ExportJob) Type() string { return "export" }

func (j *ExportJob) Handle(ctx context.Context, payload interface{}) error {
	req, err := queue.ParsePayload[models.ExportRequest](payload)
	if err != nil {
		return fmt.Errorf("export job payload: %w", err)
	}
	rows, err := j.uc.Export(req.Path, req.Window)
	if err != nil {
		j.logger.Error("export failed",
			applogger.String("path", req.Path),
			applogger.Error(err),
		)
		return err
	}
	j.logger.Info("export complete",
		applogger.String("path", req.Path),
		applogger.Int("rows", rows),
	)
	return nil
}

var _ queue.Job = (*ExportJob)(nil)
