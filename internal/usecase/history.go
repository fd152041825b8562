package usecase

import (
	"context"
	"fmt"
	"time"

	"SerialScope/internal/domain/models"
	drepo "SerialScope/internal/domain/repository"
	xutil "SerialScope/pkg/util"
)

// HistoryUseCase reads archived samples back out, beyond what the
// in-memory session store retains across restarts.
type HistoryUseCase struct {
	store drepo.HistoryStore
}

func NewHistoryUseCase(store drepo.HistoryStore) *HistoryUseCase {
	return &HistoryUseCase{store: store}
}

type GetHistoryParams struct {
	Signal    string
	From      time.Time
	To        time.Time
	Timeframe drepo.Timeframe
	Limit     int
}

type GetHistoryResult struct {
	Signal    string              `json:"signal"`
	Timeframe string              `json:"timeframe"`
	From      time.Time           `json:"from"`
	To        time.Time           `json:"to"`
	Count     int                 `json:"count"`
	Rows      []models.ArchiveRow `json:"rows"`
}

func (uc *HistoryUseCase) GetHistory(ctx context.Context, p GetHistoryParams) (*GetHistoryResult, error) {
	if p.Signal == "" {
		return nil, fmt.Errorf("signal required")
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}
	if p.Limit <= 0 {
		p.Limit = 1000
	}
	if p.Limit > 50000 {
		p.Limit = 50000
	}
	p.From, p.To = xutil.AlignFromTo(p.From, p.To, string(p.Timeframe))

	rows, err := uc.store.QuerySamples(ctx, p.Signal, p.From, p.To, p.Timeframe, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}

	return &GetHistoryResult{
		Signal:    p.Signal,
		Timeframe: string(p.Timeframe),
		From:      p.From,
		To:        p.To,
		Count:     len(rows),
		Rows:      rows,
	}, nil
}
