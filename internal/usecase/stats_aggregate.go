package usecase

import (
	"context"
	"sync"
	"time"

	"SerialScope/internal/services/stats"
)

// StatsAggregateUseCase computes window statistics for every included
// signal concurrently, one goroutine per signal, with an overall
// timeout so a huge registry cannot stall the endpoint.
type StatsAggregateUseCase struct {
	sel     *RenderSelector
	timeout time.Duration
}

func NewStatsAggregateUseCase(sel *RenderSelector) *StatsAggregateUseCase {
	return &StatsAggregateUseCase{sel: sel, timeout: 5 * time.Second}
}

type AllStatsResult struct {
	Window float64                      `json:"window"`
	Order  []string                     `json:"order"`
	Stats  map[string]stats.WindowStats `json:"stats"`
}

func (uc *StatsAggregateUseCase) GetAllStats(ctx context.Context, window float64) (*AllStatsResult, error) {
	order, series, err := uc.sel.VisibleSeries(window)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	type item struct {
		name string
		st   stats.WindowStats
	}
	ch := make(chan item, len(order))
	var wg sync.WaitGroup

	for _, name := range order {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			select {
			case <-ctx.Done():
			case ch <- item{name: name, st: stats.Compute(series[name])}:
			}
		}(name)
	}
	go func() { wg.Wait(); close(ch) }()

	res := &AllStatsResult{
		Window: window,
		Order:  order,
		Stats:  make(map[string]stats.WindowStats, len(order)),
	}
	for it := range ch {
		res.Stats[it.name] = it.st
	}
	return res, nil
}
