package usecase

import (
	"fmt"

	"SerialScope/internal/domain/models"
	"SerialScope/internal/signal"
)

// RenderSelector produces the selection-filtered, windowed view handed
// to a plotting surface. It owns nothing but the inclusion flags; all
// reads are snapshots and never mutate store or registry.
type RenderSelector struct {
	reg   *signal.Registry
	store *signal.Store
}

func NewRenderSelector(reg *signal.Registry, store *signal.Store) *RenderSelector {
	return &RenderSelector{reg: reg, store: store}
}

// Toggle updates the inclusion flag for name. Stored samples are
// untouched; a re-included signal renders with its full history.
func (r *RenderSelector) Toggle(name string, included bool) error {
	if !r.reg.SetIncluded(name, included) {
		return fmt.Errorf("toggle %q: %w", name, signal.ErrNotFound)
	}
	return nil
}

// VisibleSeries returns every included signal restricted to the
// current window, keyed by name, plus the names in registry order for
// stable color/legend assignment.
func (r *RenderSelector) VisibleSeries(windowSize float64) ([]string, map[string]models.Series, error) {
	if windowSize <= 0 {
		return nil, nil, models.ErrInvalidWindowSize
	}

	boundary, ok := r.store.Boundary(windowSize)
	if !ok {
		// Nothing ingested yet; an empty frame is still a valid frame.
		return []string{}, map[string]models.Series{}, nil
	}

	order := make([]string, 0)
	out := make(map[string]models.Series)
	for _, name := range r.reg.Names() {
		if !r.reg.IsIncluded(name) {
			continue
		}
		s, err := r.store.SeriesSince(name, boundary)
		if err != nil {
			return nil, nil, fmt.Errorf("series %s: %w", name, err)
		}
		order = append(order, name)
		out[name] = s
	}
	return order, out, nil
}

// Signals lists every registered signal with its registry attributes
// and store counters, in registration order.
func (r *RenderSelector) Signals() []models.SignalInfo {
	names := r.reg.Names()
	out := make([]models.SignalInfo, 0, len(names))
	for i, name := range names {
		last, _ := r.store.Last(name)
		out = append(out, models.SignalInfo{
			Name:     name,
			Index:    i,
			Included: r.reg.IsIncluded(name),
			Count:    r.store.Count(name),
			Last:     last,
		})
	}
	return out
}
