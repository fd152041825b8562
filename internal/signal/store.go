package signal

import (
	"sort"
	"sync"

	"SerialScope/internal/domain/models"
)

type series struct {
	timestamps []float64
	values     []float64
}

// Store holds every sample seen this session. Retention is bounded
// only by process memory; the rolling window is a view computed from
// the shared time index, never a retention policy.
//
// The shared index gets exactly one entry per decoded line, so the
// window boundary comes from a single global clock even when signals
// report intermittently.
type Store struct {
	mu        sync.RWMutex
	series    map[string]*series
	timeIndex []float64
}

func NewStore() *Store {
	return &Store{series: make(map[string]*series)}
}

// Register creates an empty series for name. Idempotent.
func (s *Store) Register(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.series[name]; !ok {
		s.series[name] = &series{}
	}
}

// Append appends one sample to the named series. NaN values are stored
// as-is; rendering decides how to treat them. Returns ErrNotFound if
// the name was never registered.
func (s *Store) Append(name string, ts, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sr, ok := s.series[name]
	if !ok {
		return ErrNotFound
	}
	sr.timestamps = append(sr.timestamps, ts)
	sr.values = append(sr.values, value)
	return nil
}

// CommitLine appends one entry to the shared time index. Called once
// per decoded line, after the line's samples have been appended.
// Timestamps are expected non-decreasing but regressions are accepted;
// a regressed entry degrades window accuracy without faulting.
func (s *Store) CommitLine(ts float64) {
	s.mu.Lock()
	s.timeIndex = append(s.timeIndex, ts)
	s.mu.Unlock()
}

// LatestTime returns the newest shared-index entry.
func (s *Store) LatestTime() (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.timeIndex) == 0 {
		return 0, false
	}
	return s.timeIndex[len(s.timeIndex)-1], true
}

// LineCount returns the number of decoded lines committed so far.
func (s *Store) LineCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.timeIndex)
}

// WindowStart returns the smallest index i into the shared time index
// with timeIndex[i] >= max(0, latest-windowSize). An empty index, or a
// window covering all retained history, yields 0. The search assumes
// the index is sorted; with regressed timestamps the result is
// approximate but never faults.
func (s *Store) WindowStart(windowSize float64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.timeIndex) == 0 {
		return 0
	}
	boundary := s.timeIndex[len(s.timeIndex)-1] - windowSize
	if boundary < 0 {
		boundary = 0
	}
	i := sort.SearchFloat64s(s.timeIndex, boundary)
	if i >= len(s.timeIndex) {
		return 0
	}
	return i
}

// Boundary returns the window's lower time bound, max(0, latest-size).
func (s *Store) Boundary(windowSize float64) (float64, bool) {
	latest, ok := s.LatestTime()
	if !ok {
		return 0, false
	}
	b := latest - windowSize
	if b < 0 {
		b = 0
	}
	return b, true
}

// Series returns a snapshot copy of the full series for name.
func (s *Store) Series(name string) (models.Series, error) {
	return s.SeriesSince(name, 0)
}

// SeriesSince returns a snapshot of the series for name restricted to
// samples with timestamp >= boundary. The boundary is taken from the
// shared time index so that every signal is cut on the same clock.
func (s *Store) SeriesSince(name string, boundary float64) (models.Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sr, ok := s.series[name]
	if !ok {
		return models.Series{}, ErrNotFound
	}
	from := sort.SearchFloat64s(sr.timestamps, boundary)
	if from > len(sr.timestamps) {
		from = len(sr.timestamps)
	}
	out := models.Series{
		Timestamps: make([]float64, len(sr.timestamps)-from),
		Values:     make([]float64, len(sr.values)-from),
	}
	copy(out.Timestamps, sr.timestamps[from:])
	copy(out.Values, sr.values[from:])
	return out, nil
}

// Count returns the number of samples stored for name, 0 if unknown.
func (s *Store) Count(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sr, ok := s.series[name]; ok {
		return len(sr.values)
	}
	return 0
}

// Last returns the most recent value stored for name.
func (s *Store) Last(name string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sr, ok := s.series[name]
	if !ok || len(sr.values) == 0 {
		return 0, false
	}
	return sr.values[len(sr.values)-1], true
}
