package models

// TimeKey is the reserved field key carrying the line timestamp.
// It is matched case-sensitively and never becomes a plotted sample.
const TimeKey = "Time"

// Sample is one named value decoded from a telemetry line.
type Sample struct {
	Name  string
	Value float64
}

// Record is one decoded telemetry line: a timestamp plus the samples
// that appeared on it, in field order. Samples is never a map; field
// order drives header order at the persistence sinks.
type Record struct {
	Timestamp float64
	Samples   []Sample
}

// Names returns the sample names in field order.
func (r *Record) Names() []string {
	names := make([]string, len(r.Samples))
	for i, s := range r.Samples {
		names[i] = s.Name
	}
	return names
}

// Value returns the sample value for name, or (0, false) if the line
// did not carry it.
func (r *Record) Value(name string) (float64, bool) {
	for _, s := range r.Samples {
		if s.Name == name {
			return s.Value, true
		}
	}
	return 0, false
}

// Series is an index-aligned pair of timestamp and value sequences for
// one signal, in arrival order.
type Series struct {
	Timestamps []float64 `json:"timestamps"`
	Values     []float64 `json:"values"`
}

// Len returns the number of samples in the series.
func (s Series) Len() int { return len(s.Timestamps) }

// Frame is one redraw notification handed to the rendering surface
// after a line has been ingested.
type Frame struct {
	LatestTime  float64 `json:"latest_time"`
	WindowStart int     `json:"window_start"`
	LineCount   int     `json:"line_count"`
	SignalCount int     `json:"signal_count"`
}
