package stats

import (
	"math"

	"SerialScope/internal/domain/models"
)

// WindowStats summarizes one signal over a rendered window. NaN
// samples (malformed numbers tolerated by the decoder) are excluded
// from every aggregate; NaNCount reports how many were skipped.
type WindowStats struct {
	Count    int     `json:"count"`
	NaNCount int     `json:"nan_count"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"stddev"`
	First    float64 `json:"first"`
	Last     float64 `json:"last"`
	Rate     float64 `json:"rate"` // samples per time unit over the window
}

// Compute summarizes a windowed series. An all-NaN or empty series
// yields a zero-count result.
func Compute(s models.Series) WindowStats {
	var out WindowStats
	sum := 0.0
	sum2 := 0.0
	first := true

	for _, v := range s.Values {
		if math.IsNaN(v) {
			out.NaNCount++
			continue
		}
		if first {
			out.Min = v
			out.Max = v
			out.First = v
			first = false
		}
		if v < out.Min {
			out.Min = v
		}
		if v > out.Max {
			out.Max = v
		}
		out.Last = v
		out.Count++
		sum += v
		sum2 += v * v
	}
	if out.Count == 0 {
		return out
	}

	n := float64(out.Count)
	out.Mean = sum / n
	if out.Count > 1 {
		variance := (sum2 - n*out.Mean*out.Mean) / (n - 1)
		if variance < 0 {
			variance = 0
		}
		out.StdDev = math.Sqrt(variance)
	}

	if span := timeSpan(s.Timestamps); span > 0 {
		out.Rate = float64(len(s.Values)) / span
	}
	return out
}

func timeSpan(ts []float64) float64 {
	if len(ts) < 2 {
		return 0
	}
	return ts[len(ts)-1] - ts[0]
}

// Delta computes per-sample deltas v_t - v_{t-1}, skipping pairs with
// a NaN on either side (the gap policy for malformed values). Returns
// a slice of length len(values)-1, or nil if insufficient data.
func Delta(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		prev, cur := values[i-1], values[i]
		if math.IsNaN(prev) || math.IsNaN(cur) {
			out = append(out, 0)
			continue
		}
		out = append(out, cur-prev)
	}
	return out
}
