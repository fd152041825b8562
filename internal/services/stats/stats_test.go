package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"SerialScope/internal/domain/models"
)

func TestComputeKnownValues(t *testing.T) {
	s := models.Series{
		Timestamps: []float64{0, 1, 2, 3},
		Values:     []float64{2, 4, 4, 6},
	}
	got := Compute(s)

	require.Equal(t, 4, got.Count)
	require.Equal(t, 0, got.NaNCount)
	require.Equal(t, 2.0, got.Min)
	require.Equal(t, 6.0, got.Max)
	require.Equal(t, 4.0, got.Mean)
	require.Equal(t, 2.0, got.First)
	require.Equal(t, 6.0, got.Last)
	// Sample variance of {2,4,4,6} is 8/3.
	require.InDelta(t, math.Sqrt(8.0/3.0), got.StdDev, 1e-12)
	// 4 samples over a span of 3 time units.
	require.InDelta(t, 4.0/3.0, got.Rate, 1e-12)
}

func TestComputeSkipsNaN(t *testing.T) {
	s := models.Series{
		Timestamps: []float64{0, 1, 2},
		Values:     []float64{1, math.NaN(), 3},
	}
	got := Compute(s)

	require.Equal(t, 2, got.Count)
	require.Equal(t, 1, got.NaNCount)
	require.Equal(t, 1.0, got.Min)
	require.Equal(t, 3.0, got.Max)
	require.Equal(t, 2.0, got.Mean)
}

func TestComputeEmpty(t *testing.T) {
	got := Compute(models.Series{})
	require.Equal(t, 0, got.Count)
	require.Equal(t, 0.0, got.Mean)
}

func TestComputeAllNaN(t *testing.T) {
	s := models.Series{
		Timestamps: []float64{0, 1},
		Values:     []float64{math.NaN(), math.NaN()},
	}
	got := Compute(s)
	require.Equal(t, 0, got.Count)
	require.Equal(t, 2, got.NaNCount)
}

func TestComputeSingleSample(t *testing.T) {
	s := models.Series{Timestamps: []float64{5}, Values: []float64{7}}
	got := Compute(s)
	require.Equal(t, 1, got.Count)
	require.Equal(t, 7.0, got.Mean)
	require.Equal(t, 0.0, got.StdDev)
	require.Equal(t, 0.0, got.Rate)
}

func TestDelta(t *testing.T) {
	got := Delta([]float64{1, 3, 2, math.NaN(), 5})
	require.Equal(t, []float64{2, -1, 0, 0}, got)

	require.Nil(t, Delta([]float64{1}))
	require.Nil(t, Delta(nil))
}
