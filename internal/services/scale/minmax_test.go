package scale

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeSage/internal/domain/models"
)

func TestFitTransformInverseRoundTrip(t *testing.T) {
	xs := []float64{101.3, 99.7, 104.25, 100.0, 103.8, 99.71}

	var s MinMax
	require.NoError(t, s.Fit(xs))

	scaled := s.Transform(xs)
	for i, v := range scaled {
		assert.GreaterOrEqual(t, v, 0.0, "index %d", i)
		assert.LessOrEqual(t, v, 1.0, "index %d", i)
		assert.InDelta(t, xs[i], s.Inverse(v), 1e-9, "index %d", i)
	}
}

func TestTransformBounds(t *testing.T) {
	var s MinMax
	require.NoError(t, s.FitParams(Params{Min: 100, Max: 110}))

	got := s.Transform([]float64{95, 100, 105, 110, 120})
	assert.Equal(t, []float64{0, 0, 0.5, 1, 1}, got)
}

func TestDegenerateWindow(t *testing.T) {
	var s MinMax
	require.NoError(t, s.Fit([]float64{42, 42, 42}))

	require.True(t, s.Degenerate())
	for _, v := range s.Transform([]float64{42, 41, 43}) {
		assert.Zero(t, v)
	}
}

func TestFitEmpty(t *testing.T) {
	var s MinMax
	err := s.Fit(nil)
	require.True(t, errors.Is(err, models.ErrEmptyData))
}

func TestRefitRejected(t *testing.T) {
	var s MinMax
	require.NoError(t, s.Fit([]float64{1, 2}))
	require.Error(t, s.Fit([]float64{3, 4}))
	require.Error(t, s.FitParams(Params{Min: 0, Max: 1}))
}

func TestInverseMatchesHandComputed(t *testing.T) {
	var s MinMax
	require.NoError(t, s.FitParams(Params{Min: 50, Max: 150}))
	assert.InDelta(t, 75.0, s.Inverse(0.25), 1e-12)
	assert.False(t, math.IsNaN(s.Inverse(0)))
}
