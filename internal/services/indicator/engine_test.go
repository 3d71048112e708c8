package indicator

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeSage/internal/domain/models"
	"TradeSage/internal/services/pattern"
)

func hourlyBars(closes []float64) []models.Bar {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{
			Bucket: start.Add(time.Duration(i) * time.Hour),
			Symbol: "BTCUSDT",
			Open:   c - 0.2,
			High:   c + 0.5,
			Low:    c - 0.5,
			Close:  c,
			Volume: 10,
		}
	}
	return bars
}

func rampCloses(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 0.1*float64(i)
	}
	return out
}

func TestNormalizeEmpty(t *testing.T) {
	_, err := Normalize(nil)
	require.True(t, errors.Is(err, models.ErrEmptyData))
}

func TestNormalizeSortsAscending(t *testing.T) {
	bars := hourlyBars([]float64{100, 101, 102})
	shuffled := []models.Bar{bars[2], bars[0], bars[1]}

	got, err := Normalize(shuffled)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i].Bucket.After(got[i-1].Bucket))
	}
	assert.Equal(t, 102.0, got[2].Close)
}

func TestNormalizeRejectsDuplicateTimestamps(t *testing.T) {
	bars := hourlyBars([]float64{100, 101})
	bars[1].Bucket = bars[0].Bucket

	_, err := Normalize(bars)
	require.Error(t, err)
}

func TestNormalizeRejectsIncompleteLastBar(t *testing.T) {
	bars := hourlyBars([]float64{100, 101, 102})
	bars[2].Close = math.NaN()

	_, err := Normalize(bars)
	require.Error(t, err)
}

func TestFibLevelsWorkedExample(t *testing.T) {
	fib := FibLevels(105, 100)
	assert.InDelta(t, 103.82, fib.L236, 1e-9)
	assert.InDelta(t, 103.09, fib.L382, 1e-9)
	assert.InDelta(t, 102.5, fib.L50, 1e-9)
	assert.InDelta(t, 101.91, fib.L618, 1e-9)
}

func TestComputeInsufficientHistory(t *testing.T) {
	e := New(pattern.New())

	for _, n := range []int{1, 50, Warmup} {
		_, err := e.Compute("BTCUSDT", hourlyBars(rampCloses(n)))
		require.True(t, errors.Is(err, models.ErrInsufficientHistory), "n=%d got %v", n, err)
	}

	_, err := e.Compute("BTCUSDT", nil)
	require.True(t, errors.Is(err, models.ErrEmptyData))
}

func TestComputeFrame(t *testing.T) {
	e := New(pattern.New())
	bars := hourlyBars(rampCloses(260))

	frame, err := e.Compute("BTCUSDT", bars)
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", frame.Symbol)
	// one row per bar past the longest lookback
	assert.Len(t, frame.Rows, 260-Warmup)

	for i, row := range frame.Rows {
		assert.False(t, math.IsNaN(row.EMA50), "row %d", i)
		assert.False(t, math.IsNaN(row.EMA200), "row %d", i)
		assert.False(t, math.IsNaN(row.StochRSI), "row %d", i)
		assert.GreaterOrEqual(t, row.StochRSI, 0.0)
		assert.LessOrEqual(t, row.StochRSI, 1.0)
		assert.InDelta(t, row.EMA50-row.EMA200, row.Arbitrage, 1e-12)
		assert.Greater(t, row.BollHigh, row.BollLow)
		// strictly rising closes
		assert.Equal(t, models.TrendUp, row.Trend)
	}

	last := frame.Last()
	assert.Equal(t, bars[len(bars)-1].Close, last.Bar.Close)

	// rising series keeps the fast average above the slow one
	assert.Positive(t, last.Arbitrage)

	high, low := models.WindowExtremes(bars)
	assert.Equal(t, FibLevels(high, low), frame.Fib)
}

func TestComputeDowntrendLabels(t *testing.T) {
	closes := rampCloses(260)
	for i, j := 0, len(closes)-1; i < j; i, j = i+1, j-1 {
		closes[i], closes[j] = closes[j], closes[i]
	}

	frame, err := New(pattern.New()).Compute("ETHUSDT", hourlyBars(closes))
	require.NoError(t, err)
	for _, row := range frame.Rows {
		assert.Equal(t, models.TrendDown, row.Trend)
	}
	assert.Negative(t, frame.Last().Arbitrage)
}

func TestEMASeriesSeededWithSMA(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	got := emaSeries(xs, 3)

	assert.True(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[1]))
	assert.InDelta(t, 2.0, got[2], 1e-12) // SMA of 1,2,3
	k := 2.0 / 4.0
	assert.InDelta(t, 4*k+2*(1-k), got[3], 1e-12)
}

func TestRSISeriesAllGains(t *testing.T) {
	got := rsiSeries(rampCloses(20), 14)
	assert.True(t, math.IsNaN(got[13]))
	assert.Equal(t, 100.0, got[14])
	assert.Equal(t, 100.0, got[19])
}

func TestStochRSINeutralOnFlatWindow(t *testing.T) {
	// constant gains give a flat RSI, oscillator settles at 0.5
	got := stochRSISeries(rampCloses(60), RSIPeriod, StochPeriod)
	assert.True(t, math.IsNaN(got[RSIPeriod+StochPeriod-2]))
	assert.Equal(t, 0.5, got[RSIPeriod+StochPeriod-1])
	assert.Equal(t, 0.5, got[59])
}

func TestBollingerBandsSymmetric(t *testing.T) {
	highs, lows := bollingerSeries(rampCloses(25), BollPeriod, BollWidth)
	assert.True(t, math.IsNaN(highs[BollPeriod-2]))
	for i := BollPeriod - 1; i < 25; i++ {
		m := (highs[i] + lows[i]) / 2
		assert.InDelta(t, rampCloses(25)[i]-0.1*float64(BollPeriod-1)/2, m, 1e-9, "index %d", i)
	}
}
