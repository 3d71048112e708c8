package indicator

import (
	"fmt"
	"math"
	"sort"

	"TradeSage/internal/domain/models"
	domsvc "TradeSage/internal/domain/service"
)

// Indicator windows. EMA(200) has the longest lookback, so the usable series
// always starts Warmup bars into the normalized window.
const (
	EMAFastPeriod = 50
	EMASlowPeriod = 200
	BollPeriod    = 20
	BollWidth     = 2.0
	RSIPeriod     = 14
	StochPeriod   = 14
)

// Warmup is the number of leading bars without a defined EMA(200) value.
const Warmup = EMASlowPeriod - 1

// Fibonacci retracement ratios applied to the window's high/low range.
var fibRatios = [...]float64{0.236, 0.382, 0.5, 0.618}

// Normalize validates and reorders a raw bar series: ascending by bucket,
// strictly increasing timestamps, complete most-recent bar. It returns
// models.ErrEmptyData for a zero-row frame; any other defect is a hard failure.
func Normalize(bars []models.Bar) ([]models.Bar, error) {
	if len(bars) == 0 {
		return nil, models.ErrEmptyData
	}
	out := make([]models.Bar, len(bars))
	copy(out, bars)
	sort.Slice(out, func(i, j int) bool { return out[i].Bucket.Before(out[j].Bucket) })

	for i := 1; i < len(out); i++ {
		if !out[i].Bucket.After(out[i-1].Bucket) {
			return nil, fmt.Errorf("duplicate bar timestamp %s", out[i].Bucket)
		}
	}
	last := out[len(out)-1]
	for _, v := range []float64{last.Open, last.High, last.Low, last.Close, last.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("incomplete most recent bar at %s", last.Bucket)
		}
	}
	return out, nil
}

// Engine derives the per-bar feature frame from a normalized series.
// One Engine is safe for concurrent use: all per-request state lives on the stack.
type Engine struct {
	patterns domsvc.PatternRecognizer
}

func New(patterns domsvc.PatternRecognizer) *Engine {
	return &Engine{patterns: patterns}
}

// Compute builds the usable FeatureFrame for the window. Bars lacking the
// lookback history of the longest indicator are trimmed deterministically;
// the result is non-empty or the window is reported as insufficient.
func (e *Engine) Compute(symbol string, bars []models.Bar) (*models.FeatureFrame, error) {
	if len(bars) == 0 {
		return nil, models.ErrEmptyData
	}
	if len(bars) <= Warmup {
		return nil, fmt.Errorf("%w: have %d bars, need more than %d", models.ErrInsufficientHistory, len(bars), Warmup)
	}

	closes := models.Closes(bars)
	emaFast := emaSeries(closes, EMAFastPeriod)
	emaSlow := emaSeries(closes, EMASlowPeriod)
	bollHigh, bollLow := bollingerSeries(closes, BollPeriod, BollWidth)
	stoch := stochRSISeries(closes, RSIPeriod, StochPeriod)
	labels := e.patterns.Recognize(bars)

	high, low := models.WindowExtremes(bars)
	frame := &models.FeatureFrame{
		Symbol: symbol,
		Fib:    FibLevels(high, low),
		Rows:   make([]models.FeatureRow, 0, len(bars)-Warmup),
	}

	for i := Warmup; i < len(bars); i++ {
		row := models.FeatureRow{
			Bar:       bars[i],
			EMA50:     emaFast[i],
			EMA200:    emaSlow[i],
			BollHigh:  bollHigh[i],
			BollLow:   bollLow[i],
			StochRSI:  stoch[i],
			Arbitrage: emaFast[i] - emaSlow[i],
			Pattern:   labels[i],
		}
		// the first bar of the raw series has no prior close; beyond Warmup
		// a prior close always exists
		if closes[i]-closes[i-1] > 0 {
			row.Trend = models.TrendUp
		} else {
			row.Trend = models.TrendDown
		}
		if anyUndefined(row.EMA50, row.EMA200, row.BollHigh, row.BollLow, row.StochRSI) {
			continue
		}
		frame.Rows = append(frame.Rows, row)
	}

	if len(frame.Rows) == 0 {
		return nil, fmt.Errorf("%w: no usable rows after trimming", models.ErrInsufficientHistory)
	}
	return frame, nil
}

// FibLevels computes the retracement scalars for one window:
// level = high - ratio*(high-low). Constant across the window.
func FibLevels(high, low float64) models.FibonacciLevels {
	r := high - low
	return models.FibonacciLevels{
		L236: high - fibRatios[0]*r,
		L382: high - fibRatios[1]*r,
		L50:  high - fibRatios[2]*r,
		L618: high - fibRatios[3]*r,
	}
}

// emaSeries returns the exponential moving average per index, seeded with the
// simple average of the first period values. Indexes before period-1 are NaN.
func emaSeries(xs []float64, period int) []float64 {
	out := make([]float64, len(xs))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(xs) < period || period <= 0 {
		return out
	}
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += xs[i]
	}
	out[period-1] = sum / float64(period)
	k := 2.0 / float64(period+1)
	for i := period; i < len(xs); i++ {
		out[i] = xs[i]*k + out[i-1]*(1-k)
	}
	return out
}

// bollingerSeries returns the upper/lower volatility bands: SMA(period) ± width
// standard deviations. Indexes before period-1 are NaN.
func bollingerSeries(xs []float64, period int, width float64) (highs, lows []float64) {
	highs = make([]float64, len(xs))
	lows = make([]float64, len(xs))
	for i := range highs {
		highs[i] = math.NaN()
		lows[i] = math.NaN()
	}
	for i := period - 1; i < len(xs); i++ {
		win := xs[i-period+1 : i+1]
		m := mean(win)
		sd := stddev(win, m)
		highs[i] = m + width*sd
		lows[i] = m - width*sd
	}
	return highs, lows
}

// stochRSISeries computes the stochastic oscillator of the RSI series, in
// [0,1]. RSI needs rsiPeriod deltas; the stochastic needs stochPeriod RSI
// values, so the first rsiPeriod+stochPeriod-1 indexes are NaN.
func stochRSISeries(xs []float64, rsiPeriod, stochPeriod int) []float64 {
	out := make([]float64, len(xs))
	for i := range out {
		out[i] = math.NaN()
	}
	rsi := rsiSeries(xs, rsiPeriod)
	for i := rsiPeriod + stochPeriod - 1; i < len(xs); i++ {
		lo, hi := rsi[i], rsi[i]
		for j := i - stochPeriod + 1; j <= i; j++ {
			if rsi[j] < lo {
				lo = rsi[j]
			}
			if rsi[j] > hi {
				hi = rsi[j]
			}
		}
		if hi == lo {
			out[i] = 0.5 // flat RSI window, oscillator is neutral
			continue
		}
		out[i] = (rsi[i] - lo) / (hi - lo)
	}
	return out
}

// rsiSeries computes the relative strength index per bar over the trailing
// period deltas. Indexes before period are NaN.
func rsiSeries(xs []float64, period int) []float64 {
	out := make([]float64, len(xs))
	for i := range out {
		out[i] = math.NaN()
	}
	for i := period; i < len(xs); i++ {
		gain, loss := 0.0, 0.0
		for j := i - period + 1; j <= i; j++ {
			d := xs[j] - xs[j-1]
			if d > 0 {
				gain += d
			} else {
				loss -= d
			}
		}
		if loss == 0 {
			out[i] = 100
			continue
		}
		rs := (gain / float64(period)) / (loss / float64(period))
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, v := range xs {
		sum += v
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64, m float64) float64 {
	s := 0.0
	for _, v := range xs {
		d := v - m
		s += d * d
	}
	return math.Sqrt(s / float64(len(xs)))
}

func anyUndefined(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
