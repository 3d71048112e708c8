package models

// Trend labels derived from the close-to-close delta.
const (
	TrendUp   = "Uptrend"
	TrendDown = "Downtrend"
)

// PatternNone is the label returned when no chart pattern is detected on a bar.
const PatternNone = "None"

// FibonacciLevels holds the retracement levels computed once per window
// from max(high) and min(low): level = high - ratio*(high-low).
type FibonacciLevels struct {
	L236 float64 `json:"23.6%"`
	L382 float64 `json:"38.2%"`
	L50  float64 `json:"50%"`
	L618 float64 `json:"61.8%"`
}

// FeatureRow is the per-bar derived-feature record. Rows exist only for bars
// whose full lookback history is available; leading bars without it are
// trimmed before the row is built.
type FeatureRow struct {
	Bar       Bar
	EMA50     float64
	EMA200    float64
	BollHigh  float64
	BollLow   float64
	StochRSI  float64
	Trend     string
	Arbitrage float64 // ema50 - ema200 spread
	Pattern   string
}

// FeatureFrame is the usable derived series for one request window,
// plus the window-level Fibonacci scalars.
type FeatureFrame struct {
	Symbol string
	Rows   []FeatureRow
	Fib    FibonacciLevels
}

// Last returns the most recent feature row. The frame must be non-empty.
func (f *FeatureFrame) Last() FeatureRow {
	return f.Rows[len(f.Rows)-1]
}

// Closes returns the close column of the usable rows.
func (f *FeatureFrame) Closes() []float64 {
	out := make([]float64, len(f.Rows))
	for i, r := range f.Rows {
		out[i] = r.Bar.Close
	}
	return out
}
