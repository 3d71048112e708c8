package pattern

import (
	"math"

	"TradeSage/internal/domain/models"
	domsvc "TradeSage/internal/domain/service"
)

// Pattern labels emitted by the candlestick recognizer.
const (
	Hammer           = "Hammer"
	ShootingStar     = "Shooting Star"
	Doji             = "Doji"
	BullishEngulfing = "Bullish Engulfing"
	BearishEngulfing = "Bearish Engulfing"
)

// Candlestick labels bars with single- and two-bar candlestick formations.
// It is pure and stateless; one instance serves all requests.
type Candlestick struct{}

func New() *Candlestick { return &Candlestick{} }

var _ domsvc.PatternRecognizer = (*Candlestick)(nil)

// Recognize returns one label per input bar. Bars matching no formation are
// labeled models.PatternNone. Two-bar formations take precedence over
// single-bar ones on the same bar.
func (c *Candlestick) Recognize(bars []models.Bar) []string {
	out := make([]string, len(bars))
	for i := range bars {
		out[i] = models.PatternNone
		if i > 0 {
			if isBullishEngulfing(bars[i-1], bars[i]) {
				out[i] = BullishEngulfing
				continue
			}
			if isBearishEngulfing(bars[i-1], bars[i]) {
				out[i] = BearishEngulfing
				continue
			}
		}
		switch {
		case isHammer(bars[i]):
			out[i] = Hammer
		case isShootingStar(bars[i]):
			out[i] = ShootingStar
		case isDoji(bars[i]):
			out[i] = Doji
		}
	}
	return out
}

func bodySize(b models.Bar) float64 { return math.Abs(b.Close - b.Open) }

func barRange(b models.Bar) float64 { return b.High - b.Low }

// isDoji: body under 10% of the bar range.
func isDoji(b models.Bar) bool {
	r := barRange(b)
	return r > 0 && bodySize(b) <= 0.1*r
}

// isHammer: small body near the top, lower shadow at least twice the body.
func isHammer(b models.Bar) bool {
	r := barRange(b)
	if r == 0 {
		return false
	}
	body := bodySize(b)
	lower := math.Min(b.Open, b.Close) - b.Low
	upper := b.High - math.Max(b.Open, b.Close)
	return body > 0 && lower >= 2*body && upper <= body
}

// isShootingStar: small body near the bottom, upper shadow at least twice the body.
func isShootingStar(b models.Bar) bool {
	r := barRange(b)
	if r == 0 {
		return false
	}
	body := bodySize(b)
	lower := math.Min(b.Open, b.Close) - b.Low
	upper := b.High - math.Max(b.Open, b.Close)
	return body > 0 && upper >= 2*body && lower <= body
}

// isBullishEngulfing: a down bar fully engulfed by the following up bar's body.
func isBullishEngulfing(prev, cur models.Bar) bool {
	return prev.Close < prev.Open &&
		cur.Close > cur.Open &&
		cur.Open <= prev.Close &&
		cur.Close >= prev.Open &&
		bodySize(cur) > bodySize(prev)
}

// isBearishEngulfing: an up bar fully engulfed by the following down bar's body.
func isBearishEngulfing(prev, cur models.Bar) bool {
	return prev.Close > prev.Open &&
		cur.Close < cur.Open &&
		cur.Open >= prev.Close &&
		cur.Close <= prev.Open &&
		bodySize(cur) > bodySize(prev)
}
