package scale

import (
	"fmt"

	"TradeSage/internal/domain/models"
)

// Params are immutable min/max scaling parameters. They are owned by exactly
// one MinMax instance fit for one request; never reuse them across requests.
type Params struct {
	Min float64
	Max float64
}

// Degenerate reports a zero-range window (max == min).
func (p Params) Degenerate() bool { return p.Max == p.Min }

// MinMax maps values into [0,1] relative to a fitted window.
type MinMax struct {
	p      Params
	fitted bool
}

// Fit derives parameters from the close-price window. It must be called
// exactly once per instance; refitting a fitted scaler is a programming error.
func (s *MinMax) Fit(xs []float64) error {
	if s.fitted {
		return fmt.Errorf("scaler already fitted")
	}
	if len(xs) == 0 {
		return models.ErrEmptyData
	}
	lo, hi := xs[0], xs[0]
	for _, v := range xs[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	s.p = Params{Min: lo, Max: hi}
	s.fitted = true
	return nil
}

// FitParams installs externally supplied parameters, e.g. the training
// distribution shipped with a model artifact.
func (s *MinMax) FitParams(p Params) error {
	if s.fitted {
		return fmt.Errorf("scaler already fitted")
	}
	s.p = p
	s.fitted = true
	return nil
}

// Params returns the fitted parameters.
func (s *MinMax) Params() Params { return s.p }

// Degenerate reports whether the fitted window had zero range.
func (s *MinMax) Degenerate() bool { return s.fitted && s.p.Degenerate() }

// Transform maps each value to (x-min)/(max-min), clamped to [0,1].
// On a degenerate window every value maps to 0.
func (s *MinMax) Transform(xs []float64) []float64 {
	out := make([]float64, len(xs))
	r := s.p.Max - s.p.Min
	for i, v := range xs {
		if r == 0 {
			out[i] = 0
			continue
		}
		sc := (v - s.p.Min) / r
		if sc < 0 {
			sc = 0
		} else if sc > 1 {
			sc = 1
		}
		out[i] = sc
	}
	return out
}

// Inverse maps a scaled value back to price space.
func (s *MinMax) Inverse(v float64) float64 {
	return v*(s.p.Max-s.p.Min) + s.p.Min
}
