package service

import (
	"TradeSage/internal/domain/models"
)

// PatternRecognizer labels each bar of an OHLCV window with a chart-pattern
// category ("Hammer", "Head and Shoulders", ..., models.PatternNone). It is a
// pure function of the window: no side effects, safe for concurrent use.
type PatternRecognizer interface {
	Recognize(bars []models.Bar) []string
}

// SequenceModel is an opaque pretrained model mapping a fixed-length scaled
// close-price window to one scaled next-value prediction. Implementations are
// loaded once at startup and must be safe for concurrent read-only inference.
type SequenceModel interface {
	// Window returns the required input length.
	Window() int
	// Predict consumes exactly Window() scaled values and returns one scaled
	// prediction.
	Predict(seq []float64) (float64, error)
}

// ScalingSource selects how the feature scaler obtains its min/max parameters:
// refit on the current request window, or fixed parameters shipped with the
// model artifact (training distribution).
type ScalingSource string

const (
	ScaleFromWindow ScalingSource = "window"
	ScaleFromModel  ScalingSource = "model"
)
