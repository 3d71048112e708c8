package models

import "errors"

// Pipeline error taxonomy. All are terminal for the current request and are
// surfaced as a structured error response; none is retried internally.
var (
	// ErrEmptyData means the market-data collaborator returned zero bars.
	ErrEmptyData = errors.New("no market data for symbol")

	// ErrInsufficientHistory means fewer usable bars remain than the longest
	// indicator window (or the model input window) requires.
	ErrInsufficientHistory = errors.New("insufficient price history")

	// ErrModelUnavailable means no prediction model is loaded.
	ErrModelUnavailable = errors.New("prediction model not loaded")

	// ErrDegenerateInput covers zero last-price and zero-range scaling windows,
	// where confidence or the scaled input would be undefined.
	ErrDegenerateInput = errors.New("degenerate input window")
)
