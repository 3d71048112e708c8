package models

import "time"

// SignalAction is the terminal trading decision for one request.
type SignalAction string

const (
	SignalBuy  SignalAction = "BUY"
	SignalSell SignalAction = "SELL"
	SignalNone SignalAction = "NONE"
)

// Outcome enumerates the terminal states of one prediction request.
// Every request resolves to exactly one of these; none is retried.
type Outcome string

const (
	OutcomeInsufficientData Outcome = "insufficient_data"
	OutcomeModelUnavailable Outcome = "model_unavailable"
	OutcomeLowConfidence    Outcome = "low_confidence"
	OutcomeBuy              Outcome = "buy"
	OutcomeSell             Outcome = "sell"
)

// PredictionResult pairs the model's de-scaled next-close prediction with the
// last observed close. Immutable once computed.
type PredictionResult struct {
	PredictedPrice float64
	LastPrice      float64
}

// Decision is the output of the pure decision rule, before any dispatch.
type Decision struct {
	Action     SignalAction
	Confidence float64 // percent, 0-100
}

// Actionable reports whether the decision cleared the confidence gate.
func (d Decision) Actionable() bool {
	return d.Action == SignalBuy || d.Action == SignalSell
}

// TradeSignal is the full result payload for one prediction request.
// Constructed once, never mutated, handed to the dispatcher and discarded.
type TradeSignal struct {
	Symbol         string
	Action         SignalAction
	Confidence     float64
	PredictedPrice float64
	LastPrice      float64
	Fib            FibonacciLevels
	Trend          string
	Arbitrage      float64
	Pattern        string
}

// StoredSignal is the persistence record: a TradeSignal plus the
// server-assigned write timestamp.
type StoredSignal struct {
	TradeSignal
	CreatedAt time.Time
}
