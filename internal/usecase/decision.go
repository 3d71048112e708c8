package usecase

import (
	"fmt"
	"math"

	"TradeSage/internal/domain/models"
)

// DefaultConfidenceGate is the minimum percent move a prediction must imply
// before a trade direction is emitted.
const DefaultConfidenceGate = 10.0

// DecisionEngine turns a price prediction into a trade decision. It is pure:
// same inputs, same decision.
type DecisionEngine struct {
	gate float64
}

func NewDecisionEngine(gate float64) *DecisionEngine {
	if gate <= 0 {
		gate = DefaultConfidenceGate
	}
	return &DecisionEngine{gate: gate}
}

// Decide computes confidence as the absolute percent distance between the
// predicted and the last observed price. Moves under the gate yield no
// signal; at or above it the sign of the move picks the direction.
func (d *DecisionEngine) Decide(pred models.PredictionResult) (models.Decision, error) {
	if pred.LastPrice == 0 {
		return models.Decision{}, fmt.Errorf("last price is zero: %w", models.ErrDegenerateInput)
	}

	conf := math.Abs(pred.PredictedPrice-pred.LastPrice) / pred.LastPrice * 100
	dec := models.Decision{Action: models.SignalNone, Confidence: conf}
	if conf < d.gate {
		return dec, nil
	}
	if pred.PredictedPrice > pred.LastPrice {
		dec.Action = models.SignalBuy
	} else {
		dec.Action = models.SignalSell
	}
	return dec, nil
}
