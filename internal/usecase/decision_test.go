package usecase

import (
	"errors"
	"math"
	"testing"

	"TradeSage/internal/domain/models"
)

func TestDecideBuyAboveGate(t *testing.T) {
	d := NewDecisionEngine(0)
	dec, err := d.Decide(models.PredictionResult{LastPrice: 100, PredictedPrice: 112})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if dec.Action != models.SignalBuy {
		t.Fatalf("action = %s, want BUY", dec.Action)
	}
	if math.Abs(dec.Confidence-12.0) > 1e-9 {
		t.Fatalf("confidence = %v, want 12.00", dec.Confidence)
	}
}

func TestDecideNoneBelowGate(t *testing.T) {
	d := NewDecisionEngine(0)
	dec, err := d.Decide(models.PredictionResult{LastPrice: 100, PredictedPrice: 104})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if dec.Action != models.SignalNone {
		t.Fatalf("action = %s, want NONE", dec.Action)
	}
	if math.Abs(dec.Confidence-4.0) > 1e-9 {
		t.Fatalf("confidence = %v, want 4.00", dec.Confidence)
	}
}

func TestDecideSell(t *testing.T) {
	d := NewDecisionEngine(0)
	dec, err := d.Decide(models.PredictionResult{LastPrice: 200, PredictedPrice: 150})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if dec.Action != models.SignalSell {
		t.Fatalf("action = %s, want SELL", dec.Action)
	}
	if math.Abs(dec.Confidence-25.0) > 1e-9 {
		t.Fatalf("confidence = %v", dec.Confidence)
	}
}

func TestDecideExactlyAtGate(t *testing.T) {
	d := NewDecisionEngine(10)
	dec, err := d.Decide(models.PredictionResult{LastPrice: 100, PredictedPrice: 110})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	// the gate rejects strictly-below moves only
	if dec.Action != models.SignalBuy {
		t.Fatalf("action = %s, want BUY", dec.Action)
	}
}

func TestDecideZeroLastPrice(t *testing.T) {
	d := NewDecisionEngine(0)
	_, err := d.Decide(models.PredictionResult{LastPrice: 0, PredictedPrice: 10})
	if !errors.Is(err, models.ErrDegenerateInput) {
		t.Fatalf("got %v, want ErrDegenerateInput", err)
	}
}

func TestDecideCustomGate(t *testing.T) {
	d := NewDecisionEngine(3)
	dec, err := d.Decide(models.PredictionResult{LastPrice: 100, PredictedPrice: 104})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if dec.Action != models.SignalBuy {
		t.Fatalf("action = %s, want BUY with lowered gate", dec.Action)
	}
	if !dec.Actionable() {
		t.Fatal("expected actionable decision")
	}
}
