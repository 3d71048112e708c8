package usecase

import (
	"context"
	"errors"
	"testing"

	"TradeSage/internal/domain/models"
)

func buySignal() *models.TradeSignal {
	return &models.TradeSignal{
		Symbol:         "BTCUSDT",
		Action:         models.SignalBuy,
		Confidence:     12,
		PredictedPrice: 112,
		LastPrice:      100,
	}
}

func TestDispatchActionableHitsBothSinks(t *testing.T) {
	n := &fakeNotifier{}
	s := &fakeSignalStore{}
	d := NewSignalDispatcher(n, s, &fakeMetrics{}, testLogger(t))

	if err := d.Dispatch(context.Background(), buySignal()); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	d.Wait()

	if n.count() != 1 {
		t.Fatalf("notifier called %d times, want 1", n.count())
	}
	if s.count() != 1 {
		t.Fatalf("store called %d times, want 1", s.count())
	}
	if s.saved[0].CreatedAt.IsZero() {
		t.Fatal("stored signal missing timestamp")
	}
}

func TestDispatchIgnoresNonActionable(t *testing.T) {
	n := &fakeNotifier{}
	s := &fakeSignalStore{}
	d := NewSignalDispatcher(n, s, &fakeMetrics{}, testLogger(t))

	sig := buySignal()
	sig.Action = models.SignalNone
	if err := d.Dispatch(context.Background(), sig); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if err := d.Dispatch(context.Background(), nil); err != nil {
		t.Fatalf("dispatch nil: %v", err)
	}
	d.Wait()

	if n.count() != 0 || s.count() != 0 {
		t.Fatal("sinks hit for non-actionable input")
	}
}

func TestDispatchNotifierFailureDoesNotFail(t *testing.T) {
	n := &fakeNotifier{err: errors.New("broker down")}
	s := &fakeSignalStore{}
	m := &fakeMetrics{}
	d := NewSignalDispatcher(n, s, m, testLogger(t))

	if err := d.Dispatch(context.Background(), buySignal()); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	d.Wait()

	if s.count() != 1 {
		t.Fatal("persistence skipped after notify failure")
	}
}

func TestDispatchStoreFailureDoesNotFail(t *testing.T) {
	n := &fakeNotifier{}
	s := &fakeSignalStore{err: errors.New("storage down")}
	m := &fakeMetrics{}
	d := NewSignalDispatcher(n, s, m, testLogger(t))

	if err := d.Dispatch(context.Background(), buySignal()); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	d.Wait()

	if n.count() != 1 {
		t.Fatal("notification skipped after store failure")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	found := false
	for _, e := range m.errs {
		if e == "persist_signal" {
			found = true
		}
	}
	if !found {
		t.Fatal("store failure not recorded")
	}
}
