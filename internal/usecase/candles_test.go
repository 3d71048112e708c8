package usecase

import (
	"context"
	"testing"
	"time"

	"TradeSage/internal/domain/models"
	domrepo "TradeSage/internal/domain/repository"
)

type fakeCandleStore struct {
	bars       []models.Bar
	rangeCalls int
	lastFrom   time.Time
	lastTo     time.Time
	lastIv     domrepo.Interval
	latestN    int
}

func (f *fakeCandleStore) StoreTick(context.Context, *models.Tick) error        { return nil }
func (f *fakeCandleStore) StoreTickBatch(context.Context, []*models.Tick) error { return nil }
func (f *fakeCandleStore) Health(context.Context) error                         { return nil }
func (f *fakeCandleStore) Close() error                                         { return nil }

func (f *fakeCandleStore) GetBars(_ context.Context, _ string, from, to time.Time, iv domrepo.Interval) ([]models.Bar, error) {
	f.rangeCalls++
	f.lastFrom, f.lastTo, f.lastIv = from, to, iv
	return f.bars, nil
}

func (f *fakeCandleStore) GetLatestNBars(_ context.Context, _ string, n int, _ domrepo.Interval) ([]models.Bar, error) {
	f.latestN = n
	if len(f.bars) > n {
		return f.bars[len(f.bars)-n:], nil
	}
	return f.bars, nil
}

func storedBars(n int) []models.Bar {
	bars := make([]models.Bar, n)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = models.Bar{
			Bucket: base.Add(time.Duration(i) * time.Hour),
			Symbol: "BTCUSDT",
			Close:  float64(100 + i),
		}
	}
	return bars
}

func TestGetCandlesServesLatestWithoutRange(t *testing.T) {
	store := &fakeCandleStore{bars: storedBars(30)}
	uc := NewCandlesUseCase(store)

	res, err := uc.GetCandles(context.Background(), GetCandlesParams{
		Symbol:   "BTCUSDT",
		Interval: domrepo.IV1h,
		Limit:    10,
	})
	if err != nil {
		t.Fatalf("GetCandles: %v", err)
	}
	if store.latestN != 10 {
		t.Fatalf("expected newest-10 lookup, got n=%d", store.latestN)
	}
	if store.rangeCalls != 0 {
		t.Fatalf("range query must not run without an explicit range")
	}
	if res.Count != 10 || res.Bars[0].Close != 120 {
		t.Fatalf("expected the 10 newest bars, count=%d first close=%v", res.Count, res.Bars[0].Close)
	}
	if !res.From.Equal(res.Bars[0].Bucket) || !res.To.Equal(res.Bars[9].Bucket) {
		t.Fatalf("result range should cover the returned bars: %v..%v", res.From, res.To)
	}
}

func TestGetCandlesDefaultsFromWhenOnlyToGiven(t *testing.T) {
	store := &fakeCandleStore{bars: storedBars(10)}
	uc := NewCandlesUseCase(store)

	to := time.Date(2026, 1, 2, 10, 30, 0, 0, time.UTC)
	res, err := uc.GetCandles(context.Background(), GetCandlesParams{
		Symbol:   "BTCUSDT",
		Interval: domrepo.IV1h,
		To:       to,
	})
	if err != nil {
		t.Fatalf("GetCandles: %v", err)
	}
	if res.Count != 10 {
		t.Fatalf("expected 10 bars, got %d", res.Count)
	}
	if got := store.lastTo.Sub(store.lastFrom); got != 24*time.Hour {
		t.Fatalf("default lookback should be 24h, got %v", got)
	}
}

func TestGetCandlesTrimsToLimit(t *testing.T) {
	store := &fakeCandleStore{bars: storedBars(30)}
	uc := NewCandlesUseCase(store)

	res, err := uc.GetCandles(context.Background(), GetCandlesParams{
		Symbol:   "BTCUSDT",
		Interval: domrepo.IV1h,
		From:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC),
		Limit:    5,
	})
	if err != nil {
		t.Fatalf("GetCandles: %v", err)
	}
	if res.Count != 5 {
		t.Fatalf("expected 5 bars after trim, got %d", res.Count)
	}
	// Trim keeps the newest bars.
	if res.Bars[0].Close != 125 {
		t.Fatalf("expected trim to keep latest bars, first close %v", res.Bars[0].Close)
	}
}

func TestGetCandlesRejectsBadInput(t *testing.T) {
	uc := NewCandlesUseCase(&fakeCandleStore{})

	if _, err := uc.GetCandles(context.Background(), GetCandlesParams{}); err == nil {
		t.Fatal("expected error for missing symbol")
	}

	now := time.Now()
	_, err := uc.GetCandles(context.Background(), GetCandlesParams{
		Symbol: "BTCUSDT",
		From:   now,
		To:     now.Add(-time.Hour),
	})
	if err == nil {
		t.Fatal("expected error for inverted range")
	}
}
