package repository

import (
	"context"
	"time"

	"TradeSage/internal/domain/models"
)

// MarketData fetches historical OHLCV bars for one symbol. An empty (non-error)
// result means the provider has no data; callers treat that as insufficient
// data, not a failure.
type MarketData interface {
	GetBars(ctx context.Context, symbol string, interval Interval, period string) ([]models.Bar, error)
}

// TickStream is a live price feed used to keep the local candle store warm.
type TickStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// SignalStore persists accepted trade signals. Write failure is reported by the
// caller but never fails the prediction request.
type SignalStore interface {
	Save(ctx context.Context, sig *models.StoredSignal) error
	Recent(ctx context.Context, symbol string, limit int) ([]models.StoredSignal, error)
	Health(ctx context.Context) error
	Close() error
}

// CandleStore provides read/write access to locally aggregated candles.
type CandleStore interface {
	StoreTick(ctx context.Context, t *models.Tick) error
	StoreTickBatch(ctx context.Context, ticks []*models.Tick) error
	GetBars(ctx context.Context, symbol string, from, to time.Time, iv Interval) ([]models.Bar, error)
	GetLatestNBars(ctx context.Context, symbol string, n int, iv Interval) ([]models.Bar, error)
	Health(ctx context.Context) error
	Close() error
}

// Notifier broadcasts an actionable signal. Delivery is fire-and-forget;
// failure must not fail the request.
type Notifier interface {
	Notify(ctx context.Context, sig *models.TradeSignal) error
	Close() error
}

// TickPublisher routes live ticks to the ingestion topic.
type TickPublisher interface {
	Publish(ctx context.Context, t *models.Tick) error
	PublishBatch(ctx context.Context, ticks []*models.Tick) error
	Close() error
}

// Metrics records operational measurements.
type Metrics interface {
	RecordOutcome(symbol, outcome string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordMessageSent(backend, symbol string)
}
