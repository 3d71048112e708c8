package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"TradeSage/internal/domain/models"
	domrepo "TradeSage/internal/domain/repository"
	pkgch "TradeSage/pkg/clickhouse"
	applogger "TradeSage/pkg/logger"
)

// CHSignalStore persists emitted trade signals in ClickHouse.
type CHSignalStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHSignalStore(ch *pkgch.Client, database string) *CHSignalStore {
	return &CHSignalStore{db: ch.DB(), table: database + ".signals"}
}

// SetLogger injects a structured logger.
func (s *CHSignalStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHSignalStore) Save(ctx context.Context, sig *models.StoredSignal) error {
	if sig == nil {
		return fmt.Errorf("signal is nil")
	}
	q := fmt.Sprintf(`INSERT INTO %s
        (created_at, symbol, action, confidence, predicted_price, last_price, trend, arbitrage, pattern)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)
	_, err := s.db.ExecContext(ctx, q,
		sig.CreatedAt,
		sig.Symbol,
		string(sig.Action),
		sig.Confidence,
		sig.PredictedPrice,
		sig.LastPrice,
		sig.Trend,
		sig.Arbitrage,
		sig.Pattern,
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse save_signal error",
				applogger.String("symbol", sig.Symbol),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("save signal: %w", err)
	}
	return nil
}

func (s *CHSignalStore) Recent(ctx context.Context, symbol string, limit int) ([]models.StoredSignal, error) {
	if limit <= 0 {
		limit = 50
	}
	q := fmt.Sprintf(`
        SELECT created_at, symbol, action, confidence, predicted_price, last_price, trend, arbitrage, pattern
        FROM %s
        WHERE symbol = ?
        ORDER BY created_at DESC
        LIMIT ?`, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("recent signals: %w", err)
	}
	defer rows.Close()

	out := make([]models.StoredSignal, 0, limit)
	for rows.Next() {
		var (
			rec    models.StoredSignal
			action string
			ts     time.Time
		)
		if err := rows.Scan(&ts, &rec.Symbol, &action, &rec.Confidence, &rec.PredictedPrice, &rec.LastPrice, &rec.Trend, &rec.Arbitrage, &rec.Pattern); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		rec.CreatedAt = ts
		rec.Action = models.SignalAction(action)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *CHSignalStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHSignalStore) Close() error {
	return nil // connection owned by pkg client
}

var _ domrepo.SignalStore = (*CHSignalStore)(nil)
