package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"TradeSage/internal/domain/models"
	domrepo "TradeSage/internal/domain/repository"
	pkgch "TradeSage/pkg/clickhouse"
	applogger "TradeSage/pkg/logger"
)

// CHCandleStore implements CandleStore backed by ClickHouse: raw ticks go
// into one append table, per-interval candles are served by materialized
// aggregate tables.
type CHCandleStore struct {
	db        *sql.DB
	database  string
	tickTable string
	l         *applogger.Logger
}

func NewCHCandleStore(ch *pkgch.Client, database string) *CHCandleStore {
	return &CHCandleStore{
		db:        ch.DB(),
		database:  database,
		tickTable: database + ".ticks_raw",
	}
}

// SetLogger injects a structured logger.
func (s *CHCandleStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHCandleStore) StoreTick(ctx context.Context, t *models.Tick) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, symbol, price, volume) VALUES (?, ?, ?, ?)", s.tickTable)
	_, err := s.db.ExecContext(ctx, q, time.Unix(t.Timestamp, 0), t.Symbol, t.Price, t.Volume)
	return err
}

func (s *CHCandleStore) StoreTickBatch(ctx context.Context, ticks []*models.Tick) error {
	if len(ticks) == 0 {
		return nil
	}
	// chunked multi-row VALUES to limit round-trips
	const chunkSize = 2000
	for start := 0; start < len(ticks); start += chunkSize {
		end := start + chunkSize
		if end > len(ticks) {
			end = len(ticks)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*4)
		for _, t := range ticks[start:end] {
			if t == nil || t.Symbol == "" || t.Timestamp == 0 {
				continue
			}
			values = append(values, "(?, ?, ?, ?)")
			args = append(args, time.Unix(t.Timestamp, 0), t.Symbol, t.Price, t.Volume)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, symbol, price, volume) VALUES %s", s.tickTable, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *CHCandleStore) GetBars(ctx context.Context, symbol string, from, to time.Time, iv domrepo.Interval) ([]models.Bar, error) {
	start := time.Now()
	table, err := s.tableForInterval(iv)
	if err != nil {
		return nil, err
	}
	const qtpl = `
        SELECT bucket, symbol, open, high, low, close, vol
        FROM %s
        WHERE symbol = ? AND bucket >= ? AND bucket <= ?
        ORDER BY bucket ASC
    `
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, table), symbol, from, to)
	if err != nil {
		s.logErr("get_bars query", table, symbol, iv, err)
		return nil, fmt.Errorf("get bars: %w", err)
	}
	defer rows.Close()

	out, err := scanBars(rows)
	if err != nil {
		s.logErr("get_bars scan", table, symbol, iv, err)
		return nil, err
	}
	if s.l != nil {
		s.l.Debug("clickhouse get_bars ok",
			applogger.String("table", table),
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHCandleStore) GetLatestNBars(ctx context.Context, symbol string, n int, iv domrepo.Interval) ([]models.Bar, error) {
	table, err := s.tableForInterval(iv)
	if err != nil {
		return nil, err
	}
	const qtpl = `
        SELECT bucket, symbol, open, high, low, close, vol
        FROM %s
        WHERE symbol = ?
        ORDER BY bucket DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, table), symbol, n)
	if err != nil {
		s.logErr("latest_bars query", table, symbol, iv, err)
		return nil, fmt.Errorf("get latest bars: %w", err)
	}
	defer rows.Close()

	out, err := scanBars(rows)
	if err != nil {
		s.logErr("latest_bars scan", table, symbol, iv, err)
		return nil, err
	}
	// reverse to ascending
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *CHCandleStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHCandleStore) Close() error {
	return nil // connection owned by pkg client
}

func (s *CHCandleStore) tableForInterval(iv domrepo.Interval) (string, error) {
	if !domrepo.IsValidInterval(iv) {
		return "", fmt.Errorf("unsupported interval %q", iv)
	}
	return fmt.Sprintf("%s.candles_%s", s.database, iv), nil
}

func scanBars(rows *sql.Rows) ([]models.Bar, error) {
	out := make([]models.Bar, 0, 1024)
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Bucket, &b.Symbol, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHCandleStore) logErr(op, table, symbol string, iv domrepo.Interval, err error) {
	if s.l == nil {
		return
	}
	s.l.Error("clickhouse "+op+" error",
		applogger.String("table", table),
		applogger.String("symbol", symbol),
		applogger.String("interval", string(iv)),
		applogger.Error(err),
	)
}

var _ domrepo.CandleStore = (*CHCandleStore)(nil)
