package usecase

import (
	"context"
	"fmt"
	"time"

	"TradeSage/internal/domain/models"
	domrepo "TradeSage/internal/domain/repository"
	"TradeSage/pkg/util"
)

// CandlesUseCase provides business logic for reading locally aggregated candles.
type CandlesUseCase struct {
	store domrepo.CandleStore
}

func NewCandlesUseCase(store domrepo.CandleStore) *CandlesUseCase {
	return &CandlesUseCase{store: store}
}

type GetCandlesParams struct {
	Symbol   string
	From     time.Time
	To       time.Time
	Interval domrepo.Interval
	Limit    int
}

type GetCandlesResult struct {
	Symbol   string
	Interval string
	From     time.Time
	To       time.Time
	Count    int
	Bars     []models.Bar
}

func (uc *CandlesUseCase) GetCandles(ctx context.Context, p GetCandlesParams) (*GetCandlesResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.Limit <= 0 {
		p.Limit = 500
	}
	if p.Limit > 5000 {
		p.Limit = 5000
	}

	// no explicit range: serve the newest Limit bars
	if p.From.IsZero() && p.To.IsZero() {
		bars, err := uc.store.GetLatestNBars(ctx, p.Symbol, p.Limit, p.Interval)
		if err != nil {
			return nil, fmt.Errorf("get latest candles: %w", err)
		}
		res := &GetCandlesResult{
			Symbol:   p.Symbol,
			Interval: string(p.Interval),
			Count:    len(bars),
			Bars:     bars,
		}
		if len(bars) > 0 {
			res.From = bars[0].Bucket
			res.To = bars[len(bars)-1].Bucket
		}
		return res, nil
	}

	if p.To.IsZero() {
		p.To = time.Now().UTC()
	}
	if p.From.IsZero() {
		p.From = p.To.Add(-24 * time.Hour)
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}
	p.From, p.To = util.AlignFromTo(p.From, p.To, string(p.Interval))

	bars, err := uc.store.GetBars(ctx, p.Symbol, p.From, p.To, p.Interval)
	if err != nil {
		return nil, fmt.Errorf("get candles: %w", err)
	}
	if len(bars) > p.Limit {
		bars = bars[len(bars)-p.Limit:]
	}

	return &GetCandlesResult{
		Symbol:   p.Symbol,
		Interval: string(p.Interval),
		From:     p.From,
		To:       p.To,
		Count:    len(bars),
		Bars:     bars,
	}, nil
}
