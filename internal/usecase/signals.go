package usecase

import (
	"context"
	"fmt"

	"TradeSage/internal/domain/models"
	domrepo "TradeSage/internal/domain/repository"
)

// SignalsUseCase reads back persisted trade signals.
type SignalsUseCase struct {
	store domrepo.SignalStore
}

func NewSignalsUseCase(store domrepo.SignalStore) *SignalsUseCase {
	return &SignalsUseCase{store: store}
}

type RecentSignalsResult struct {
	Symbol  string
	Count   int
	Signals []models.StoredSignal
}

// Recent returns the newest stored signals for one symbol, newest first.
func (uc *SignalsUseCase) Recent(ctx context.Context, symbol string, limit int) (*RecentSignalsResult, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	sigs, err := uc.store.Recent(ctx, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("recent signals: %w", err)
	}
	return &RecentSignalsResult{
		Symbol:  symbol,
		Count:   len(sigs),
		Signals: sigs,
	}, nil
}
