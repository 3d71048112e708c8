package usecase

import (
	"context"
	"sync"
	"time"

	"TradeSage/internal/domain/models"
	domrepo "TradeSage/internal/domain/repository"
	applogger "TradeSage/pkg/logger"
)

// SignalDispatcher delivers an actionable trade signal to the notification
// channel and to persistent storage. Neither delivery can fail the request:
// notification runs detached, persistence errors are logged and swallowed.
type SignalDispatcher struct {
	notifier domrepo.Notifier
	store    domrepo.SignalStore
	metrics  domrepo.Metrics
	l        *applogger.Logger

	wg sync.WaitGroup
}

func NewSignalDispatcher(notifier domrepo.Notifier, store domrepo.SignalStore, metrics domrepo.Metrics, l *applogger.Logger) *SignalDispatcher {
	return &SignalDispatcher{notifier: notifier, store: store, metrics: metrics, l: l}
}

// Dispatch sends sig exactly once to each side effect. Non-actionable signals
// are a no-op. The returned error is always nil today; the signature keeps
// room for a future delivery-required mode.
func (d *SignalDispatcher) Dispatch(ctx context.Context, sig *models.TradeSignal) error {
	if sig == nil || (sig.Action != models.SignalBuy && sig.Action != models.SignalSell) {
		return nil
	}

	if d.notifier != nil {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			nctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := d.notifier.Notify(nctx, sig); err != nil {
				d.metrics.RecordError("notify")
				d.l.Warn("signal notification failed",
					applogger.String("symbol", sig.Symbol),
					applogger.String("action", string(sig.Action)),
					applogger.Error(err),
				)
				return
			}
			d.metrics.RecordMessageSent("notifier", sig.Symbol)
		}()
	}

	if d.store != nil {
		if err := d.store.Save(ctx, &models.StoredSignal{TradeSignal: *sig, CreatedAt: time.Now().UTC()}); err != nil {
			d.metrics.RecordError("persist_signal")
			d.l.Warn("signal persistence failed",
				applogger.String("symbol", sig.Symbol),
				applogger.String("action", string(sig.Action)),
				applogger.Error(err),
			)
		} else {
			d.metrics.RecordMessageSent("signal_store", sig.Symbol)
		}
	}

	return nil
}

// Wait blocks until in-flight notifications drain. Used on shutdown and in tests.
func (d *SignalDispatcher) Wait() { d.wg.Wait() }
