package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"TradeSage/internal/domain/models"
	domrepo "TradeSage/internal/domain/repository"
	domsvc "TradeSage/internal/domain/service"
	"TradeSage/internal/services/indicator"
	"TradeSage/internal/services/pattern"
	applogger "TradeSage/pkg/logger"
)

type fakeMarket struct {
	bars  []models.Bar
	err   error
	calls int
}

func (m *fakeMarket) GetBars(_ context.Context, _ string, _ domrepo.Interval, _ string) ([]models.Bar, error) {
	m.calls++
	return m.bars, m.err
}

type fakeModel struct {
	window int
	out    float64
	err    error
	calls  int
}

func (m *fakeModel) Window() int { return m.window }

func (m *fakeModel) Predict(seq []float64) (float64, error) {
	m.calls++
	if len(seq) != m.window {
		return 0, fmt.Errorf("got %d values, want %d", len(seq), m.window)
	}
	return m.out, m.err
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []*models.TradeSignal
	err  error
}

func (n *fakeNotifier) Notify(_ context.Context, sig *models.TradeSignal) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sig)
	return n.err
}

func (n *fakeNotifier) Close() error { return nil }

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type fakeSignalStore struct {
	mu    sync.Mutex
	saved []*models.StoredSignal
	err   error
}

func (s *fakeSignalStore) Save(_ context.Context, sig *models.StoredSignal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, sig)
	return s.err
}

func (s *fakeSignalStore) Recent(context.Context, string, int) ([]models.StoredSignal, error) {
	return nil, nil
}
func (s *fakeSignalStore) Health(context.Context) error { return nil }
func (s *fakeSignalStore) Close() error                 { return nil }

func (s *fakeSignalStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

type fakeMetrics struct {
	mu       sync.Mutex
	outcomes []string
	errs     []string
}

func (m *fakeMetrics) RecordOutcome(_ string, oc string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, oc)
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, kind)
}

func (m *fakeMetrics) RecordLastPrice(string, float64)  {}
func (m *fakeMetrics) RecordLatency(string, float64)    {}
func (m *fakeMetrics) RecordMessageSent(string, string) {}

func (m *fakeMetrics) lastOutcome() models.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.outcomes) == 0 {
		return ""
	}
	return models.Outcome(m.outcomes[len(m.outcomes)-1])
}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func seriesBars(closes []float64) []models.Bar {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{
			Bucket: start.Add(time.Duration(i) * time.Hour),
			Symbol: "BTCUSDT",
			Open:   c, High: c + 1, Low: c - 1, Close: c, Volume: 5,
		}
	}
	return bars
}

func rampBars(n int) []models.Bar {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + 0.1*float64(i)
	}
	return seriesBars(closes)
}

type pipelineFixture struct {
	uc       *PredictUseCase
	market   *fakeMarket
	model    *fakeModel
	notifier *fakeNotifier
	store    *fakeSignalStore
	metrics  *fakeMetrics
	disp     *SignalDispatcher
}

func newFixture(t *testing.T, market *fakeMarket, model domsvc.SequenceModel) *pipelineFixture {
	t.Helper()
	f := &pipelineFixture{
		market:   market,
		notifier: &fakeNotifier{},
		store:    &fakeSignalStore{},
		metrics:  &fakeMetrics{},
	}
	if fm, ok := model.(*fakeModel); ok {
		f.model = fm
	}
	l := testLogger(t)
	f.disp = NewSignalDispatcher(f.notifier, f.store, f.metrics, l)
	f.uc = NewPredictUseCase(
		market,
		indicator.New(pattern.New()),
		model,
		NewDecisionEngine(0),
		f.disp,
		f.metrics,
		domsvc.ScaleFromWindow,
		l,
	)
	return f
}

func TestPredictModelUnavailable(t *testing.T) {
	market := &fakeMarket{bars: rampBars(300)}
	f := newFixture(t, market, nil)

	_, err := f.uc.Predict(context.Background(), "BTCUSDT", domrepo.IV1h, "1y")
	if !errors.Is(err, models.ErrModelUnavailable) {
		t.Fatalf("got %v, want ErrModelUnavailable", err)
	}
	if market.calls != 0 {
		t.Fatalf("market called %d times before model check", market.calls)
	}
	if f.metrics.lastOutcome() != models.OutcomeModelUnavailable {
		t.Fatalf("outcome = %s", f.metrics.lastOutcome())
	}
}

func TestPredictInsufficientHistory(t *testing.T) {
	f := newFixture(t, &fakeMarket{bars: rampBars(150)}, &fakeModel{window: 5, out: 0.5})

	_, err := f.uc.Predict(context.Background(), "BTCUSDT", domrepo.IV1h, "1y")
	if !errors.Is(err, models.ErrInsufficientHistory) {
		t.Fatalf("got %v, want ErrInsufficientHistory", err)
	}
	if f.model.calls != 0 {
		t.Fatal("model invoked despite short history")
	}
	if f.metrics.lastOutcome() != models.OutcomeInsufficientData {
		t.Fatalf("outcome = %s", f.metrics.lastOutcome())
	}
}

func TestPredictWindowLargerThanUsableRows(t *testing.T) {
	// 250 bars leave 51 usable rows, fewer than the model window
	f := newFixture(t, &fakeMarket{bars: rampBars(250)}, &fakeModel{window: 120, out: 0.5})

	_, err := f.uc.Predict(context.Background(), "BTCUSDT", domrepo.IV1h, "1y")
	if !errors.Is(err, models.ErrInsufficientHistory) {
		t.Fatalf("got %v, want ErrInsufficientHistory", err)
	}
}

func TestPredictEmptySeries(t *testing.T) {
	f := newFixture(t, &fakeMarket{}, &fakeModel{window: 5, out: 0.5})

	_, err := f.uc.Predict(context.Background(), "BTCUSDT", domrepo.IV1h, "1y")
	if !errors.Is(err, models.ErrEmptyData) {
		t.Fatalf("got %v, want ErrEmptyData", err)
	}
}

func TestPredictBuySignalDispatchedOnce(t *testing.T) {
	// scaled output far above the window range forces a large upward move
	f := newFixture(t, &fakeMarket{bars: rampBars(250)}, &fakeModel{window: 5, out: 40})

	out, err := f.uc.Predict(context.Background(), "BTCUSDT", domrepo.IV1h, "1y")
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if out.Outcome != models.OutcomeBuy {
		t.Fatalf("outcome = %s, want buy", out.Outcome)
	}
	if out.Signal == nil || out.Signal.Action != models.SignalBuy {
		t.Fatalf("signal = %+v", out.Signal)
	}
	if out.Signal.PredictedPrice <= out.Signal.LastPrice {
		t.Fatalf("predicted %v not above last %v", out.Signal.PredictedPrice, out.Signal.LastPrice)
	}

	f.disp.Wait()
	if got := f.notifier.count(); got != 1 {
		t.Fatalf("notifier called %d times, want 1", got)
	}
	if got := f.store.count(); got != 1 {
		t.Fatalf("store called %d times, want 1", got)
	}
	if f.model.calls != 1 {
		t.Fatalf("model called %d times, want 1", f.model.calls)
	}
}

func TestPredictSellSignal(t *testing.T) {
	f := newFixture(t, &fakeMarket{bars: rampBars(250)}, &fakeModel{window: 5, out: -40})

	out, err := f.uc.Predict(context.Background(), "BTCUSDT", domrepo.IV1h, "1y")
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if out.Outcome != models.OutcomeSell {
		t.Fatalf("outcome = %s, want sell", out.Outcome)
	}
	if out.Signal.Action != models.SignalSell {
		t.Fatalf("action = %s", out.Signal.Action)
	}
}

func TestPredictLowConfidenceNoSideEffects(t *testing.T) {
	// a prediction inside the window range implies a sub-gate move
	f := newFixture(t, &fakeMarket{bars: rampBars(250)}, &fakeModel{window: 5, out: 0.5})

	out, err := f.uc.Predict(context.Background(), "BTCUSDT", domrepo.IV1h, "1y")
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if out.Outcome != models.OutcomeLowConfidence {
		t.Fatalf("outcome = %s", out.Outcome)
	}
	if out.Signal != nil {
		t.Fatalf("unexpected signal %+v", out.Signal)
	}
	if out.Decision.Confidence <= 0 {
		t.Fatal("confidence not reported")
	}

	f.disp.Wait()
	if f.notifier.count() != 0 || f.store.count() != 0 {
		t.Fatal("side effects fired for a non-actionable decision")
	}
}

func TestPredictDegenerateWindow(t *testing.T) {
	closes := make([]float64, 250)
	for i := range closes {
		closes[i] = 42
	}
	f := newFixture(t, &fakeMarket{bars: seriesBars(closes)}, &fakeModel{window: 5, out: 0.5})

	_, err := f.uc.Predict(context.Background(), "BTCUSDT", domrepo.IV1h, "1y")
	if !errors.Is(err, models.ErrDegenerateInput) {
		t.Fatalf("got %v, want ErrDegenerateInput", err)
	}
	if f.model.calls != 0 {
		t.Fatal("model invoked on degenerate window")
	}
}

func TestFrameSkipsModel(t *testing.T) {
	market := &fakeMarket{bars: rampBars(250)}
	f := newFixture(t, market, &fakeModel{window: 5, out: 0.5})

	frame, err := f.uc.Frame(context.Background(), "BTCUSDT", domrepo.IV1h, "1y")
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	if len(frame.Rows) != 250-indicator.Warmup {
		t.Fatalf("rows = %d", len(frame.Rows))
	}
	if f.model.calls != 0 {
		t.Fatal("model invoked by Frame")
	}
}
