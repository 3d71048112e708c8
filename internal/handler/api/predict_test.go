package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"TradeSage/internal/domain/models"
	domrepo "TradeSage/internal/domain/repository"
	domsvc "TradeSage/internal/domain/service"
	"TradeSage/internal/services/indicator"
	"TradeSage/internal/services/pattern"
	"TradeSage/internal/usecase"
	applogger "TradeSage/pkg/logger"
)

type stubMarket struct {
	bars []models.Bar
}

func (m *stubMarket) GetBars(context.Context, string, domrepo.Interval, string) ([]models.Bar, error) {
	return m.bars, nil
}

type stubModel struct {
	window int
	out    float64
}

func (m *stubModel) Window() int { return m.window }

func (m *stubModel) Predict(seq []float64) (float64, error) {
	if len(seq) != m.window {
		return 0, fmt.Errorf("bad window")
	}
	return m.out, nil
}

type noopMetrics struct{}

func (noopMetrics) RecordOutcome(string, string)     {}
func (noopMetrics) RecordError(string)               {}
func (noopMetrics) RecordLastPrice(string, float64)  {}
func (noopMetrics) RecordLatency(string, float64)    {}
func (noopMetrics) RecordMessageSent(string, string) {}

func rampBars(n int) []models.Bar {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	for i := range bars {
		c := 100 + 0.1*float64(i)
		bars[i] = models.Bar{
			Bucket: start.Add(time.Duration(i) * time.Hour),
			Symbol: "BTCUSDT",
			Open:   c, High: c + 1, Low: c - 1, Close: c, Volume: 5,
		}
	}
	return bars
}

func newHandler(t *testing.T, market *stubMarket, model domsvc.SequenceModel) *PredictHandler {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	uc := usecase.NewPredictUseCase(
		market,
		indicator.New(pattern.New()),
		model,
		usecase.NewDecisionEngine(0),
		nil,
		noopMetrics{},
		domsvc.ScaleFromWindow,
		l,
	)
	return NewPredictHandler(l, uc, nil)
}

func doGet(h *PredictHandler, target string) *httptest.ResponseRecorder {
	e := echo.New()
	h.RegisterRoutes(e)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPredictMissingSymbol(t *testing.T) {
	h := newHandler(t, &stubMarket{bars: rampBars(250)}, &stubModel{window: 5, out: 40})

	rec := doGet(h, "/api/predict")
	var body struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", body.Status)
	}
	if !strings.Contains(rec.Body.String(), "ERR_REQUIRED") {
		t.Fatalf("body missing validation code: %s", rec.Body.String())
	}
}

func TestPredictBuyResponse(t *testing.T) {
	h := newHandler(t, &stubMarket{bars: rampBars(250)}, &stubModel{window: 5, out: 40})

	rec := doGet(h, "/api/predict?symbol=BTCUSDT")
	var body struct {
		Status int                   `json:"status"`
		Data   models.SignalResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != http.StatusOK {
		t.Fatalf("status = %d", body.Status)
	}
	if body.Data.TradeSignal != models.SignalBuy {
		t.Fatalf("trade_signal = %s, want BUY", body.Data.TradeSignal)
	}
	if !strings.HasSuffix(body.Data.Confidence, "%") {
		t.Fatalf("confidence not formatted: %q", body.Data.Confidence)
	}
	if body.Data.PredictedPrice <= body.Data.LastPrice {
		t.Fatalf("predicted %v not above last %v", body.Data.PredictedPrice, body.Data.LastPrice)
	}
}

func TestPredictNoSignalResponse(t *testing.T) {
	h := newHandler(t, &stubMarket{bars: rampBars(250)}, &stubModel{window: 5, out: 0.5})

	rec := doGet(h, "/api/predict?symbol=BTCUSDT")
	var body struct {
		Status int                     `json:"status"`
		Data   models.NoSignalResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != http.StatusOK {
		t.Fatalf("status = %d", body.Status)
	}
	if body.Data.Message == "" || !strings.HasSuffix(body.Data.Confidence, "%") {
		t.Fatalf("unexpected payload: %+v", body.Data)
	}
}

func TestPredictInsufficientData(t *testing.T) {
	h := newHandler(t, &stubMarket{bars: rampBars(150)}, &stubModel{window: 5, out: 40})

	rec := doGet(h, "/api/predict?symbol=BTCUSDT")
	var body struct {
		Status int `json:"status"`
		Data   []struct {
			Code string `json:"code"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", body.Status)
	}
	if len(body.Data) != 1 || body.Data[0].Code != "INSUFFICIENT_DATA" {
		t.Fatalf("unexpected error payload: %s", rec.Body.String())
	}
}

func TestPredictModelUnavailable(t *testing.T) {
	h := newHandler(t, &stubMarket{bars: rampBars(250)}, nil)

	rec := doGet(h, "/api/predict?symbol=BTCUSDT")
	var body struct {
		Status int `json:"status"`
		Data   []struct {
			Code string `json:"code"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", body.Status)
	}
	if len(body.Data) != 1 || body.Data[0].Code != "MODEL_UNAVAILABLE" {
		t.Fatalf("unexpected error payload: %s", rec.Body.String())
	}
}

func TestIndicatorsResponseShape(t *testing.T) {
	h := newHandler(t, &stubMarket{bars: rampBars(250)}, &stubModel{window: 5, out: 0.5})

	rec := doGet(h, "/api/indicators?symbol=BTCUSDT")
	var body struct {
		Status int                       `json:"status"`
		Data   models.IndicatorsResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != http.StatusOK {
		t.Fatalf("status = %d", body.Status)
	}
	if body.Data.Count != 250-indicator.Warmup {
		t.Fatalf("count = %d", body.Data.Count)
	}
	if body.Data.Rows[0].EMA200 == 0 {
		t.Fatal("ema_200 missing from rows")
	}
	fib := body.Data.Fibonacci
	if !(fib.L236 > fib.L382 && fib.L382 > fib.L50 && fib.L50 > fib.L618) {
		t.Fatalf("fib levels not ordered: %+v", fib)
	}
}

func TestHealthWithoutBackends(t *testing.T) {
	h := newHandler(t, &stubMarket{bars: rampBars(250)}, &stubModel{window: 5, out: 0.5})

	rec := doGet(h, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"service":"ok"`) {
		t.Fatalf("body: %s", rec.Body.String())
	}
}

type stubSignalStore struct {
	rows      []models.StoredSignal
	lastLimit int
}

func (s *stubSignalStore) Save(context.Context, *models.StoredSignal) error { return nil }

func (s *stubSignalStore) Recent(_ context.Context, symbol string, limit int) ([]models.StoredSignal, error) {
	s.lastLimit = limit
	out := make([]models.StoredSignal, 0, len(s.rows))
	for _, r := range s.rows {
		if r.Symbol == symbol {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubSignalStore) Health(context.Context) error { return nil }
func (s *stubSignalStore) Close() error                 { return nil }

func TestSignalsEndpoint(t *testing.T) {
	store := &stubSignalStore{rows: []models.StoredSignal{
		{
			TradeSignal: models.TradeSignal{
				Symbol: "BTCUSDT", Action: models.SignalBuy,
				Confidence: 72.5, PredictedPrice: 105, LastPrice: 100,
				Trend: "uptrend", Pattern: "Bullish Engulfing",
			},
			CreatedAt: time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC),
		},
		{
			TradeSignal: models.TradeSignal{Symbol: "ETHUSDT", Action: models.SignalSell},
			CreatedAt:   time.Date(2026, 1, 2, 11, 0, 0, 0, time.UTC),
		},
	}}
	h := newHandler(t, &stubMarket{bars: rampBars(250)}, &stubModel{window: 5, out: 0.5})
	h.SetSignals(usecase.NewSignalsUseCase(store))

	rec := doGet(h, "/api/signals?symbol=BTCUSDT")
	var body struct {
		Status int                    `json:"status"`
		Data   models.SignalsResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != http.StatusOK {
		t.Fatalf("status = %d", body.Status)
	}
	if body.Data.Count != 1 || len(body.Data.Signals) != 1 {
		t.Fatalf("count = %d, rows = %d", body.Data.Count, len(body.Data.Signals))
	}
	row := body.Data.Signals[0]
	if row.Action != "BUY" || row.Confidence != "72.50%" {
		t.Fatalf("row = %+v", row)
	}
	if row.CreatedAt != time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC).Unix() {
		t.Fatalf("created_at = %d", row.CreatedAt)
	}
	if store.lastLimit != 50 {
		t.Fatalf("limit defaulted to %d, want 50", store.lastLimit)
	}
}

func TestSignalsMissingSymbol(t *testing.T) {
	h := newHandler(t, &stubMarket{bars: rampBars(250)}, &stubModel{window: 5, out: 0.5})
	h.SetSignals(usecase.NewSignalsUseCase(&stubSignalStore{}))

	rec := doGet(h, "/api/signals")
	var body struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", body.Status)
	}
}
