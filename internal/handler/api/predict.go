package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	models "TradeSage/internal/domain/models"
	domrepo "TradeSage/internal/domain/repository"
	icache "TradeSage/internal/service/cache"
	"TradeSage/internal/service/ratelimit"
	"TradeSage/internal/usecase"
	xhttp "TradeSage/pkg/http"
	xlogger "TradeSage/pkg/logger"
)

const indicatorsCacheTTL = 30 * time.Second

// PredictHandler exposes the prediction pipeline over HTTP.
type PredictHandler struct {
	logger  *xlogger.Logger
	predict *usecase.PredictUseCase
	candles *usecase.CandlesUseCase
	signals *usecase.SignalsUseCase
	health  HealthChecker
	cache   icache.BytesCache
	rl      *ratelimit.Limiter
}

// HealthChecker aggregates readiness of the handler's backends.
type HealthChecker interface {
	Check(ctx context.Context) map[string]string
}

func NewPredictHandler(logger *xlogger.Logger, predict *usecase.PredictUseCase, candles *usecase.CandlesUseCase) *PredictHandler {
	return &PredictHandler{
		logger:  logger,
		predict: predict,
		candles: candles,
		rl:      ratelimit.New(),
	}
}

// SetCache enables response caching for the indicators endpoint.
func (h *PredictHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetHealthChecker wires backend health into /api/health.
func (h *PredictHandler) SetHealthChecker(hc HealthChecker) { h.health = hc }

// SetSignals enables the stored-signal readback endpoint.
func (h *PredictHandler) SetSignals(s *usecase.SignalsUseCase) { h.signals = s }

func (h *PredictHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/predict", h.Predict)
	g.GET("/indicators", h.Indicators)
	g.GET("/candles", h.Candles)
	if h.signals != nil {
		g.GET("/signals", h.Signals)
	}
	g.GET("/health", h.Health)
}

func (h *PredictHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":predict", 5, 1) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}

	out, err := h.predict.Predict(c.Request().Context(), req.Symbol, domrepo.NormalizeInterval(req.Interval), req.Period)
	if err != nil {
		h.logger.Error("predict usecase error",
			xlogger.String("symbol", req.Symbol),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, pipelineError(err))
	}

	if out.Signal == nil {
		return xhttp.SuccessResponse(c, &models.NoSignalResponse{
			Message:    "no actionable signal",
			Confidence: formatConfidence(out.Decision.Confidence),
		})
	}
	sig := out.Signal
	return xhttp.SuccessResponse(c, &models.SignalResponse{
		Symbol:         sig.Symbol,
		LastPrice:      sig.LastPrice,
		PredictedPrice: sig.PredictedPrice,
		Confidence:     formatConfidence(sig.Confidence),
		TradeSignal:    sig.Action,
		Fibonacci:      sig.Fib,
		Trend:          sig.Trend,
		Arbitrage:      sig.Arbitrage,
		Pattern:        sig.Pattern,
	})
}

func (h *PredictHandler) Indicators(c echo.Context) error {
	req := &models.IndicatorsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	cacheKey := "indicators:" + req.Symbol + ":" + req.Interval + ":" + req.Period
	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
			h.logger.Warn("indicators cache get", xlogger.Error(err))
		} else if ok {
			return c.JSONBlob(http.StatusOK, b)
		}
	}

	frame, err := h.predict.Frame(c.Request().Context(), req.Symbol, domrepo.NormalizeInterval(req.Interval), req.Period)
	if err != nil {
		h.logger.Error("indicators usecase error",
			xlogger.String("symbol", req.Symbol),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, pipelineError(err))
	}

	res := indicatorsResponse(frame)
	if h.cache != nil {
		if b, err := json.Marshal(xhttp.APIResponse{
			Status:  http.StatusOK,
			Message: http.StatusText(http.StatusOK),
			Data:    res,
		}); err == nil {
			if err := h.cache.SetBytes(cacheKey, b, indicatorsCacheTTL); err != nil {
				h.logger.Warn("indicators cache set", xlogger.Error(err))
			}
		}
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PredictHandler) Candles(c echo.Context) error {
	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	// zero times select the newest-bars path in the use case
	to := xhttp.ParseTimeDefault(req.To, time.Time{})
	from := xhttp.ParseTimeDefault(req.From, time.Time{})
	res, err := h.candles.GetCandles(c.Request().Context(), usecase.GetCandlesParams{
		Symbol:   req.Symbol,
		From:     from,
		To:       to,
		Interval: domrepo.NormalizeInterval(req.Interval),
		Limit:    req.Limit,
	})
	if err != nil {
		h.logger.Error("candles usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PredictHandler) Signals(c echo.Context) error {
	req := &models.SignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.signals.Recent(c.Request().Context(), req.Symbol, req.Limit)
	if err != nil {
		h.logger.Error("signals usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	rows := make([]models.StoredSignalResponse, 0, len(res.Signals))
	for _, s := range res.Signals {
		rows = append(rows, models.StoredSignalResponse{
			CreatedAt:      s.CreatedAt.Unix(),
			Symbol:         s.Symbol,
			Action:         string(s.Action),
			Confidence:     formatConfidence(s.Confidence),
			PredictedPrice: s.PredictedPrice,
			LastPrice:      s.LastPrice,
			Trend:          s.Trend,
			Arbitrage:      s.Arbitrage,
			Pattern:        s.Pattern,
		})
	}
	return xhttp.SuccessResponse(c, &models.SignalsResponse{
		Symbol:  res.Symbol,
		Count:   res.Count,
		Signals: rows,
	})
}

// Health reports per-backend status. Degraded soft dependencies (model
// artifact missing, stream reconnecting) keep the service up; a failing
// store makes it unavailable.
func (h *PredictHandler) Health(c echo.Context) error {
	status := map[string]string{"service": "ok"}
	if h.health != nil {
		for k, v := range h.health.Check(c.Request().Context()) {
			status[k] = v
		}
	}
	for k, v := range status {
		if v == "ok" || k == "model" || k == "stream" {
			continue
		}
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, status)
	}
	return xhttp.SuccessResponse(c, status)
}

func indicatorsResponse(frame *models.FeatureFrame) *models.IndicatorsResponse {
	rows := make([]models.IndicatorRowResponse, 0, len(frame.Rows))
	for _, r := range frame.Rows {
		rows = append(rows, models.IndicatorRowResponse{
			Time:      r.Bar.Bucket.Unix(),
			Open:      r.Bar.Open,
			High:      r.Bar.High,
			Low:       r.Bar.Low,
			Close:     r.Bar.Close,
			Volume:    r.Bar.Volume,
			EMA50:     r.EMA50,
			EMA200:    r.EMA200,
			BollHigh:  r.BollHigh,
			BollLow:   r.BollLow,
			StochRSI:  r.StochRSI,
			Trend:     r.Trend,
			Arbitrage: r.Arbitrage,
			Pattern:   r.Pattern,
		})
	}
	return &models.IndicatorsResponse{
		Symbol:    frame.Symbol,
		Count:     len(rows),
		Fibonacci: frame.Fib,
		Rows:      rows,
	}
}

func formatConfidence(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// pipelineError maps pipeline failures onto transportable application errors.
func pipelineError(err error) error {
	switch {
	case errors.Is(err, models.ErrEmptyData), errors.Is(err, models.ErrInsufficientHistory):
		return xhttp.NewAppError("INSUFFICIENT_DATA", "", "not enough history for this symbol", http.StatusUnprocessableEntity).WithError(err)
	case errors.Is(err, models.ErrModelUnavailable):
		return xhttp.NewAppError("MODEL_UNAVAILABLE", "", "prediction model is not loaded", http.StatusServiceUnavailable).WithError(err)
	case errors.Is(err, models.ErrDegenerateInput):
		return xhttp.NewAppError("DEGENERATE_INPUT", "", "price window cannot be scaled", http.StatusUnprocessableEntity).WithError(err)
	default:
		return err
	}
}
