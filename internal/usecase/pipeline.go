package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"TradeSage/internal/domain/models"
	domrepo "TradeSage/internal/domain/repository"
	domsvc "TradeSage/internal/domain/service"
	"TradeSage/internal/services/indicator"
	"TradeSage/internal/services/scale"
	applogger "TradeSage/pkg/logger"
)

// PredictOutput is the full result of one pipeline run. Signal is set only
// for actionable outcomes; Decision carries the confidence in every
// non-error case.
type PredictOutput struct {
	Outcome  models.Outcome
	Decision models.Decision
	Signal   *models.TradeSignal
	Frame    *models.FeatureFrame
	Last     float64
	Predict  float64
}

// PredictUseCase runs the full chart-to-decision pipeline for one symbol:
// fetch history, derive indicators, scale the close window, run the model,
// gate the move and dispatch the resulting signal.
type PredictUseCase struct {
	market     domrepo.MarketData
	engine     *indicator.Engine
	model      domsvc.SequenceModel
	decisions  *DecisionEngine
	dispatcher *SignalDispatcher
	metrics    domrepo.Metrics
	source     domsvc.ScalingSource
	l          *applogger.Logger
}

func NewPredictUseCase(
	market domrepo.MarketData,
	engine *indicator.Engine,
	model domsvc.SequenceModel,
	decisions *DecisionEngine,
	dispatcher *SignalDispatcher,
	metrics domrepo.Metrics,
	source domsvc.ScalingSource,
	l *applogger.Logger,
) *PredictUseCase {
	if source == "" {
		source = domsvc.ScaleFromWindow
	}
	return &PredictUseCase{
		market:     market,
		engine:     engine,
		model:      model,
		decisions:  decisions,
		dispatcher: dispatcher,
		metrics:    metrics,
		source:     source,
		l:          l,
	}
}

// Frame fetches, validates and enriches the market window without running
// the model. Shared by the prediction flow and the indicators endpoint.
func (uc *PredictUseCase) Frame(ctx context.Context, symbol string, iv domrepo.Interval, period string) (*models.FeatureFrame, error) {
	bars, err := uc.market.GetBars(ctx, symbol, iv, period)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	bars, err = indicator.Normalize(bars)
	if err != nil {
		return nil, err
	}
	return uc.engine.Compute(symbol, bars)
}

// Predict runs the pipeline end to end. The model is checked before any
// market data is fetched so a missing artifact fails fast.
func (uc *PredictUseCase) Predict(ctx context.Context, symbol string, iv domrepo.Interval, period string) (*PredictOutput, error) {
	start := time.Now()
	out, err := uc.predict(ctx, symbol, iv, period)
	uc.metrics.RecordLatency("predict", time.Since(start).Seconds())
	if err != nil {
		if oc, ok := outcomeForErr(err); ok {
			uc.metrics.RecordOutcome(symbol, string(oc))
		} else {
			uc.metrics.RecordError("predict")
		}
		return nil, err
	}
	uc.metrics.RecordOutcome(symbol, string(out.Outcome))
	return out, nil
}

func (uc *PredictUseCase) predict(ctx context.Context, symbol string, iv domrepo.Interval, period string) (*PredictOutput, error) {
	if uc.model == nil {
		return nil, fmt.Errorf("predict %s: %w", symbol, models.ErrModelUnavailable)
	}

	frame, err := uc.Frame(ctx, symbol, iv, period)
	if err != nil {
		return nil, err
	}

	window := uc.model.Window()
	closes := frame.Closes()
	if len(closes) < window {
		return nil, fmt.Errorf("%w: %d usable bars, model needs %d", models.ErrInsufficientHistory, len(closes), window)
	}
	recent := closes[len(closes)-window:]

	scaler, err := uc.fitScaler(recent)
	if err != nil {
		return nil, err
	}
	if scaler.Degenerate() {
		return nil, fmt.Errorf("flat close window for %s: %w", symbol, models.ErrDegenerateInput)
	}

	scaledPred, err := uc.model.Predict(scaler.Transform(recent))
	if err != nil {
		return nil, fmt.Errorf("model predict: %w", err)
	}
	predicted := scaler.Inverse(scaledPred)
	last := recent[len(recent)-1]
	uc.metrics.RecordLastPrice(symbol, last)

	decision, err := uc.decisions.Decide(models.PredictionResult{PredictedPrice: predicted, LastPrice: last})
	if err != nil {
		return nil, err
	}

	out := &PredictOutput{
		Decision: decision,
		Frame:    frame,
		Last:     last,
		Predict:  predicted,
	}
	if !decision.Actionable() {
		out.Outcome = models.OutcomeLowConfidence
		uc.l.Info("prediction below confidence gate",
			applogger.String("symbol", symbol),
			applogger.Float64("confidence", decision.Confidence),
		)
		return out, nil
	}

	lastRow := frame.Last()
	sig := &models.TradeSignal{
		Symbol:         symbol,
		Action:         decision.Action,
		Confidence:     decision.Confidence,
		PredictedPrice: predicted,
		LastPrice:      last,
		Fib:            frame.Fib,
		Trend:          lastRow.Trend,
		Arbitrage:      lastRow.Arbitrage,
		Pattern:        lastRow.Pattern,
	}
	out.Signal = sig
	if decision.Action == models.SignalBuy {
		out.Outcome = models.OutcomeBuy
	} else {
		out.Outcome = models.OutcomeSell
	}

	if uc.dispatcher != nil {
		_ = uc.dispatcher.Dispatch(ctx, sig)
	}
	uc.l.Info("trade signal emitted",
		applogger.String("symbol", symbol),
		applogger.String("action", string(decision.Action)),
		applogger.Float64("confidence", decision.Confidence),
		applogger.Float64("predicted", predicted),
		applogger.Float64("last", last),
	)
	return out, nil
}

// fitScaler builds the per-request scaler. The window source refits on the
// closes being scored; the model source reuses the range exported with the
// artifact when it carries one.
func (uc *PredictUseCase) fitScaler(window []float64) (*scale.MinMax, error) {
	var s scale.MinMax
	if uc.source == domsvc.ScaleFromModel {
		if p, ok := paramsFromModel(uc.model); ok {
			if err := s.FitParams(p); err != nil {
				return nil, err
			}
			return &s, nil
		}
	}
	if err := s.Fit(window); err != nil {
		return nil, err
	}
	return &s, nil
}

type scaleParamsProvider interface {
	ScaleParams() (scale.Params, bool)
}

func paramsFromModel(m domsvc.SequenceModel) (scale.Params, bool) {
	if p, ok := m.(scaleParamsProvider); ok {
		return p.ScaleParams()
	}
	return scale.Params{}, false
}

func outcomeForErr(err error) (models.Outcome, bool) {
	switch {
	case errors.Is(err, models.ErrInsufficientHistory), errors.Is(err, models.ErrEmptyData):
		return models.OutcomeInsufficientData, true
	case errors.Is(err, models.ErrModelUnavailable):
		return models.OutcomeModelUnavailable, true
	default:
		return "", false
	}
}
