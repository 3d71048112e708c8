package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	"TradeSage/internal/domain/models"
	domrepo "TradeSage/internal/domain/repository"
	applogger "TradeSage/pkg/logger"
	"TradeSage/pkg/queue"
)

const scanJobType = "symbol_scan"

// ScanRequest is the queue payload for one scheduled symbol scan.
type ScanRequest struct {
	Symbol   string `json:"symbol"`
	Interval string `json:"interval"`
	Period   string `json:"period"`
}

// ScanJob runs a prediction for one queued symbol. Expected pipeline
// failures (short history, missing model) are logged and acknowledged so the
// queue does not retry them.
type ScanJob struct {
	predict *PredictUseCase
	l       *applogger.Logger
}

func NewScanJob(predict *PredictUseCase, l *applogger.Logger) *ScanJob {
	return &ScanJob{predict: predict, l: l}
}

func (j *ScanJob) Name() string { return "symbol-scan" }
func (j *ScanJob) Type() string { return scanJobType }

func (j *ScanJob) Handle(ctx context.Context, payload interface{}) error {
	req, err := queue.ParsePayload[ScanRequest](payload)
	if err != nil {
		return fmt.Errorf("scan payload: %w", err)
	}

	out, err := j.predict.Predict(ctx, req.Symbol, domrepo.NormalizeInterval(req.Interval), req.Period)
	if err != nil {
		if errors.Is(err, models.ErrInsufficientHistory) ||
			errors.Is(err, models.ErrEmptyData) ||
			errors.Is(err, models.ErrModelUnavailable) {
			j.l.Debug("scan skipped",
				applogger.String("symbol", req.Symbol),
				applogger.Error(err),
			)
			return nil
		}
		return err
	}

	j.l.Info("scan finished",
		applogger.String("symbol", req.Symbol),
		applogger.String("outcome", string(out.Outcome)),
		applogger.Float64("confidence", out.Decision.Confidence),
	)
	return nil
}

var _ queue.Job = (*ScanJob)(nil)

// Scanner periodically enqueues every watched symbol for a prediction run.
// Enqueueing and execution are decoupled through the Redis queue so slow
// scans never delay the schedule.
type Scanner struct {
	q        queue.QueueService
	symbols  []string
	interval domrepo.Interval
	period   string
	spec     string
	cron     *cron.Cron
	l        *applogger.Logger
}

func NewScanner(q queue.QueueService, symbols []string, iv domrepo.Interval, period, spec string, l *applogger.Logger) *Scanner {
	if spec == "" {
		spec = "@hourly"
	}
	return &Scanner{
		q:        q,
		symbols:  symbols,
		interval: iv,
		period:   period,
		spec:     spec,
		cron:     cron.New(),
		l:        l,
	}
}

// Start registers the schedule and begins emitting scan jobs.
func (s *Scanner) Start(ctx context.Context) error {
	if len(s.symbols) == 0 {
		return fmt.Errorf("scanner: no symbols configured")
	}
	_, err := s.cron.AddFunc(s.spec, func() { s.enqueueAll(ctx) })
	if err != nil {
		return fmt.Errorf("scanner schedule %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.l.Info("scanner started",
		applogger.String("schedule", s.spec),
		applogger.Int("symbols", len(s.symbols)),
	)
	return nil
}

func (s *Scanner) enqueueAll(ctx context.Context) {
	for _, sym := range s.symbols {
		req := ScanRequest{Symbol: sym, Interval: string(s.interval), Period: s.period}
		if err := s.q.PublishMessage(ctx, scanJobType, req); err != nil {
			s.l.Error("scan enqueue failed",
				applogger.String("symbol", sym),
				applogger.Error(err),
			)
		}
	}
}

// Stop halts the schedule and waits for the running trigger, if any.
func (s *Scanner) Stop() {
	<-s.cron.Stop().Done()
}
