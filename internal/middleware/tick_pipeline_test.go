package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"TradeSage/internal/domain/models"
)

type recordingProc struct {
	mu    sync.Mutex
	ticks []*models.Tick
	err   error
}

func (p *recordingProc) Process(_ context.Context, t *models.Tick) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.ticks = append(p.ticks, t)
	return nil
}

func (p *recordingProc) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ticks)
}

type countingMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func (m *countingMetrics) RecordOutcome(string, string)     {}
func (m *countingMetrics) RecordLastPrice(string, float64)  {}
func (m *countingMetrics) RecordLatency(string, float64)    {}
func (m *countingMetrics) RecordMessageSent(string, string) {}
func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errors == nil {
		m.errors = make(map[string]int)
	}
	m.errors[kind]++
}

func (m *countingMetrics) errCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

func validTick(symbol string) *models.Tick {
	return &models.Tick{Symbol: symbol, Timestamp: time.Now().Unix(), Price: 100, Volume: 1}
}

func TestPipelineForwardsValidTick(t *testing.T) {
	proc := &recordingProc{}
	p := NewTickPipeline(proc, &countingMetrics{})

	if err := p.Process(context.Background(), validTick("BTCUSDT")); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if proc.count() != 1 {
		t.Fatalf("expected 1 forwarded tick, got %d", proc.count())
	}
}

func TestPipelineRejectsInvalidTicks(t *testing.T) {
	proc := &recordingProc{}
	m := &countingMetrics{}
	p := NewTickPipeline(proc, m)

	bad := []*models.Tick{
		nil,
		{Symbol: "", Timestamp: 1, Price: 1, Volume: 1},
		{Symbol: "BTCUSDT", Timestamp: 0, Price: 1, Volume: 1},
		{Symbol: "BTCUSDT", Timestamp: 1, Price: -1, Volume: 1},
	}
	for _, tk := range bad {
		if err := p.Process(context.Background(), tk); err == nil {
			t.Fatalf("expected validation error for %+v", tk)
		}
	}
	if proc.count() != 0 {
		t.Fatalf("invalid ticks must not reach downstream, got %d", proc.count())
	}
	if m.errCount("pipeline_validate") != len(bad) {
		t.Fatalf("expected %d validation errors, got %d", len(bad), m.errCount("pipeline_validate"))
	}
}

func TestPipelineThrottlesPerSymbol(t *testing.T) {
	proc := &recordingProc{}
	m := &countingMetrics{}
	p := NewTickPipeline(proc, m, WithMaxRPS(1))

	// Two back-to-back ticks on the same symbol: second is throttled.
	if err := p.Process(context.Background(), validTick("BTCUSDT")); err != nil {
		t.Fatalf("first tick: %v", err)
	}
	if err := p.Process(context.Background(), validTick("BTCUSDT")); err != nil {
		t.Fatalf("throttled tick should be dropped silently: %v", err)
	}
	// A different symbol is not affected.
	if err := p.Process(context.Background(), validTick("ETHUSDT")); err != nil {
		t.Fatalf("other symbol: %v", err)
	}

	if proc.count() != 2 {
		t.Fatalf("expected 2 forwarded ticks, got %d", proc.count())
	}
	if m.errCount("pipeline_throttle") != 1 {
		t.Fatalf("expected 1 throttle drop, got %d", m.errCount("pipeline_throttle"))
	}
}

func TestPipelineBuffersOnDownstreamError(t *testing.T) {
	proc := &recordingProc{err: errors.New("backend down")}
	m := &countingMetrics{}
	p := NewTickPipeline(proc, m, WithBufferSize(10))

	if err := p.Process(context.Background(), validTick("BTCUSDT")); err == nil {
		t.Fatal("expected downstream error to surface")
	}
	if len(p.bufCh) != 1 {
		t.Fatalf("failed tick should be buffered, buffer depth %d", len(p.bufCh))
	}

	// Downstream recovers; background flush drains the buffer.
	proc.mu.Lock()
	proc.err = nil
	proc.mu.Unlock()

	p.Start(context.Background())
	defer p.Stop()

	deadline := time.After(2 * time.Second)
	for proc.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("buffered tick was not flushed")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
