package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"PriceCast/internal/domain/models"
)

type flakyProc struct {
	mu        sync.Mutex
	failFirst int
	calls     int
	processed []*models.PredictionRecord
}

func (p *flakyProc) Process(ctx context.Context, r *models.PredictionRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls <= p.failFirst {
		return errors.New("downstream unavailable")
	}
	p.processed = append(p.processed, r)
	return nil
}

func (p *flakyProc) processedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.processed)
}

type countMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newCountMetrics() *countMetrics {
	return &countMetrics{errors: make(map[string]int)}
}

func (m *countMetrics) RecordPrediction(string)       {}
func (m *countMetrics) RecordPrice(string, float64)   {}
func (m *countMetrics) RecordBufferLen(int)           {}
func (m *countMetrics) RecordLatency(string, float64) {}
func (m *countMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

func (m *countMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

func record() *models.PredictionRecord {
	return &models.PredictionRecord{SessionID: "s1", Timestamp: time.Now(), Predicted: 101, Actual: 100}
}

func TestPipelinePassesThrough(t *testing.T) {
	proc := &flakyProc{}
	p := NewRecordPipeline(proc, newCountMetrics())

	if err := p.Process(context.Background(), record()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if got := proc.processedCount(); got != 1 {
		t.Fatalf("expected 1 processed, got %d", got)
	}
}

func TestPipelineRejectsInvalidRecords(t *testing.T) {
	m := newCountMetrics()
	p := NewRecordPipeline(&flakyProc{}, m)

	if err := p.Process(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil record")
	}
	if err := p.Process(context.Background(), &models.PredictionRecord{Actual: 100}); err == nil {
		t.Fatal("expected error for zero timestamp")
	}
	if got := m.errorCount("pipeline_validate"); got != 2 {
		t.Fatalf("expected 2 validate errors, got %d", got)
	}
}

func TestPipelineBuffersAndFlushesOnRecovery(t *testing.T) {
	proc := &flakyProc{failFirst: 1}
	p := NewRecordPipeline(proc, newCountMetrics(), WithBufferSize(10))

	ctx := context.Background()
	p.Start(ctx)
	defer p.Stop()

	// first attempt fails and the record is buffered for retry
	if err := p.Process(ctx, record()); err == nil {
		t.Fatal("expected downstream error")
	}

	deadline := time.Now().Add(2 * time.Second)
	for proc.processedCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("buffered record never flushed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestPipelineStartIsIdempotent(t *testing.T) {
	p := NewRecordPipeline(&flakyProc{}, newCountMetrics())
	ctx := context.Background()
	p.Start(ctx)
	p.Start(ctx)
	p.Stop()
	p.Stop()
}
