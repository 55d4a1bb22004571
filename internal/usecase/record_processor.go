package usecase

import (
	"context"
	"fmt"
	"time"

	"PriceCast/internal/domain/models"
	drepo "PriceCast/internal/domain/repository"
)

// Backend names accepted by RecordProcessor.
const (
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
	BackendNone       = "none"
)

// RecordProcessor routes completed prediction records to the
// configured backend. With backend "none" records stay in memory only,
// which is enough for a standalone session.
type RecordProcessor struct {
	sink    drepo.RecordSink
	store   drepo.RecordStore
	metrics drepo.Metrics
	backend string
}

// NewRecordProcessor creates a RecordProcessor.
func NewRecordProcessor(sink drepo.RecordSink, store drepo.RecordStore, metrics drepo.Metrics, backend string) *RecordProcessor {
	return &RecordProcessor{sink: sink, store: store, metrics: metrics, backend: backend}
}

// Process routes a single record.
func (p *RecordProcessor) Process(ctx context.Context, r *models.PredictionRecord) error {
	if r == nil {
		return fmt.Errorf("record is nil")
	}

	start := time.Now()
	var err error
	switch p.backend {
	case BackendKafka:
		err = p.sink.Publish(ctx, r)
	case BackendClickHouse:
		err = p.store.Store(ctx, r)
	case BackendNone:
		return nil
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process record: %w", err)
	}
	p.metrics.RecordLatency("process", time.Since(start).Seconds())
	return nil
}

// ProcessBatch routes multiple records at once.
func (p *RecordProcessor) ProcessBatch(ctx context.Context, rs []*models.PredictionRecord) error {
	if len(rs) == 0 {
		return nil
	}

	start := time.Now()
	var err error
	switch p.backend {
	case BackendKafka:
		err = p.sink.PublishBatch(ctx, rs)
	case BackendClickHouse:
		err = p.store.StoreBatch(ctx, rs)
	case BackendNone:
		return nil
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())
	return nil
}

// Close closes underlying resources if available.
func (p *RecordProcessor) Close() {
	if p.sink != nil {
		_ = p.sink.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
