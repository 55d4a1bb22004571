package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, r *models.PredictionRecord) error
}

// RecordPipeline sits between the live session and the record backend.
// It validates records and buffers them when the backend is
// unavailable, flushing in the background with backoff, so a Kafka or
// ClickHouse outage never stalls the tick loop.
type RecordPipeline struct {
	proc    Proc
	metrics domrepo.Metrics
	bufSize int
	bufCh   chan *models.PredictionRecord
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex
}

type PipelineOption func(*RecordPipeline)

// WithBufferSize sets the temporary buffer size used while the
// backend is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *RecordPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewRecordPipeline creates a pipeline in front of proc.
func NewRecordPipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *RecordPipeline {
	p := &RecordPipeline{
		proc:    proc,
		metrics: metrics,
		bufSize: 1000,
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.PredictionRecord, p.bufSize)
	return p
}

// Start launches background flushing of buffered records.
func (p *RecordPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case r := <-p.bufCh:
				if r == nil {
					continue
				}
				if err := p.proc.Process(ctx, r); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- r:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *RecordPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates and forwards a record, buffering it on backend
// failure. Buffered records are retried in the background; Process
// itself still reports the failure.
func (p *RecordPipeline) Process(ctx context.Context, r *models.PredictionRecord) error {
	start := time.Now()
	if err := validateRecord(r); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}

	if err := p.proc.Process(ctx, r); err != nil {
		p.metrics.RecordError("pipeline_process")
		select {
		case p.bufCh <- r:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateRecord(r *models.PredictionRecord) error {
	if r == nil {
		return fmt.Errorf("record nil")
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("timestamp invalid")
	}
	if r.Actual < 0 {
		return fmt.Errorf("negative actual price")
	}
	return nil
}
