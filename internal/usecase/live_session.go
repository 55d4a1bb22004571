package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"PriceCast/internal/domain/models"
	drepo "PriceCast/internal/domain/repository"
	domsvc "PriceCast/internal/domain/service"
	"PriceCast/internal/services/series"
	"PriceCast/pkg/logger"
)

// ErrInvalidConfig is returned by NewLiveSession for unusable settings.
var ErrInvalidConfig = errors.New("invalid session config")

// Session states.
const (
	StateIdle      = "idle"
	StateRunning   = "running"
	StateStopped   = "stopped"
	StateCancelled = "cancelled"
)

// RecordRouter forwards completed records downstream. Satisfied by
// RecordProcessor and by the record pipeline wrapping it.
type RecordRouter interface {
	Process(ctx context.Context, r *models.PredictionRecord) error
}

// LiveSessionConfig holds the loop settings.
type LiveSessionConfig struct {
	Window       int
	Duration     time.Duration
	Interval     time.Duration
	ThresholdPct float64
}

// LiveSession runs the streaming predict/observe loop. The loop
// goroutine is the only writer of session state; HTTP accessors read
// concurrently through the buffer's and tracker's own locks plus the
// session mutex for counters.
type LiveSession struct {
	id      string
	cfg     LiveSessionConfig
	feed    drepo.PriceFeed
	pred    domsvc.Predictor
	scaler  *series.ScaleTransformer
	buffer  *series.StreamingBuffer
	tracker *series.MetricsTracker
	proc    RecordRouter
	metrics drepo.Metrics
	log     *logger.Logger

	mu        sync.RWMutex
	state     string
	ticks     int64
	skipped   int64
	startedAt time.Time
}

// NewLiveSession wires a session. The scaler must already be fitted;
// a session never refits it.
func NewLiveSession(
	cfg LiveSessionConfig,
	feed drepo.PriceFeed,
	pred domsvc.Predictor,
	scaler *series.ScaleTransformer,
	buffer *series.StreamingBuffer,
	proc RecordRouter,
	metrics drepo.Metrics,
	log *logger.Logger,
) (*LiveSession, error) {
	if cfg.Window <= 0 {
		return nil, fmt.Errorf("%w: window must be positive", ErrInvalidConfig)
	}
	if cfg.Duration <= 0 || cfg.Interval <= 0 {
		return nil, fmt.Errorf("%w: duration and interval must be positive", ErrInvalidConfig)
	}
	if cfg.Duration < cfg.Interval {
		return nil, fmt.Errorf("%w: duration shorter than one interval", ErrInvalidConfig)
	}
	if cfg.ThresholdPct <= 0 || cfg.ThresholdPct > 100 {
		return nil, fmt.Errorf("%w: threshold must be in (0, 100]", ErrInvalidConfig)
	}
	if !scaler.Fitted() {
		return nil, fmt.Errorf("%w: scaler not fitted", ErrInvalidConfig)
	}
	return &LiveSession{
		id:      uuid.NewString(),
		cfg:     cfg,
		feed:    feed,
		pred:    pred,
		scaler:  scaler,
		buffer:  buffer,
		tracker: series.NewMetricsTracker(),
		proc:    proc,
		metrics: metrics,
		log:     log,
		state:   StateIdle,
	}, nil
}

// ID returns the session identifier.
func (s *LiveSession) ID() string { return s.id }

// Seed preloads the buffer with normalized history so the first tick
// already has a full window behind it.
func (s *LiveSession) Seed(norm []float64) {
	for _, v := range norm {
		s.buffer.Append(v)
	}
	s.metrics.RecordBufferLen(s.buffer.Len())
}

// Run executes the loop until the configured duration elapses or ctx
// is cancelled. Cancellation is honored at tick boundaries.
func (s *LiveSession) Run(ctx context.Context) error {
	if err := s.feed.Open(ctx); err != nil {
		return fmt.Errorf("open feed: %w", err)
	}
	defer s.feed.Close()

	s.mu.Lock()
	s.state = StateRunning
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.log.Info("session started",
		logger.String("session_id", s.id),
		logger.Duration("duration", s.cfg.Duration),
		logger.Duration("interval", s.cfg.Interval),
	)

	totalTicks := int(s.cfg.Duration / s.cfg.Interval)
	for i := 0; i < totalTicks; i++ {
		if err := ctx.Err(); err != nil {
			return s.finish(StateCancelled, err)
		}

		if err := s.tick(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return s.finish(StateCancelled, err)
			}
			return s.finish(StateStopped, err)
		}

		if i == totalTicks-1 {
			break
		}
		select {
		case <-time.After(s.cfg.Interval):
		case <-ctx.Done():
			return s.finish(StateCancelled, ctx.Err())
		}
	}

	return s.finish(StateStopped, nil)
}

func (s *LiveSession) tick(ctx context.Context) error {
	point, err := s.feed.Next(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("feed next: %w", err)
	}
	s.metrics.RecordPrice("observed", point.Price)

	// predict from the window that precedes the new observation
	var (
		predicted float64
		predOK    bool
	)
	window, werr := s.buffer.Tail(s.cfg.Window)
	if werr == nil {
		start := time.Now()
		normPred, perr := s.pred.Predict(ctx, window)
		s.metrics.RecordLatency("predict", time.Since(start).Seconds())
		if perr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.metrics.RecordPrediction("skipped")
			s.metrics.RecordError("predict")
			s.log.Warn("prediction skipped", logger.String("session_id", s.id), logger.Error(perr))
		} else {
			predicted = s.scaler.Inverse(normPred)
			predOK = true
		}
	} else {
		s.metrics.RecordPrediction("skipped")
	}

	evicted := s.buffer.Append(s.scaler.Forward(point.Price))
	if evicted > 0 {
		s.log.Debug("buffer truncated",
			logger.String("session_id", s.id),
			logger.Int("evicted", evicted),
			logger.Int("len", s.buffer.Len()),
		)
	}
	s.metrics.RecordBufferLen(s.buffer.Len())

	if predOK {
		s.tracker.Record(point.Timestamp, predicted, point.Price)
		s.metrics.RecordPrediction("ok")
		s.metrics.RecordPrice("predicted", predicted)

		rec := &models.PredictionRecord{
			SessionID: s.id,
			Timestamp: point.Timestamp,
			Predicted: predicted,
			Actual:    point.Price,
		}
		if err := s.proc.Process(ctx, rec); err != nil {
			// routing failures must not kill the session
			s.log.Error("record routing failed", logger.String("session_id", s.id), logger.Error(err))
		}
	}

	s.mu.Lock()
	s.ticks++
	if !predOK {
		s.skipped++
	}
	s.mu.Unlock()
	return nil
}

func (s *LiveSession) finish(state string, err error) error {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.log.Info("session finished",
		logger.String("session_id", s.id),
		logger.String("state", state),
		logger.Int64("ticks", s.Ticks()),
		logger.Int64("skipped", s.Skipped()),
	)
	return err
}

// Status returns a point-in-time view for the API.
func (s *LiveSession) Status() models.SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.SessionStatus{
		SessionID: s.id,
		State:     s.state,
		Ticks:     s.ticks,
		Skipped:   s.skipped,
		BufferLen: s.buffer.Len(),
		StartedAt: s.startedAt,
	}
}

// Snapshot computes accuracy stats over everything recorded so far.
func (s *LiveSession) Snapshot(thresholdPct float64) (models.MetricsSnapshot, error) {
	if thresholdPct <= 0 {
		thresholdPct = s.cfg.ThresholdPct
	}
	return s.tracker.Snapshot(thresholdPct)
}

// Records returns up to limit most recent records in time order.
func (s *LiveSession) Records(limit int) []models.PredictionRecord {
	recs := s.tracker.Records(limit)
	for i := range recs {
		recs[i].SessionID = s.id
	}
	return recs
}

// Ticks returns the number of completed ticks.
func (s *LiveSession) Ticks() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ticks
}

// Skipped returns the number of ticks with no usable prediction.
func (s *LiveSession) Skipped() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.skipped
}
