package series

import (
	"math"
	"sync"
	"time"

	"PriceCast/internal/domain/models"
)

// MetricsTracker accumulates prediction/actual pairs and computes error and
// accuracy statistics on demand. Snapshots are pure functions of the recorded
// history; nothing is kept as running aggregate state.
//
// Internally the history is three parallel slices of equal length, appended
// together under one lock so the parallel-length invariant always holds.
type MetricsTracker struct {
	mu        sync.RWMutex
	times     []time.Time
	predicted []float64
	actual    []float64
}

// NewMetricsTracker creates an empty tracker.
func NewMetricsTracker() *MetricsTracker {
	return &MetricsTracker{}
}

// Record appends one prediction/actual pair.
func (t *MetricsTracker) Record(ts time.Time, predicted, actual float64) {
	t.mu.Lock()
	t.times = append(t.times, ts)
	t.predicted = append(t.predicted, predicted)
	t.actual = append(t.actual, actual)
	t.mu.Unlock()
}

// Len returns the number of recorded pairs.
func (t *MetricsTracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.times)
}

// Records returns up to limit most recent records in chronological order.
// limit <= 0 returns the full history.
func (t *MetricsTracker) Records(limit int) []models.PredictionRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	start := 0
	if limit > 0 && len(t.times) > limit {
		start = len(t.times) - limit
	}
	out := make([]models.PredictionRecord, 0, len(t.times)-start)
	for i := start; i < len(t.times); i++ {
		out = append(out, models.PredictionRecord{
			Timestamp: t.times[i],
			Predicted: t.predicted[i],
			Actual:    t.actual[i],
		})
	}
	return out
}

// Snapshot recomputes the statistics over the full history. A record counts as
// accurate when its absolute percent error is within thresholdPct. Records
// with a zero actual are excluded from the percent-based statistics; the
// positive price floor makes that degenerate, but the guard must exist.
func (t *MetricsTracker) Snapshot(thresholdPct float64) (models.MetricsSnapshot, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := len(t.times)
	if n == 0 {
		return models.MetricsSnapshot{}, ErrNoData
	}

	var sumSq, sumAbs, sumPct float64
	var accurate, pctN int
	for i := 0; i < n; i++ {
		diff := t.predicted[i] - t.actual[i]
		sumSq += diff * diff
		sumAbs += math.Abs(diff)
		if t.actual[i] == 0 {
			continue
		}
		pct := math.Abs(diff) / t.actual[i] * 100
		sumPct += pct
		pctN++
		if pct <= thresholdPct {
			accurate++
		}
	}

	snap := models.MetricsSnapshot{
		GeneratedAt:  time.Now(),
		Total:        n,
		ThresholdPct: thresholdPct,
		RMSE:         math.Sqrt(sumSq / float64(n)),
		MAE:          sumAbs / float64(n),
	}
	if pctN > 0 {
		snap.AccuracyPct = float64(accurate) / float64(pctN) * 100
		snap.MAPE = sumPct / float64(pctN)
	}
	return snap, nil
}
