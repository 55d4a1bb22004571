package series

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestTrackerSnapshotEmpty(t *testing.T) {
	tr := NewMetricsTracker()
	if _, err := tr.Snapshot(1.0); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestTrackerPerfectPredictions(t *testing.T) {
	tr := NewMetricsTracker()
	now := time.Now()
	for i := 0; i < 5; i++ {
		tr.Record(now.Add(time.Duration(i)*time.Second), 100, 100)
	}
	snap, err := tr.Snapshot(1.0)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Total != 5 {
		t.Fatalf("expected 5 records, got %d", snap.Total)
	}
	if snap.AccuracyPct != 100.0 {
		t.Fatalf("expected 100%% accuracy, got %v", snap.AccuracyPct)
	}
	if snap.RMSE != 0 || snap.MAE != 0 || snap.MAPE != 0 {
		t.Fatalf("expected zero errors, got rmse=%v mae=%v mape=%v", snap.RMSE, snap.MAE, snap.MAPE)
	}
}

func TestTrackerAllOutsideThreshold(t *testing.T) {
	tr := NewMetricsTracker()
	now := time.Now()
	// every record is off by 5%, well past the 1% threshold
	for i := 0; i < 4; i++ {
		tr.Record(now, 105, 100)
	}
	snap, err := tr.Snapshot(1.0)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.AccuracyPct != 0.0 {
		t.Fatalf("expected 0%% accuracy, got %v", snap.AccuracyPct)
	}
	if math.Abs(snap.MAE-5) > 1e-9 {
		t.Fatalf("expected MAE 5, got %v", snap.MAE)
	}
	if math.Abs(snap.MAPE-5) > 1e-9 {
		t.Fatalf("expected MAPE 5, got %v", snap.MAPE)
	}
	if math.Abs(snap.RMSE-5) > 1e-9 {
		t.Fatalf("expected RMSE 5, got %v", snap.RMSE)
	}
}

func TestTrackerZeroActualGuard(t *testing.T) {
	tr := NewMetricsTracker()
	now := time.Now()
	tr.Record(now, 10, 0) // degenerate actual; must not divide by zero
	tr.Record(now, 100, 100)
	snap, err := tr.Snapshot(1.0)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Total != 2 {
		t.Fatalf("expected 2 records, got %d", snap.Total)
	}
	// percent stats computed only over the non-zero actual
	if snap.AccuracyPct != 100.0 {
		t.Fatalf("expected 100%% accuracy over valid records, got %v", snap.AccuracyPct)
	}
	if math.IsNaN(snap.MAPE) || math.IsInf(snap.MAPE, 0) {
		t.Fatalf("MAPE not finite: %v", snap.MAPE)
	}
}

func TestTrackerRecordsLimit(t *testing.T) {
	tr := NewMetricsTracker()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		tr.Record(base.Add(time.Duration(i)*time.Minute), float64(i), float64(i))
	}
	recs := tr.Records(3)
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	if !recs[0].Timestamp.Equal(base.Add(7 * time.Minute)) {
		t.Fatalf("expected most recent records, got first ts %v", recs[0].Timestamp)
	}
	if got := tr.Records(0); len(got) != 10 {
		t.Fatalf("limit 0 should return full history, got %d", len(got))
	}
}
