package usecase

import (
	"context"
	"testing"
	"time"

	"PriceCast/internal/domain/models"
)

type fakeSource struct {
	series models.RawSeries
}

func (f *fakeSource) Fetch(ctx context.Context, days int) (models.RawSeries, error) {
	return f.series, nil
}

func rampSeries(n int) models.RawSeries {
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	out := make(models.RawSeries, n)
	for i := range out {
		out[i] = models.PricePoint{
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Price:     100 + float64(i),
			Volume:    10,
		}
	}
	return out
}

func TestPrepareBuildsSplitSamples(t *testing.T) {
	const n, window = 160, 60
	prep, err := Prepare(context.Background(), &fakeSource{series: rampSeries(n)}, 1, window, 0.8)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}

	if !prep.Scaler.Fitted() {
		t.Fatal("scaler not fitted")
	}
	min, max := prep.Scaler.Bounds()
	if min != 100 || max != 100+float64(n-1) {
		t.Fatalf("unexpected bounds: %v %v", min, max)
	}
	if len(prep.Norm) != n {
		t.Fatalf("expected %d normalized points, got %d", n, len(prep.Norm))
	}

	total := n - window
	if len(prep.Train)+len(prep.Test) != total {
		t.Fatalf("expected %d samples, got %d", total, len(prep.Train)+len(prep.Test))
	}
	if len(prep.Train) != int(0.8*float64(total)) {
		t.Fatalf("unexpected train size %d", len(prep.Train))
	}
	// the split is temporal: every test label follows every train label
	lastTrain := prep.Train[len(prep.Train)-1].Label
	firstTest := prep.Test[0].Label
	if firstTest <= lastTrain {
		t.Fatalf("split not temporal: %v then %v", lastTrain, firstTest)
	}
}

func TestPrepareRejectsShortHistory(t *testing.T) {
	_, err := Prepare(context.Background(), &fakeSource{series: rampSeries(30)}, 1, 60, 0.8)
	if err == nil {
		t.Fatal("expected error for history shorter than one window")
	}
}
