package series

import (
	"errors"
	"math"
	"testing"
	"time"

	"PriceCast/internal/domain/models"
)

func histSeries(prices ...float64) models.RawSeries {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	s := make(models.RawSeries, len(prices))
	for i, p := range prices {
		s[i] = models.PricePoint{Timestamp: base.Add(time.Duration(i) * time.Minute), Price: p}
	}
	return s
}

func TestScalerFitAndRoundTrip(t *testing.T) {
	s := NewScaleTransformer()
	if err := s.Fit(histSeries(100, 150, 200)); err != nil {
		t.Fatalf("fit: %v", err)
	}
	// round trip must hold inside and outside the fit range
	for _, x := range []float64{0, 50, 100, 150, 200, 500, -30} {
		got := s.Inverse(s.Forward(x))
		if math.Abs(got-x) > 1e-9 {
			t.Fatalf("round trip %v -> %v", x, got)
		}
	}
	if f := s.Forward(100); math.Abs(f) > 1e-12 {
		t.Fatalf("min should map to 0, got %v", f)
	}
	if f := s.Forward(200); math.Abs(f-1) > 1e-12 {
		t.Fatalf("max should map to 1, got %v", f)
	}
	// unclamped outside the range
	if f := s.Forward(300); f <= 1 {
		t.Fatalf("expected >1 for out-of-range value, got %v", f)
	}
}

func TestScalerDegenerateRange(t *testing.T) {
	s := NewScaleTransformer()
	err := s.Fit(histSeries(42, 42, 42))
	if !errors.Is(err, ErrDegenerateRange) {
		t.Fatalf("expected ErrDegenerateRange, got %v", err)
	}
	if s.Fitted() {
		t.Fatalf("failed fit must not mark scaler as fitted")
	}
}

func TestScalerRefitRejected(t *testing.T) {
	s := NewScaleTransformer()
	if err := s.Fit(histSeries(1, 2)); err != nil {
		t.Fatalf("fit: %v", err)
	}
	if err := s.Fit(histSeries(3, 4)); !errors.Is(err, ErrAlreadyFit) {
		t.Fatalf("expected ErrAlreadyFit, got %v", err)
	}
}

func TestRestoreScaleTransformer(t *testing.T) {
	s, err := RestoreScaleTransformer(10, 20)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got := s.Forward(15); math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("expected 0.5, got %v", got)
	}
	if _, err := RestoreScaleTransformer(5, 5); !errors.Is(err, ErrDegenerateRange) {
		t.Fatalf("expected ErrDegenerateRange, got %v", err)
	}
}
