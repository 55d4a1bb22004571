package series

import (
	"fmt"

	"PriceCast/internal/domain/models"
)

// ScaleTransformer maps prices into the unit range of the historical fit.
// It is fit exactly once from the full historical series at session start and
// is shared read-only afterwards. The transform is affine and unclamped: live
// values outside the fit range legitimately map outside [0,1].
type ScaleTransformer struct {
	min float64
	max float64
	fit bool
}

// NewScaleTransformer returns an unfit transformer.
func NewScaleTransformer() *ScaleTransformer {
	return &ScaleTransformer{}
}

// RestoreScaleTransformer rebuilds a fitted transformer from persisted bounds,
// e.g. a loaded model manifest.
func RestoreScaleTransformer(min, max float64) (*ScaleTransformer, error) {
	if max == min {
		return nil, ErrDegenerateRange
	}
	return &ScaleTransformer{min: min, max: max, fit: true}, nil
}

// Fit computes the (min, max) bounds over the full historical series.
func (s *ScaleTransformer) Fit(hist models.RawSeries) error {
	if s.fit {
		return ErrAlreadyFit
	}
	if len(hist) == 0 {
		return fmt.Errorf("fit scaler: %w", ErrInsufficientData)
	}
	lo, hi := hist[0].Price, hist[0].Price
	for _, p := range hist[1:] {
		if p.Price < lo {
			lo = p.Price
		}
		if p.Price > hi {
			hi = p.Price
		}
	}
	if hi == lo {
		return ErrDegenerateRange
	}
	s.min, s.max = lo, hi
	s.fit = true
	return nil
}

// Fitted reports whether Fit (or a restore) has completed.
func (s *ScaleTransformer) Fitted() bool { return s.fit }

// Bounds returns the fit range.
func (s *ScaleTransformer) Bounds() (min, max float64) { return s.min, s.max }

// Forward normalizes a price. Valid only after a successful Fit.
func (s *ScaleTransformer) Forward(x float64) float64 {
	return (x - s.min) / (s.max - s.min)
}

// Inverse maps a normalized value back to price scale. Exact round trip with
// Forward up to floating error, for any real input.
func (s *ScaleTransformer) Inverse(x float64) float64 {
	return x*(s.max-s.min) + s.min
}

// ForwardAll normalizes a whole price series.
func (s *ScaleTransformer) ForwardAll(prices []float64) []float64 {
	out := make([]float64, len(prices))
	for i, p := range prices {
		out[i] = s.Forward(p)
	}
	return out
}
