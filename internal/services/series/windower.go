package series

import (
	"fmt"

	"PriceCast/internal/domain/models"
)

// BuildSamples slices a normalized series into supervised (window, label)
// pairs, one per start index, sliding by one element. For a series of length
// N > window it yields exactly N-window samples; each window is copied so the
// sample stays immutable even if the input slice is reused.
func BuildSamples(norm []float64, window int) ([]models.Sample, error) {
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive, got %d", window)
	}
	if len(norm) <= window {
		return nil, fmt.Errorf("need more than %d points, have %d: %w", window, len(norm), ErrInsufficientData)
	}
	samples := make([]models.Sample, 0, len(norm)-window)
	for i := 0; i+window < len(norm); i++ {
		w := make(models.Window, window)
		copy(w, norm[i:i+window])
		samples = append(samples, models.Sample{Window: w, Label: norm[i+window]})
	}
	return samples, nil
}

// Split partitions samples into a train prefix and test suffix preserving
// temporal order. Shuffling would leak future information into training, so
// none happens here. fraction is clamped to [0,1].
func Split(samples []models.Sample, fraction float64) (train, test []models.Sample) {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	cut := int(float64(len(samples)) * fraction)
	return samples[:cut], samples[cut:]
}
