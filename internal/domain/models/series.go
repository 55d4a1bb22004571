package models

import "time"

// PricePoint is one observation of the raw price series.
type PricePoint struct {
	Timestamp time.Time
	Price     float64
	Volume    float64
}

// RawSeries is an ordered price series. Timestamps are strictly increasing
// and prices are strictly positive; the producing source enforces both.
type RawSeries []PricePoint

// Prices returns the price column of the series.
func (s RawSeries) Prices() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Price
	}
	return out
}

// Window is a fixed-length sequence of normalized observations used as model
// input. A window is an immutable snapshot: it never aliases the slice it was
// built from.
type Window []float64

// Sample pairs a window with the normalized value that immediately follows it.
// Samples are produced for offline training only.
type Sample struct {
	Window Window
	Label  float64
}

// PredictionRecord is one completed predict/observe pair. Once recorded it is
// never mutated.
type PredictionRecord struct {
	SessionID string    `json:"session_id,omitempty"`
	Timestamp time.Time `json:"ts"`
	Predicted float64   `json:"predicted"`
	Actual    float64   `json:"actual"`
}

// ModelManifest describes a trained model well enough to rebind it for a live
// session: the model service handle plus the scaler fit it was trained under.
type ModelManifest struct {
	ModelID   string    `json:"model_id"`
	Window    int       `json:"window"`
	ScaleMin  float64   `json:"scale_min"`
	ScaleMax  float64   `json:"scale_max"`
	TrainedAt time.Time `json:"trained_at"`
}
