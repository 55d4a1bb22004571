package models

import "time"

// MetricsSnapshot is derived on demand from the full prediction history.
// It is not running state; two snapshots taken at the same instant are equal.
type MetricsSnapshot struct {
	GeneratedAt  time.Time `json:"generated_at"`
	Total        int       `json:"total_predictions"`
	ThresholdPct float64   `json:"threshold_pct"`
	AccuracyPct  float64   `json:"accuracy_pct"`
	RMSE         float64   `json:"rmse"`
	MAE          float64   `json:"mae"`
	MAPE         float64   `json:"mape"`
}

// SessionStatus is a point-in-time view of a live session for the API.
type SessionStatus struct {
	SessionID string    `json:"session_id"`
	State     string    `json:"state"`
	Ticks     int64     `json:"ticks"`
	Skipped   int64     `json:"skipped_ticks"`
	BufferLen int       `json:"buffer_len"`
	StartedAt time.Time `json:"started_at,omitempty"`
}
