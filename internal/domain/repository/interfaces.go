package repository

import (
	"context"
	"errors"
	"time"

	"PriceCast/internal/domain/models"
)

// ErrModelNotFound is returned by ModelStore.Load when no manifest exists.
var ErrModelNotFound = errors.New("model manifest not found")

// DataSource produces the historical series used to fit the scaler and build
// training samples. The returned series is ordered, non-empty, with strictly
// increasing timestamps and positive prices.
type DataSource interface {
	Fetch(ctx context.Context, days int) (models.RawSeries, error)
}

// PriceFeed delivers live price observations one tick at a time. Next blocks
// until an observation is available or ctx is done.
type PriceFeed interface {
	Open(ctx context.Context) error
	Next(ctx context.Context) (models.PricePoint, error)
	Close() error
}

// RecordSink publishes completed prediction records to a message backend.
type RecordSink interface {
	Publish(ctx context.Context, r *models.PredictionRecord) error
	PublishBatch(ctx context.Context, rs []*models.PredictionRecord) error
	Close() error
}

// RecordStore persists prediction records and serves them back for the API.
type RecordStore interface {
	Store(ctx context.Context, r *models.PredictionRecord) error
	StoreBatch(ctx context.Context, rs []*models.PredictionRecord) error
	QueryRecent(ctx context.Context, from, to time.Time, limit int) ([]*models.PredictionRecord, error)
	Health(ctx context.Context) error
	Close() error
}

// ModelStore persists trained model manifests across process restarts.
type ModelStore interface {
	Save(m *models.ModelManifest) error
	Load() (*models.ModelManifest, error)
}

// Metrics records operational metrics for the live session and record routing.
type Metrics interface {
	RecordPrediction(result string)
	RecordError(kind string)
	RecordPrice(kind string, price float64)
	RecordBufferLen(n int)
	RecordLatency(op string, seconds float64)
}
