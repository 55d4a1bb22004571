package service

import (
	"context"
	"errors"

	"PriceCast/internal/domain/models"
)

// ErrPredictorUnavailable is returned when no trained model is bound. The live
// loop treats it as a skip for the current tick, never a fatal abort.
var ErrPredictorUnavailable = errors.New("predictor unavailable")

// Predictor estimates the next normalized value from the last window.
// Implementations must reject windows whose length differs from the length the
// model was trained on, and must be idempotent for identical input.
type Predictor interface {
	Predict(ctx context.Context, w models.Window) (float64, error)
}

// Trainer fits a model on prepared samples and returns its manifest.
type Trainer interface {
	Train(ctx context.Context, train, test []models.Sample) (*models.ModelManifest, error)
}
