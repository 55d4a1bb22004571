package usecase

import (
	"context"
	"fmt"

	"PriceCast/internal/domain/models"
	drepo "PriceCast/internal/domain/repository"
	"PriceCast/internal/services/series"
)

// PreparedData is the output of offline preparation: a fitted scaler,
// the normalized history, and the temporal train/test split.
type PreparedData struct {
	Hist   models.RawSeries
	Scaler *series.ScaleTransformer
	Norm   []float64
	Train  []models.Sample
	Test   []models.Sample
}

// Prepare fetches history, fits the scaler once, normalizes the series
// and builds windowed samples. The scaler in the result is the only
// fit the process will ever have; live ticks reuse it as-is.
func Prepare(ctx context.Context, src drepo.DataSource, days, window int, splitFraction float64) (*PreparedData, error) {
	hist, err := src.Fetch(ctx, days)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}

	scaler := series.NewScaleTransformer()
	if err := scaler.Fit(hist); err != nil {
		return nil, fmt.Errorf("fit scaler: %w", err)
	}

	norm := scaler.ForwardAll(hist.Prices())
	samples, err := series.BuildSamples(norm, window)
	if err != nil {
		return nil, fmt.Errorf("build samples: %w", err)
	}

	train, test := series.Split(samples, splitFraction)
	return &PreparedData{
		Hist:   hist,
		Scaler: scaler,
		Norm:   norm,
		Train:  train,
		Test:   test,
	}, nil
}
