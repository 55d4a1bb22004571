package predictor

import (
	"context"

	"PriceCast/internal/domain/models"
	domsvc "PriceCast/internal/domain/service"
)

// Unbound is the predictor used before any model has been attached.
// Every call fails with ErrPredictorUnavailable so a misconfigured
// session surfaces immediately instead of recording garbage.
type Unbound struct{}

func NewUnbound() *Unbound { return &Unbound{} }

func (Unbound) Predict(ctx context.Context, window models.Window) (float64, error) {
	return 0, domsvc.ErrPredictorUnavailable
}

var _ domsvc.Predictor = (*Unbound)(nil)
