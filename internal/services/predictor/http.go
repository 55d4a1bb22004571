package predictor

import (
	"context"
	"fmt"
	"time"

	"PriceCast/internal/domain/models"
	domsvc "PriceCast/internal/domain/service"
	"PriceCast/internal/service/metrics"
	"PriceCast/pkg/config"
	phttp "PriceCast/pkg/http"
)

// HTTPPredictor calls an external model service over HTTP. The model
// itself is opaque; this side only ships windows and reads numbers
// back.
type HTTPPredictor struct {
	baseURL string
	client  *phttp.Client
}

func NewHTTPPredictor(cfg *config.Config) *HTTPPredictor {
	metrics.Register()
	return &HTTPPredictor{
		baseURL: cfg.Predictor.ServiceURL,
		client:  phttp.NewClient(phttp.WithTimeout(cfg.Predictor.Timeout)),
	}
}

type predictRequest struct {
	Window []float64 `json:"window"`
}

type predictResponse struct {
	Prediction float64 `json:"prediction"`
}

// Predict returns the model's next-value estimate in normalized space.
func (p *HTTPPredictor) Predict(ctx context.Context, window models.Window) (float64, error) {
	start := time.Now()
	var resp predictResponse
	err := p.client.SendAndParse(ctx, &phttp.RequestOptions{
		Method: phttp.MethodPost,
		URL:    p.baseURL + "/model/predict",
		Body:   predictRequest{Window: window},
	}, &resp)
	metrics.PredictorLatency.WithLabelValues("predict").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PredictorErrors.WithLabelValues("predict").Inc()
		return 0, fmt.Errorf("model predict: %w", err)
	}
	return resp.Prediction, nil
}

var _ domsvc.Predictor = (*HTTPPredictor)(nil)

// HTTPTrainer requests a training run on the model service.
type HTTPTrainer struct {
	baseURL string
	window  int
	client  *phttp.Client
}

func NewHTTPTrainer(cfg *config.Config) *HTTPTrainer {
	metrics.Register()
	return &HTTPTrainer{
		baseURL: cfg.Predictor.ServiceURL,
		window:  cfg.Model.Window,
		// training runs long; do not reuse the predict timeout
		client: phttp.NewClient(phttp.WithTimeout(10 * time.Minute)),
	}
}

type trainSample struct {
	Window []float64 `json:"window"`
	Label  float64   `json:"label"`
}

type trainRequest struct {
	Window int           `json:"window"`
	Train  []trainSample `json:"train"`
	Test   []trainSample `json:"test"`
}

type trainResponse struct {
	ModelID string `json:"model_id"`
}

// Train ships prepared samples to the model service and returns the
// manifest of the resulting model. Scale bounds are filled in by the
// caller, which owns the fitted transformer.
func (t *HTTPTrainer) Train(ctx context.Context, train, test []models.Sample) (*models.ModelManifest, error) {
	start := time.Now()
	req := trainRequest{
		Window: t.window,
		Train:  toTrainSamples(train),
		Test:   toTrainSamples(test),
	}
	var resp trainResponse
	err := t.client.SendAndParse(ctx, &phttp.RequestOptions{
		Method: phttp.MethodPost,
		URL:    t.baseURL + "/model/train",
		Body:   req,
	}, &resp)
	metrics.PredictorLatency.WithLabelValues("train").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PredictorErrors.WithLabelValues("train").Inc()
		return nil, fmt.Errorf("model train: %w", err)
	}
	return &models.ModelManifest{
		ModelID:   resp.ModelID,
		Window:    t.window,
		TrainedAt: time.Now().UTC(),
	}, nil
}

var _ domsvc.Trainer = (*HTTPTrainer)(nil)

func toTrainSamples(in []models.Sample) []trainSample {
	out := make([]trainSample, 0, len(in))
	for _, s := range in {
		out = append(out, trainSample{Window: s.Window, Label: s.Label})
	}
	return out
}
