package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"PriceCast/internal/domain/models"
	"PriceCast/internal/service/cache"
	"PriceCast/internal/services/series"
	"PriceCast/internal/usecase"
	"PriceCast/pkg/logger"
)

type stubFeed struct{ prices []float64 }

func (s *stubFeed) Open(ctx context.Context) error { return nil }
func (s *stubFeed) Next(ctx context.Context) (models.PricePoint, error) {
	p := models.PricePoint{Timestamp: time.Now(), Price: s.prices[0]}
	if len(s.prices) > 1 {
		s.prices = s.prices[1:]
	}
	return p, nil
}
func (s *stubFeed) Close() error { return nil }

type stubPredictor struct{}

func (stubPredictor) Predict(ctx context.Context, w models.Window) (float64, error) {
	return w[len(w)-1], nil
}

type stubMetrics struct{}

func (stubMetrics) RecordPrediction(string)       {}
func (stubMetrics) RecordError(string)            {}
func (stubMetrics) RecordPrice(string, float64)   {}
func (stubMetrics) RecordBufferLen(int)           {}
func (stubMetrics) RecordLatency(string, float64) {}

func runSession(t *testing.T) *usecase.LiveSession {
	t.Helper()
	scaler, err := series.RestoreScaleTransformer(0, 200)
	if err != nil {
		t.Fatalf("scaler: %v", err)
	}
	buf, err := series.NewStreamingBuffer(100, 50)
	if err != nil {
		t.Fatalf("buffer: %v", err)
	}
	proc := usecase.NewRecordProcessor(nil, nil, stubMetrics{}, usecase.BackendNone)
	s, err := usecase.NewLiveSession(
		usecase.LiveSessionConfig{Window: 3, Duration: 5 * time.Millisecond, Interval: time.Millisecond, ThresholdPct: 1.0},
		&stubFeed{prices: []float64{100}},
		stubPredictor{},
		scaler,
		buf,
		proc,
		stubMetrics{},
		logger.Nop(),
	)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	s.Seed([]float64{0.5, 0.5, 0.5})
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	return s
}

func doRequest(t *testing.T, h *SessionHandler, path string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSessionEndpoint(t *testing.T) {
	s := runSession(t)
	h := NewSessionHandler(logger.Nop(), s, nil, cache.NewTTLCache(), time.Second)

	rec := doRequest(t, h, "/api/session")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Data models.SessionStatus `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.State != usecase.StateStopped {
		t.Fatalf("expected stopped, got %q", body.Data.State)
	}
	if body.Data.Ticks != 5 {
		t.Fatalf("expected 5 ticks, got %d", body.Data.Ticks)
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	s := runSession(t)
	h := NewSessionHandler(logger.Nop(), s, nil, cache.NewTTLCache(), time.Second)

	rec := doRequest(t, h, "/api/snapshot?threshold=2.5")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Data models.MetricsSnapshot `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Total != 5 {
		t.Fatalf("expected 5 records, got %d", body.Data.Total)
	}
	if body.Data.ThresholdPct != 2.5 {
		t.Fatalf("expected threshold 2.5, got %v", body.Data.ThresholdPct)
	}
}

func TestSnapshotEndpointRejectsBadThreshold(t *testing.T) {
	s := runSession(t)
	h := NewSessionHandler(logger.Nop(), s, nil, cache.NewTTLCache(), time.Second)

	rec := doRequest(t, h, "/api/snapshot?threshold=-1")
	var body struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != http.StatusBadRequest {
		t.Fatalf("expected status 400 in envelope, got %d", body.Status)
	}
}

func TestRecordsEndpoint(t *testing.T) {
	s := runSession(t)
	h := NewSessionHandler(logger.Nop(), s, nil, cache.NewTTLCache(), time.Second)

	rec := doRequest(t, h, "/api/records?limit=3")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Data struct {
			Rows  []models.PredictionRecord `json:"rows"`
			Total int64                     `json:"total"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(body.Data.Rows))
	}
	for _, r := range body.Data.Rows {
		if r.SessionID != s.ID() {
			t.Fatalf("missing session id on record")
		}
	}
}
