package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"PriceCast/internal/domain/models"
)

type fakeSink struct {
	published []*models.PredictionRecord
	fail      bool
}

func (f *fakeSink) Publish(ctx context.Context, r *models.PredictionRecord) error {
	if f.fail {
		return errors.New("broker down")
	}
	f.published = append(f.published, r)
	return nil
}

func (f *fakeSink) PublishBatch(ctx context.Context, rs []*models.PredictionRecord) error {
	if f.fail {
		return errors.New("broker down")
	}
	f.published = append(f.published, rs...)
	return nil
}

func (f *fakeSink) Close() error { return nil }

type fakeStore struct {
	stored []*models.PredictionRecord
}

func (f *fakeStore) Store(ctx context.Context, r *models.PredictionRecord) error {
	f.stored = append(f.stored, r)
	return nil
}

func (f *fakeStore) StoreBatch(ctx context.Context, rs []*models.PredictionRecord) error {
	f.stored = append(f.stored, rs...)
	return nil
}

func (f *fakeStore) QueryRecent(ctx context.Context, from, to time.Time, limit int) ([]*models.PredictionRecord, error) {
	return f.stored, nil
}

func (f *fakeStore) Health(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                     { return nil }

func testRecord() *models.PredictionRecord {
	return &models.PredictionRecord{
		SessionID: "s1",
		Timestamp: time.Now(),
		Predicted: 101,
		Actual:    100,
	}
}

func TestRecordProcessorRoutesToKafka(t *testing.T) {
	sink := &fakeSink{}
	store := &fakeStore{}
	p := NewRecordProcessor(sink, store, nopMetrics{}, BackendKafka)

	if err := p.Process(context.Background(), testRecord()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(sink.published) != 1 || len(store.stored) != 0 {
		t.Fatalf("expected kafka routing, got sink=%d store=%d", len(sink.published), len(store.stored))
	}
}

func TestRecordProcessorRoutesToClickHouse(t *testing.T) {
	sink := &fakeSink{}
	store := &fakeStore{}
	p := NewRecordProcessor(sink, store, nopMetrics{}, BackendClickHouse)

	rs := []*models.PredictionRecord{testRecord(), testRecord()}
	if err := p.ProcessBatch(context.Background(), rs); err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if len(store.stored) != 2 || len(sink.published) != 0 {
		t.Fatalf("expected clickhouse routing, got sink=%d store=%d", len(sink.published), len(store.stored))
	}
}

func TestRecordProcessorNoneBackendDropsSilently(t *testing.T) {
	p := NewRecordProcessor(nil, nil, nopMetrics{}, BackendNone)
	if err := p.Process(context.Background(), testRecord()); err != nil {
		t.Fatalf("process: %v", err)
	}
}

func TestRecordProcessorUnknownBackend(t *testing.T) {
	p := NewRecordProcessor(&fakeSink{}, &fakeStore{}, nopMetrics{}, "postgres")
	if err := p.Process(context.Background(), testRecord()); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestRecordProcessorNilRecord(t *testing.T) {
	p := NewRecordProcessor(&fakeSink{}, &fakeStore{}, nopMetrics{}, BackendKafka)
	if err := p.Process(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil record")
	}
}
