package usecase

import (
	"context"
	"encoding/json"
	"time"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
	pkgkafka "PriceCast/pkg/kafka"
)

// KafkaRecordsHandler consumes prediction records from Kafka and
// writes them to storage. Runs when backend is kafka so the records
// topic still lands in ClickHouse for the query API.
type KafkaRecordsHandler struct {
	topic   string
	store   domrepo.RecordStore
	metrics domrepo.Metrics
}

func NewKafkaRecordsHandler(topic string, store domrepo.RecordStore, metrics domrepo.Metrics) *KafkaRecordsHandler {
	return &KafkaRecordsHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaRecordsHandler) Topic() string { return h.topic }

func (h *KafkaRecordsHandler) Handle(ctx context.Context, key, value []byte) error {
	var r models.PredictionRecord
	if err := json.Unmarshal(value, &r); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if r.SessionID == "" {
		r.SessionID = string(key)
	}

	// record-time to landing latency, approximate
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(r.Timestamp).Seconds())

	start := time.Now()
	err := h.store.Store(ctx, &r)
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaRecordsHandler)(nil)
