package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
	pkgkafka "PriceCast/pkg/kafka"
)

// ClickHouseRecordStore implements RecordStore for ClickHouse.
type ClickHouseRecordStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseRecordStore creates ClickHouse record storage.
func NewClickHouseRecordStore(db *sql.DB, table string) domrepo.RecordStore {
	return &ClickHouseRecordStore{db: db, table: table}
}

// RecordSchema returns idempotent DDL for the prediction records table.
func RecordSchema(table string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			ts DateTime,
			session_id String,
			predicted Float64,
			actual Float64
		) ENGINE = MergeTree()
		ORDER BY (session_id, ts)`, table),
	}
}

func (s *ClickHouseRecordStore) Store(ctx context.Context, r *models.PredictionRecord) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, session_id, predicted, actual) VALUES (?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q, r.Timestamp, r.SessionID, r.Predicted, r.Actual)
	return err
}

func (s *ClickHouseRecordStore) StoreBatch(ctx context.Context, rs []*models.PredictionRecord) error {
	if len(rs) == 0 {
		return nil
	}
	const chunkSize = 2000
	for start := 0; start < len(rs); start += chunkSize {
		end := start + chunkSize
		if end > len(rs) {
			end = len(rs)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*4)
		for _, r := range rs[start:end] {
			if r == nil || r.Timestamp.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?)")
			args = append(args, r.Timestamp, r.SessionID, r.Predicted, r.Actual)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, session_id, predicted, actual) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseRecordStore) QueryRecent(ctx context.Context, from, to time.Time, limit int) ([]*models.PredictionRecord, error) {
	q := fmt.Sprintf("SELECT ts, session_id, predicted, actual FROM %s WHERE ts >= ? AND ts <= ? ORDER BY ts DESC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []*models.PredictionRecord
	for rows.Next() {
		var r models.PredictionRecord
		if err := rows.Scan(&r.Timestamp, &r.SessionID, &r.Predicted, &r.Actual); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *ClickHouseRecordStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseRecordStore) Close() error {
	return nil // pool managed by pkg
}

// KafkaRecordSink implements RecordSink for Kafka. Records are keyed
// by session ID so one session's records stay in order.
type KafkaRecordSink struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaRecordSink creates a Kafka record sink.
func NewKafkaRecordSink(producer *pkgkafka.Producer, topic string) domrepo.RecordSink {
	return &KafkaRecordSink{producer: producer, topic: topic}
}

func (p *KafkaRecordSink) Publish(ctx context.Context, r *models.PredictionRecord) error {
	return p.producer.Publish(ctx, p.topic, []byte(r.SessionID), r)
}

func (p *KafkaRecordSink) PublishBatch(ctx context.Context, rs []*models.PredictionRecord) error {
	if len(rs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(rs))
	for i, r := range rs {
		msgs[i] = pkgkafka.Message{Key: []byte(r.SessionID), Value: r}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaRecordSink) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
