package kafka

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"

	"PriceCast/pkg/logger"
)

// MessageHandler processes a single consumed message.
type MessageHandler interface {
	Handle(ctx context.Context, key, value []byte) error
}

// MessageHandlerFunc adapts a function to MessageHandler.
type MessageHandlerFunc func(ctx context.Context, key, value []byte) error

func (f MessageHandlerFunc) Handle(ctx context.Context, key, value []byte) error {
	return f(ctx, key, value)
}

// Consumer reads messages from one topic and dispatches them to a
// worker pool. Offsets are committed only after the handler succeeds
// or the message is routed to the DLQ.
type Consumer struct {
	reader  *kafka.Reader
	handler MessageHandler
	cfg     *ConsumerConfig
	dlq     *Producer
	log     *logger.Logger

	msgCh chan kafka.Message
	wg    sync.WaitGroup
}

// NewConsumer creates a consumer for the given topic.
func NewConsumer(topic string, handler MessageHandler, log *logger.Logger, opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		Workers:    4,
		BufferSize: 256,
		RetryMax:   3,
		BackoffMin: 100 * time.Millisecond,
		BackoffMax: 5 * time.Second,
		MinBytes:   1,
		MaxBytes:   10 * 1024 * 1024,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	if cfg.GroupID == "" {
		return nil, fmt.Errorf("group id is required")
	}
	if handler == nil {
		return nil, fmt.Errorf("handler is required")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    topic,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	})

	var dlq *Producer
	if cfg.DLQTopic != "" {
		var err error
		dlq, err = NewProducer(WithBrokers(cfg.Brokers))
		if err != nil {
			reader.Close()
			return nil, fmt.Errorf("create dlq producer: %w", err)
		}
	}

	registerConsumerMetrics()
	return &Consumer{
		reader:  reader,
		handler: handler,
		cfg:     cfg,
		dlq:     dlq,
		log:     log,
		msgCh:   make(chan kafka.Message, cfg.BufferSize),
	}, nil
}

// Run fetches and processes messages until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	for i := 0; i < c.cfg.Workers; i++ {
		c.wg.Add(1)
		go c.worker(ctx)
	}

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			close(c.msgCh)
			c.wg.Wait()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		select {
		case c.msgCh <- msg:
			consumerLag.WithLabelValues(msg.Topic).Set(float64(c.reader.Lag()))
		case <-ctx.Done():
			close(c.msgCh)
			c.wg.Wait()
			return ctx.Err()
		}
	}
}

// Close releases the reader and DLQ producer.
func (c *Consumer) Close() error {
	err := c.reader.Close()
	if c.dlq != nil {
		if derr := c.dlq.Close(); err == nil {
			err = derr
		}
	}
	return err
}

func (c *Consumer) worker(ctx context.Context) {
	defer c.wg.Done()
	for msg := range c.msgCh {
		c.process(ctx, msg)
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	start := time.Now()
	err := c.handleWithRetry(ctx, msg)
	result := "ok"
	if err != nil {
		result = "error"
		c.log.Error("message handling failed",
			logger.String("topic", msg.Topic),
			logger.Int64("offset", msg.Offset),
			logger.Error(err),
		)
		if c.dlq != nil {
			if derr := c.dlq.Publish(ctx, c.cfg.DLQTopic, msg.Key, msg.Value); derr != nil {
				c.log.Error("dlq publish failed", logger.Error(derr))
				return
			}
			consumerDLQTotal.WithLabelValues(msg.Topic).Inc()
		} else {
			return
		}
	}
	consumerMsgsTotal.WithLabelValues(msg.Topic, result).Inc()
	consumerLatencyHist.WithLabelValues(msg.Topic).Observe(time.Since(start).Seconds())

	if cerr := c.commitWithRetry(ctx, msg); cerr != nil {
		c.log.Error("commit failed",
			logger.String("topic", msg.Topic),
			logger.Int64("offset", msg.Offset),
			logger.Error(cerr),
		)
	}
}

func (c *Consumer) handleWithRetry(ctx context.Context, msg kafka.Message) error {
	var err error
	for attempt := 0; attempt <= c.cfg.RetryMax; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoffWithJitter(attempt, c.cfg.BackoffMin, c.cfg.BackoffMax)):
			case <-ctx.Done():
				return ctx.Err()
			}
			consumerRetriesTotal.WithLabelValues(msg.Topic).Inc()
		}
		if err = c.handler.Handle(ctx, msg.Key, msg.Value); err == nil {
			return nil
		}
	}
	return err
}

func (c *Consumer) commitWithRetry(ctx context.Context, msg kafka.Message) error {
	var err error
	for attempt := 0; attempt <= c.cfg.RetryMax; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoffWithJitter(attempt, c.cfg.BackoffMin, c.cfg.BackoffMax)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err = c.reader.CommitMessages(ctx, msg); err == nil {
			return nil
		}
	}
	return err
}

func backoffWithJitter(attempt int, min, max time.Duration) time.Duration {
	d := min << uint(attempt-1)
	if d > max || d <= 0 {
		d = max
	}
	// up to 25% jitter to avoid thundering herds on broker recovery
	jitter := time.Duration(rand.Int63n(int64(d)/4 + 1))
	return d + jitter
}

var (
	consumerMsgsTotal    *prometheus.CounterVec
	consumerRetriesTotal *prometheus.CounterVec
	consumerDLQTotal     *prometheus.CounterVec
	consumerLatencyHist  *prometheus.HistogramVec
	consumerLag          *prometheus.GaugeVec
	consumerOnce         sync.Once
)

func registerConsumerMetrics() {
	consumerOnce.Do(func() {
		consumerMsgsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricecast_kafka_consumer_messages_total",
				Help: "Total messages consumed",
			},
			[]string{"topic", "result"},
		)
		consumerRetriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricecast_kafka_consumer_retries_total",
				Help: "Total handler retries",
			},
			[]string{"topic"},
		)
		consumerDLQTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricecast_kafka_consumer_dlq_total",
				Help: "Total messages routed to the DLQ",
			},
			[]string{"topic"},
		)
		consumerLatencyHist = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pricecast_kafka_consumer_handle_seconds",
				Help:    "Handler latency including retries",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"topic"},
		)
		consumerLag = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pricecast_kafka_consumer_lag",
				Help: "Current reader lag",
			},
			[]string{"topic"},
		)
	})
}
