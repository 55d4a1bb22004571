package di

import (
	"context"
	"fmt"
	"time"

	domrepo "PriceCast/internal/domain/repository"
	domsvc "PriceCast/internal/domain/service"
	mid "PriceCast/internal/middleware"
	internalrepo "PriceCast/internal/repository"
	"PriceCast/internal/service/cache"
	"PriceCast/internal/service/feed"
	"PriceCast/internal/services/predictor"
	"PriceCast/internal/usecase"
	pkgch "PriceCast/pkg/clickhouse"
	"PriceCast/pkg/config"
	pkgkafka "PriceCast/pkg/kafka"
	applogger "PriceCast/pkg/logger"
	"PriceCast/pkg/metrics"
	"PriceCast/pkg/server"
)

// FeedSet bundles the live feed with the history source backing it.
// With a synthetic feed both roles are served by the same random walk
// so history and live ticks share a distribution.
type FeedSet struct {
	Feed   domrepo.PriceFeed
	Source domrepo.DataSource
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client when the backend
// needs one; otherwise returns nil and the app runs without it.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	needed := cfg.Backend.Type == usecase.BackendClickHouse ||
		consumerWanted(cfg) ||
		cfg.Feed.Type == "websocket"
	if !needed {
		return nil, nil
	}

	client, err := pkgch.NewClient(
		pkgch.WithAddress(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithPool(10, 5, 5*time.Minute),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := append(
		[]string{
			"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
			fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (symbol String, ts DateTime, price Float64, volume Float64) ENGINE=MergeTree ORDER BY (symbol, ts)", recordsPriceTable(cfg)),
		},
		internalrepo.RecordSchema(recordsTable(cfg))...,
	)
	if err := client.InitSchema(ctx, stmts); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer when the backend is kafka.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Backend.Type != usecase.BackendKafka {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideRecordSink creates the Kafka record sink.
func ProvideRecordSink(producer *pkgkafka.Producer, cfg *config.Config) domrepo.RecordSink {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaRecordSink(producer, cfg.Kafka.Topic)
}

// ProvideRecordStore creates the ClickHouse record store.
func ProvideRecordStore(chClient *pkgch.Client, cfg *config.Config) domrepo.RecordStore {
	if chClient == nil {
		return nil
	}
	return internalrepo.NewClickHouseRecordStore(chClient.DB(), recordsTable(cfg))
}

// ProvideFeedSet creates the configured feed and its history source.
func ProvideFeedSet(cfg *config.Config, chClient *pkgch.Client, log *applogger.Logger) (*FeedSet, error) {
	switch cfg.Feed.Type {
	case "synthetic":
		f := feed.NewSyntheticFeed(
			cfg.Feed.Synthetic.StartPrice,
			cfg.Feed.Synthetic.VolatilityPct,
			cfg.Feed.Synthetic.Floor,
			cfg.Feed.Synthetic.Seed,
		)
		return &FeedSet{Feed: f, Source: f}, nil
	case "websocket":
		if chClient == nil {
			return nil, fmt.Errorf("websocket feed needs clickhouse history")
		}
		src := internalrepo.NewCHHistorySource(chClient.DB(), recordsPriceTable(cfg), cfg.Feed.Symbol)
		src.SetLogger(log)
		f := feed.NewWebSocketFeed(
			cfg.Feed.WebSocket.URL,
			cfg.Feed.WebSocket.APIKey,
			cfg.Feed.Symbol,
			cfg.Feed.WebSocket.ReconnectDelay,
			cfg.Feed.WebSocket.PingInterval,
			log,
		)
		return &FeedSet{Feed: f, Source: src}, nil
	default:
		return nil, fmt.Errorf("unknown feed type %q", cfg.Feed.Type)
	}
}

// ProvidePredictor creates the model boundary. Without a service URL
// the predictor stays unbound and every tick is skipped.
func ProvidePredictor(cfg *config.Config) domsvc.Predictor {
	if cfg.Predictor.ServiceURL == "" {
		return predictor.NewUnbound()
	}
	return predictor.NewHTTPPredictor(cfg)
}

// ProvideTrainer creates the trainer, or nil without a service URL.
func ProvideTrainer(cfg *config.Config) domsvc.Trainer {
	if cfg.Predictor.ServiceURL == "" {
		return nil
	}
	return predictor.NewHTTPTrainer(cfg)
}

// ProvideModelStore persists manifests under the model directory.
func ProvideModelStore(cfg *config.Config) domrepo.ModelStore {
	return internalrepo.NewFileModelStore(cfg.Predictor.ModelDir)
}

// ProvideRecordProcessor creates the backend router.
func ProvideRecordProcessor(
	sink domrepo.RecordSink,
	store domrepo.RecordStore,
	m domrepo.Metrics,
	cfg *config.Config,
) *usecase.RecordProcessor {
	return usecase.NewRecordProcessor(sink, store, m, cfg.Backend.Type)
}

// ProvideRecordPipeline buffers records in front of the processor.
func ProvideRecordPipeline(proc *usecase.RecordProcessor, m domrepo.Metrics) *mid.RecordPipeline {
	return mid.NewRecordPipeline(proc, m, mid.WithBufferSize(2000))
}

// ProvideKafkaConsumer creates the records consumer when enabled.
func ProvideKafkaConsumer(
	cfg *config.Config,
	store domrepo.RecordStore,
	m domrepo.Metrics,
	log *applogger.Logger,
) (*pkgkafka.Consumer, error) {
	if !consumerWanted(cfg) || store == nil {
		return nil, nil
	}
	handler := usecase.NewKafkaRecordsHandler(cfg.Kafka.Topic, store, m)
	consumer, err := pkgkafka.NewConsumer(
		handler.Topic(),
		handler,
		log,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideCache selects Redis or the in-process TTL cache.
func ProvideCache(cfg *config.Config) cache.BytesCache {
	if cfg.Cache.Redis.Enabled {
		return cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
	}
	return cache.NewTTLCache()
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	m domrepo.Metrics,
	feeds *FeedSet,
	pred domsvc.Predictor,
	trainer domsvc.Trainer,
	modelStore domrepo.ModelStore,
	proc *usecase.RecordProcessor,
	pipeline *mid.RecordPipeline,
	consumer *pkgkafka.Consumer,
	store domrepo.RecordStore,
	c cache.BytesCache,
	chClient *pkgch.Client,
) *server.App {
	return server.New(server.Deps{
		Config:     cfg,
		Logger:     log,
		Metrics:    m,
		Feed:       feeds.Feed,
		Source:     feeds.Source,
		Predictor:  pred,
		Trainer:    trainer,
		ModelStore: modelStore,
		Processor:  proc,
		Pipeline:   pipeline,
		Consumer:   consumer,
		Store:      store,
		Cache:      c,
		ClickHouse: chClient,
	})
}

func consumerWanted(cfg *config.Config) bool {
	return cfg.Backend.Type == usecase.BackendKafka && cfg.Kafka.Consumer.Enabled
}

func recordsTable(cfg *config.Config) string {
	return cfg.ClickHouse.Database + ".prediction_records"
}

func recordsPriceTable(cfg *config.Config) string {
	return cfg.ClickHouse.Database + ".minute_prices"
}
