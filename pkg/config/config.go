package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Log         struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Path string `yaml:"path"`
	} `yaml:"metrics"`
	Backend struct {
		Type string `yaml:"type"` // kafka, clickhouse, or none
	} `yaml:"backend"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Feed struct {
		Type        string `yaml:"type"` // synthetic or websocket
		Symbol      string `yaml:"symbol"`
		HistoryDays int    `yaml:"history_days"`
		Synthetic   struct {
			StartPrice    float64 `yaml:"start_price"`
			VolatilityPct float64 `yaml:"volatility_pct"`
			Floor         float64 `yaml:"floor"`
			Seed          int64   `yaml:"seed"`
		} `yaml:"synthetic"`
		WebSocket struct {
			URL            string        `yaml:"url"`
			APIKey         string        `yaml:"api_key"`
			ReconnectDelay time.Duration `yaml:"reconnect_delay"`
			PingInterval   time.Duration `yaml:"ping_interval"`
		} `yaml:"websocket"`
	} `yaml:"feed"`
	Predictor struct {
		ServiceURL   string        `yaml:"service_url"`
		Timeout      time.Duration `yaml:"timeout"`
		ModelDir     string        `yaml:"model_dir"`
		TrainOnStart bool          `yaml:"train_on_start"`
	} `yaml:"predictor"`
	Model struct {
		Window        int     `yaml:"window"`
		SplitFraction float64 `yaml:"split_fraction"`
	} `yaml:"model"`
	Buffer struct {
		HighWater int `yaml:"high_water"`
		LowWater  int `yaml:"low_water"`
	} `yaml:"buffer"`
	Live struct {
		DurationMinutes int     `yaml:"duration_minutes"`
		IntervalSeconds int     `yaml:"interval_seconds"`
		ThresholdPct    float64 `yaml:"threshold_pct"`
	} `yaml:"live"`
	Cache struct {
		SnapshotTTL time.Duration `yaml:"snapshot_ttl"`
		Redis       struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("PREDICTOR_URL"); v != "" {
		c.Predictor.ServiceURL = v
	}
	if v := os.Getenv("FEED"); v != "" {
		c.Feed.Type = v
	}
	if v := os.Getenv("FEED_API_KEY"); v != "" {
		c.Feed.WebSocket.APIKey = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Backend.Type {
	case "kafka", "clickhouse", "none":
	default:
		return fmt.Errorf("backend.type must be 'kafka', 'clickhouse' or 'none', got '%s'", c.Backend.Type)
	}
	switch c.Feed.Type {
	case "synthetic", "websocket":
	default:
		return fmt.Errorf("feed.type must be 'synthetic' or 'websocket', got '%s'", c.Feed.Type)
	}
	if c.Feed.Type == "websocket" && c.Feed.WebSocket.URL == "" {
		return fmt.Errorf("feed.websocket.url is required for websocket feed")
	}
	if c.Model.Window <= 0 {
		return fmt.Errorf("model.window must be positive, got %d", c.Model.Window)
	}
	if c.Model.SplitFraction <= 0 || c.Model.SplitFraction >= 1 {
		return fmt.Errorf("model.split_fraction must be in (0,1), got %v", c.Model.SplitFraction)
	}
	if c.Buffer.LowWater <= 0 || c.Buffer.HighWater <= c.Buffer.LowWater {
		return fmt.Errorf("buffer water marks invalid: high=%d low=%d", c.Buffer.HighWater, c.Buffer.LowWater)
	}
	if c.Live.DurationMinutes <= 0 || c.Live.IntervalSeconds <= 0 {
		return fmt.Errorf("live.duration_minutes and live.interval_seconds must be positive")
	}
	return nil
}
