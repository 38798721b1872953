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
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Store struct {
		Backend string `yaml:"backend"` // redis or clickhouse
		Redis   struct {
			Host         string        `yaml:"host"`
			Port         int           `yaml:"port"`
			Password     string        `yaml:"password"`
			DB           int           `yaml:"db"`
			PoolSize     int           `yaml:"pool_size"`
			MinIdleConns int           `yaml:"min_idle_conns"`
			PoolTimeout  time.Duration `yaml:"pool_timeout"`
			Prefix       string        `yaml:"prefix"`
		} `yaml:"redis"`
		ClickHouse struct {
			Host         string        `yaml:"host"`
			Port         int           `yaml:"port"`
			Database     string        `yaml:"database"`
			User         string        `yaml:"user"`
			Password     string        `yaml:"password"`
			DialTimeout  time.Duration `yaml:"dial_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
		} `yaml:"clickhouse"`
	} `yaml:"store"`
	Provider struct {
		BaseURL     string        `yaml:"base_url"`
		Timeout     time.Duration `yaml:"timeout"`
		MaxRetries  int           `yaml:"max_retries"`
		BackoffBase time.Duration `yaml:"backoff_base"`
	} `yaml:"provider"`
	Cache struct {
		CoverageThreshold float64       `yaml:"coverage_threshold"`
		TTLHistorical     time.Duration `yaml:"ttl_historical"`
		TTLCurrent        time.Duration `yaml:"ttl_current"`
		HistoricalAgeDays int           `yaml:"historical_age_days"`
		EmptyMarkerTTL    time.Duration `yaml:"empty_marker_ttl"`
		EarningsTTL       time.Duration `yaml:"earnings_ttl"`
	} `yaml:"cache"`
	Batch struct {
		MaxSymbols int `yaml:"max_symbols"`
		MaxWorkers int `yaml:"max_workers"`
	} `yaml:"batch"`
	Writeback struct {
		Mode  string `yaml:"mode"` // direct or kafka
		Kafka struct {
			Brokers      []string      `yaml:"brokers"`
			Topic        string        `yaml:"topic"`
			GroupID      string        `yaml:"group_id"`
			RequiredAcks int           `yaml:"required_acks"`
			Compression  string        `yaml:"compression"`
			MaxAttempts  int           `yaml:"max_attempts"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Workers      int           `yaml:"workers"`
			BufferSize   int           `yaml:"buffer_size"`
		} `yaml:"kafka"`
	} `yaml:"writeback"`
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

	c.applyDefaults()

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

	if v := os.Getenv("STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Store.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Store.Redis.Password = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.Store.ClickHouse.Host = v
	}
	if v := os.Getenv("PROVIDER_BASE_URL"); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv("WRITEBACK_MODE"); v != "" {
		c.Writeback.Mode = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Writeback.Kafka.Brokers = strings.Split(v, ",")
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Store.Backend == "" {
		c.Store.Backend = "redis"
	}
	if c.Store.Redis.Host == "" {
		c.Store.Redis.Host = "localhost"
	}
	if c.Store.Redis.Port <= 0 {
		c.Store.Redis.Port = 6379
	}
	if c.Store.Redis.PoolSize <= 0 {
		c.Store.Redis.PoolSize = 10
	}
	if c.Store.Redis.MinIdleConns <= 0 {
		c.Store.Redis.MinIdleConns = 5
	}
	if c.Store.Redis.PoolTimeout <= 0 {
		c.Store.Redis.PoolTimeout = 30 * time.Second
	}
	if c.Store.Redis.Prefix == "" {
		c.Store.Redis.Prefix = "quotevault"
	}
	if c.Store.ClickHouse.Port <= 0 {
		c.Store.ClickHouse.Port = 9000
	}
	if c.Store.ClickHouse.Database == "" {
		c.Store.ClickHouse.Database = "quotevault"
	}
	if c.Store.ClickHouse.DialTimeout <= 0 {
		c.Store.ClickHouse.DialTimeout = 5 * time.Second
	}
	if c.Store.ClickHouse.ReadTimeout <= 0 {
		c.Store.ClickHouse.ReadTimeout = 10 * time.Second
	}
	if c.Store.ClickHouse.WriteTimeout <= 0 {
		c.Store.ClickHouse.WriteTimeout = 10 * time.Second
	}
	if c.Writeback.Mode == "" {
		c.Writeback.Mode = "direct"
	}
	if c.Provider.Timeout <= 0 {
		c.Provider.Timeout = 10 * time.Second
	}
	if c.Provider.MaxRetries <= 0 {
		c.Provider.MaxRetries = 3
	}
	if c.Provider.BackoffBase <= 0 {
		c.Provider.BackoffBase = 2 * time.Second
	}
	if c.Cache.CoverageThreshold <= 0 {
		c.Cache.CoverageThreshold = 0.8
	}
	if c.Cache.TTLHistorical <= 0 {
		c.Cache.TTLHistorical = 90 * 24 * time.Hour
	}
	if c.Cache.TTLCurrent <= 0 {
		c.Cache.TTLCurrent = 24 * time.Hour
	}
	if c.Cache.HistoricalAgeDays <= 0 {
		c.Cache.HistoricalAgeDays = 7
	}
	if c.Cache.EmptyMarkerTTL <= 0 {
		c.Cache.EmptyMarkerTTL = 24 * time.Hour
	}
	if c.Cache.EarningsTTL <= 0 {
		c.Cache.EarningsTTL = 24 * time.Hour
	}
	if c.Batch.MaxSymbols <= 0 {
		c.Batch.MaxSymbols = 10
	}
	if c.Batch.MaxWorkers <= 0 {
		c.Batch.MaxWorkers = 5
	}
	if c.Writeback.Mode == "kafka" {
		if c.Writeback.Kafka.GroupID == "" {
			c.Writeback.Kafka.GroupID = "quotevault-writeback"
		}
		if c.Writeback.Kafka.Compression == "" {
			c.Writeback.Kafka.Compression = "gzip"
		}
		if c.Writeback.Kafka.MaxAttempts <= 0 {
			c.Writeback.Kafka.MaxAttempts = 3
		}
		if c.Writeback.Kafka.WriteTimeout <= 0 {
			c.Writeback.Kafka.WriteTimeout = 10 * time.Second
		}
		if c.Writeback.Kafka.ReadTimeout <= 0 {
			c.Writeback.Kafka.ReadTimeout = 10 * time.Second
		}
		if c.Writeback.Kafka.Workers <= 0 {
			c.Writeback.Kafka.Workers = 4
		}
		if c.Writeback.Kafka.BufferSize <= 0 {
			c.Writeback.Kafka.BufferSize = 1024
		}
	}
	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Store.Backend != "redis" && c.Store.Backend != "clickhouse" {
		return fmt.Errorf("store.backend must be 'redis' or 'clickhouse', got '%s'", c.Store.Backend)
	}
	if c.Writeback.Mode != "direct" && c.Writeback.Mode != "kafka" {
		return fmt.Errorf("writeback.mode must be 'direct' or 'kafka', got '%s'", c.Writeback.Mode)
	}
	if c.Writeback.Mode == "kafka" {
		if len(c.Writeback.Kafka.Brokers) == 0 {
			return fmt.Errorf("writeback.kafka.brokers cannot be empty")
		}
		if c.Writeback.Kafka.Topic == "" {
			return fmt.Errorf("writeback.kafka.topic is required")
		}
	}
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider.base_url is required")
	}
	return nil
}
