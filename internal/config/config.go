package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port          int    `yaml:"port"`
	AdminSecret   string `yaml:"admin_secret"`   // HMAC secret for the stats endpoint JWT
	BulkMaxItems  int    `yaml:"bulk_max_items"` // max conversations per bulk request
	MaxListLimit  int    `yaml:"max_list_limit"`
	EnableMetrics bool   `yaml:"enable_metrics"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type RateLimitConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// AnalysisConfig tunes the analysis client (mock or real).
type AnalysisConfig struct {
	Mode        string        `yaml:"mode"` // mock | real
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	CostPer1K   float64       `yaml:"cost_per_1k"` // USD per 1000 tokens
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	MaxRetries  int           `yaml:"max_retries"`
	BackoffBase time.Duration `yaml:"backoff_base"`
	MaxJitter   time.Duration `yaml:"max_jitter"`
}

// PipelineConfig tunes the batch scheduler and its two cheap stages.
type PipelineConfig struct {
	QueueCapacity          int           `yaml:"queue_capacity"`
	MinBatchSize           int           `yaml:"min_batch_size"`
	MaxBatchSize           int           `yaml:"max_batch_size"`
	StartBatchSize         int           `yaml:"start_batch_size"`
	FlushTimeout           time.Duration `yaml:"flush_timeout"`
	BackpressureThreshold  int           `yaml:"backpressure_threshold"`
	ErrorThreshold         int           `yaml:"error_threshold"`
	CircuitBreakerCooldown time.Duration `yaml:"circuit_breaker_cooldown"`
	MinTextLength          int           `yaml:"min_text_length"`

	// Both stages default to enabled; pointers distinguish "unset" from
	// an explicit false in the YAML.
	EnablePrefilter *bool `yaml:"enable_prefilter"`
	EnableCache     *bool `yaml:"enable_cache"`
}

func (p *PipelineConfig) PrefilterEnabled() bool {
	return p.EnablePrefilter == nil || *p.EnablePrefilter
}

func (p *PipelineConfig) CacheEnabled() bool {
	return p.EnableCache == nil || *p.EnableCache
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Analysis.Mode != "mock" && cfg.Analysis.Mode != "real" {
		return nil, fmt.Errorf("analysis.mode must be mock or real, got %q", cfg.Analysis.Mode)
	}
	if cfg.RateLimit.Enabled && cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required when rate_limit.enabled")
	}
	if cfg.Pipeline.MinBatchSize > cfg.Pipeline.MaxBatchSize {
		return nil, errors.New("pipeline.min_batch_size exceeds max_batch_size")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// ApplyDefaults fills zero values with the documented defaults. Exported so
// tests can build a usable config from a zero struct.
func (cfg *Config) ApplyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.BulkMaxItems <= 0 {
		cfg.Server.BulkMaxItems = 500
	}
	if cfg.Server.MaxListLimit <= 0 {
		cfg.Server.MaxListLimit = 1000
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.RateLimit.Requests <= 0 {
		cfg.RateLimit.Requests = 60
	}
	if cfg.RateLimit.Window <= 0 {
		cfg.RateLimit.Window = time.Minute
	}

	if cfg.Analysis.Mode == "" {
		cfg.Analysis.Mode = "mock"
	}
	if cfg.Analysis.BaseURL == "" {
		cfg.Analysis.BaseURL = "https://api.x.ai/v1"
	}
	if cfg.Analysis.Model == "" {
		cfg.Analysis.Model = "grok-1"
	}
	if cfg.Analysis.CostPer1K <= 0 {
		cfg.Analysis.CostPer1K = 0.002
	}
	if cfg.Analysis.HTTPTimeout <= 0 {
		cfg.Analysis.HTTPTimeout = 30 * time.Second
	}
	if cfg.Analysis.MaxRetries <= 0 {
		cfg.Analysis.MaxRetries = 3
	}
	if cfg.Analysis.BackoffBase <= 0 {
		cfg.Analysis.BackoffBase = 500 * time.Millisecond
	}
	if cfg.Analysis.MaxJitter < 0 {
		cfg.Analysis.MaxJitter = 0
	} else if cfg.Analysis.MaxJitter == 0 {
		cfg.Analysis.MaxJitter = 500 * time.Millisecond
	}

	if cfg.Pipeline.QueueCapacity <= 0 {
		cfg.Pipeline.QueueCapacity = 10000
	}
	if cfg.Pipeline.MinBatchSize <= 0 {
		cfg.Pipeline.MinBatchSize = 1
	}
	if cfg.Pipeline.MaxBatchSize <= 0 {
		cfg.Pipeline.MaxBatchSize = 50
	}
	if cfg.Pipeline.StartBatchSize <= 0 {
		cfg.Pipeline.StartBatchSize = 5
	}
	if cfg.Pipeline.FlushTimeout <= 0 {
		cfg.Pipeline.FlushTimeout = time.Second
	}
	if cfg.Pipeline.BackpressureThreshold <= 0 {
		cfg.Pipeline.BackpressureThreshold = 1000
	}
	if cfg.Pipeline.ErrorThreshold <= 0 {
		cfg.Pipeline.ErrorThreshold = 5
	}
	if cfg.Pipeline.CircuitBreakerCooldown <= 0 {
		cfg.Pipeline.CircuitBreakerCooldown = 10 * time.Second
	}
	if cfg.Pipeline.MinTextLength <= 0 {
		cfg.Pipeline.MinTextLength = 20
	}
}
