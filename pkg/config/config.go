package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"StockPulse/pkg/logger"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string        `yaml:"environment" default:"development" validate:"required"`
	Log         logger.Config `yaml:"log"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lt=65536"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"120s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		// RateCapacity and RatePerSecond size the per-client token bucket on /api;
		// zero disables it.
		RateCapacity  float64 `yaml:"rate_capacity" default:"10" validate:"gte=0"`
		RatePerSecond float64 `yaml:"rate_per_second" default:"1" validate:"gte=0"`
	} `yaml:"server"`
	Metrics struct {
		Enabled   bool   `yaml:"enabled" default:"true"`
		Path      string `yaml:"path" default:"/metrics"`
		Namespace string `yaml:"namespace" default:"stockpulse"`
	} `yaml:"metrics"`
	Storage struct {
		// Backend selects the blob store: redis, fs or memory.
		Backend string `yaml:"backend" default:"redis" validate:"oneof=redis fs memory"`
		Root    string `yaml:"root" default:"./data"`
		Redis   struct {
			Host     string `yaml:"host" default:"localhost"`
			Port     int    `yaml:"port" default:"6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"stockpulse:blob"`
		} `yaml:"redis"`
	} `yaml:"storage"`
	Pipeline struct {
		InputPrefix     string `yaml:"input_prefix" default:"inputs/"`
		ProcessedPrefix string `yaml:"processed_prefix" default:"processed/"`
		RejectsPrefix   string `yaml:"rejects_prefix" default:"rejects/"`
		HashesPrefix    string `yaml:"hashes_prefix" default:"processed/hashes/"`
		EventSource     string `yaml:"event_source" default:"stockpulse.data-ingestor"`
		AnalyzerSource  string `yaml:"analyzer_source" default:"stockpulse.data-analyzer"`
		AnalysisTable   string `yaml:"analysis_table" default:"stock_analysis" validate:"required"`
	} `yaml:"pipeline"`
	Enrichment struct {
		Provider    string        `yaml:"provider" default:"openai" validate:"oneof=openai deepseek"`
		BaseURL     string        `yaml:"base_url"`
		APIKey      string        `yaml:"api_key"`
		Model       string        `yaml:"model" default:"gpt-4o-mini" validate:"required"`
		MaxTokens   int           `yaml:"max_tokens" default:"3000" validate:"gt=0"`
		Temperature float32       `yaml:"temperature" default:"0.3" validate:"gte=0,lte=2"`
		MaxAttempts int           `yaml:"max_attempts" default:"3" validate:"gte=1,lte=10"`
		BaseDelay   time.Duration `yaml:"base_delay" default:"2s"`
		Timeout     time.Duration `yaml:"timeout" default:"60s"`
		// Fallback is applied when every attempt fails: fail or template.
		Fallback string `yaml:"fallback" default:"fail" validate:"oneof=fail template"`
	} `yaml:"enrichment"`
	Kafka struct {
		Brokers      []string `yaml:"brokers" validate:"required,min=1"`
		EventsTopic  string   `yaml:"events_topic" default:"pipeline-events" validate:"required"`
		ObjectsTopic string   `yaml:"objects_topic" default:"object-created" validate:"required"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"10ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled" default:"true"`
			GroupID    string        `yaml:"group_id" default:"stockpulse"`
			Workers    int           `yaml:"workers" default:"2" validate:"gte=1"`
			BufferSize int           `yaml:"buffer_size" default:"16"`
			RetryMax   int           `yaml:"retry_max" default:"2"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"500ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"30s"`
			DLQTopic   string        `yaml:"dlq_topic" default:"pipeline-dlq"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"10000000"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost" validate:"required"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"stockpulse" validate:"required"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file, then applies defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	return Parse(b)
}

// Parse seeds struct defaults, decodes YAML over them and validates.
// Defaults go first so explicit zero values in YAML (false, 0) survive.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads an optional .env file, the YAML config, and then applies
// environment variable overrides.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.Enrichment.APIKey = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.Enrichment.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.Enrichment.Model = v
	}
	if v := os.Getenv("ENRICHMENT_FALLBACK"); v != "" {
		c.Enrichment.Fallback = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Storage.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Storage.Redis.Port = port
		}
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("ANALYSIS_TABLE"); v != "" {
		c.Pipeline.AnalysisTable = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}
	if c.Enrichment.BaseDelay < 0 {
		return fmt.Errorf("enrichment.base_delay cannot be negative")
	}
	if !strings.HasSuffix(c.Pipeline.InputPrefix, "/") {
		return fmt.Errorf("pipeline.input_prefix must end with '/', got '%s'", c.Pipeline.InputPrefix)
	}
	return nil
}
