package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// External judge
	AnthropicAPIKey string
	AnthropicModel  string
	JudgeEnabled    bool
	JudgeTimeout    time.Duration
	JudgeMaxRetries int

	// Worker pool
	WorkerCount          int
	MaxQueueSize         int
	MaxConcurrentExtract int
	MaxConcurrentSignals int

	// Upload limits
	MaxUploadBytes int64

	// Chunking defaults
	DefaultChunkSize    int
	DefaultChunkOverlap int

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool

	// Taxonomy override; empty uses the built-in tables.
	TaxonomyFile string

	LogLevel string
}

var defaults = map[string]any{
	"port":                   "8090",
	"anthropic_model":        "claude-sonnet-4-5-20250929",
	"judge_enabled":          false,
	"judge_timeout":          30 * time.Second,
	"judge_max_retries":      3,
	"worker_count":           4,
	"max_queue_size":         100,
	"max_concurrent_extract": 5,
	"max_concurrent_signals": 8,
	"max_upload_bytes":       int64(52428800), // 50MB
	"default_chunk_size":     512,
	"default_chunk_overlap":  50,
	"job_ttl":                time.Hour,
	"pdf_fallback_pdftotext": true,
	"log_level":              "info",
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. An empty cfgFile looks
// for tlfmeta.yaml in the working directory and ignores its absence.
func Load(cfgFile string) (Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	for _, k := range []string{"tlfmeta_api_key", "anthropic_api_key", "taxonomy_file"} {
		v.SetDefault(k, "")
	}
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("tlfmeta")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		Port: v.GetString("port"),

		APIKey: v.GetString("tlfmeta_api_key"),

		AnthropicAPIKey: v.GetString("anthropic_api_key"),
		AnthropicModel:  v.GetString("anthropic_model"),
		JudgeEnabled:    v.GetBool("judge_enabled"),
		JudgeTimeout:    v.GetDuration("judge_timeout"),
		JudgeMaxRetries: v.GetInt("judge_max_retries"),

		WorkerCount:          v.GetInt("worker_count"),
		MaxQueueSize:         v.GetInt("max_queue_size"),
		MaxConcurrentExtract: v.GetInt("max_concurrent_extract"),
		MaxConcurrentSignals: v.GetInt("max_concurrent_signals"),

		MaxUploadBytes: v.GetInt64("max_upload_bytes"),

		DefaultChunkSize:    v.GetInt("default_chunk_size"),
		DefaultChunkOverlap: v.GetInt("default_chunk_overlap"),

		JobTTL: v.GetDuration("job_ttl"),

		PDFFallbackPdftotext: v.GetBool("pdf_fallback_pdftotext"),

		TaxonomyFile: v.GetString("taxonomy_file"),
		LogLevel:     v.GetString("log_level"),
	}
	cfg.applyFloors()
	return cfg, nil
}

// applyFloors replaces non-positive values with their defaults.
func (c *Config) applyFloors() {
	positive := func(p *int, key string) {
		if *p <= 0 {
			*p = defaults[key].(int)
		}
	}
	positive(&c.WorkerCount, "worker_count")
	positive(&c.MaxQueueSize, "max_queue_size")
	positive(&c.MaxConcurrentExtract, "max_concurrent_extract")
	positive(&c.MaxConcurrentSignals, "max_concurrent_signals")
	positive(&c.DefaultChunkSize, "default_chunk_size")
	positive(&c.JudgeMaxRetries, "judge_max_retries")

	if c.DefaultChunkOverlap < 0 || c.DefaultChunkOverlap >= c.DefaultChunkSize {
		c.DefaultChunkOverlap = min(defaults["default_chunk_overlap"].(int), c.DefaultChunkSize/2)
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = defaults["max_upload_bytes"].(int64)
	}
	if c.JobTTL <= 0 {
		c.JobTTL = defaults["job_ttl"].(time.Duration)
	}
	if c.JudgeTimeout <= 0 {
		c.JudgeTimeout = defaults["judge_timeout"].(time.Duration)
	}
}

// Validate checks the settings the HTTP service needs.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("TLFMETA_API_KEY is required")
	}
	return c.ValidateJudge()
}

// ValidateJudge checks the judge settings; the key is only needed when the
// judge is on.
func (c Config) ValidateJudge() error {
	if c.JudgeEnabled && c.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required when JUDGE_ENABLED is set")
	}
	return nil
}

// SlogLevel maps LogLevel to a slog level, defaulting to Info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
