package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	LLM      LLMConfig      `yaml:"llm"`
	Logging  LoggingConfig  `yaml:"logging"`
	Planning PlanningConfig `yaml:"planning"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// GetHost returns the server host, with ECS detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds the read-only PostgreSQL connection used for analytics
type DatabaseConfig struct {
	URL             string `yaml:"url"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_seconds"`
}

// RedisConfig holds the analytics cache configuration. An empty URL disables caching.
type RedisConfig struct {
	URL             string `yaml:"url"`
	KeyPrefix       string `yaml:"key_prefix"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

// CacheTTL returns the analytics cache TTL as a duration
func (c RedisConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// LLMConfig selects and configures the language model used by the optimizer.
// Provider is "bedrock", "openai" or "none".
type LLMConfig struct {
	Provider       string  `yaml:"provider"`
	Model          string  `yaml:"model"`
	APIKey         string  `yaml:"api_key"`
	BaseURL        string  `yaml:"base_url"`
	Region         string  `yaml:"region"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	MaxRetries     int     `yaml:"max_retries"`
}

// Timeout returns the per-call LLM timeout as a duration
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LoggingConfig holds structured logger settings
type LoggingConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// PlanningConfig holds every tunable constant of the recommendation,
// scoring and prediction models.
type PlanningConfig struct {
	// Optimizer
	AssumedRecipientsPerStore int     `yaml:"assumed_recipients_per_store"` // placeholder batch size, not a discovered value
	AssumedCostPerRecipient   float64 `yaml:"assumed_cost_per_recipient"`
	DefaultStoreCount         int     `yaml:"default_store_count"`
	MaxStoreCount             int     `yaml:"max_store_count"`
	CandidatePoolSize         int     `yaml:"candidate_pool_size"`
	FallbackConfidence        float64 `yaml:"fallback_confidence"`

	// Scorer
	PeakMonths                []int         `yaml:"peak_months"`
	TimingPeakBonus           float64       `yaml:"timing_peak_bonus"`
	TimingOffPeakPenalty      float64       `yaml:"timing_offpeak_penalty"`
	CreativeOffset            float64       `yaml:"creative_offset"`
	StorePerformanceFloor     float64       `yaml:"store_performance_floor"`
	StorePerformanceDefault   float64       `yaml:"store_performance_default"`
	AutoApproveThreshold      float64       `yaml:"auto_approve_threshold"`
	MediumConfidenceThreshold float64       `yaml:"medium_confidence_threshold"`
	FactorWeights             FactorWeights `yaml:"factor_weights"`

	// Predictor / comparator
	SaturationDecay             float64 `yaml:"saturation_decay"`
	DefaultReferenceQuantity    int     `yaml:"default_reference_quantity"`
	SimilarBandPercent          float64 `yaml:"similar_band_percent"`
	LargeChangePercent          float64 `yaml:"large_change_percent"`
	CostTolerancePercent        float64 `yaml:"cost_tolerance_percent"`
	HighConfidenceDeployments   int     `yaml:"high_confidence_deployments"`
	MediumConfidenceDeployments int     `yaml:"medium_confidence_deployments"`
}

// FactorWeights blend the four factor scores into ai_confidence.
type FactorWeights struct {
	StorePerformance    float64 `yaml:"store_performance"`
	CreativePerformance float64 `yaml:"creative_performance"`
	GeographicFit       float64 `yaml:"geographic_fit"`
	TimingAlignment     float64 `yaml:"timing_alignment"`
}

// Sum returns the total weight
func (w FactorWeights) Sum() float64 {
	return w.StorePerformance + w.CreativePerformance + w.GeographicFit + w.TimingAlignment
}

// DefaultPlanning returns the planning model defaults.
func DefaultPlanning() PlanningConfig {
	var p PlanningConfig
	p.applyDefaults()
	return p
}

func (p *PlanningConfig) applyDefaults() {
	if p.AssumedRecipientsPerStore <= 0 {
		p.AssumedRecipientsPerStore = 500
	}
	if p.AssumedCostPerRecipient <= 0 {
		p.AssumedCostPerRecipient = 0.50
	}
	if p.DefaultStoreCount <= 0 {
		p.DefaultStoreCount = 10
	}
	if p.MaxStoreCount <= 0 {
		p.MaxStoreCount = 50
	}
	if p.CandidatePoolSize <= 0 {
		p.CandidatePoolSize = 30
	}
	if p.FallbackConfidence <= 0 {
		p.FallbackConfidence = 75
	}
	if len(p.PeakMonths) <= 0 {
		p.PeakMonths = []int{3, 4, 5, 10, 11, 12}
	}
	if p.TimingPeakBonus <= 0 {
		p.TimingPeakBonus = 10
	}
	if p.TimingOffPeakPenalty <= 0 {
		p.TimingOffPeakPenalty = 5
	}
	if p.CreativeOffset <= 0 {
		p.CreativeOffset = 5
	}
	if p.StorePerformanceFloor <= 0 {
		p.StorePerformanceFloor = 40
	}
	if p.StorePerformanceDefault <= 0 {
		p.StorePerformanceDefault = 60
	}
	if p.AutoApproveThreshold <= 0 {
		p.AutoApproveThreshold = 75
	}
	if p.MediumConfidenceThreshold <= 0 {
		p.MediumConfidenceThreshold = 50
	}
	if p.FactorWeights.Sum() <= 0 {
		p.FactorWeights = FactorWeights{
			StorePerformance:    0.35,
			CreativePerformance: 0.15,
			GeographicFit:       0.25,
			TimingAlignment:     0.25,
		}
	}
	if p.SaturationDecay <= 0 {
		p.SaturationDecay = 0.5
	}
	if p.DefaultReferenceQuantity <= 0 {
		p.DefaultReferenceQuantity = 500
	}
	if p.SimilarBandPercent <= 0 {
		p.SimilarBandPercent = 5
	}
	if p.LargeChangePercent <= 0 {
		p.LargeChangePercent = 20
	}
	if p.CostTolerancePercent <= 0 {
		p.CostTolerancePercent = 5
	}
	if p.HighConfidenceDeployments <= 0 {
		p.HighConfidenceDeployments = 10
	}
	if p.MediumConfidenceDeployments <= 0 {
		p.MediumConfidenceDeployments = 3
	}
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 3
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 300
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "dmplanner"
	}
	if cfg.Redis.CacheTTLSeconds == 0 {
		cfg.Redis.CacheTTLSeconds = 300
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "bedrock"
	}
	if cfg.LLM.Model == "" {
		switch cfg.LLM.Provider {
		case "openai":
			cfg.LLM.Model = "gpt-4o-mini"
		default:
			cfg.LLM.Model = "anthropic.claude-3-sonnet-20240229-v1:0"
		}
	}
	if cfg.LLM.Region == "" {
		cfg.LLM.Region = "us-east-1"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.2
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 2000
	}
	if cfg.LLM.TimeoutSeconds == 0 {
		cfg.LLM.TimeoutSeconds = 20
	}
	if cfg.LLM.MaxRetries == 0 {
		cfg.LLM.MaxRetries = 2
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	cfg.Planning.applyDefaults()

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	} else if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" && v != cfg.LLM.Provider {
		cfg.LLM.Provider = v
		if v == "openai" && strings.HasPrefix(cfg.LLM.Model, "anthropic.") {
			cfg.LLM.Model = "gpt-4o-mini"
		}
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" && cfg.LLM.Provider == "openai" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("BEDROCK_MODEL_ID"); v != "" && cfg.LLM.Provider == "bedrock" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.LLM.Region = v
	}
	if v := os.Getenv("LLM_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LLM.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return cfg, nil
}
