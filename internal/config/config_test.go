package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
  host: "0.0.0.0"

database:
  url: "postgres://planner@localhost:5432/dm?sslmode=disable"
  max_open_conns: 4

redis:
  url: "redis://localhost:6379/2"
  cache_ttl_seconds: 60

llm:
  provider: "openai"
  api_key: "test-key"
  temperature: 0.1
  timeout_seconds: 5

planning:
  assumed_recipients_per_store: 750
  assumed_cost_per_recipient: 0.65
  peak_months: [11, 12]
  saturation_decay: 0.8
  factor_weights:
    store_performance: 0.4
    creative_performance: 0.1
    geographic_fit: 0.3
    timing_alignment: 0.2
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	assert.Equal(t, "postgres://planner@localhost:5432/dm?sslmode=disable", cfg.Database.URL)
	assert.Equal(t, 4, cfg.Database.MaxOpenConns)
	assert.Equal(t, 3, cfg.Database.MaxIdleConns)

	assert.Equal(t, 60*time.Second, cfg.Redis.CacheTTL())
	assert.Equal(t, "dmplanner", cfg.Redis.KeyPrefix)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 0.1, cfg.LLM.Temperature)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout())

	assert.Equal(t, 750, cfg.Planning.AssumedRecipientsPerStore)
	assert.Equal(t, 0.65, cfg.Planning.AssumedCostPerRecipient)
	assert.Equal(t, []int{11, 12}, cfg.Planning.PeakMonths)
	assert.Equal(t, 0.8, cfg.Planning.SaturationDecay)
	assert.Equal(t, 0.4, cfg.Planning.FactorWeights.StorePerformance)
	assert.InDelta(t, 1.0, cfg.Planning.FactorWeights.Sum(), 1e-9)
}

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
database:
  url: "postgres://localhost/dm"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	// Verify defaults are applied
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "bedrock", cfg.LLM.Provider)
	assert.Equal(t, "anthropic.claude-3-sonnet-20240229-v1:0", cfg.LLM.Model)
	assert.Equal(t, 20, cfg.LLM.TimeoutSeconds)
	assert.Equal(t, 0.2, cfg.LLM.Temperature)
	assert.Equal(t, "info", cfg.Logging.Level)

	p := cfg.Planning
	assert.Equal(t, 500, p.AssumedRecipientsPerStore)
	assert.Equal(t, 0.50, p.AssumedCostPerRecipient)
	assert.Equal(t, 10, p.DefaultStoreCount)
	assert.Equal(t, 75.0, p.FallbackConfidence)
	assert.Equal(t, []int{3, 4, 5, 10, 11, 12}, p.PeakMonths)
	assert.Equal(t, 75.0, p.AutoApproveThreshold)
	assert.Equal(t, 50.0, p.MediumConfidenceThreshold)
	assert.Equal(t, 0.5, p.SaturationDecay)
	assert.Equal(t, 500, p.DefaultReferenceQuantity)
	assert.InDelta(t, 1.0, p.FactorWeights.Sum(), 1e-9)
}

func TestDefaultPlanningMatchesLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  port: 8081\n"), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, DefaultPlanning(), cfg.Planning)
}

func TestLoadReplacesNonPositiveTunables(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
planning:
  saturation_decay: -1
  default_reference_quantity: -10
  default_store_count: -3
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Planning.SaturationDecay)
	assert.Equal(t, 500, cfg.Planning.DefaultReferenceQuantity)
	assert.Equal(t, 10, cfg.Planning.DefaultStoreCount)
}

func TestLoadFromEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
database:
  url: "postgres://file/dm"
llm:
  provider: "bedrock"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	t.Setenv("DATABASE_URL", "postgres://env/dm")
	t.Setenv("REDIS_URL", "redis://env:6379")
	t.Setenv("BEDROCK_MODEL_ID", "anthropic.claude-3-haiku-20240307-v1:0")
	t.Setenv("AWS_REGION", "us-west-2")
	t.Setenv("LLM_TIMEOUT_SECONDS", "7")

	cfg, err := LoadFromEnv(configPath)
	require.NoError(t, err)

	// Environment variables should override file values
	assert.Equal(t, "postgres://env/dm", cfg.Database.URL)
	assert.Equal(t, "redis://env:6379", cfg.Redis.URL)
	assert.Equal(t, "anthropic.claude-3-haiku-20240307-v1:0", cfg.LLM.Model)
	assert.Equal(t, "us-west-2", cfg.LLM.Region)
	assert.Equal(t, 7, cfg.LLM.TimeoutSeconds)
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestGetHostEnvOverride(t *testing.T) {
	t.Setenv("ECS_CONTAINER_METADATA_URI", "")
	t.Setenv("AWS_EXECUTION_ENV", "")
	t.Setenv("SERVER_HOST", "127.0.0.2")
	assert.Equal(t, "127.0.0.2", ServerConfig{Host: "localhost"}.GetHost())
}
