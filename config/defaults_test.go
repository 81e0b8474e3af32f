package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_ContainsAllSubConfigs(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.NotEqual(t, ServerConfig{}, cfg.Server)
	assert.NotEqual(t, GraphStoreConfig{}, cfg.GraphStore)
	assert.NotEqual(t, RedisConfig{}, cfg.Redis)
	assert.NotEqual(t, MongoConfig{}, cfg.Mongo)
	assert.NotEqual(t, EmbeddingConfig{}, cfg.Embedding)
	assert.NotEqual(t, LLMConfig{}, cfg.LLM)
	assert.NotEqual(t, DomainConfig{}, cfg.Domain)
	assert.NotEqual(t, SearchConfig{}, cfg.Search)
	assert.NotEqual(t, CoordinatorConfig{}, cfg.Coordinator)
	assert.NotEqual(t, RetryConfig{}, cfg.Retry)
	assert.NotEqual(t, LogConfig{}, cfg.Log)
	assert.NotEqual(t, TelemetryConfig{}, cfg.Telemetry)
}

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 9091, cfg.MetricsPort)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
}

func TestDefaultDomainConfig(t *testing.T) {
	cfg := DefaultDomainConfig()
	assert.Equal(t, 50, cfg.MinSize)
	assert.Equal(t, 500, cfg.MaxSize)
	assert.Equal(t, 5, cfg.KMin)
	assert.Equal(t, 15, cfg.KMax)
	assert.InDelta(t, 0.5, cfg.AdmitThreshold, 0.001)
	assert.Equal(t, 3, cfg.NeighborCount)
	assert.Equal(t, 20, cfg.NamingSampleSize)
	assert.Equal(t, 15, cfg.NamingMaxChars)
}

func TestDefaultSearchConfig(t *testing.T) {
	cfg := DefaultSearchConfig()
	assert.Equal(t, 2, cfg.ParagraphSearchKMultiplier)
	assert.InDelta(t, 0.5, cfg.ParagraphSimThreshold, 0.001)
	assert.InDelta(t, 0.95, cfg.ArticlePenalty, 0.001)
	assert.InDelta(t, 0.25, cfg.RNERadius, 0.001)
	assert.Equal(t, 20, cfg.RNEMaxNodes)
	assert.Equal(t, 60, cfg.RRFK)
	assert.InDelta(t, 0.5, cfg.AppendixPenalty, 0.001)
	assert.InDelta(t, 0.6, cfg.CollabConfidenceThreshold, 0.001)
	assert.Equal(t, 3, cfg.MaxNeighborConsultations)
	assert.Equal(t, 10*time.Second, cfg.AgentDeadline)
}

func TestDefaultCoordinatorConfig(t *testing.T) {
	cfg := DefaultCoordinatorConfig()
	assert.Equal(t, 3, cfg.DispatchN)
	assert.Equal(t, 5, cfg.CandidatePoolSize)
	assert.InDelta(t, 0.7, cfg.LLMWeight, 0.001)
	assert.InDelta(t, 0.3, cfg.CentroidWeight, 0.001)
	assert.Equal(t, 30*time.Second, cfg.Deadline)
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.InitialDelay)
	assert.InDelta(t, 2.0, cfg.Multiplier, 0.001)
}

func TestDefaultLogConfig(t *testing.T) {
	cfg := DefaultLogConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, []string{"stdout"}, cfg.OutputPaths)
}

func TestDefaultTelemetryConfig(t *testing.T) {
	cfg := DefaultTelemetryConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "korlaw-retrieval-core", cfg.ServiceName)
}
