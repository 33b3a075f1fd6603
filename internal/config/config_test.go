package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GENERATION_API_KEY", "sk-test")

	cfg := Load()

	assert.Equal(t, "deepseek", cfg.Generation.Provider)
	assert.Equal(t, "deepseek-chat", cfg.Generation.TextbookModel)
	assert.Equal(t, "deepseek-reasoner", cfg.Generation.AdvancedModel)
	assert.Equal(t, 12*time.Second, cfg.Generation.GenerationTimeout)
	assert.Equal(t, 3, cfg.Generation.RetryAttempts)
	assert.Equal(t, "textbook.pdf", cfg.Retrieval.SourceFilter)
	assert.Equal(t, 30, cfg.Translation.RateLimit)
	assert.False(t, cfg.Nats.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GENERATION_API_KEY", "sk-test")
	t.Setenv("GENERATION_MODEL", "gpt-4o-mini")
	t.Setenv("ADVANCED_MODEL", "gpt-4o")
	t.Setenv("GENERATION_TIMEOUT", "3s")
	t.Setenv("NATS_ENABLED", "true")
	t.Setenv("HISTORY_TURNS", "not-a-number")

	cfg := Load()

	assert.Equal(t, "gpt-4o-mini", cfg.Generation.DetailedModel)
	assert.Equal(t, "gpt-4o-mini", cfg.Generation.FallbackModel)
	assert.Equal(t, "gpt-4o", cfg.Generation.AdvancedModel)
	assert.Equal(t, 3*time.Second, cfg.Generation.GenerationTimeout)
	assert.True(t, cfg.Nats.Enabled)
	assert.Equal(t, 6, cfg.Generation.HistoryTurns)
}

func TestValidate(t *testing.T) {
	t.Setenv("GENERATION_API_KEY", "")
	t.Setenv("RETRIEVAL_STORE", "pgvector")
	t.Setenv("DB_CONNECTION_STRING", "")

	err := Load().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GENERATION_API_KEY")
	assert.Contains(t, err.Error(), "DB_CONNECTION_STRING")

	t.Setenv("GENERATION_PROVIDER", "ollama")
	t.Setenv("RETRIEVAL_STORE", "chromem")
	assert.NoError(t, Load().Validate())
}
