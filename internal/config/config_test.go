package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MCPTEAMS_DATABASE_URL", "postgres://localhost:5432/mcpteams")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.Debug)
	assert.Equal(t, "text-embedding-3-large", cfg.EmbeddingModel)
	assert.Equal(t, 1536, cfg.EmbeddingDimensions)
	assert.Equal(t, 100, cfg.EmbeddingCacheSize)
	assert.Equal(t, "hybrid", cfg.SearchType)
	assert.Equal(t, 0.7, cfg.HybridSemanticWeight)
	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, time.Minute, cfg.BackfillInterval)
	assert.False(t, cfg.HasOpenAI())
	assert.False(t, cfg.HasSentry())
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("MCPTEAMS_DATABASE_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MCPTEAMS_DATABASE_URL", "postgres://localhost:5432/mcpteams")
	t.Setenv("MCPTEAMS_OPENAI_API_KEY", "sk-test")
	t.Setenv("MCPTEAMS_SEARCH_TYPE", "semantic")
	t.Setenv("MCPTEAMS_HYBRID_SEMANTIC_WEIGHT", "0.5")
	t.Setenv("MCPTEAMS_BACKFILL_INTERVAL", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.HasOpenAI())
	assert.Equal(t, "semantic", cfg.SearchType)
	assert.Equal(t, 0.5, cfg.HybridSemanticWeight)
	assert.Equal(t, 30*time.Second, cfg.BackfillInterval)
}
