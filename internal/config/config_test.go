package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "./data/sqlquest.db", cfg.AppDBPath)
	assert.Equal(t, "./data/marketing_bebidas.db", cfg.CourseDBPath)
	assert.Equal(t, "gemini-2.5-flash", cfg.Agent.ChatModel)
	assert.Equal(t, 4, cfg.Agent.RetrievalTopK)
	assert.Equal(t, 50, cfg.Agent.ChatHistoryLimit)
	assert.False(t, cfg.AIEnabled())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("AGENT_RETRIEVAL_TOP_K", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.AIEnabled())
	assert.Equal(t, 7, cfg.Agent.RetrievalTopK)
}

func TestValidateRejectsSharedDBPath(t *testing.T) {
	t.Setenv("APP_DB_PATH", "./data/one.db")
	t.Setenv("COURSE_DB_PATH", "./data/one.db")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must differ")
}

func TestInvalidIntFallsBack(t *testing.T) {
	t.Setenv("AGENT_RETRIEVAL_TOP_K", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Agent.RetrievalTopK)
}

func TestIsDevelopment(t *testing.T) {
	cfg := &Config{FrontendURL: ""}
	assert.True(t, cfg.IsDevelopment())

	cfg.FrontendURL = "http://localhost:5173"
	assert.True(t, cfg.IsDevelopment())

	cfg.FrontendURL = "https://sqlquest.example.com"
	assert.False(t, cfg.IsDevelopment())
}
