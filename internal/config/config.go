// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Port         string
	FrontendURL  string
	AppDBPath    string
	CourseDBPath string
	CatalogPath  string // empty = embedded default catalog
	Agent        AgentConfig
}

// AgentConfig controls the RAG chat assistant. The agent runs in offline
// fallback mode when APIKey is empty.
type AgentConfig struct {
	APIKey           string
	ChatModel        string
	EmbeddingModel   string
	RetrievalTopK    int
	ChatHistoryLimit int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	topK := getEnvInt("AGENT_RETRIEVAL_TOP_K", 4)
	if topK <= 0 {
		topK = 4
	}
	historyLimit := getEnvInt("AGENT_CHAT_HISTORY_LIMIT", 50)
	if historyLimit <= 0 {
		historyLimit = 50
	}

	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		FrontendURL:  getEnv("FRONTEND_URL", ""),
		AppDBPath:    getEnv("APP_DB_PATH", "./data/sqlquest.db"),
		CourseDBPath: getEnv("COURSE_DB_PATH", "./data/marketing_bebidas.db"),
		CatalogPath:  getEnv("CATALOG_PATH", ""),
		Agent: AgentConfig{
			APIKey:           getEnv("GEMINI_API_KEY", ""),
			ChatModel:        getEnv("GEMINI_CHAT_MODEL", "gemini-2.5-flash"),
			EmbeddingModel:   getEnv("GEMINI_EMBEDDING_MODEL", "gemini-embedding-001"),
			RetrievalTopK:    topK,
			ChatHistoryLimit: historyLimit,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.AppDBPath == "" {
		return fmt.Errorf("APP_DB_PATH cannot be empty")
	}
	if c.CourseDBPath == "" {
		return fmt.Errorf("COURSE_DB_PATH cannot be empty")
	}
	if c.AppDBPath == c.CourseDBPath {
		return fmt.Errorf("APP_DB_PATH and COURSE_DB_PATH must differ: learner SQL runs against the course database only")
	}
	if c.Agent.ChatModel == "" {
		return fmt.Errorf("GEMINI_CHAT_MODEL cannot be empty")
	}
	if c.Agent.EmbeddingModel == "" {
		return fmt.Errorf("GEMINI_EMBEDDING_MODEL cannot be empty")
	}
	return nil
}

// AIEnabled returns true when the chat assistant can call the hosted model.
func (c *Config) AIEnabled() bool {
	return c.Agent.APIKey != ""
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
