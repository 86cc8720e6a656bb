// Package settings owns the lorekeep configuration: its schema, loading from
// TOML/env, validation, the read-only projection served over the API, and a
// hot-reloadable snapshot store.
//
// Fields are private by default. A field reaches API clients only when it
// carries an expose tag, and only if its enclosing section is tagged too:
//
//	Agent AgentConfig `mapstructure:"agent" expose:"agent"`
//	Model string      `mapstructure:"llm_model" expose:"llm_model"`
package settings

import (
	"fmt"
	"time"
)

// Config is the top-level lorekeep configuration.
type Config struct {
	Agent     AgentConfig     `mapstructure:"agent" expose:"agent"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge" expose:"knowledge"`
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       LogConfig       `mapstructure:"log"`
	Reload    ReloadConfig    `mapstructure:"config"`
	Secrets   SecretsConfig   `mapstructure:"secrets"`
}

// AgentConfig holds LLM settings from the [agent] section.
type AgentConfig struct {
	LLMProvider  string  `mapstructure:"llm_provider" expose:"llm_provider"`
	LLMModel     string  `mapstructure:"llm_model" expose:"llm_model"`
	APIKey       string  `mapstructure:"api_key"`
	BaseURL      string  `mapstructure:"base_url"`
	SystemPrompt string  `mapstructure:"system_prompt"`
	Temperature  float64 `mapstructure:"temperature"`
	MaxTokens    int     `mapstructure:"max_tokens"`
}

// KnowledgeConfig holds ingestion and embedding settings from the [knowledge] section.
type KnowledgeConfig struct {
	EmbeddingProvider   string `mapstructure:"embedding_provider" expose:"embedding_provider"`
	EmbeddingModel      string `mapstructure:"embedding_model" expose:"embedding_model"`
	ChunkSize           int    `mapstructure:"chunk_size" expose:"chunk_size"`
	ChunkOverlap        int    `mapstructure:"chunk_overlap" expose:"chunk_overlap"`
	EmbeddingAPIKey     string `mapstructure:"embedding_api_key"`
	TableStructure      bool   `mapstructure:"table_structure"`
	OCR                 bool   `mapstructure:"ocr"`
	PictureDescriptions bool   `mapstructure:"picture_descriptions"`
}

// ServerConfig holds listener settings.
type ServerConfig struct {
	Listen          string        `mapstructure:"listen"`
	Socket          string        `mapstructure:"socket"`
	MaxConnections  int           `mapstructure:"max_connections"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// AuthConfig holds API key authentication settings.
type AuthConfig struct {
	Header  string   `mapstructure:"header"`
	APIKeys []string `mapstructure:"api_keys"` // #nosec G117 -- config deserialization, not hardcoded
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// ReloadConfig controls config file hot reload.
type ReloadConfig struct {
	HotReload bool `mapstructure:"hot_reload"`
}

// SecretsConfig points at the age identity used for ENC[...] values.
type SecretsConfig struct {
	Identity string `mapstructure:"identity"`
}

// Validate checks the invariants the rest of lorekeep relies on.
func (c *Config) Validate() error {
	switch {
	case c.Agent.LLMProvider == "":
		return invalidf("agent.llm_provider is required")
	case c.Agent.LLMModel == "":
		return invalidf("agent.llm_model is required")
	case c.Knowledge.EmbeddingProvider == "":
		return invalidf("knowledge.embedding_provider is required")
	case c.Knowledge.EmbeddingModel == "":
		return invalidf("knowledge.embedding_model is required")
	case c.Knowledge.ChunkSize <= 0:
		return invalidf("knowledge.chunk_size must be positive, got %d", c.Knowledge.ChunkSize)
	case c.Knowledge.ChunkOverlap < 0:
		return invalidf("knowledge.chunk_overlap must not be negative, got %d", c.Knowledge.ChunkOverlap)
	case c.Knowledge.ChunkOverlap >= c.Knowledge.ChunkSize:
		return invalidf("knowledge.chunk_overlap (%d) must be smaller than knowledge.chunk_size (%d)",
			c.Knowledge.ChunkOverlap, c.Knowledge.ChunkSize)
	case c.Auth.Header == "":
		return invalidf("auth.header is required")
	}
	return nil
}

func invalidf(format string, args ...any) error {
	return &Error{Kind: KindInvalid, Err: fmt.Errorf(format, args...)}
}
