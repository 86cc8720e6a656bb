// Package protocol defines the JSON types exchanged between lorekeepd and its
// clients (lorekeepctl, lorekeep-mcp).
package protocol

import "time"

// Routes served by lorekeepd.
const (
	RouteSettings = "/v1/settings"
	RouteStatus   = "/v1/status"
	RouteHealth   = "/healthz"
)

// AgentSettings is the exposed part of the [agent] section.
type AgentSettings struct {
	LLMProvider string `json:"llm_provider"`
	LLMModel    string `json:"llm_model"`
}

// KnowledgeSettings is the exposed part of the [knowledge] section.
type KnowledgeSettings struct {
	EmbeddingProvider string `json:"embedding_provider"`
	EmbeddingModel    string `json:"embedding_model"`
	ChunkSize         int    `json:"chunk_size"`
	ChunkOverlap      int    `json:"chunk_overlap"`
}

// SettingsResponse is returned by GET /v1/settings.
type SettingsResponse struct {
	Agent     AgentSettings     `json:"agent"`
	Knowledge KnowledgeSettings `json:"knowledge"`
}

// StatusResponse is returned by GET /v1/status. Status is "ok", or
// "degraded" when no configuration is loaded.
type StatusResponse struct {
	Status       string    `json:"status"`
	Uptime       string    `json:"uptime"`
	StartedAt    time.Time `json:"started_at"`
	ConfigLoaded bool      `json:"config_loaded"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
