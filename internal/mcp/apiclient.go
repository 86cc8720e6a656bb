package mcp

import (
	"context"

	"github.com/lorekeep-ai/lorekeep/pkg/client"
	"github.com/lorekeep-ai/lorekeep/pkg/protocol"
)

// DaemonAPI is the read-only subset of the lorekeepd API the tools use.
// Implemented by *client.Client; tests can provide a mock.
type DaemonAPI interface {
	GetSettings(ctx context.Context) (*protocol.SettingsResponse, error)
	GetStatus(ctx context.Context) (*protocol.StatusResponse, error)
}

// NewAPIClient creates a DaemonAPI for cfg.
func NewAPIClient(cfg DaemonConfig) DaemonAPI {
	return client.New(client.Options{
		Socket: cfg.Socket,
		Addr:   cfg.Addr,
		APIKey: cfg.APIKey,
	})
}
