// Package client talks to the lorekeepd HTTP API, either over the local Unix
// socket or over TCP with an API key.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/lorekeep-ai/lorekeep/pkg/protocol"
)

// Options selects the transport. Addr wins over Socket when both are set.
type Options struct {
	Socket  string        // Unix socket path.
	Addr    string        // host:port or http(s) URL.
	APIKey  string        // Sent as a bearer token; required for TCP.
	Timeout time.Duration // Per-request timeout, default 10s.
}

// Client is a lorekeepd API client.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	target  string
}

// New creates a Client from opts.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	if opts.Addr != "" {
		base := opts.Addr
		if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
			base = "http://" + base
		}
		return &Client{
			http:    &http.Client{Timeout: timeout},
			baseURL: strings.TrimSuffix(base, "/"),
			apiKey:  opts.APIKey,
			target:  opts.Addr,
		}
	}

	socket := opts.Socket
	return &Client{
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					return (&net.Dialer{}).DialContext(ctx, "unix", socket)
				},
			},
		},
		baseURL: "http://lorekeepd",
		apiKey:  opts.APIKey,
		target:  socket,
	}
}

// GetSettings fetches GET /v1/settings.
func (c *Client) GetSettings(ctx context.Context) (*protocol.SettingsResponse, error) {
	var resp protocol.SettingsResponse
	if err := c.getJSON(ctx, protocol.RouteSettings, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetStatus fetches GET /v1/status.
func (c *Client) GetStatus(ctx context.Context) (*protocol.StatusResponse, error) {
	var resp protocol.StatusResponse
	if err := c.getJSON(ctx, protocol.RouteStatus, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s returned HTTP %d: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s returned HTTP %d", e.Path, e.Code)
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cannot connect to lorekeepd at %s: %w", c.target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body protocol.ErrorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(data, &body)
		return &StatusError{Path: path, Code: resp.StatusCode, Message: body.Error}
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
