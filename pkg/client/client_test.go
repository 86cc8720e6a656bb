package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGetSettings(t *testing.T) {
	var gotAuth, gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"agent":{"llm_provider":"openai","llm_model":"gpt-4"},` +
			`"knowledge":{"embedding_provider":"openai","embedding_model":"text-embedding-3-small","chunk_size":512,"chunk_overlap":50}}`))
	}))
	defer ts.Close()

	c := New(Options{Addr: ts.URL, APIKey: "lk-key"})
	resp, err := c.GetSettings(context.Background())
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if gotPath != "/v1/settings" {
		t.Errorf("path = %q, want /v1/settings", gotPath)
	}
	if gotAuth != "Bearer lk-key" {
		t.Errorf("Authorization = %q, want Bearer lk-key", gotAuth)
	}
	if resp.Agent.LLMModel != "gpt-4" || resp.Knowledge.ChunkSize != 512 {
		t.Errorf("settings = %+v", resp)
	}
}

func TestStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Failed to get settings"}`))
	}))
	defer ts.Close()

	// Bare host:port gets an http:// scheme.
	c := New(Options{Addr: strings.TrimPrefix(ts.URL, "http://")})
	_, err := c.GetSettings(context.Background())

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if se.Code != http.StatusInternalServerError || se.Message != "Failed to get settings" {
		t.Errorf("StatusError = %+v", se)
	}
	if !strings.Contains(err.Error(), "HTTP 500: Failed to get settings") {
		t.Errorf("Error() = %q", err)
	}
}

func TestNoAuthHeaderWithoutKey(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("unexpected Authorization header")
		}
		w.Write([]byte(`{"status":"ok","uptime":"1s","config_loaded":true}`))
	}))
	defer ts.Close()

	resp, err := New(Options{Addr: ts.URL}).GetStatus(context.Background())
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if !resp.ConfigLoaded {
		t.Error("config_loaded = false, want true")
	}
}

func TestConnectError(t *testing.T) {
	c := New(Options{Socket: "/nonexistent/lorekeepd.sock"})
	_, err := c.GetStatus(context.Background())
	if err == nil {
		t.Fatal("expected connection error")
	}
	if !strings.Contains(err.Error(), "/nonexistent/lorekeepd.sock") {
		t.Errorf("error %q should name the socket", err)
	}
}
