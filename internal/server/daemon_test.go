package server_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lorekeep-ai/lorekeep/internal/secrets"
	"github.com/lorekeep-ai/lorekeep/internal/server"
	"github.com/lorekeep-ai/lorekeep/pkg/client"
)

const configTemplate = `
[agent]
llm_provider = "openai"
llm_model = "%s"
api_key = "sk-do-not-expose"

[knowledge]
embedding_provider = "openai"
embedding_model = "text-embedding-3-small"
chunk_size = 512
chunk_overlap = 50

[server]
listen = "127.0.0.1:0"
socket = "%s"

[auth]
api_keys = ["lk-e2e"]

[config]
hot_reload = true

[log]
level = "%s"
`

func TestEndToEnd(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(secrets.EnvAgeKey, "")
	t.Setenv(secrets.EnvAgeKeyFile, "")

	// Unix socket paths are length-limited; keep the directory short.
	sockDir, err := os.MkdirTemp("", "lkd")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(sockDir) })
	socketPath := filepath.Join(sockDir, "d.sock")

	cfgPath := filepath.Join(t.TempDir(), "lorekeep.toml")
	writeConfig := func(model, level string) {
		t.Helper()
		if err := os.WriteFile(cfgPath, []byte(fmt.Sprintf(configTemplate, model, socketPath, level)), 0600); err != nil {
			t.Fatal(err)
		}
	}
	writeConfig("gpt-4", "info")

	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prevLevel) })

	d := server.NewDaemon(cfgPath, zerolog.Nop())

	errCh := make(chan error, 1)
	go func() { errCh <- d.Run() }()

	select {
	case <-d.Ready():
	case err := <-errCh:
		t.Fatalf("daemon exited early: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not start")
	}
	t.Cleanup(func() {
		d.Stop()
		select {
		case err := <-errCh:
			if err != nil {
				t.Errorf("daemon error: %v", err)
			}
		case <-time.After(10 * time.Second):
			t.Error("daemon did not shut down in time")
		}
	})

	ctx := context.Background()
	tcp := client.New(client.Options{Addr: d.Addr().String(), APIKey: "lk-e2e"})
	local := client.New(client.Options{Socket: socketPath})

	// Settings over TCP with a key.
	got, err := tcp.GetSettings(ctx)
	if err != nil {
		t.Fatalf("tcp settings: %v", err)
	}
	if got.Agent.LLMModel != "gpt-4" || got.Knowledge.ChunkSize != 512 || got.Knowledge.ChunkOverlap != 50 {
		t.Fatalf("settings = %+v", got)
	}

	// Without a key TCP is refused, the socket is not.
	anon := client.New(client.Options{Addr: d.Addr().String()})
	_, err = anon.GetSettings(ctx)
	var se *client.StatusError
	if !errors.As(err, &se) || se.Code != 401 {
		t.Fatalf("anonymous error = %v, want HTTP 401", err)
	}
	status, err := local.GetStatus(ctx)
	if err != nil {
		t.Fatalf("socket status: %v", err)
	}
	if status.Status != "ok" || !status.ConfigLoaded {
		t.Fatalf("status = %+v", status)
	}

	// Editing the file is picked up by the watcher.
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Fatalf("log level = %s, want info", zerolog.GlobalLevel())
	}
	writeConfig("gpt-4.1", "warn")
	deadline := time.Now().Add(5 * time.Second)
	for {
		got, err = local.GetSettings(ctx)
		if err == nil && got.Agent.LLMModel == "gpt-4.1" && zerolog.GlobalLevel() == zerolog.WarnLevel {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("hot reload not observed, last settings = %+v, level = %s, err = %v", got, zerolog.GlobalLevel(), err)
		}
		time.Sleep(100 * time.Millisecond)
	}

	// A broken edit keeps the last good configuration.
	if err := os.WriteFile(cfgPath, []byte("[knowledge]\nchunk_size = 0\n"), 0600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(1500 * time.Millisecond)
	got, err = local.GetSettings(ctx)
	if err != nil {
		t.Fatalf("settings after broken edit: %v", err)
	}
	if got.Agent.LLMModel != "gpt-4.1" {
		t.Errorf("llm_model after broken edit = %q, want gpt-4.1", got.Agent.LLMModel)
	}
}

func TestRunFailsOnInvalidConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfgPath := filepath.Join(t.TempDir(), "lorekeep.toml")
	if err := os.WriteFile(cfgPath, []byte("[knowledge]\nchunk_size = 10\nchunk_overlap = 20\n"), 0600); err != nil {
		t.Fatal(err)
	}

	err := server.NewDaemon(cfgPath, zerolog.Nop()).Run()
	if err == nil {
		t.Fatal("expected Run to fail")
	}
	if !strings.Contains(err.Error(), "chunk_overlap") {
		t.Errorf("error = %v, want it to mention chunk_overlap", err)
	}
}
