package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lorekeep-ai/lorekeep/internal/secrets"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSettingsCmd(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer lk-ctl" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"Unauthorized"}`))
			return
		}
		w.Write([]byte(`{"agent":{"llm_provider":"openai","llm_model":"gpt-4"},` +
			`"knowledge":{"embedding_provider":"openai","embedding_model":"text-embedding-3-small","chunk_size":512,"chunk_overlap":50}}`))
	}))
	defer ts.Close()

	out, err := run(t, "", "settings", "--addr", ts.URL, "--api-key", "lk-ctl")
	if err != nil {
		t.Fatalf("settings: %v\n%s", err, out)
	}
	for _, want := range []string{"agent.llm_model", "gpt-4", "knowledge.chunk_overlap", "50"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if _, err := run(t, "", "settings", "--addr", ts.URL, "--api-key", "wrong"); err == nil {
		t.Error("expected error with wrong API key")
	}
}

func TestSecretsRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(secrets.EnvAgeKey, "")
	t.Setenv(secrets.EnvAgeKeyFile, "")

	keyPath := filepath.Join(home, "age.key")
	out, err := run(t, "", "secrets", "keygen", "-o", keyPath)
	if err != nil {
		t.Fatalf("keygen: %v\n%s", err, out)
	}
	if info, err := os.Stat(keyPath); err != nil || info.Mode().Perm() != 0600 {
		t.Fatalf("key file: %v, %v", info, err)
	}
	if _, err := run(t, "", "secrets", "keygen", "-o", keyPath); err == nil {
		t.Error("keygen should refuse to overwrite an existing key")
	}

	t.Setenv(secrets.EnvAgeKeyFile, keyPath)

	sealed, err := run(t, "sk-from-stdin\n", "secrets", "encrypt")
	if err != nil {
		t.Fatalf("encrypt: %v\n%s", err, sealed)
	}
	sealed = strings.TrimSpace(sealed)
	if !secrets.IsEncrypted(sealed) {
		t.Fatalf("encrypt output = %q, want ENC[...]", sealed)
	}

	plain, err := run(t, "", "secrets", "decrypt", sealed)
	if err != nil {
		t.Fatalf("decrypt: %v\n%s", err, plain)
	}
	if strings.TrimSpace(plain) != "sk-from-stdin" {
		t.Errorf("decrypt = %q, want sk-from-stdin", plain)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(secrets.EnvAgeKey, "")
	t.Setenv(secrets.EnvAgeKeyFile, "")

	path := filepath.Join(t.TempDir(), "lorekeep.toml")
	os.WriteFile(path, []byte(`
[agent]
llm_model = "gpt-4"
api_key = "sk-hidden"

[knowledge]
chunk_size = 512
chunk_overlap = 50
`), 0600)

	out, err := run(t, "", "config", "validate", "--config", path)
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "agent.llm_model = gpt-4") || !strings.Contains(out, "knowledge.chunk_size = 512") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "sk-hidden") {
		t.Error("validate printed a secret")
	}

	os.WriteFile(path, []byte("[knowledge]\nchunk_size = 0\n"), 0600)
	if _, err := run(t, "", "config", "validate", "--config", path); err == nil {
		t.Error("expected validation error")
	}
}
