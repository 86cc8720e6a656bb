package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/lorekeep-ai/lorekeep/internal/secrets"
	"github.com/lorekeep-ai/lorekeep/pkg/sockpath"
)

// EnvPrefix prefixes every environment override, e.g. LOREKEEP_AGENT_LLM_MODEL.
const EnvPrefix = "LOREKEEP"

// SetDefaults registers lorekeep's default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.listen", "127.0.0.1:8600")
	v.SetDefault("server.socket", sockpath.DefaultSocketPath())
	v.SetDefault("server.max_connections", 256)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("auth.header", "X-API-Key")
	v.SetDefault("auth.api_keys", []string{})

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("log.level", "info")
	v.SetDefault("config.hot_reload", true)
	v.SetDefault("secrets.identity", "")

	v.SetDefault("agent.llm_provider", "openai")
	v.SetDefault("agent.llm_model", "gpt-4o-mini")
	v.SetDefault("agent.temperature", 0.0)
	v.SetDefault("agent.max_tokens", 1024)
	v.SetDefault("agent.base_url", "")
	v.SetDefault("agent.system_prompt", "")

	v.SetDefault("knowledge.embedding_provider", "openai")
	v.SetDefault("knowledge.embedding_model", "text-embedding-3-small")
	v.SetDefault("knowledge.chunk_size", 1000)
	v.SetDefault("knowledge.chunk_overlap", 200)
	v.SetDefault("knowledge.table_structure", true)
	v.SetDefault("knowledge.ocr", false)
	v.SetDefault("knowledge.picture_descriptions", false)
}

// ConfigFileName is the file searched for when no path is given.
const ConfigFileName = "lorekeep.toml"

// SearchPaths lists the directories searched for ConfigFileName, in order.
func SearchPaths() []string {
	paths := []string{"/etc/lorekeep"}
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", "lorekeep"))
	}
	return append(paths, ".")
}

// FindConfigFile returns the first ConfigFileName found in SearchPaths, or "".
func FindConfigFile() string {
	for _, dir := range SearchPaths() {
		path := filepath.Join(dir, ConfigFileName)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// Load reads configuration from cfgFile (or the default search path when
// empty), the environment, and defaults. ENC[...] values are decrypted and
// the result is validated. Every failure is a *Error of KindInvalid.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetConfigType("toml")
	path := cfgFile
	if path == "" {
		path = FindConfigFile()
	}
	if path != "" {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("auth.api_keys", "LOREKEEP_API_KEYS")
	v.BindEnv("agent.api_key", "LOREKEEP_AGENT_API_KEY")
	v.BindEnv("knowledge.embedding_api_key", "LOREKEEP_KNOWLEDGE_EMBEDDING_API_KEY")

	// Without an explicit path the file is optional.
	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, &Error{Kind: KindInvalid, Err: fmt.Errorf("read config %s: %w", path, err)}
		}
	}

	splitListValues(v)

	if keys := secrets.EncryptedKeys(v); len(keys) > 0 {
		ids, err := secrets.ResolveIdentity(v)
		if err != nil {
			return nil, &Error{Kind: KindInvalid, Err: fmt.Errorf("resolve age identity: %w", err)}
		}
		if err := secrets.DecryptViper(v, ids); err != nil {
			return nil, &Error{Kind: KindInvalid, Err: err}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &Error{Kind: KindInvalid, Err: fmt.Errorf("decode config: %w", err)}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// listKeys are slice-typed settings that can arrive from the environment as
// one comma-separated string.
var listKeys = []string{"auth.api_keys"}

// splitListValues turns comma-separated list values into []string so each
// element can be decrypted on its own.
func splitListValues(v *viper.Viper) {
	for _, key := range listKeys {
		raw, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		var items []string
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		v.Set(key, items)
	}
}
