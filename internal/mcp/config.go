package mcp

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/lorekeep-ai/lorekeep/pkg/sockpath"
)

// Config holds all configuration for the MCP server.
type Config struct {
	Daemon DaemonConfig `mapstructure:"daemon"`
}

// DaemonConfig says how to reach lorekeepd. Socket is used unless Addr is set.
type DaemonConfig struct {
	Socket string `mapstructure:"socket"`
	Addr   string `mapstructure:"addr"`
	APIKey string `mapstructure:"api_key"` // #nosec G117 -- config deserialization, not hardcoded
}

// LoadConfig reads the MCP server configuration from file, env vars, and defaults.
func LoadConfig(cfgFile string) (Config, error) {
	v := viper.New()

	v.SetDefault("daemon.socket", sockpath.DefaultSocketPath())
	v.SetDefault("daemon.addr", "")

	v.SetConfigType("toml")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("lorekeep-mcp")
		v.AddConfigPath("/etc/lorekeep")
		v.AddConfigPath("$HOME/.config/lorekeep")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("LOREKEEP_MCP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("daemon.api_key", "LOREKEEP_API_KEY")

	_ = v.ReadInConfig() // config file is optional

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
