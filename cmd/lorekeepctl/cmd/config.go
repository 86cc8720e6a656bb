package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lorekeep-ai/lorekeep/internal/settings"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect lorekeep configuration files locally",
	}

	cmd.AddCommand(newConfigValidateCmd())
	cmd.AddCommand(newConfigPathsCmd())

	return cmd
}

func newConfigValidateCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load, decrypt, and validate a config file without starting the daemon",
		Long: `Runs the same load path as lorekeepd: defaults, TOML file, LOREKEEP_*
environment overrides, ENC[...] decryption, and validation. Prints the
settings that would be exposed over the API. Secret values are never printed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := settings.Load(cfgFile)
			if err != nil {
				return err
			}
			view, err := settings.Project(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Configuration is valid. Exposed settings:")
			for _, path := range settings.ExposedPaths() {
				section, field, _ := strings.Cut(path, ".")
				fmt.Fprintf(out, "  %s = %v\n", path, view[section][field])
			}
			fmt.Fprintf(out, "API keys configured: %d\n", len(cfg.Auth.APIKeys))
			return nil
		},
	}

	cmd.Flags().StringVar(&cfgFile, "config", "", "config file path (default: search path)")
	return cmd
}

func newConfigPathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Show where lorekeepd looks for its config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, dir := range settings.SearchPaths() {
				fmt.Fprintln(out, filepath.Join(dir, settings.ConfigFileName))
			}
			if found := settings.FindConfigFile(); found != "" {
				fmt.Fprintf(out, "\nIn use: %s\n", found)
			} else {
				fmt.Fprintln(out, "\nNo config file found; defaults and environment only.")
			}
			return nil
		},
	}
}
