package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/lorekeep-ai/lorekeep/pkg/client"
	"github.com/lorekeep-ai/lorekeep/pkg/sockpath"
)

var (
	socketPath string
	addr       string
	apiKey     string

	// Version is set by the main package via ldflags.
	Version = "dev"
)

// NewRootCmd creates the root lorekeepctl command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "lorekeepctl",
		Short:        "Inspect the lorekeepd daemon and its configuration",
		Version:      Version,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", sockpath.DefaultSocketPath(), "lorekeepd Unix socket path")
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "", "lorekeepd TCP address (overrides --socket)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", os.Getenv("LOREKEEP_API_KEY"), "API key for --addr (env LOREKEEP_API_KEY)")

	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newSettingsCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newSecretsCmd())

	return rootCmd
}

func newClient() *client.Client {
	return client.New(client.Options{Socket: socketPath, Addr: addr, APIKey: apiKey})
}
