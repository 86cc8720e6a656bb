package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lorekeep-ai/lorekeep/internal/server"
)

var version = "dev"

func main() {
	var (
		cfgFile string
		logJSON bool
	)

	rootCmd := &cobra.Command{
		Use:          "lorekeepd",
		Short:        "lorekeep daemon serving the read-only settings API",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
			if logJSON {
				out = os.Stderr
			}
			logger := zerolog.New(out).With().Timestamp().Logger()

			d := server.NewDaemon(cfgFile, logger)
			if err := d.Run(); err != nil {
				return fmt.Errorf("lorekeepd: %w", err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log JSON lines instead of console output")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
