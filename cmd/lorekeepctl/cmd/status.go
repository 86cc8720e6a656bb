package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show lorekeepd status",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newClient().GetStatus(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Status:        %s\n", resp.Status)
			fmt.Fprintf(out, "Uptime:        %s\n", resp.Uptime)
			fmt.Fprintf(out, "Started At:    %s\n", resp.StartedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Config Loaded: %v\n", resp.ConfigLoaded)
			return nil
		},
	}
}
