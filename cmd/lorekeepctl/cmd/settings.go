package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSettingsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show the non-sensitive runtime settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newClient().GetSettings(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SETTING\tVALUE")
			fmt.Fprintf(w, "agent.llm_provider\t%s\n", resp.Agent.LLMProvider)
			fmt.Fprintf(w, "agent.llm_model\t%s\n", resp.Agent.LLMModel)
			fmt.Fprintf(w, "knowledge.embedding_provider\t%s\n", resp.Knowledge.EmbeddingProvider)
			fmt.Fprintf(w, "knowledge.embedding_model\t%s\n", resp.Knowledge.EmbeddingModel)
			fmt.Fprintf(w, "knowledge.chunk_size\t%d\n", resp.Knowledge.ChunkSize)
			fmt.Fprintf(w, "knowledge.chunk_overlap\t%d\n", resp.Knowledge.ChunkOverlap)
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}
