package main

import (
	"fmt"

	"github.com/oukeidos/scriptgen/internal/metadata"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List known models and pricing",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Gemini models:")
			for _, m := range metadata.GeminiModels {
				fmt.Fprintf(out, "  %-30s %-25s $%.2f/$%.2f per 1M tokens\n", m.ID, m.Label, m.InputPerMillion, m.OutputPerMillion)
			}
			fmt.Fprintln(out, "OpenAI models:")
			for _, m := range metadata.OpenAIModels {
				fmt.Fprintf(out, "  %-30s %-25s $%.2f/$%.2f per 1M tokens\n", m.ID, m.Label, m.InputPerMillion, m.OutputPerMillion)
			}
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}
