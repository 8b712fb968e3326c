package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/oukeidos/scriptgen/internal/prompt"
	"github.com/oukeidos/scriptgen/internal/sheets"
	"github.com/spf13/cobra"
)

type promptsOptions struct {
	catalogPath string
}

func newPromptsCmd() *cobra.Command {
	opts := promptsOptions{}
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Manage the prompt catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPromptsList(cmd, &opts)
		},
	}

	cmd.SetUsageTemplate(envUsageTemplate)
	cmd.PersistentFlags().StringVar(&opts.catalogPath, "catalog", "", "Prompt catalog file (default: per-user catalog)")

	cmd.AddCommand(
		newPromptsUpdateCmd(&opts),
		newPromptsListCmd(&opts),
	)
	return cmd
}

func newPromptsUpdateCmd(opts *promptsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <sheet-url>",
		Short: "Fetch the catalog from a published Google Sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPromptsUpdate(cmd, args[0], opts)
		},
		SilenceUsage: true,
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func newPromptsListCmd(opts *promptsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show catalog domains and topics (default if no action given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPromptsList(cmd, opts)
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func runPromptsUpdate(cmd *cobra.Command, sheetURL string, opts *promptsOptions) error {
	path := opts.catalogPath
	if path == "" {
		var err error
		path, err = defaultCatalogPath()
		if err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}

	ctx, stop := signalContext()
	defer stop()
	result, err := sheets.UpdateCatalogFile(ctx, sheetURL, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Catalog updated: %d domains, %d topics (%s)\n", result.Domains, result.Topics, result.Path)
	return nil
}

func runPromptsList(cmd *cobra.Command, opts *promptsOptions) error {
	catalog := prompt.DefaultCatalog()
	source := "built-in"
	if path := resolveCatalogPath(opts.catalogPath); path != "" {
		loaded, err := prompt.LoadCatalog(path)
		if err != nil {
			return err
		}
		catalog, source = loaded, path
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Prompt catalog (%s):\n", source)
	for _, domain := range catalog.Domains() {
		fmt.Fprintf(out, "  %s\n", domain)
		for _, topic := range catalog.Topics(domain) {
			fmt.Fprintf(out, "    - %s\n", topic)
		}
	}
	return nil
}
