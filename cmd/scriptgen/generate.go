package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oukeidos/scriptgen/internal/files"
	"github.com/oukeidos/scriptgen/internal/logger"
	"github.com/oukeidos/scriptgen/internal/pipeline"
	"github.com/oukeidos/scriptgen/internal/prompt"
	"github.com/oukeidos/scriptgen/internal/script"
	"github.com/spf13/cobra"
)

type generateOptions struct {
	provider    string
	modelName   string
	domain      string
	topic       string
	style       string
	language    string
	sceneCount  int
	attempts    int
	yes         bool
	logFilePath string
	catalogPath string
	baseURL     string
	allowEnv    bool
	envOnly     bool
	debug       bool
}

func newGenerateCmd() *cobra.Command {
	opts := generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate <idea> <output.json>",
		Short: "Generate a sales script from an idea",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				_ = cmd.Usage()
				return fmt.Errorf("an idea and an output file are required")
			}
			return runGenerate(cmd, args, &opts)
		},
		SilenceUsage: true,
	}

	cmd.SetUsageTemplate(subcommandUsageTemplate)
	addGenerateFlags(cmd, &opts)
	return cmd
}

func addGenerateFlags(cmd *cobra.Command, opts *generateOptions) {
	cmd.Flags().StringVar(&opts.provider, "provider", "gemini", "Model provider (gemini or openai)")
	cmd.Flags().StringVar(&opts.modelName, "model", "", "Model name (provider default when empty)")
	cmd.Flags().StringVar(&opts.domain, "domain", "Commerce", "Prompt catalog domain")
	cmd.Flags().StringVar(&opts.topic, "topic", "Product Showcase", "Prompt catalog topic")
	cmd.Flags().StringVar(&opts.style, "style", "Standard", "Script style, e.g. Standard, Humorous, Dramatic")
	cmd.Flags().StringVar(&opts.language, "language", "en", "Voiceover language (en or vi)")
	cmd.Flags().IntVar(&opts.sceneCount, "scenes", 0, "Exact number of scenes (0 lets the model decide)")
	cmd.Flags().IntVar(&opts.attempts, "attempts", 3, "Generation attempts before giving up (1-10)")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Overwrite output file without asking")
	cmd.Flags().StringVar(&opts.logFilePath, "log-file", "", "Path to save the machine-readable session log")
	cmd.Flags().StringVar(&opts.catalogPath, "catalog", "", "Prompt catalog file (default: per-user catalog, then built-in)")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "Override the OpenAI API endpoint")
	cmd.Flags().BoolVar(&opts.allowEnv, "allow-env", false, "Allow reading API key from environment variables")
	cmd.Flags().BoolVar(&opts.envOnly, "env-only", false, "Use only environment variables for API keys")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
}

func runGenerate(cmd *cobra.Command, args []string, opts *generateOptions) error {
	if len(args) < 2 {
		return fmt.Errorf("an idea and an output file are required")
	}
	if len(args) > 2 {
		fmt.Fprintf(os.Stderr, "Warning: expected 2 arguments but got %d. Did you forget quotes around the idea?\n", len(args))
		fmt.Fprintf(os.Stderr, "  Using idea: %s\n", args[0])
		fmt.Fprintf(os.Stderr, "  Using output: %s\n", args[1])
	}
	idea, outputPath := args[0], args[1]
	if err := validateOutputExtension(outputPath); err != nil {
		return err
	}

	logLevel := logger.LevelInfo
	if opts.debug {
		logLevel = logger.LevelDebug
	}
	if opts.logFilePath != "" {
		if err := files.RejectSymlinkPath(opts.logFilePath); err != nil {
			return err
		}
	}
	logger.Init(logLevel, nil)

	startTime := time.Now()

	service := strings.ToLower(opts.provider)
	actualKey, source, err := resolveAPIKey(service, opts.allowEnv, opts.envOnly)
	if err != nil {
		return err
	}
	logger.Info("Using API Key", "service", service, "source", source)

	cfg := pipeline.Config{
		OutputPath:  outputPath,
		LogPath:     opts.logFilePath,
		CatalogPath: resolveCatalogPath(opts.catalogPath),
		APIKey:      actualKey,
		Provider:    service,
		Model:       opts.modelName,
		BaseURL:     opts.baseURL,
		Domain:      opts.domain,
		Topic:       opts.topic,
		Style:       opts.style,
		Language:    opts.language,
		Idea:        idea,
		SceneCount:  opts.sceneCount,
		MaxAttempts: opts.attempts,
		Overwrite:   opts.yes,
		OnProgress: func(p script.GenerationProgress) {
			switch p.State {
			case script.StateCompleted:
				logger.Info("Generation completed", "attempt", p.Attempt)
			case script.StateRetrying:
				logger.Warn("Generation retry", "attempt", p.Attempt, "max", p.MaxAttempts, "error", p.Error)
			}
		},
		OnConfirmOverwrite: func(path string) bool {
			confirmed, err := prompt.DefaultConfirmer().ConfirmOverwrite(path, opts.yes)
			if err != nil {
				logger.Error("Overwrite confirmation failed", "error", err)
				return false
			}
			return confirmed
		},
	}

	ctx, stop := signalContext()
	defer stop()
	result, err := pipeline.RunGeneration(ctx, cfg)

	// Always print stats (even on failure)
	printUsageStats(result.Usage, time.Since(startTime), service, opts.modelName)

	if err != nil {
		if ctx.Err() != nil {
			logger.Warn("Generation canceled", "error", err)
			return nil
		}
		return err
	}

	return generationStatusError(result)
}

func generationStatusError(result pipeline.GenerationResult) error {
	switch result.Status {
	case pipeline.GenerationStatusSuccess:
		return nil
	case pipeline.GenerationStatusSkipped:
		return nil
	case pipeline.GenerationStatusFailure:
		if result.SessionLogPath != "" {
			return fmt.Errorf("generation finished with status: %s (session log: %s)", result.Status, result.SessionLogPath)
		}
		return fmt.Errorf("generation finished with status: %s", result.Status)
	default:
		return fmt.Errorf("generation finished with unknown status: %q", result.Status)
	}
}

func validateOutputExtension(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		return nil
	}
	if ext == "" {
		ext = "(none)"
	}
	return fmt.Errorf("unsupported output extension %q (supported: .json)", ext)
}
