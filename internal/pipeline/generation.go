// Package pipeline wires the prompt catalog, the model backends and the JSON
// extraction into one generation run, shared by every CLI entry point.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/oukeidos/scriptgen/internal/extractor"
	"github.com/oukeidos/scriptgen/internal/files"
	"github.com/oukeidos/scriptgen/internal/gemini"
	"github.com/oukeidos/scriptgen/internal/logger"
	"github.com/oukeidos/scriptgen/internal/metadata"
	"github.com/oukeidos/scriptgen/internal/openai"
	"github.com/oukeidos/scriptgen/internal/prompt"
	"github.com/oukeidos/scriptgen/internal/script"
)

// RunGeneration executes the full script generation pipeline.
func RunGeneration(ctx context.Context, cfg Config) (GenerationResult, error) {
	var notes []string
	cfg, notes = cfg.Normalize()
	for _, note := range notes {
		logger.Warn("Config normalized", "detail", note)
	}
	if err := cfg.Validate(); err != nil {
		return GenerationResult{}, fmt.Errorf("invalid configuration: %w", err)
	}

	// 1. Validation & Setup
	absOut, err := filepath.Abs(cfg.OutputPath)
	if err != nil {
		return GenerationResult{}, fmt.Errorf("failed to resolve output path: %w", err)
	}
	if err := files.RejectSymlinkPath(cfg.OutputPath); err != nil {
		return GenerationResult{}, err
	}
	if cfg.LogPath != "" {
		if err := files.RejectSymlinkPath(cfg.LogPath); err != nil {
			return GenerationResult{}, err
		}
	}

	shouldOverwrite := cfg.Overwrite
	outputExists := false
	if _, err := os.Stat(cfg.OutputPath); err == nil {
		outputExists = true
		if cfg.OnConfirmOverwrite != nil {
			shouldOverwrite = cfg.OnConfirmOverwrite(cfg.OutputPath)
		}
		if !shouldOverwrite {
			logger.Info("Output file exists. Aborted by user.", "path", cfg.OutputPath)
			return GenerationResult{Status: GenerationStatusSkipped}, nil // Not an error, just user cancellation
		}
		logger.Info("Overwriting output file", "path", cfg.OutputPath)
	}

	// 2. Prompt catalog
	catalog := prompt.DefaultCatalog()
	if cfg.CatalogPath != "" {
		catalog, err = prompt.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			return GenerationResult{}, fmt.Errorf("failed to load prompt catalog: %w", err)
		}
		logger.Info("Loaded prompt catalog", "path", cfg.CatalogPath, "topics", catalog.Len())
	}

	spec := prompt.ScriptSpec{
		Domain:     cfg.Domain,
		Topic:      cfg.Topic,
		Style:      cfg.Style,
		Language:   cfg.Language,
		Idea:       cfg.Idea,
		SceneCount: cfg.SceneCount,
	}

	// 3. Initialize backend & generator
	backend, closeBackend, err := newBackend(ctx, cfg)
	if err != nil {
		return GenerationResult{}, err
	}
	defer closeBackend()

	gen, err := script.NewGenerator(backend, extractor.New(logger.Default()), cfg.MaxAttempts)
	if err != nil {
		return GenerationResult{}, fmt.Errorf("failed to initialize generator: %w", err)
	}

	// 4. Generate
	logger.Info("Starting script generation", "backend", backend.Name(), "domain", cfg.Domain, "topic", cfg.Topic)
	doc, genErr := gen.Generate(ctx, script.Request{
		SystemPrompt: prompt.BuildSystemPrompt(catalog, spec),
		UserPrompt:   prompt.BuildUserPrompt(spec),
		Style:        cfg.Style,
	}, cfg.OnProgress)

	result := GenerationResult{
		Status: GenerationStatusSuccess,
		Usage:  gen.GetUsage(),
	}
	result.EstimatedCost = metadata.EstimateCost(cfg.Provider, cfg.Model, result.Usage)

	if genErr != nil {
		result.Status = GenerationStatusFailure
		logger.Error("Script generation failed", "error", genErr)
		if cfg.LogPath != "" {
			if path, err := writeSessionLog(cfg, absOut, result, genErr); err != nil {
				logger.Error("Failed to save session log", "error", err)
			} else {
				result.SessionLogPath = path
			}
		}
		return result, genErr
	}
	result.SceneCount = len(doc.Scenes)

	// 5. Save output
	effectiveOutputPath := cfg.OutputPath
	if !(outputExists && shouldOverwrite) {
		safePath, changed, err := files.SafePath(cfg.OutputPath)
		if err != nil {
			return result, fmt.Errorf("failed to resolve output path: %w", err)
		}
		if changed {
			logger.Warn("Output path adjusted to avoid overwrite", "original", cfg.OutputPath, "effective", safePath)
			effectiveOutputPath = safePath
		}
	}

	pretty, err := doc.Pretty()
	if err != nil {
		return result, err
	}
	if err := files.AtomicWrite(effectiveOutputPath, pretty, 0644); err != nil {
		return result, fmt.Errorf("failed to save output file: %w", err)
	}
	result.OutputPath = effectiveOutputPath
	logger.Info("Saved script", "path", effectiveOutputPath, "scenes", result.SceneCount)

	if cfg.LogPath != "" {
		if path, err := writeSessionLog(cfg, effectiveOutputPath, result, nil); err != nil {
			logger.Error("Failed to save session log", "error", err)
		} else {
			result.SessionLogPath = path
		}
	}
	return result, nil
}

func newBackend(ctx context.Context, cfg Config) (script.Backend, func(), error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		model := cfg.Model
		if model == "" {
			model = metadata.DefaultOpenAIModelID
		}
		client, err := openai.NewClient(cfg.APIKey, model, cfg.BaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create OpenAI client: %w", err)
		}
		return client, func() {}, nil
	default:
		model := cfg.Model
		if model == "" {
			model = metadata.DefaultGeminiModelID
		}
		client, err := gemini.NewClient(ctx, cfg.APIKey, model)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		return client, func() { _ = client.Close() }, nil
	}
}

// sessionLog records one generation run next to its output, for auditing and
// cost tracking across sessions.
type sessionLog struct {
	SessionID     string    `json:"session_id"`
	Timestamp     time.Time `json:"timestamp"`
	Provider      string    `json:"provider"`
	Model         string    `json:"model"`
	Domain        string    `json:"domain"`
	Topic         string    `json:"topic"`
	Style         string    `json:"style"`
	Language      string    `json:"language"`
	SceneCount    int       `json:"scene_count"`
	OutputPath    string    `json:"output_path"`
	Status        string    `json:"status"`
	Error         string    `json:"error,omitempty"`
	PromptTokens  int32     `json:"prompt_tokens"`
	OutputTokens  int32     `json:"output_tokens"`
	TotalTokens   int32     `json:"total_tokens"`
	EstimatedCost float64   `json:"estimated_cost_usd"`
}

func writeSessionLog(cfg Config, outputPath string, result GenerationResult, genErr error) (string, error) {
	entry := sessionLog{
		SessionID:     uuid.NewString(),
		Timestamp:     time.Now().UTC(),
		Provider:      cfg.Provider,
		Model:         cfg.Model,
		Domain:        cfg.Domain,
		Topic:         cfg.Topic,
		Style:         cfg.Style,
		Language:      cfg.Language,
		SceneCount:    result.SceneCount,
		OutputPath:    outputPath,
		Status:        string(result.Status),
		PromptTokens:  result.Usage.PromptTokenCount,
		OutputTokens:  result.Usage.CandidatesTokenCount,
		TotalTokens:   result.Usage.TotalTokenCount,
		EstimatedCost: result.EstimatedCost,
	}
	if genErr != nil {
		entry.Error = genErr.Error()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return "", err
	}
	if err := files.AtomicWrite(cfg.LogPath, append(data, '\n'), 0600); err != nil {
		return "", err
	}
	return cfg.LogPath, nil
}
