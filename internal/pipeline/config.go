package pipeline

import (
	"fmt"
	"strings"

	"github.com/oukeidos/scriptgen/internal/script"
)

// Config holds all configuration required for running a generation session.
type Config struct {
	// IO Paths
	OutputPath  string
	LogPath     string // Optional: session log destination
	CatalogPath string // Optional: prompt catalog file; built-in catalog when empty

	// API Configuration
	APIKey   string
	Provider string // "gemini" or "openai"
	Model    string
	BaseURL  string // Optional OpenAI endpoint override

	// Script Parameters
	Domain     string
	Topic      string
	Style      string
	Language   string // "en" or "vi"
	Idea       string
	SceneCount int

	// Processing Parameters
	MaxAttempts int

	// Flags
	Overwrite bool // If true, overwrite output file without asking (CLI mostly)

	// Callbacks
	// OnProgress is called with generation progress updates.
	OnProgress func(script.GenerationProgress)

	// OnConfirmOverwrite is called when the output file exists.
	// It should return true if the file should be overwritten.
	// If nil, it assumes Overwrite flag accounts for it or it's already checked.
	OnConfirmOverwrite func(path string) bool
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	MinAttempts   = 1
	MaxAttempts   = 10
	MaxSceneCount = 50
)

func ClampAttempts(value int) (int, bool) {
	if value < MinAttempts {
		return MinAttempts, true
	}
	if value > MaxAttempts {
		return MaxAttempts, true
	}
	return value, false
}

// Normalize applies safe bounds to config values and returns any adjustments.
func (c Config) Normalize() (Config, []string) {
	var notes []string
	if clamped, changed := ClampAttempts(c.MaxAttempts); changed {
		notes = append(notes, fmt.Sprintf("attempts clamped from %d to %d (max %d)", c.MaxAttempts, clamped, MaxAttempts))
		c.MaxAttempts = clamped
	}
	if c.SceneCount > MaxSceneCount {
		notes = append(notes, fmt.Sprintf("scene-count clamped from %d to %d (max %d)", c.SceneCount, MaxSceneCount, MaxSceneCount))
		c.SceneCount = MaxSceneCount
	}
	if c.SceneCount < 0 {
		notes = append(notes, fmt.Sprintf("scene-count %d ignored; the model decides", c.SceneCount))
		c.SceneCount = 0
	}
	if c.Provider == "" {
		c.Provider = ProviderGemini
	}
	return c, notes
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Idea) == "" {
		return fmt.Errorf("an idea is required")
	}
	if c.OutputPath == "" {
		return fmt.Errorf("output path is required")
	}
	if c.Provider != ProviderGemini && c.Provider != ProviderOpenAI {
		return fmt.Errorf("unsupported provider: %s", c.Provider)
	}
	if c.Language != "" && c.Language != "en" && c.Language != "vi" {
		return fmt.Errorf("unsupported language: %s", c.Language)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("maxAttempts must be greater than 0, got %d", c.MaxAttempts)
	}
	if c.APIKey == "" {
		return fmt.Errorf("API key is required")
	}
	return nil
}
