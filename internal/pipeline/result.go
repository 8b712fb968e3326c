package pipeline

import "github.com/oukeidos/scriptgen/internal/script"

// GenerationStatus is the terminal state of a generation run.
type GenerationStatus string

const (
	GenerationStatusSuccess GenerationStatus = "Success"
	GenerationStatusFailure GenerationStatus = "Failure"
	GenerationStatusSkipped GenerationStatus = "Skipped"
)

// GenerationResult contains structured outputs from RunGeneration.
type GenerationResult struct {
	Status         GenerationStatus
	OutputPath     string
	SessionLogPath string
	Usage          script.UsageMetadata
	EstimatedCost  float64
	SceneCount     int
}
