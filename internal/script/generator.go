package script

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/oukeidos/scriptgen/internal/apperrors"
	"github.com/oukeidos/scriptgen/internal/extractor"
	"github.com/oukeidos/scriptgen/internal/logger"
)

// GenerationState represents the current state of a generation attempt.
type GenerationState int

const (
	StateStarted GenerationState = iota
	StateRetrying
	StateCompleted
	StateCanceled
)

// GenerationProgress is reported to the progress callback before and after
// each attempt.
type GenerationProgress struct {
	Attempt     int
	MaxAttempts int
	State       GenerationState
	Error       error
}

// Generator drives a backend until it produces a parsable script or the
// attempt budget runs out. Model output that fails extraction or shape
// validation is treated as retryable: the model is non-deterministic, so a
// fresh attempt often succeeds where the last one produced broken JSON.
type Generator struct {
	backend     Backend
	extract     *extractor.Extractor
	maxAttempts int
	usage       UsageMetadata
	usageMu     sync.Mutex
}

// NewGenerator creates a Generator. maxAttempts must be at least 1.
func NewGenerator(backend Backend, ext *extractor.Extractor, maxAttempts int) (*Generator, error) {
	if backend == nil {
		return nil, errors.New("backend must not be nil")
	}
	if maxAttempts <= 0 {
		return nil, fmt.Errorf("maxAttempts must be greater than 0, got %d", maxAttempts)
	}
	if ext == nil {
		ext = extractor.New(nil)
	}
	return &Generator{
		backend:     backend,
		extract:     ext,
		maxAttempts: maxAttempts,
	}, nil
}

// Generate runs the request against the backend and returns the recovered
// script document.
func (g *Generator) Generate(ctx context.Context, req Request, onProgress func(GenerationProgress)) (*Document, error) {
	source := fmt.Sprintf("SalesScript_%s", req.Style)

	var lastErr error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if onProgress != nil {
			state := StateStarted
			if attempt > 1 {
				state = StateRetrying
			}
			onProgress(GenerationProgress{
				Attempt:     attempt,
				MaxAttempts: g.maxAttempts,
				State:       state,
				Error:       lastErr,
			})
		}

		doc, err := g.attempt(ctx, req, source)
		if err == nil {
			if onProgress != nil {
				onProgress(GenerationProgress{
					Attempt:     attempt,
					MaxAttempts: g.maxAttempts,
					State:       StateCompleted,
				})
			}
			return doc, nil
		}
		lastErr = err

		retry, backoff := retryDecision(ctx, err, attempt, g.maxAttempts)
		if !retry {
			break
		}
		logger.Warn("Generation attempt failed, retrying",
			"source", source, "attempt", attempt, "backoff", backoff, "error", err)
		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
			retry = false
		case <-time.After(backoff):
		}
		if !retry {
			break
		}
	}

	if ctx.Err() != nil {
		if onProgress != nil {
			onProgress(GenerationProgress{
				MaxAttempts: g.maxAttempts,
				State:       StateCanceled,
				Error:       ctx.Err(),
			})
		}
		return nil, ctx.Err()
	}
	logger.Error("Generation failed after all attempts", "source", source, "error", lastErr)
	return nil, lastErr
}

func (g *Generator) attempt(ctx context.Context, req Request, source string) (*Document, error) {
	resp, err := g.backend.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	g.usageMu.Lock()
	g.usage.PromptTokenCount += resp.Usage.PromptTokenCount
	g.usage.CandidatesTokenCount += resp.Usage.CandidatesTokenCount
	g.usage.TotalTokenCount += resp.Usage.TotalTokenCount
	g.usageMu.Unlock()

	value, err := g.extract.Extract(resp.Text, source)
	if err != nil {
		var internal *extractor.InternalError
		if errors.As(err, &internal) {
			// A broken strategy is a defect, not bad model output. Do not
			// burn attempts on it.
			return nil, err
		}
		return nil, apperrors.Validation(err)
	}

	doc, err := FromValue(value)
	if err != nil {
		return nil, apperrors.Validation(err)
	}
	return doc, nil
}

// GetUsage returns total token usage across all attempts so far.
func (g *Generator) GetUsage() UsageMetadata {
	g.usageMu.Lock()
	defer g.usageMu.Unlock()
	return g.usage
}

func retryDecision(ctx context.Context, err error, attempt, maxAttempts int) (bool, time.Duration) {
	if err == nil {
		return false, 0
	}
	if attempt >= maxAttempts {
		return false, 0
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false, 0
	}
	if !apperrors.IsRetryable(err) {
		return false, 0
	}
	base := 1 * time.Second
	maxBackoff := 20 * time.Second
	jitterMax := 1 * time.Second

	backoff := base << (attempt - 1)
	if apperrors.IsRateLimit(err) {
		backoff = backoff * 2
	}
	if backoff > maxBackoff {
		backoff = maxBackoff
	}
	jitter := time.Duration(rand.Int63n(int64(jitterMax)))
	return true, backoff + jitter
}
