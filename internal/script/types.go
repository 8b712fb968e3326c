// Package script defines the generated script document, the backend
// abstraction over the model providers, and the generation loop.
package script

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Scene is one entry of the script's scenes array.
type Scene struct {
	Scene           int     `json:"scene"`
	Voiceover       string  `json:"voiceover"`
	Visual          string  `json:"visual"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Document is a recovered script. It keeps the raw decoded value so the
// output file preserves any extra fields the model produced alongside the
// typed scenes.
type Document struct {
	Scenes []Scene
	raw    any
}

// FromValue builds a Document from a decoded JSON value. The value must be
// an object with a non-empty 'scenes' array.
func FromValue(v any) (*Document, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("script root must be a JSON object, got %T", v)
	}
	scenesRaw, ok := obj["scenes"]
	if !ok {
		return nil, errors.New("script object has no 'scenes' field")
	}
	if _, ok := scenesRaw.([]any); !ok {
		return nil, fmt.Errorf("'scenes' must be an array, got %T", scenesRaw)
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode script object: %w", err)
	}
	var payload struct {
		Scenes []Scene `json:"scenes"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("scenes have an unexpected shape: %w", err)
	}

	doc := &Document{Scenes: payload.Scenes, raw: v}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Validate checks the top-level shape of the document. It does not judge the
// content of the script, only that every scene is usable.
func (d *Document) Validate() error {
	if len(d.Scenes) == 0 {
		return errors.New("script has no scenes")
	}
	for i, s := range d.Scenes {
		if strings.TrimSpace(s.Voiceover) == "" {
			return fmt.Errorf("scene %d has an empty voiceover", i+1)
		}
		if s.DurationSeconds < 0 {
			return fmt.Errorf("scene %d has a negative duration", i+1)
		}
	}
	return nil
}

// Value returns the raw decoded script, including fields beyond the typed
// scenes.
func (d *Document) Value() any {
	return d.raw
}

// Pretty renders the document as indented JSON for the output file.
func (d *Document) Pretty() ([]byte, error) {
	data, err := json.MarshalIndent(d.raw, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode script: %w", err)
	}
	return append(data, '\n'), nil
}

// UsageMetadata accumulates token usage across generation attempts.
type UsageMetadata struct {
	PromptTokenCount     int32
	CandidatesTokenCount int32
	TotalTokenCount      int32
}

// Request is a single generation request sent to a backend.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	// Style labels the request in logs and diagnostics, e.g. "Humorous".
	Style string
}

// Response is the raw model output. Parsing it into a Document is the
// generator's job, not the backend's.
type Response struct {
	Text  string
	Usage UsageMetadata
}

// Backend generates script text from a request. Implementations live in the
// provider packages.
type Backend interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Response, error)
}
