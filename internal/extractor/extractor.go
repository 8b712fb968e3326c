// Package extractor recovers structured JSON documents from free-form text
// produced by a generative model. It runs a fixed, ordered sequence of
// extraction strategies, short-circuits on the first success and reports a
// descriptive failure when every strategy is exhausted.
//
// The extractor is pure and stateless: it performs no I/O beyond log records,
// never retries the model, and is safe for concurrent use. Retry policy
// belongs to the caller.
package extractor

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// sampleClusters bounds the head/tail samples attached to diagnostics.
const sampleClusters = 500

// Extractor runs an ordered pipeline of strategies over raw model output.
type Extractor struct {
	strategies []Strategy
	log        *slog.Logger
}

// New returns an Extractor using the given logger and strategy order.
// A nil logger falls back to slog.Default; no strategies selects
// DefaultStrategies.
func New(log *slog.Logger, strategies ...Strategy) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Extractor{strategies: strategies, log: log}
}

// Extract attempts to produce a JSON value from rawText. The source label is
// used only for diagnostics, never for control flow. The first strategy whose
// output parses as well-formed JSON wins; its result is returned immediately.
//
// Failure modes: *EmptyInputError when rawText is empty or whitespace-only,
// *UnparsableError when every strategy fails on malformed input, and
// *InternalError when a strategy fails for a reason other than malformed
// JSON. The last is a defect and propagates without trying later strategies.
func (e *Extractor) Extract(rawText, source string) (any, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, &EmptyInputError{Source: source}
	}

	var lastDiagnostic string
	var line, col int

	for i, s := range e.strategies {
		doc, err := s.Run(rawText)
		if err == nil {
			if i > 0 {
				e.log.Debug("Recovered JSON with fallback strategy", "source", source, "strategy", s.Name)
			}
			return doc, nil
		}
		if !isSyntaxFailure(err) {
			return nil, &InternalError{Strategy: s.Name, Err: err}
		}
		if errors.Is(err, errNotApplicable) {
			e.log.Debug("Extraction strategy not applicable", "source", source, "strategy", s.Name, "error", err)
		} else {
			lastDiagnostic = err.Error()
			e.log.Warn("Extraction strategy failed", "source", source, "strategy", s.Name, "error", err)
		}
		if s.Name == nameDirect {
			line, col = syntaxPosition(rawText, err)
		}
	}

	head := headSample(rawText, sampleClusters)
	tail := tailSample(rawText, sampleClusters)
	e.log.Error("All extraction strategies failed",
		"source", source,
		"length", len(rawText),
		"head", head,
		"tail", tail,
		"last_error", lastDiagnostic,
	)

	return nil, &UnparsableError{
		Source:         source,
		Length:         len(rawText),
		Head:           head,
		Tail:           tail,
		Line:           line,
		Col:            col,
		LastDiagnostic: lastDiagnostic,
	}
}

// isSyntaxFailure reports whether err means "this text is not valid JSON",
// the only failure class a strategy may swallow. Anything else is a defect.
func isSyntaxFailure(err error) bool {
	if errors.Is(err, errNotApplicable) {
		return true
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return true
	}
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &typeErr)
}

// syntaxPosition converts a json.SyntaxError byte offset into a 1-based
// line/column pair within text. Returns zeros when unavailable.
func syntaxPosition(text string, err error) (line, col int) {
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		return 0, 0
	}
	offset := int(syntaxErr.Offset)
	if offset < 0 || offset > len(text) {
		return 0, 0
	}
	line = 1 + strings.Count(text[:offset], "\n")
	lastNL := strings.LastIndex(text[:offset], "\n")
	return line, offset - lastNL
}

// headSample returns the first n grapheme clusters of s, so multi-byte text
// is never cut mid-character.
func headSample(s string, n int) string {
	state := -1
	rest := s
	for taken := 0; len(rest) > 0 && taken < n; taken++ {
		_, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
	}
	return s[:len(s)-len(rest)]
}

// tailSample returns the last n grapheme clusters of s. A cluster rarely
// exceeds four bytes outside degenerate emoji sequences, so a 4n-byte window
// from the end keeps this cheap on large inputs.
func tailSample(s string, n int) string {
	start := 0
	if len(s) > n*4 {
		start = len(s) - n*4
		for start < len(s) && !utf8.RuneStart(s[start]) {
			start++
		}
	}
	chunk := s[start:]
	for uniseg.GraphemeClusterCount(chunk) > n {
		_, chunk, _, _ = uniseg.FirstGraphemeClusterInString(chunk, -1)
	}
	return chunk
}
