package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Strategy is one self-contained parsing attempt in the fallback pipeline.
// Run receives the caller's original text and must not retain or mutate it;
// all repairs operate on an independent working copy.
type Strategy struct {
	Name string
	Run  func(text string) (any, error)
}

// errNotApplicable marks a strategy that found nothing to work on
// (no fenced block, no brace pair). It falls through to the next strategy.
var errNotApplicable = errors.New("strategy not applicable")

var (
	fencedBlockRe = regexp.MustCompile("(?s)```[a-zA-Z0-9]*[ \t]*\r?\n?(.*?)```")
	fenceMarkerRe = regexp.MustCompile("```[a-zA-Z0-9]*")
	// quotedTokenRe rewrites single-quoted tokens to double-quoted ones only
	// when both sides sit in delimiter context. RE2 has no lookarounds, so the
	// context characters are captured and restored; see replaceQuotedTokens.
	quotedTokenRe   = regexp.MustCompile(`([:,\[{]\s*)'([^']*)'(\s*[,\]}:])`)
	nakedQuoteRe    = regexp.MustCompile(`'([^']*)'`)
	trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)
)

func parseJSON(text string) (any, error) {
	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// nameDirect identifies the verbatim-parse strategy; the pipeline uses its
// syntax-error position in final diagnostics.
const nameDirect = "direct"

// DirectStrategy parses the text verbatim. Handles the common case where the
// model already returned clean JSON.
func DirectStrategy() Strategy {
	return Strategy{
		Name: nameDirect,
		Run:  parseJSON,
	}
}

// FencedBlockStrategy extracts the first markdown code fence and parses its
// content. Models frequently wrap JSON in fencing even when told not to.
func FencedBlockStrategy() Strategy {
	return Strategy{
		Name: "fenced_block",
		Run: func(text string) (any, error) {
			m := fencedBlockRe.FindStringSubmatch(text)
			if m == nil {
				return nil, fmt.Errorf("no fenced code block found: %w", errNotApplicable)
			}
			return parseJSON(strings.TrimSpace(m[1]))
		},
	}
}

// NormalizeStrategy applies a fixed set of textual repairs to a working copy
// of the text and parses the result. With strict set, single-quote conversion
// only touches tokens in delimiter context, which avoids corrupting
// apostrophes inside otherwise-valid strings at the cost of missing some
// malformed tokens. The non-strict variant converts every quoted run.
func NormalizeStrategy(strict bool) Strategy {
	name := "normalize"
	if strict {
		name = "normalize_strict"
	}
	return Strategy{
		Name: name,
		Run: func(text string) (any, error) {
			return parseJSON(Normalize(text, strict))
		},
	}
}

// Normalize returns a repaired copy of text. Exported so the boundary
// strategy and tests can reuse individual repairs through one entry point.
func Normalize(text string, strict bool) string {
	cleaned := stripInvisible(text)
	// Drop fence markers even without a closing fence; truncated model
	// output often ends mid-block.
	cleaned = fenceMarkerRe.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)
	if strings.Count(cleaned, "'") > strings.Count(cleaned, `"`) {
		cleaned = replaceQuotedTokens(cleaned, strict)
	}
	cleaned = removeTrailingCommas(cleaned)
	return unescapeRedundant(cleaned)
}

func stripInvisible(text string) string {
	return strings.NewReplacer(
		"\ufeff", "", // byte-order mark
		"\u200b", "", // zero-width space
		"\u200c", "", // zero-width non-joiner
		"\u200d", "", // zero-width joiner
	).Replace(text)
}

func replaceQuotedTokens(text string, strict bool) string {
	if !strict {
		return nakedQuoteRe.ReplaceAllString(text, `"$1"`)
	}
	// The trailing context of one token is the leading context of the next
	// (e.g. {'a': 'b'}), and RE2 does not rescan consumed text, so repeat
	// until a fixpoint. Each pass strictly shrinks the single-quote count.
	for {
		replaced := quotedTokenRe.ReplaceAllString(text, `$1"$2"$3`)
		if replaced == text {
			return replaced
		}
		text = replaced
	}
}

func removeTrailingCommas(text string) string {
	return trailingCommaRe.ReplaceAllString(text, "$1")
}

// unescapeRedundant undoes escape sequences introduced by double-encoding.
// Like the quote heuristic, this is lossy on pathological input.
func unescapeRedundant(text string) string {
	return strings.NewReplacer(
		`\'`, `'`,
		`\\n`, `\n`,
		`\\t`, `\t`,
		`\\"`, `\"`,
	).Replace(text)
}

// BoundaryStrategy slices from the first '{' to the last '}' in the original
// text and parses the slice, retrying once with trailing-comma repair. This
// recovers JSON embedded in explanatory prose the model added anyway.
func BoundaryStrategy() Strategy {
	return Strategy{
		Name: "boundary",
		Run: func(text string) (any, error) {
			start := strings.Index(text, "{")
			end := strings.LastIndex(text, "}")
			if start == -1 || end == -1 || start >= end {
				return nil, fmt.Errorf("no object boundaries found: %w", errNotApplicable)
			}
			slice := text[start : end+1]
			doc, err := parseJSON(slice)
			if err == nil {
				return doc, nil
			}
			return parseJSON(removeTrailingCommas(slice))
		},
	}
}

// RepairStrategy is the last resort: a general-purpose JSON repair pass.
// The hand-written strategies run first because their failures produce the
// more precise diagnostics.
func RepairStrategy() Strategy {
	return Strategy{
		Name: "jsonrepair",
		Run: func(text string) (any, error) {
			trimmed := strings.TrimSpace(text)
			// Quote-ambiguous text belongs to the strict heuristic. The
			// repairer converts every single quote, turning an apostrophe
			// inside a value ("it's") into a double quote, so a mangled
			// document would come back as a success. Such input must fail
			// here and surface as unparsable instead.
			if strings.Count(trimmed, "'") > strings.Count(trimmed, `"`) {
				return nil, fmt.Errorf("quote-ambiguous input left to the strict heuristic: %w", errNotApplicable)
			}
			repaired, err := jsonrepair.JSONRepair(trimmed)
			if err != nil {
				// Repair failures are malformed input, not strategy defects.
				return nil, fmt.Errorf("repair failed (%v): %w", err, errNotApplicable)
			}
			doc, err := parseJSON(repaired)
			if err != nil {
				return nil, err
			}
			// The repairer quotes arbitrary prose into a bare string, which
			// is not a recovery. Only containers count as repaired output.
			switch doc.(type) {
			case map[string]any, []any:
				return doc, nil
			default:
				return nil, fmt.Errorf("repair produced a scalar from non-JSON text: %w", errNotApplicable)
			}
		},
	}
}

// DefaultStrategies returns the standard ordered pipeline.
func DefaultStrategies() []Strategy {
	return []Strategy{
		DirectStrategy(),
		FencedBlockStrategy(),
		NormalizeStrategy(true),
		BoundaryStrategy(),
		RepairStrategy(),
	}
}
