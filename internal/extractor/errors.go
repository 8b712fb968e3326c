package extractor

import "fmt"

// EmptyInputError indicates the caller supplied nothing to parse.
// Retrying without new input cannot succeed.
type EmptyInputError struct {
	Source string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("%s: empty response", e.Source)
}

// UnparsableError indicates every extraction strategy was exhausted.
// It carries enough context for an operator or an upstream
// retry-with-different-prompt policy to act on.
type UnparsableError struct {
	Source string
	// Length is the byte length of the original text.
	Length int
	// Head and Tail are bounded samples of the original text.
	Head string
	Tail string
	// Line and Col locate the last direct-parse syntax error, when known.
	// Zero values mean the position could not be determined.
	Line int
	Col  int
	// LastDiagnostic is the message of the closest failed attempt.
	LastDiagnostic string
}

func (e *UnparsableError) Error() string {
	msg := fmt.Sprintf("%s: failed to parse JSON after all strategies (%d bytes)", e.Source, e.Length)
	if e.Line > 0 {
		msg += fmt.Sprintf("; direct parse failed at line %d, column %d", e.Line, e.Col)
	}
	if e.LastDiagnostic != "" {
		msg += "; last error: " + e.LastDiagnostic
	}
	return msg
}

// InternalError indicates a defect inside a strategy rather than malformed
// input. It is surfaced as-is and never downgraded to UnparsableError.
type InternalError struct {
	Strategy string
	Err      error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("extraction strategy %q failed internally: %v", e.Strategy, e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}
