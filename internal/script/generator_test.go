package script

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oukeidos/scriptgen/internal/apperrors"
	"github.com/oukeidos/scriptgen/internal/extractor"
)

// mockBackend returns canned responses in order, then repeats the last one.
type mockBackend struct {
	responses []string
	errs      []error
	calls     int
	lastReq   Request
}

func (m *mockBackend) Name() string { return "mock" }

func (m *mockBackend) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i := m.calls
	if i >= len(m.responses) {
		i = len(m.responses) - 1
	}
	m.calls++
	m.lastReq = req
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	return &Response{
		Text:  m.responses[i],
		Usage: UsageMetadata{PromptTokenCount: 10, CandidatesTokenCount: 20, TotalTokenCount: 30},
	}, nil
}

const validScript = `{"scenes": [{"scene": 1, "voiceover": "Hello", "visual": "Logo", "duration_seconds": 3}]}`

func TestGenerate_SucceedsFirstAttempt(t *testing.T) {
	backend := &mockBackend{responses: []string{validScript}}
	gen, err := NewGenerator(backend, nil, 3)
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	var states []GenerationState
	doc, err := gen.Generate(context.Background(), Request{Style: "Humorous"}, func(p GenerationProgress) {
		states = append(states, p.State)
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(doc.Scenes) != 1 || doc.Scenes[0].Voiceover != "Hello" {
		t.Errorf("unexpected scenes: %+v", doc.Scenes)
	}
	if backend.calls != 1 {
		t.Errorf("backend called %d times, want 1", backend.calls)
	}
	want := []GenerationState{StateStarted, StateCompleted}
	if len(states) != 2 || states[0] != want[0] || states[1] != want[1] {
		t.Errorf("progress states = %v, want %v", states, want)
	}
}

func TestGenerate_RecoversFromFencedOutput(t *testing.T) {
	backend := &mockBackend{responses: []string{"```json\n" + validScript + "\n```"}}
	gen, _ := NewGenerator(backend, nil, 1)

	doc, err := gen.Generate(context.Background(), Request{Style: "Standard"}, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(doc.Scenes) != 1 {
		t.Errorf("unexpected scenes: %+v", doc.Scenes)
	}
}

func TestGenerate_RetriesOnUnparsableOutput(t *testing.T) {
	backend := &mockBackend{responses: []string{"not json at all", validScript}}
	gen, _ := NewGenerator(backend, nil, 3)

	var retries int
	doc, err := gen.Generate(context.Background(), Request{Style: "Standard"}, func(p GenerationProgress) {
		if p.State == StateRetrying {
			retries++
			if p.Error == nil {
				t.Error("retry progress should carry the previous error")
			}
		}
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if doc == nil || backend.calls != 2 {
		t.Fatalf("backend called %d times, want 2", backend.calls)
	}
	if retries != 1 {
		t.Errorf("retries = %d, want 1", retries)
	}
}

func TestGenerate_ExhaustsAttempts(t *testing.T) {
	backend := &mockBackend{responses: []string{"still not json"}}
	gen, _ := NewGenerator(backend, nil, 2)

	_, err := gen.Generate(context.Background(), Request{Style: "Standard"}, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if backend.calls != 2 {
		t.Errorf("backend called %d times, want 2", backend.calls)
	}
	var unparsable *extractor.UnparsableError
	if !errors.As(err, &unparsable) {
		t.Fatalf("expected UnparsableError in chain, got %v", err)
	}
	if unparsable.Source != "SalesScript_Standard" {
		t.Errorf("Source = %q", unparsable.Source)
	}
	if kind, ok := apperrors.KindOf(err); !ok || kind != apperrors.KindValidation {
		t.Errorf("kind = %v (ok=%v), want validation", kind, ok)
	}
}

func TestGenerate_AuthErrorIsNotRetried(t *testing.T) {
	authErr := apperrors.Auth(errors.New("bad key"))
	backend := &mockBackend{responses: []string{""}, errs: []error{authErr}}
	gen, _ := NewGenerator(backend, nil, 3)

	_, err := gen.Generate(context.Background(), Request{}, nil)
	if !errors.Is(err, authErr) {
		t.Fatalf("expected the auth error, got %v", err)
	}
	if backend.calls != 1 {
		t.Errorf("backend called %d times, want 1", backend.calls)
	}
}

func TestGenerate_InternalErrorIsNotRetried(t *testing.T) {
	defect := errors.New("strategy defect")
	broken := extractor.Strategy{Name: "broken", Run: func(string) (any, error) { return nil, defect }}
	ext := extractor.New(nil, broken)

	backend := &mockBackend{responses: []string{validScript}}
	gen, _ := NewGenerator(backend, ext, 3)

	_, err := gen.Generate(context.Background(), Request{}, nil)
	var internal *extractor.InternalError
	if !errors.As(err, &internal) {
		t.Fatalf("expected InternalError, got %v", err)
	}
	if backend.calls != 1 {
		t.Errorf("backend called %d times, want 1", backend.calls)
	}
}

func TestGenerate_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	backend := &mockBackend{responses: []string{validScript}}
	gen, _ := NewGenerator(backend, nil, 3)

	var canceled bool
	_, err := gen.Generate(ctx, Request{}, func(p GenerationProgress) {
		if p.State == StateCanceled {
			canceled = true
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !canceled {
		t.Error("expected a canceled progress event")
	}
}

func TestGenerate_AccumulatesUsage(t *testing.T) {
	backend := &mockBackend{responses: []string{"broken {", validScript}}
	gen, _ := NewGenerator(backend, nil, 3)

	if _, err := gen.Generate(context.Background(), Request{}, nil); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	usage := gen.GetUsage()
	if usage.TotalTokenCount != 60 {
		t.Errorf("TotalTokenCount = %d, want 60 (two attempts)", usage.TotalTokenCount)
	}
}

func TestNewGenerator_Validation(t *testing.T) {
	if _, err := NewGenerator(nil, nil, 3); err == nil {
		t.Error("expected error for nil backend")
	}
	if _, err := NewGenerator(&mockBackend{}, nil, 0); err == nil {
		t.Error("expected error for zero attempts")
	}
}

func TestRetryDecision(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		err     error
		attempt int
		want    bool
	}{
		{"nil error", nil, 1, false},
		{"budget exhausted", apperrors.Transient(errors.New("x")), 3, false},
		{"context canceled", context.Canceled, 1, false},
		{"auth not retryable", apperrors.Auth(errors.New("x")), 1, false},
		{"transient retryable", apperrors.Transient(errors.New("x")), 1, true},
		{"validation retryable", apperrors.Validation(errors.New("x")), 1, true},
		{"rate limit retryable", apperrors.RateLimit(errors.New("x")), 1, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, backoff := retryDecision(ctx, tc.err, tc.attempt, 3)
			if got != tc.want {
				t.Errorf("retry = %v, want %v", got, tc.want)
			}
			if got && backoff <= 0 {
				t.Errorf("expected a positive backoff, got %v", backoff)
			}
		})
	}

	t.Run("rate limit backs off harder", func(t *testing.T) {
		// Jitter is at most 1s, so with a 2x multiplier on a 2s base the
		// rate-limit backoff always exceeds the transient one floor.
		_, rateBackoff := retryDecision(ctx, apperrors.RateLimit(errors.New("x")), 2, 5)
		if rateBackoff < 4*time.Second {
			t.Errorf("rate-limit backoff %v, want at least 4s", rateBackoff)
		}
	})
}
