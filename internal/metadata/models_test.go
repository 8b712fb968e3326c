package metadata

import (
	"testing"

	"github.com/oukeidos/scriptgen/internal/script"
)

func TestGeminiPricing_Default(t *testing.T) {
	m, ok := GeminiPricing("unknown-model")
	if ok {
		t.Fatalf("expected default pricing for unknown model")
	}
	if m.InputPerMillion != DefaultGeminiInputPerMillion || m.OutputPerMillion != DefaultGeminiOutputPerMillion {
		t.Fatalf("unexpected default gemini pricing: %+v", m)
	}
}

func TestOpenAIPricing_Default(t *testing.T) {
	m, ok := OpenAIPricing("unknown-model")
	if ok {
		t.Fatalf("expected default pricing for unknown model")
	}
	if m.InputPerMillion != DefaultOpenAIInputPerMillion || m.OutputPerMillion != DefaultOpenAIOutputPerMillion {
		t.Fatalf("unexpected default openai pricing: %+v", m)
	}
}

func TestEstimateCost(t *testing.T) {
	usage := script.UsageMetadata{PromptTokenCount: 1_000_000, CandidatesTokenCount: 1_000_000}
	got := EstimateCost("openai", "gpt-4o-mini", usage)
	want := 0.15 + 0.60
	if got != want {
		t.Errorf("EstimateCost = %v, want %v", got, want)
	}

	// Unknown provider falls back to Gemini default pricing.
	got = EstimateCost("", "unknown", usage)
	want = DefaultGeminiInputPerMillion + DefaultGeminiOutputPerMillion
	if got != want {
		t.Errorf("EstimateCost fallback = %v, want %v", got, want)
	}
}
