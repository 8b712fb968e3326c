package metadata

import "github.com/oukeidos/scriptgen/internal/script"

type GeminiModel struct {
	ID               string
	Label            string
	InputPerMillion  float64
	OutputPerMillion float64
}

type OpenAIModel struct {
	ID               string
	Label            string
	InputPerMillion  float64
	OutputPerMillion float64
}

var GeminiModels = []GeminiModel{
	{
		ID:               "gemini-3-flash-preview",
		Label:            "Gemini 3 Flash (preview)",
		InputPerMillion:  0.50,
		OutputPerMillion: 3.00,
	},
	{
		ID:               "gemini-3-pro-preview",
		Label:            "Gemini 3 Pro (preview)",
		InputPerMillion:  2.00,
		OutputPerMillion: 12.00,
	},
}

var OpenAIModels = []OpenAIModel{
	{
		ID:               "gpt-5.2",
		Label:            "GPT-5.2",
		InputPerMillion:  1.75,
		OutputPerMillion: 14.00,
	},
	{
		ID:               "gpt-4o-mini",
		Label:            "GPT-4o mini",
		InputPerMillion:  0.15,
		OutputPerMillion: 0.60,
	},
}

const (
	DefaultGeminiModelID = "gemini-3-flash-preview"
	DefaultOpenAIModelID = "gpt-4o-mini"

	DefaultOpenAIInputPerMillion  = 2.50
	DefaultOpenAIOutputPerMillion = 10.00
	DefaultGeminiInputPerMillion  = 2.00
	DefaultGeminiOutputPerMillion = 12.00
)

func GeminiModelIDs() []string {
	ids := make([]string, 0, len(GeminiModels))
	for _, m := range GeminiModels {
		ids = append(ids, m.ID)
	}
	return ids
}

func OpenAIModelIDs() []string {
	ids := make([]string, 0, len(OpenAIModels))
	for _, m := range OpenAIModels {
		ids = append(ids, m.ID)
	}
	return ids
}

func GeminiPricing(modelID string) (GeminiModel, bool) {
	for _, m := range GeminiModels {
		if m.ID == modelID {
			return m, true
		}
	}
	return GeminiModel{
		ID:               "default",
		Label:            "Default Gemini",
		InputPerMillion:  DefaultGeminiInputPerMillion,
		OutputPerMillion: DefaultGeminiOutputPerMillion,
	}, false
}

func OpenAIPricing(modelID string) (OpenAIModel, bool) {
	for _, m := range OpenAIModels {
		if m.ID == modelID {
			return m, true
		}
	}
	return OpenAIModel{
		ID:               "default",
		Label:            "Default OpenAI",
		InputPerMillion:  DefaultOpenAIInputPerMillion,
		OutputPerMillion: DefaultOpenAIOutputPerMillion,
	}, false
}

// EstimateCost converts accumulated token usage into dollars using the
// model's per-million pricing. Unknown models fall back to provider default
// pricing, so the estimate is indicative rather than exact.
func EstimateCost(provider, modelID string, usage script.UsageMetadata) float64 {
	var in, out float64
	switch provider {
	case "openai":
		m, _ := OpenAIPricing(modelID)
		in, out = m.InputPerMillion, m.OutputPerMillion
	default:
		m, _ := GeminiPricing(modelID)
		in, out = m.InputPerMillion, m.OutputPerMillion
	}
	return float64(usage.PromptTokenCount)/1e6*in + float64(usage.CandidatesTokenCount)/1e6*out
}
