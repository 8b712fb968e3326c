// Package gemini implements the script backend for Google's Gemini models.
package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/oukeidos/scriptgen/internal/apperrors"
	"github.com/oukeidos/scriptgen/internal/httpclient"
	"github.com/oukeidos/scriptgen/internal/script"
	"google.golang.org/api/option"
)

// Client handles communication with the Gemini API.
type Client struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
}

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, apiKey string, modelName string) (*Client, error) {
	// Note: We avoid using option.WithHTTPClient because it interferes with the genai library's
	// internal header injection for API keys, causing 403 errors.
	// Instead, we enforce timeouts via context in the Generate method.
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"

	return &Client{
		client:    client,
		model:     model,
		modelName: modelName,
	}, nil
}

// Close closes the underlying genai client.
func (c *Client) Close() error {
	return c.client.Close()
}

var _ script.Backend = (*Client)(nil)

// Name identifies the backend in logs and session records.
func (c *Client) Name() string {
	return fmt.Sprintf("gemini/%s", c.modelName)
}

// Generate sends the request to Gemini and returns the raw response text.
// Recovering JSON from it is the caller's job.
func (c *Client) Generate(ctx context.Context, req script.Request) (*script.Response, error) {
	// Enforce default timeout to prevent indefinite hangs, since we are not using a custom HTTP client with timeout.
	ctx, cancel := context.WithTimeout(ctx, httpclient.DefaultTimeout)
	defer cancel()

	if req.SystemPrompt != "" {
		c.model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.SystemPrompt)},
		}
	}

	resp, err := c.model.GenerateContent(ctx, genai.Text(req.UserPrompt))
	if err != nil {
		return nil, classifyGeminiError(err)
	}

	text, err := extractResponseText(resp)
	if err != nil {
		return nil, apperrors.New(apperrors.KindTransient, "Gemini returned an empty response.", err)
	}

	out := &script.Response{Text: text}
	if resp.UsageMetadata != nil {
		out.Usage = script.UsageMetadata{
			PromptTokenCount:     resp.UsageMetadata.PromptTokenCount,
			CandidatesTokenCount: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokenCount:      resp.UsageMetadata.TotalTokenCount,
		}
	}
	return out, nil
}

func extractResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("no response received from Gemini")
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}
	for i, candidate := range resp.Candidates {
		if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
			continue
		}
		var combined string
		for _, part := range candidate.Content.Parts {
			text, ok := part.(genai.Text)
			if !ok {
				continue
			}
			combined += string(text)
		}
		if combined != "" {
			return combined, nil
		}
		if i == len(resp.Candidates)-1 {
			break
		}
	}
	return "", fmt.Errorf("no text parts found in Gemini response")
}
