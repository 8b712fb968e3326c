// Package openai implements the script backend for OpenAI chat models.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/oukeidos/scriptgen/internal/apperrors"
	"github.com/oukeidos/scriptgen/internal/httpclient"
	"github.com/oukeidos/scriptgen/internal/script"
	goopenai "github.com/sashabaranov/go-openai"
)

// Client handles communication with the OpenAI chat completions API.
type Client struct {
	client    *goopenai.Client
	modelName string
}

// NewClient creates a new OpenAI client. baseURL overrides the API endpoint
// and is primarily for tests; pass "" for the public API.
func NewClient(apiKey, modelName, baseURL string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	config := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	config.HTTPClient = httpclient.GetDefaultClient()

	return &Client{
		client:    goopenai.NewClientWithConfig(config),
		modelName: modelName,
	}, nil
}

var _ script.Backend = (*Client)(nil)

// Name identifies the backend in logs and session records.
func (c *Client) Name() string {
	return fmt.Sprintf("openai/%s", c.modelName)
}

// Generate sends the request to OpenAI and returns the raw response text.
// Recovering JSON from it is the caller's job.
func (c *Client) Generate(ctx context.Context, req script.Request) (*script.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, httpclient.DefaultTimeout)
	defer cancel()

	chatReq := goopenai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: req.UserPrompt},
		},
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, apperrors.New(apperrors.KindTransient, "OpenAI returned an empty response.", fmt.Errorf("no choices in completion"))
	}

	return &script.Response{
		Text: strings.TrimSpace(resp.Choices[0].Message.Content),
		Usage: script.UsageMetadata{
			PromptTokenCount:     int32(resp.Usage.PromptTokens),
			CandidatesTokenCount: int32(resp.Usage.CompletionTokens),
			TotalTokenCount:      int32(resp.Usage.TotalTokens),
		},
	}, nil
}
