package openai

import (
	"errors"
	"fmt"

	"github.com/oukeidos/scriptgen/internal/apperrors"
	goopenai "github.com/sashabaranov/go-openai"
)

func classifyOpenAIError(err error) error {
	if err == nil {
		return nil
	}

	wrapped := fmt.Errorf("openai chat completion failed: %w", err)

	code := 0
	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		code = reqErr.HTTPStatusCode
	}

	switch {
	case code == 400 || code == 404:
		if code == 404 {
			return apperrors.New(apperrors.KindBadRequest, "OpenAI model not found or no access (404).", wrapped)
		}
		return apperrors.New(apperrors.KindBadRequest, "OpenAI request rejected (400).", wrapped)
	case code == 401 || code == 403:
		return apperrors.New(apperrors.KindAuth, fmt.Sprintf("OpenAI authentication/authorization failed (%d).", code), wrapped)
	case code == 429:
		return apperrors.New(apperrors.KindRateLimit, "OpenAI rate limit exceeded (429). Please try again later.", wrapped)
	case code >= 500:
		return apperrors.New(apperrors.KindTransient, fmt.Sprintf("OpenAI service temporary error (%d). Please retry.", code), wrapped)
	case code != 0:
		return apperrors.New(apperrors.KindBadRequest, fmt.Sprintf("OpenAI API error (%d).", code), wrapped)
	}

	// Non-HTTP transport/runtime failures (DNS, socket, timeout, etc.)
	// should be retried because they are usually transient.
	return apperrors.New(apperrors.KindTransient, "OpenAI request failed due to a temporary network/runtime error.", wrapped)
}
