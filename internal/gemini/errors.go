package gemini

import (
	"errors"
	"fmt"

	"github.com/oukeidos/scriptgen/internal/apperrors"
	"google.golang.org/api/googleapi"
)

func classifyGeminiError(err error) error {
	if err == nil {
		return nil
	}

	wrapped := fmt.Errorf("gemini generate content failed: %w", err)

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		// Non-HTTP failures (DNS, socket, timeout) are worth retrying.
		return apperrors.New(apperrors.KindTransient, "Could not reach Gemini. Check the network connection and retry.", wrapped)
	}

	switch {
	case gerr.Code == 404:
		return apperrors.New(apperrors.KindBadRequest, "The requested Gemini model does not exist or is not available to this API key (404). See 'scriptgen list' for known models.", wrapped)
	case gerr.Code == 400:
		return apperrors.New(apperrors.KindBadRequest, "Gemini rejected the generation request (400).", wrapped)
	case gerr.Code == 401 || gerr.Code == 403:
		return apperrors.New(apperrors.KindAuth, fmt.Sprintf("Gemini rejected the API key (%d). Run 'scriptgen env status' to check it.", gerr.Code), wrapped)
	case gerr.Code == 429:
		return apperrors.New(apperrors.KindRateLimit, "Gemini rate limit hit (429). Waiting before the next attempt.", wrapped)
	case gerr.Code >= 500:
		return apperrors.New(apperrors.KindTransient, fmt.Sprintf("Gemini is temporarily unavailable (%d).", gerr.Code), wrapped)
	default:
		return apperrors.New(apperrors.KindBadRequest, fmt.Sprintf("Unexpected Gemini API response (%d).", gerr.Code), wrapped)
	}
}
