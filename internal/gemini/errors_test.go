package gemini

import (
	"errors"
	"strings"
	"testing"

	"github.com/oukeidos/scriptgen/internal/apperrors"
	"google.golang.org/api/googleapi"
)

func TestClassifyGeminiError_CodeMapping(t *testing.T) {
	cases := []struct {
		name      string
		code      int
		kind      apperrors.Kind
		retryable bool
	}{
		{name: "bad request", code: 400, kind: apperrors.KindBadRequest, retryable: false},
		{name: "unauthorized", code: 401, kind: apperrors.KindAuth, retryable: false},
		{name: "forbidden", code: 403, kind: apperrors.KindAuth, retryable: false},
		{name: "model not found", code: 404, kind: apperrors.KindBadRequest, retryable: false},
		{name: "rate limited", code: 429, kind: apperrors.KindRateLimit, retryable: true},
		{name: "server error", code: 503, kind: apperrors.KindTransient, retryable: true},
		{name: "unknown server code", code: 599, kind: apperrors.KindTransient, retryable: true},
		{name: "unknown client code", code: 418, kind: apperrors.KindBadRequest, retryable: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := classifyGeminiError(&googleapi.Error{Code: tc.code})
			assertErrorKind(t, err, tc.kind)
			if apperrors.IsRetryable(err) != tc.retryable {
				t.Fatalf("IsRetryable = %v, want %v for code %d", !tc.retryable, tc.retryable, tc.code)
			}
		})
	}
}

func TestClassifyGeminiError_NetworkFailureIsTransient(t *testing.T) {
	err := classifyGeminiError(errors.New("dial tcp: i/o timeout"))
	assertErrorKind(t, err, apperrors.KindTransient)
	if !apperrors.IsRetryable(err) {
		t.Fatalf("expected retryable error for a network failure")
	}
}

func TestClassifyGeminiError_DoesNotExposeRawMessage(t *testing.T) {
	err := classifyGeminiError(errors.New("SECRET_PROMPT_LINE"))
	if strings.Contains(err.Error(), "SECRET_PROMPT_LINE") {
		t.Fatalf("expected safe message, got %q", err.Error())
	}
}

func assertErrorKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected apperrors.Error, got %T", err)
	}
	if appErr.Kind != kind {
		t.Fatalf("expected kind %s, got %s", kind, appErr.Kind)
	}
}
