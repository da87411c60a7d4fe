package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_IsMatchesByCode(t *testing.T) {
	err := New(CodeAllBackendsUnavailable, WithContext("TON -> EQabc"))
	wrapped := fmt.Errorf("estimate: %w", err)

	if !errors.Is(wrapped, New(CodeAllBackendsUnavailable)) {
		t.Error("expected errors.Is to match on code through wrapping")
	}
	if errors.Is(wrapped, New(CodeBackendUnavailable)) {
		t.Error("different codes must not match")
	}
	if GetCode(wrapped) != CodeAllBackendsUnavailable {
		t.Errorf("GetCode = %s", GetCode(wrapped))
	}
	if GetCode(errors.New("plain")) != CodeUnknownError {
		t.Error("plain errors map to UNKNOWN_ERROR")
	}
}

func TestAppError_StatusCodes(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeMissingParameter, http.StatusBadRequest},
		{CodeUnsupportedRoute, http.StatusBadRequest},
		{CodeInvalidSlippage, http.StatusBadRequest},
		{CodeBackendUnavailable, http.StatusServiceUnavailable},
		{CodeAllBackendsUnavailable, http.StatusServiceUnavailable},
		{CodeCircuitOpen, http.StatusServiceUnavailable},
		{CodeUpstreamProxyError, http.StatusBadGateway},
		{CodeSessionNotFound, http.StatusNotFound},
		{CodeInternalError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := New(tt.code).StatusCode; got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPublicMessage(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := New(CodeUnsupportedRoute, WithContext("TON -> TON swap is not supported"), WithCause(cause))

	if got := PublicMessage(err); got != "Swap route is not supported: TON -> TON swap is not supported" {
		t.Errorf("PublicMessage = %q", got)
	}
	if !errors.Is(err, cause) {
		t.Error("cause must stay reachable through Unwrap")
	}
	if got := PublicMessage(errors.New("raw")); got != "raw" {
		t.Errorf("PublicMessage(plain) = %q", got)
	}
	if StatusCode(errors.New("raw")) != http.StatusInternalServerError {
		t.Error("plain errors are internal")
	}
}
