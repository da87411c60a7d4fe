package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	CodeBackendUnavailable:     "Swap backend unavailable",
	CodeAllBackendsUnavailable: "No swap backend returned a quote",
	CodeUnknownBackend:         "Unknown swap backend",

	CodeMissingParameter: "Missing required parameters",
	CodeInvalidAmount:    "Amount must be a non-negative integer in base units",
	CodeInvalidSlippage:  "Slippage must be a percentage in [0, 100)",
	CodeMalformedMessage: "Invalid message format",

	CodeUnsupportedRoute: "Swap route is not supported",

	CodeSessionNotFound:    "Session not found",
	CodeWebSocketSendError: "Failed to send WebSocket message",
	CodeWebSocketClosed:    "WebSocket connection closed",
	CodeCatalogUnavailable: "Catalog unavailable",
	CodeUpstreamProxyError: "Upstream request failed",

	CodeCircuitOpen: "Circuit breaker is open",
}
