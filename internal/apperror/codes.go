package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Swap aggregation error codes
const (
	// Quoting
	CodeBackendUnavailable     Code = "BACKEND_UNAVAILABLE"
	CodeAllBackendsUnavailable Code = "ALL_BACKENDS_UNAVAILABLE"
	CodeUnknownBackend         Code = "UNKNOWN_BACKEND"

	// Request validation
	CodeMissingParameter Code = "MISSING_PARAMETER"
	CodeInvalidAmount    Code = "INVALID_AMOUNT"
	CodeInvalidSlippage  Code = "INVALID_SLIPPAGE"
	CodeMalformedMessage Code = "MALFORMED_MESSAGE"

	// Settlement
	CodeUnsupportedRoute Code = "UNSUPPORTED_ROUTE"

	// Sessions
	CodeSessionNotFound    Code = "SESSION_NOT_FOUND"
	CodeWebSocketSendError Code = "WEBSOCKET_SEND_ERROR"
	CodeWebSocketClosed    Code = "WEBSOCKET_CLOSED"
	CodeCatalogUnavailable Code = "CATALOG_UNAVAILABLE"
	CodeUpstreamProxyError Code = "UPSTREAM_PROXY_ERROR"

	// Circuit breaker
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
