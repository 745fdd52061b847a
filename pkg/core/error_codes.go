package core

// ErrorCode represents a module-level error identifier.
// Error codes provide a stable, machine-readable way to identify specific error conditions.
type ErrorCode string

// Error code constants define standardized error identifiers across all exchanges.
const (
	// ErrCodeNetwork indicates a network connectivity failure.
	ErrCodeNetwork ErrorCode = "NETWORK_ERROR"
	// ErrCodeTimeout indicates the request exceeded its deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeCanceled indicates the caller canceled the context.
	ErrCodeCanceled ErrorCode = "CANCELED"
	// ErrCodeHTTPStatus indicates a non-2xx reply without a recognisable exchange code.
	ErrCodeHTTPStatus ErrorCode = "HTTP_STATUS"
	// ErrCodeDecode indicates the reply body could not be parsed.
	ErrCodeDecode ErrorCode = "DECODE_ERROR"

	// Local errors
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	ErrCodeSigning       ErrorCode = "SIGNING_ERROR"

	// Client state errors
	ErrCodeClientClosed ErrorCode = "CLIENT_CLOSED"
	ErrCodeNotConnected ErrorCode = "NOT_CONNECTED"

	// Authentication errors
	ErrCodeNoCredentials ErrorCode = "NO_CREDENTIALS"
	ErrCodeLoginRejected ErrorCode = "LOGIN_REJECTED"
)

// IsErrorCode checks if the error matches the specified error code.
func IsErrorCode(err error, code ErrorCode) bool {
	if exErr, ok := AsExchangeError(err); ok {
		return ErrorCode(exErr.Code) == code
	}
	return false
}
