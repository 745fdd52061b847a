package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind is the coarse failure class surfaced to callers.
// It is what decides whether a call may be retried.
type ErrorKind int

const (
	// KindUnknown is the zero value and is never produced by this module.
	KindUnknown ErrorKind = iota
	// KindTransport covers network failures, timeouts and unreadable replies.
	// These are retryable, but see ExchangeError.OutcomeUnknown.
	KindTransport
	// KindAuthentication covers rejected keys, signatures, passphrases and timestamps.
	KindAuthentication
	// KindExchange covers business rejections such as insufficient balance or bad symbols.
	KindExchange
	// KindValidation covers input rejected locally before any network call.
	KindValidation
)

func (k ErrorKind) String() string {
	return [...]string{
		"unknown",
		"transport",
		"authentication",
		"exchange",
		"validation",
	}[k]
}

// ErrorType represents the category of an exchange error.
type ErrorType int

// Error type constants categorize errors for proper handling.
const (
	// ErrorTypeUnknown indicates an unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeNetwork indicates a network connectivity issue.
	ErrorTypeNetwork
	// ErrorTypeTimeout indicates the request exceeded its deadline.
	ErrorTypeTimeout
	// ErrorTypeRateLimit indicates rate limit was exceeded.
	ErrorTypeRateLimit
	// ErrorTypeAuthentication indicates invalid or expired credentials or signature.
	ErrorTypeAuthentication
	// ErrorTypeBadRequest indicates invalid request parameters.
	ErrorTypeBadRequest
	// ErrorTypeNotFound indicates the requested resource does not exist.
	ErrorTypeNotFound
	// ErrorTypeServerError indicates a server-side error.
	ErrorTypeServerError
	// ErrorTypeInsufficientFunds indicates account lacks required balance.
	ErrorTypeInsufficientFunds
	// ErrorTypeInvalidOrder indicates the order violates exchange rules.
	ErrorTypeInvalidOrder
)

// String returns the string representation of the error type.
func (t ErrorType) String() string {
	return [...]string{
		"UNKNOWN",
		"NETWORK",
		"TIMEOUT",
		"RATE_LIMIT",
		"AUTHENTICATION",
		"BAD_REQUEST",
		"NOT_FOUND",
		"SERVER_ERROR",
		"INSUFFICIENT_FUNDS",
		"INVALID_ORDER",
	}[t]
}

// Kind returns the coarse kind an error type belongs to.
func (t ErrorType) Kind() ErrorKind {
	switch t {
	case ErrorTypeNetwork, ErrorTypeTimeout:
		return KindTransport
	case ErrorTypeAuthentication:
		return KindAuthentication
	default:
		return KindExchange
	}
}

// Sentinel errors for common error conditions.
var (
	// ErrClientClosed is returned when attempting to use a closed client.
	ErrClientClosed = errors.New("client is closed")
	// ErrNotConnected is returned when WebSocket is not connected.
	ErrNotConnected = errors.New("websocket not connected")
	// ErrNoCredentials is returned when no API credentials are configured.
	ErrNoCredentials = errors.New("no credentials configured")
)

// ExchangeError is the single failure type returned by signers, dispatchers and clients.
type ExchangeError struct {
	// Kind is the coarse class used for retry decisions.
	Kind ErrorKind `json:"kind"`
	// Type categorizes the error for programmatic handling.
	Type ErrorType `json:"type"`
	// StatusCode is the HTTP status code from the response, zero when none was received.
	StatusCode int `json:"status_code"`
	// Code is the exchange-specific error code.
	Code string `json:"code"`
	// Message is the human-readable error description.
	Message string `json:"message"`
	// Exchange identifies which exchange returned this error.
	Exchange string `json:"exchange"`
	// Timestamp is when the error occurred.
	Timestamp time.Time `json:"timestamp"`
	// OutcomeUnknown is set when an order-affecting request failed in transit.
	// The exchange may have accepted it; re-sending can duplicate the order.
	OutcomeUnknown bool `json:"outcome_unknown"`
	// Err is the underlying cause, if any.
	Err error `json:"-"`
}

// Error returns a formatted string with exchange name, kind, error type, status code, and message.
func (e *ExchangeError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s %s (%d/%s): %s",
			e.Exchange, e.Kind, e.Type, e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("[%s] %s %s (%d): %s",
		e.Exchange, e.Kind, e.Type, e.StatusCode, msg)
}

// Unwrap returns the underlying cause.
func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the call can be sent again as is: a transport
// failure that was not canceled by the caller and cannot have been applied.
func (e *ExchangeError) Retryable() bool {
	return e.Kind == KindTransport &&
		!e.OutcomeUnknown &&
		e.Code != string(ErrCodeCanceled)
}

// WithCode sets the error code and returns the error for chaining.
func (e *ExchangeError) WithCode(code ErrorCode) *ExchangeError {
	e.Code = string(code)
	return e
}

// WithCause sets the underlying cause and returns the error for chaining.
func (e *ExchangeError) WithCause(err error) *ExchangeError {
	e.Err = err
	return e
}

// NewExchangeError creates a new ExchangeError with the specified details.
// The kind is derived from the error type and the timestamp is set to now.
func NewExchangeError(exchange string, errorType ErrorType, statusCode int, message string) *ExchangeError {
	return &ExchangeError{
		Kind:       errorType.Kind(),
		Type:       errorType,
		StatusCode: statusCode,
		Message:    message,
		Exchange:   exchange,
		Timestamp:  time.Now(),
	}
}

// NewExchangeErrorWithCode creates a new ExchangeError including an exchange-specific error code.
func NewExchangeErrorWithCode(exchange string, errorType ErrorType, statusCode int, code, message string) *ExchangeError {
	e := NewExchangeError(exchange, errorType, statusCode, message)
	e.Code = code
	return e
}

// NewValidationError reports input rejected before any request was sent.
func NewValidationError(exchange, message string) *ExchangeError {
	return &ExchangeError{
		Kind:      KindValidation,
		Type:      ErrorTypeBadRequest,
		Code:      string(ErrCodeValidation),
		Message:   message,
		Exchange:  exchange,
		Timestamp: time.Now(),
	}
}

// AsExchangeError extracts an ExchangeError from err's chain.
func AsExchangeError(err error) (*ExchangeError, bool) {
	var exErr *ExchangeError
	if errors.As(err, &exErr) {
		return exErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindUnknown for foreign errors.
func KindOf(err error) ErrorKind {
	if e, ok := AsExchangeError(err); ok {
		return e.Kind
	}
	return KindUnknown
}

// IsTransportError returns true for network and timeout failures.
func IsTransportError(err error) bool {
	return KindOf(err) == KindTransport
}

// IsValidationError returns true if the input was rejected locally.
func IsValidationError(err error) bool {
	return KindOf(err) == KindValidation
}

// IsExchangeError returns true if the exchange rejected the request on business grounds.
func IsExchangeError(err error) bool {
	return KindOf(err) == KindExchange
}

// IsTimeoutError returns true if the error is a timeout.
func IsTimeoutError(err error) bool {
	if e, ok := AsExchangeError(err); ok {
		return e.Type == ErrorTypeTimeout
	}
	return false
}

// IsRateLimitError returns true if the error is a rate limit violation.
func IsRateLimitError(err error) bool {
	if e, ok := AsExchangeError(err); ok {
		return e.Type == ErrorTypeRateLimit
	}
	return false
}

// IsAuthenticationError returns true if the error is an authentication failure.
// Authentication errors require credential validation and are not retryable.
func IsAuthenticationError(err error) bool {
	return KindOf(err) == KindAuthentication
}

// IsOutcomeUnknown returns true if an order-affecting request may or may not have been applied.
func IsOutcomeUnknown(err error) bool {
	if e, ok := AsExchangeError(err); ok {
		return e.OutcomeUnknown
	}
	return false
}

// IsTerminalError returns true if the error indicates a terminal condition.
// Terminal errors should not be retried as they will not succeed.
func IsTerminalError(err error) bool {
	if e, ok := AsExchangeError(err); ok {
		return e.Kind == KindAuthentication ||
			e.Kind == KindValidation ||
			e.Type == ErrorTypeInsufficientFunds ||
			e.Type == ErrorTypeInvalidOrder ||
			e.Type == ErrorTypeNotFound
	}
	return false
}
