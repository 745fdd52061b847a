package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKind_String(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{KindUnknown, "unknown"},
		{KindTransport, "transport"},
		{KindAuthentication, "authentication"},
		{KindExchange, "exchange"},
		{KindValidation, "validation"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.String())
		})
	}
}

func TestErrorType_Kind(t *testing.T) {
	tests := []struct {
		name      string
		errorType ErrorType
		want      ErrorKind
	}{
		{"network", ErrorTypeNetwork, KindTransport},
		{"timeout", ErrorTypeTimeout, KindTransport},
		{"authentication", ErrorTypeAuthentication, KindAuthentication},
		{"rate_limit", ErrorTypeRateLimit, KindExchange},
		{"bad_request", ErrorTypeBadRequest, KindExchange},
		{"insufficient_funds", ErrorTypeInsufficientFunds, KindExchange},
		{"server_error", ErrorTypeServerError, KindExchange},
		{"unknown", ErrorTypeUnknown, KindExchange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.errorType.Kind())
			assert.Equal(t, tt.want, NewExchangeError("x", tt.errorType, 0, "m").Kind)
		})
	}
}

func TestExchangeError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ExchangeError
		want string
	}{
		{
			name: "without_code",
			err:  NewExchangeError("binance", ErrorTypeRateLimit, 429, "too many requests"),
			want: "[binance] exchange RATE_LIMIT (429): too many requests",
		},
		{
			name: "with_code",
			err:  NewExchangeErrorWithCode("bitget", ErrorTypeAuthentication, 400, "40009", "sign signature error"),
			want: "[bitget] authentication AUTHENTICATION (400/40009): sign signature error",
		},
		{
			name: "message_from_cause",
			err: NewExchangeError("okx", ErrorTypeNetwork, 0, "").
				WithCause(errors.New("connection refused")),
			want: "[okx] transport NETWORK (0): connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestExchangeError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := NewExchangeError("mexc", ErrorTypeNetwork, 0, "request failed").WithCause(cause)

	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("place order: %w", err)
	got, ok := AsExchangeError(wrapped)
	require.True(t, ok)
	assert.Same(t, err, got)
	assert.Equal(t, KindTransport, KindOf(wrapped))
}

func TestExchangeError_Retryable(t *testing.T) {
	assert.True(t, NewExchangeError("x", ErrorTypeTimeout, 0, "t").Retryable())
	assert.False(t, NewExchangeError("x", ErrorTypeAuthentication, 401, "a").Retryable())
	assert.False(t, NewValidationError("x", "price required").Retryable())

	ambiguous := NewExchangeError("x", ErrorTypeTimeout, 504, "gateway timeout")
	ambiguous.OutcomeUnknown = true
	assert.False(t, ambiguous.Retryable())

	canceled := NewExchangeError("x", ErrorTypeNetwork, 0, "context canceled").WithCode(ErrCodeCanceled)
	assert.False(t, canceled.Retryable())
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("bybit", "price is required for limit orders")

	assert.Equal(t, KindValidation, err.Kind)
	assert.Equal(t, ErrorTypeBadRequest, err.Type)
	assert.Equal(t, "bybit", err.Exchange)
	assert.True(t, IsErrorCode(err, ErrCodeValidation))
	assert.False(t, err.Timestamp.IsZero())
}

func TestKindPredicates(t *testing.T) {
	transport := NewExchangeError("t", ErrorTypeNetwork, 0, "n")
	auth := NewExchangeError("t", ErrorTypeAuthentication, 401, "a")
	business := NewExchangeError("t", ErrorTypeInsufficientFunds, 400, "b")
	validation := NewValidationError("t", "v")
	foreign := errors.New("plain")

	assert.True(t, IsTransportError(transport))
	assert.False(t, IsTransportError(auth))

	assert.True(t, IsAuthenticationError(auth))
	assert.False(t, IsAuthenticationError(business))

	assert.True(t, IsExchangeError(business))
	assert.False(t, IsExchangeError(validation))

	assert.True(t, IsValidationError(validation))
	assert.False(t, IsValidationError(transport))

	assert.Equal(t, KindUnknown, KindOf(foreign))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestIsTimeoutError(t *testing.T) {
	timeoutErr := NewExchangeError("test", ErrorTypeTimeout, 0, "timeout")
	networkErr := NewExchangeError("test", ErrorTypeNetwork, 0, "network error")

	assert.True(t, IsTimeoutError(timeoutErr))
	assert.False(t, IsTimeoutError(networkErr))
	assert.False(t, IsTimeoutError(nil))
}

func TestIsRateLimitError(t *testing.T) {
	rateLimitErr := NewExchangeError("test", ErrorTypeRateLimit, 429, "rate limited")
	networkErr := NewExchangeError("test", ErrorTypeNetwork, 500, "network error")

	assert.True(t, IsRateLimitError(rateLimitErr))
	assert.False(t, IsRateLimitError(networkErr))
	assert.False(t, IsRateLimitError(nil))
}

func TestIsOutcomeUnknown(t *testing.T) {
	err := NewExchangeError("test", ErrorTypeNetwork, 0, "reset")
	assert.False(t, IsOutcomeUnknown(err))

	err.OutcomeUnknown = true
	assert.True(t, IsOutcomeUnknown(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsOutcomeUnknown(nil))
}

func TestIsTerminalError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		terminal bool
	}{
		{"insufficient_funds", NewExchangeError("t", ErrorTypeInsufficientFunds, 400, "m"), true},
		{"invalid_order", NewExchangeError("t", ErrorTypeInvalidOrder, 400, "m"), true},
		{"not_found", NewExchangeError("t", ErrorTypeNotFound, 404, "m"), true},
		{"authentication", NewExchangeError("t", ErrorTypeAuthentication, 401, "m"), true},
		{"validation", NewValidationError("t", "m"), true},
		{"network", NewExchangeError("t", ErrorTypeNetwork, 0, "m"), false},
		{"timeout", NewExchangeError("t", ErrorTypeTimeout, 0, "m"), false},
		{"rate_limit", NewExchangeError("t", ErrorTypeRateLimit, 429, "m"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.terminal, IsTerminalError(tt.err))
		})
	}
}
