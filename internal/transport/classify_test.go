package transport

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sandi/pkg/core"
)

func TestTypeForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   core.ErrorType
	}{
		{http.StatusUnauthorized, core.ErrorTypeAuthentication},
		{http.StatusForbidden, core.ErrorTypeAuthentication},
		{http.StatusTooManyRequests, core.ErrorTypeRateLimit},
		{http.StatusTeapot, core.ErrorTypeRateLimit},
		{http.StatusNotFound, core.ErrorTypeNotFound},
		{http.StatusGatewayTimeout, core.ErrorTypeTimeout},
		{http.StatusBadGateway, core.ErrorTypeServerError},
		{http.StatusBadRequest, core.ErrorTypeBadRequest},
		{http.StatusOK, core.ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, TypeForStatus(tt.status))
		})
	}
}

func TestStatusError_TruncatesBody(t *testing.T) {
	body := []byte(strings.Repeat("x", 1000))
	err := StatusError("okx", http.StatusBadGateway, body)

	assert.Equal(t, "okx", err.Exchange)
	assert.Equal(t, http.StatusBadGateway, err.StatusCode)
	assert.Less(t, len(err.Message), 300)
	assert.True(t, strings.HasPrefix(err.Message, "Bad Gateway: "))
}

func TestJSONCodeClassifier(t *testing.T) {
	classify := JSONCodeClassifier(CodeRule{
		CodeField:    "code",
		MessageField: "msg",
		Success:      []string{"0", "00000"},
	})

	tests := []struct {
		name     string
		body     string
		wantCode string
		wantNil  bool
	}{
		{"success_string", `{"code":"00000","msg":"success","data":{}}`, "", true},
		{"success_number", `{"code":0,"data":[]}`, "", true},
		{"no_code_field", `{"orderId":1}`, "", true},
		{"not_json", `<html>`, "", true},
		{"empty", ``, "", true},
		{"error_string", `{"code":"43012","msg":"Insufficient balance"}`, "43012", false},
		{"error_number", `{"code":-1021,"msg":"Timestamp outside recvWindow"}`, "-1021", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(http.StatusOK, []byte(tt.body))
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, core.KindExchange, got.Kind)
		})
	}
}

func TestJSONCodeClassifier_DefaultMessage(t *testing.T) {
	classify := JSONCodeClassifier(CodeRule{CodeField: "code", Success: []string{"200"}})

	got := classify(http.StatusOK, []byte(`{"code":602}`))
	require.NotNil(t, got)
	assert.Equal(t, "exchange returned code 602", got.Message)
}
