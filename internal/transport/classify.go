package transport

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/bytedance/sonic"

	"sandi/pkg/core"
)

const maxSnippet = 256

// StatusOnly never finds an error in the body; failures come from the HTTP status.
func StatusOnly(int, []byte) *core.ExchangeError {
	return nil
}

// StatusError builds the error for a non-2xx reply that carried no
// recognisable exchange code.
func StatusError(exchange string, status int, body []byte) *core.ExchangeError {
	msg := http.StatusText(status)
	if snippet := strings.TrimSpace(string(body)); snippet != "" {
		if len(snippet) > maxSnippet {
			snippet = snippet[:maxSnippet] + "..."
		}
		msg = fmt.Sprintf("%s: %s", msg, snippet)
	}
	return core.NewExchangeError(exchange, TypeForStatus(status), status, msg).
		WithCode(core.ErrCodeHTTPStatus)
}

// TypeForStatus maps an HTTP status to the closest error type.
func TypeForStatus(status int) core.ErrorType {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return core.ErrorTypeAuthentication
	case status == http.StatusTooManyRequests, status == http.StatusTeapot:
		return core.ErrorTypeRateLimit
	case status == http.StatusNotFound:
		return core.ErrorTypeNotFound
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return core.ErrorTypeTimeout
	case status >= 500:
		return core.ErrorTypeServerError
	case status >= 400:
		return core.ErrorTypeBadRequest
	default:
		return core.ErrorTypeUnknown
	}
}

// CodeRule describes where an exchange puts its result code in a JSON reply.
type CodeRule struct {
	// CodeField and MessageField are top-level keys, e.g. "retCode" and "retMsg".
	CodeField    string
	MessageField string
	// Success lists the codes that mean the call worked. A reply without a
	// code field is a success when the HTTP status is 2xx.
	Success []string
	// Map turns an exchange code into an error type. Nil maps everything to
	// core.ErrorTypeUnknown, which is reported as an exchange error.
	Map func(code string, status int) core.ErrorType
}

// JSONCodeClassifier returns a Classifier that reads rule's code and message fields.
func JSONCodeClassifier(rule CodeRule) Classifier {
	return func(status int, body []byte) *core.ExchangeError {
		code, ok := stringField(body, rule.CodeField)
		if !ok || slices.Contains(rule.Success, code) {
			return nil
		}
		msg, _ := stringField(body, rule.MessageField)
		if msg == "" {
			msg = "exchange returned code " + code
		}

		errType := core.ErrorTypeUnknown
		if rule.Map != nil {
			errType = rule.Map(code, status)
		}
		return core.NewExchangeErrorWithCode("", errType, status, code, msg)
	}
}

// stringField returns a top-level JSON field as text. Numbers are returned in
// their literal form, strings without quotes.
func stringField(body []byte, key string) (string, bool) {
	if key == "" || len(body) == 0 {
		return "", false
	}
	node, err := sonic.Get(body, key)
	if err != nil || !node.Exists() {
		return "", false
	}
	if s, err := node.String(); err == nil {
		return s, true
	}
	raw, err := node.Raw()
	if err != nil {
		return "", false
	}
	return strings.Trim(raw, `"`), true
}
