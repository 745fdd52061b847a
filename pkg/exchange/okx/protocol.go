package okx

import (
	"fmt"
	"strconv"

	"github.com/bytedance/sonic"

	"sandi/internal/transport"
	"sandi/pkg/core"
	"sandi/pkg/exchange"
	"sandi/pkg/signer"
)

const ProductionURL = "https://www.okx.com"

const name = "okx"

var topLevel = transport.JSONCodeClassifier(transport.CodeRule{
	CodeField:    "code",
	MessageField: "msg",
	Success:      []string{"0"},
	Map:          mapOKXErrorCode,
})

// classify prefers the per-order sCode/sMsg that trade endpoints put in
// data[0] over the generic top-level "Operation failed".
func classify(status int, body []byte) *core.ExchangeError {
	exErr := topLevel(status, body)
	if exErr == nil {
		return nil
	}
	code, err := sonic.Get(body, "data", 0, "sCode")
	if err != nil {
		return exErr
	}
	sCode, err := code.String()
	if err != nil || sCode == "" || sCode == "0" {
		return exErr
	}
	msg := exErr.Message
	if node, err := sonic.Get(body, "data", 0, "sMsg"); err == nil {
		if s, err := node.String(); err == nil && s != "" {
			msg = s
		}
	}
	return core.NewExchangeErrorWithCode("", mapOKXErrorCode(sCode, status), status, sCode, msg)
}

func profile() exchange.Profile {
	return exchange.Profile{
		ProductionURL: ProductionURL,
		// Demo trading shares the host and is selected by x-simulated-trading.
		SandboxURL:      ProductionURL,
		Styles:          []signer.Style{signer.StylePrehashBase64},
		Passphrase:      true,
		TimestampFormat: signer.ISO8601,
		Classifier:      classify,
	}
}

// signedRequest signs ISO timestamp + METHOD + path?query + body with a
// base64 digest and sets the OK-ACCESS-* headers.
func signedRequest(b *exchange.Base, method, path string, query core.Params, body any) (*core.Request, error) {
	req := core.NewRequest(method, path).SetRequireAuth(true)

	signedPath := path
	if len(query) > 0 {
		raw := signer.EncodeSorted(query)
		req.SetRawQuery(raw)
		signedPath += "?" + raw
	}

	var payload string
	if body != nil {
		data, err := sonic.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		payload = string(data)
		req.SetBody(payload)
	}

	keys, err := b.Keys()
	if err != nil {
		return nil, err
	}
	signed, err := keys.Sign(signer.Payload{Method: method, Path: signedPath, Body: payload})
	if err != nil {
		return nil, err
	}

	req.SetHeaders(map[string]string{
		"OK-ACCESS-KEY":        keys.APIKey,
		"OK-ACCESS-SIGN":       signed.Signature,
		"OK-ACCESS-TIMESTAMP":  signed.TimestampText,
		"OK-ACCESS-PASSPHRASE": keys.Passphrase,
		"Content-Type":         "application/json",
	})
	if b.Config.Sandbox {
		req.SetHeader("x-simulated-trading", "1")
	}
	return req, nil
}

func mapOKXErrorCode(code string, status int) core.ErrorType {
	n, err := strconv.Atoi(code)
	if err != nil {
		return transport.TypeForStatus(status)
	}
	switch {
	case n >= 50101 && n <= 50114:
		return core.ErrorTypeAuthentication
	case n == 50011, n == 50061:
		return core.ErrorTypeRateLimit
	case n == 51008, n == 51131:
		return core.ErrorTypeInsufficientFunds
	case n == 51603:
		return core.ErrorTypeNotFound
	case n == 51000, n == 51001:
		return core.ErrorTypeBadRequest
	case n >= 51002 && n < 60000:
		return core.ErrorTypeInvalidOrder
	case n == 50001, n == 50013:
		return core.ErrorTypeServerError
	case n >= 50000 && n < 51000:
		return core.ErrorTypeBadRequest
	default:
		return transport.TypeForStatus(status)
	}
}
