package bitget

import (
	"fmt"
	"strconv"

	"github.com/bytedance/sonic"

	"sandi/internal/transport"
	"sandi/pkg/core"
	"sandi/pkg/exchange"
	"sandi/pkg/signer"
)

const (
	ProductionURL = "https://api.bitget.com"

	futuresPrefix = "/api/mix/v1"
	spotPrefix    = "/api/spot/v1"
)

const name = "bitget"

func profile(style signer.Style) exchange.Profile {
	return exchange.Profile{
		ProductionURL: ProductionURL,
		// Demo trading uses the production host with the paptrading header.
		SandboxURL: ProductionURL,
		Styles:     []signer.Style{style},
		Passphrase: true,
		Classifier: transport.JSONCodeClassifier(transport.CodeRule{
			CodeField:    "code",
			MessageField: "msg",
			Success:      []string{"00000"},
			Map:          mapBitgetErrorCode,
		}),
	}
}

// signedRequest builds a Bitget call. The signed path includes the query
// string exactly as sent; body is marshalled once and signed as sent.
func signedRequest(b *exchange.Base, method, path string, query core.Params, body any) (*core.Request, error) {
	req := core.NewRequest(method, path).SetRequireAuth(true)

	signedPath := path
	if len(query) > 0 {
		raw := signer.EncodeSorted(query)
		req.SetRawQuery(raw)
		signedPath = path + "?" + raw
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
		"ACCESS-KEY":        keys.APIKey,
		"ACCESS-SIGN":       signed.Signature,
		"ACCESS-TIMESTAMP":  signed.TimestampText,
		"ACCESS-PASSPHRASE": keys.Passphrase,
		"Content-Type":      "application/json",
		"locale":            "en-US",
	})
	if b.Config.Sandbox {
		req.SetHeader("paptrading", "1")
	}
	return req, nil
}

func mapBitgetErrorCode(code string, status int) core.ErrorType {
	n, err := strconv.Atoi(code)
	if err != nil {
		return transport.TypeForStatus(status)
	}
	switch {
	case n >= 40001 && n <= 40014, n == 40037:
		return core.ErrorTypeAuthentication
	case n == 429:
		return core.ErrorTypeRateLimit
	case n == 40762, n == 43012, n == 43117:
		return core.ErrorTypeInsufficientFunds
	case n == 43001, n == 40109:
		return core.ErrorTypeNotFound
	case n >= 43000 && n < 46000:
		return core.ErrorTypeInvalidOrder
	case n >= 40000 && n < 41000:
		return core.ErrorTypeBadRequest
	default:
		return transport.TypeForStatus(status)
	}
}
