package bybit

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"

	"sandi/internal/transport"
	"sandi/pkg/core"
	"sandi/pkg/exchange"
	"sandi/pkg/signer"
)

const (
	ProductionURL = "https://api.bybit.com"
	SandboxURL    = "https://api-testnet.bybit.com"
)

const name = "bybit"

var (
	unifiedCodes = transport.JSONCodeClassifier(transport.CodeRule{
		CodeField:    "retCode",
		MessageField: "retMsg",
		Success:      []string{"0"},
		Map:          mapBybitErrorCode,
	})
	legacyCodes = transport.JSONCodeClassifier(transport.CodeRule{
		CodeField:    "ret_code",
		MessageField: "ret_msg",
		Success:      []string{"0"},
		Map:          mapBybitErrorCode,
	})
)

// classify reads retCode/retMsg, falling back to the older ret_code/ret_msg pair.
func classify(status int, body []byte) *core.ExchangeError {
	if exErr := unifiedCodes(status, body); exErr != nil {
		return exErr
	}
	return legacyCodes(status, body)
}

func profile(style signer.Style) exchange.Profile {
	return exchange.Profile{
		ProductionURL: ProductionURL,
		SandboxURL:    SandboxURL,
		Styles:        []signer.Style{style},
		Classifier:    classify,
	}
}

// formRequest signs params plus api_key and timestamp with the sorted-query
// style and sends them as a form body with sign appended.
func formRequest(b *exchange.Base, path string, params core.Params) (*core.Request, error) {
	keys, err := b.Keys()
	if err != nil {
		return nil, err
	}
	params = params.Clone().Set("api_key", keys.APIKey)

	signed, err := keys.Sign(signer.Payload{Method: http.MethodPost, Path: path, Params: params})
	if err != nil {
		return nil, err
	}

	return core.NewRequest(http.MethodPost, path).
		SetBody(signed.CanonicalMessage+"&sign="+signed.Signature).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetRequireAuth(true), nil
}

// unifiedRequest signs a v5 call. GET parameters go in the query string,
// anything else as a compact JSON body; the signed payload is exactly what is sent.
func unifiedRequest(b *exchange.Base, method, path string, params core.Params) (*core.Request, error) {
	req := core.NewRequest(method, path).SetRequireAuth(true)
	payload := signer.Payload{Method: method, Path: path, RecvWindow: b.RecvWindow()}

	if method == http.MethodGet {
		payload.Params = params
		req.SetRawQuery(signer.EncodeSorted(params))
	} else {
		body, err := sonic.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		payload.Body = string(body)
		req.SetBody(payload.Body).SetHeader("Content-Type", "application/json")
	}

	keys, err := b.Keys()
	if err != nil {
		return nil, err
	}
	signed, err := keys.Sign(payload)
	if err != nil {
		return nil, err
	}

	return req.SetHeaders(map[string]string{
		"X-BAPI-API-KEY":     keys.APIKey,
		"X-BAPI-TIMESTAMP":   signed.TimestampText,
		"X-BAPI-SIGN":        signed.Signature,
		"X-BAPI-RECV-WINDOW": payload.RecvWindow,
	}), nil
}

func mapBybitErrorCode(code string, status int) core.ErrorType {
	n, err := strconv.Atoi(code)
	if err != nil {
		return transport.TypeForStatus(status)
	}
	switch n {
	case 10002, 10003, 10004, 10005, 10007, 33004:
		return core.ErrorTypeAuthentication
	case 10001:
		return core.ErrorTypeBadRequest
	case 10006, 10010, 10017, 10018:
		return core.ErrorTypeRateLimit
	case 110007, 110012, 110013, 110043, 170131:
		return core.ErrorTypeInsufficientFunds
	case 110001, 170213:
		return core.ErrorTypeNotFound
	case 110002, 110003, 110004, 110005:
		return core.ErrorTypeInvalidOrder
	default:
		if n >= 10000 && n < 11000 {
			return core.ErrorTypeBadRequest
		}
		if n >= 110000 && n < 200000 {
			return core.ErrorTypeInvalidOrder
		}
		return transport.TypeForStatus(status)
	}
}
