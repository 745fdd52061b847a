package mexc

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
	SpotURL     = "https://api.mexc.com"
	FuturesURL  = "https://contract.mexc.com"
	spotKeyName = "X-MEXC-APIKEY"
)

const name = "mexc"

func spotProfile() exchange.Profile {
	return exchange.Profile{
		ProductionURL: SpotURL,
		Styles:        []signer.Style{signer.StyleSortedQuery},
		Classifier: transport.JSONCodeClassifier(transport.CodeRule{
			CodeField:    "code",
			MessageField: "msg",
			Success:      []string{"0", "200"},
			Map:          mapMexcErrorCode,
		}),
	}
}

func futuresProfile() exchange.Profile {
	return exchange.Profile{
		ProductionURL: FuturesURL,
		Styles:        []signer.Style{signer.StyleSortedQuery},
		Classifier: transport.JSONCodeClassifier(transport.CodeRule{
			CodeField:    "code",
			MessageField: "message",
			Success:      []string{"0"},
			Map:          mapMexcErrorCode,
		}),
	}
}

// spotRequest sends params, recvWindow and timestamp sorted in the query
// string with signature appended, whatever the method.
func spotRequest(b *exchange.Base, method, path string, params core.Params) (*core.Request, error) {
	params = params.Clone()
	if b.Config.RecvWindow > 0 {
		params.Set("recvWindow", b.RecvWindow())
	}
	keys, err := b.Keys()
	if err != nil {
		return nil, err
	}
	signed, err := keys.Sign(signer.Payload{Method: method, Path: path, Params: params})
	if err != nil {
		return nil, err
	}
	return core.NewRequest(method, path).
		SetRawQuery(signed.CanonicalMessage+"&signature="+signed.Signature).
		SetHeader(spotKeyName, keys.APIKey).
		SetHeader("Content-Type", "application/json").
		SetRequireAuth(true), nil
}

// futuresRequest signs params plus timestamp. The same timestamp goes in
// Request-Time; GET sends the signed params as the query, POST as a JSON body.
func futuresRequest(b *exchange.Base, method, path string, params core.Params) (*core.Request, error) {
	keys, err := b.Keys()
	if err != nil {
		return nil, err
	}
	signed, err := keys.Sign(signer.Payload{Method: method, Path: path, Params: params})
	if err != nil {
		return nil, err
	}

	req := core.NewRequest(method, path).SetRequireAuth(true)
	if method == http.MethodGet {
		req.SetRawQuery(signed.CanonicalMessage)
	} else {
		body, err := sonic.Marshal(signed.Params)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		req.SetBody(string(body))
	}

	return req.SetHeaders(map[string]string{
		"ApiKey":       keys.APIKey,
		"Request-Time": signed.TimestampText,
		"Signature":    signed.Signature,
		"Content-Type": "application/json",
	}), nil
}

func mapMexcErrorCode(code string, status int) core.ErrorType {
	n, err := strconv.Atoi(code)
	if err != nil {
		return transport.TypeForStatus(status)
	}
	switch n {
	case 401, 402, 602, 10072, 700001, 700002, 700003, 700006, 700007:
		return core.ErrorTypeAuthentication
	case 429, 510:
		return core.ErrorTypeRateLimit
	case 2005, 10101, 30004:
		return core.ErrorTypeInsufficientFunds
	case -2011, 2009, 30016:
		return core.ErrorTypeNotFound
	case 30002, 30005, 30029, 2015:
		return core.ErrorTypeInvalidOrder
	default:
		return transport.TypeForStatus(status)
	}
}
