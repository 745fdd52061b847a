package binance

import (
	"strconv"
	"strings"

	"sandi/internal/transport"
	"sandi/pkg/core"
	"sandi/pkg/exchange"
	"sandi/pkg/signer"
)

const (
	SpotProductionURL    = "https://api.binance.com"
	SpotSandboxURL       = "https://testnet.binance.vision"
	FuturesProductionURL = "https://fapi.binance.com"
	FuturesSandboxURL    = "https://testnet.binancefuture.com"
)

const apiKeyHeader = "X-MBX-APIKEY"

func profile(production, sandbox string) exchange.Profile {
	return exchange.Profile{
		ProductionURL: production,
		SandboxURL:    sandbox,
		Styles:        []signer.Style{signer.StyleSortedQuery},
		Classifier: transport.JSONCodeClassifier(transport.CodeRule{
			CodeField:    "code",
			MessageField: "msg",
			// Some futures endpoints answer {"code":200,"msg":"success"}.
			Success: []string{"0", "200"},
			Map:     mapBinanceErrorCode,
		}),
		// Klines and other market data need no key.
		Public: true,
	}
}

// signedRequest puts params, recvWindow and timestamp in the query string,
// sorted as signed, and appends the signature last.
func signedRequest(b *exchange.Base, method, path string, params core.Params) (*core.Request, error) {
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
		SetHeader(apiKeyHeader, keys.APIKey).
		SetRequireAuth(true), nil
}

func publicRequest(path string, params core.Params) *core.Request {
	return core.NewRequest("GET", path).SetRawQuery(signer.EncodeSorted(params))
}

func formatSymbol(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
}

func mapBinanceErrorCode(code string, status int) core.ErrorType {
	n, err := strconv.Atoi(code)
	if err != nil {
		return transport.TypeForStatus(status)
	}
	switch n {
	case -1003, -1015:
		return core.ErrorTypeRateLimit
	case -1021, -1022, -2014, -2015:
		return core.ErrorTypeAuthentication
	case -2010, -2019:
		return core.ErrorTypeInsufficientFunds
	case -2011, -2013:
		return core.ErrorTypeNotFound
	case -1100, -1101, -1102, -1103, -1104, -1105, -1121:
		return core.ErrorTypeBadRequest
	default:
		if n <= -1000 && n > -2000 {
			return core.ErrorTypeBadRequest
		}
		if n <= -2000 && n > -5000 {
			return core.ErrorTypeInvalidOrder
		}
		return transport.TypeForStatus(status)
	}
}
