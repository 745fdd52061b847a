// Package bybit signs and sends Bybit REST calls.
//
// SpotClient uses the v3 spot order endpoint: the form parameters, api_key
// and timestamp are sorted, signed, and posted with sign=<hex HMAC>.
// UnifiedClient uses v5, where the signature covers
// timestamp + api key + recv window + (query string or JSON body) and
// travels in the X-BAPI-* headers.
//
// Bybit API Documentation: https://bybit-exchange.github.io/docs/v5/intro
package bybit
