// Package okx signs and sends OKX v5 REST calls.
//
// The signature is base64 HMAC-SHA256 over ISO-8601 timestamp + METHOD +
// request path (query included) + body. Demo trading is enabled with the
// x-simulated-trading header when the config is in sandbox mode.
package okx
