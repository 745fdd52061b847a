// Package bitget signs and sends Bitget spot and USDT-M futures REST calls.
//
// Both markets sign timestamp + method + request path (query included) + body
// and send the result in ACCESS-SIGN next to ACCESS-KEY, ACCESS-TIMESTAMP and
// ACCESS-PASSPHRASE. Futures use a lowercase hex digest, spot a base64 digest
// with the method upper-cased. Replies carry code "00000" on success.
package bitget
