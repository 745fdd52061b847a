package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// HMAC returns the HMAC-SHA256 of message under secret in the given encoding.
// Hex output is lowercase; base64 output uses the standard padded alphabet.
func HMAC(message, secret string, enc Encoding) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	sum := mac.Sum(nil)

	if enc == EncodingBase64 {
		return base64.StdEncoding.EncodeToString(sum)
	}
	return hex.EncodeToString(sum)
}
