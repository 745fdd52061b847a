package signer

import (
	"fmt"
	"strings"

	"sandi/pkg/core"
)

// Style identifies how a request is turned into the message that gets signed.
type Style int

const (
	// StyleUnknown is the zero value and is rejected everywhere.
	StyleUnknown Style = iota
	// StylePrehashHex signs timestamp+method+path+body and hex-encodes the digest.
	StylePrehashHex
	// StylePrehashBase64 signs timestamp+METHOD+path+body and base64-encodes the digest.
	StylePrehashBase64
	// StyleSortedQuery signs the key-sorted k=v&k=v parameter string, timestamp included.
	StyleSortedQuery
	// StyleKeyedPrehash signs timestamp+apiKey+recvWindow+payload and hex-encodes the digest.
	StyleKeyedPrehash
)

var styleNames = [...]string{
	"unknown",
	"prehash-hex",
	"prehash-base64",
	"sorted-query",
	"keyed-prehash",
}

func (s Style) String() string {
	if s < 0 || int(s) >= len(styleNames) {
		return "unknown"
	}
	return styleNames[s]
}

// ParseStyle accepts the names produced by Style.String.
func ParseStyle(name string) (Style, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range styleNames {
		if i > 0 && n == name {
			return Style(i), nil
		}
	}
	return StyleUnknown, core.NewValidationError(component, fmt.Sprintf("unknown signing style %q", name))
}

// Encoding is the text form of the HMAC digest.
type Encoding int

const (
	EncodingHex Encoding = iota
	EncodingBase64
)

func (e Encoding) String() string {
	if e == EncodingBase64 {
		return "base64"
	}
	return "hex"
}

const component = "signer"
