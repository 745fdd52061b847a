package signer

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"sandi/pkg/core"
)

// Payload is the request material a Canonicalizer reads.
// Which fields matter depends on the style.
type Payload struct {
	Method string
	// Path is the request path as sent, including any inline query string.
	Path string
	// Body is the exact body bytes as sent. Empty means no body.
	Body string
	// Params are the request parameters for sorted-query signing, and the
	// GET query for keyed-prehash signing.
	Params core.Params
	// Timestamp is the rendered timestamp text placed in the message.
	Timestamp  string
	APIKey     string
	RecvWindow string
}

// Canonicalizer builds the exact string that gets signed.
// Implementations are pure and safe for concurrent use.
type Canonicalizer interface {
	Style() Style
	Encoding() Encoding
	Canonicalize(p *Payload) (string, error)
}

// New returns the canonicalizer for style.
func New(style Style) (Canonicalizer, error) {
	switch style {
	case StylePrehashHex:
		return PrehashHex{}, nil
	case StylePrehashBase64:
		return PrehashBase64{}, nil
	case StyleSortedQuery:
		return SortedQuery{}, nil
	case StyleKeyedPrehash:
		return KeyedPrehash{}, nil
	default:
		return nil, core.NewValidationError(component, fmt.Sprintf("unsupported signing style %s", style))
	}
}

// PrehashHex concatenates timestamp, method, path and body as given.
type PrehashHex struct{}

func (PrehashHex) Style() Style       { return StylePrehashHex }
func (PrehashHex) Encoding() Encoding { return EncodingHex }

func (PrehashHex) Canonicalize(p *Payload) (string, error) {
	if err := checkPrehash(p); err != nil {
		return "", err
	}
	return p.Timestamp + p.Method + p.Path + p.Body, nil
}

// PrehashBase64 is PrehashHex with the method upper-cased and a base64 digest.
type PrehashBase64 struct{}

func (PrehashBase64) Style() Style       { return StylePrehashBase64 }
func (PrehashBase64) Encoding() Encoding { return EncodingBase64 }

func (PrehashBase64) Canonicalize(p *Payload) (string, error) {
	if err := checkPrehash(p); err != nil {
		return "", err
	}
	return p.Timestamp + strings.ToUpper(p.Method) + p.Path + p.Body, nil
}

func checkPrehash(p *Payload) error {
	switch {
	case p == nil:
		return core.NewValidationError(component, "nil payload")
	case p.Timestamp == "":
		return core.NewValidationError(component, "timestamp is required")
	case p.Method == "":
		return core.NewValidationError(component, "method is required")
	case p.Path == "":
		return core.NewValidationError(component, "path is required")
	}
	return nil
}

// SortedQuery joins the parameters as key=value pairs sorted by key.
// The timestamp must already be one of the parameters.
type SortedQuery struct{}

func (SortedQuery) Style() Style       { return StyleSortedQuery }
func (SortedQuery) Encoding() Encoding { return EncodingHex }

func (SortedQuery) Canonicalize(p *Payload) (string, error) {
	if p == nil || len(p.Params) == 0 {
		return "", core.NewValidationError(component, "sorted-query signing needs at least one parameter")
	}
	return EncodeSorted(p.Params), nil
}

// KeyedPrehash concatenates timestamp, API key, receive window and payload.
// The payload is the sorted query for GET requests and the body otherwise.
type KeyedPrehash struct{}

func (KeyedPrehash) Style() Style       { return StyleKeyedPrehash }
func (KeyedPrehash) Encoding() Encoding { return EncodingHex }

func (KeyedPrehash) Canonicalize(p *Payload) (string, error) {
	switch {
	case p == nil:
		return "", core.NewValidationError(component, "nil payload")
	case p.Timestamp == "":
		return "", core.NewValidationError(component, "timestamp is required")
	case p.APIKey == "":
		return "", core.NewValidationError(component, "api key is required")
	}
	payload := p.Body
	if strings.EqualFold(p.Method, "GET") {
		payload = EncodeSorted(p.Params)
	}
	return p.Timestamp + p.APIKey + p.RecvWindow + payload, nil
}

// EncodeSorted renders params as k=v pairs joined by '&', sorted by key.
// The result is also the literal query string or form body to transmit.
func EncodeSorted(params core.Params) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(FormatValue(params[k])))
	}
	return b.String()
}

// FormatValue renders a parameter value the way it appears on the wire.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case *apd.Decimal:
		return x.Text('f')
	case apd.Decimal:
		return x.Text('f')
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
