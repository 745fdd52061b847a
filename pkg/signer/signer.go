package signer

import (
	"fmt"
	"strconv"
	"time"

	"sandi/pkg/core"
)

// TimestampFormat controls how the signing time is rendered into the message.
type TimestampFormat int

const (
	// Millis renders unix milliseconds, e.g. "1700000000000".
	Millis TimestampFormat = iota
	// ISO8601 renders UTC with milliseconds, e.g. "2023-11-14T22:13:20.000Z".
	ISO8601
	// Seconds renders unix seconds, e.g. "1700000000".
	Seconds
)

// Format renders t.
func (f TimestampFormat) Format(t time.Time) string {
	switch f {
	case ISO8601:
		return t.UTC().Format("2006-01-02T15:04:05.000Z")
	case Seconds:
		return strconv.FormatInt(t.Unix(), 10)
	default:
		return strconv.FormatInt(t.UnixMilli(), 10)
	}
}

// DefaultTimestampKey is the parameter that carries the timestamp in sorted-query signing.
const DefaultTimestampKey = "timestamp"

// SignedRequest is the result of signing one request.
// It is built per call and must not be reused.
type SignedRequest struct {
	// Timestamp is the signing time in unix milliseconds.
	Timestamp int64
	// TimestampText is the exact timestamp string that was signed and must be sent.
	TimestampText string
	// CanonicalMessage is the exact string that was signed.
	CanonicalMessage string
	// Signature is the hex or base64 HMAC-SHA256 of CanonicalMessage.
	Signature string
	// Params are the signed parameters, timestamp included, for sorted-query signing.
	Params core.Params
}

// Signer combines a Canonicalizer with a secret.
// It holds no mutable state and is safe for concurrent use.
type Signer struct {
	canon        Canonicalizer
	secret       string
	clock        func() time.Time
	format       TimestampFormat
	timestampKey string
}

// Option configures a Signer.
type Option func(*Signer)

// WithClock replaces time.Now, mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Signer) {
		s.clock = clock
	}
}

// WithTimestampFormat selects how the timestamp is rendered.
func WithTimestampFormat(f TimestampFormat) Option {
	return func(s *Signer) {
		s.format = f
	}
}

// WithTimestampKey changes the parameter name used for the sorted-query timestamp.
func WithTimestampKey(key string) Option {
	return func(s *Signer) {
		s.timestampKey = key
	}
}

// NewSigner returns a Signer for canon keyed by secret.
func NewSigner(canon Canonicalizer, secret string, opts ...Option) (*Signer, error) {
	if canon == nil {
		return nil, core.NewValidationError(component, "canonicalizer is required")
	}
	if secret == "" {
		return nil, core.NewValidationError(component, "secret is empty").WithCode(core.ErrCodeNoCredentials)
	}
	s := &Signer{
		canon:        canon,
		secret:       secret,
		clock:        time.Now,
		format:       Millis,
		timestampKey: DefaultTimestampKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Style returns the style of the underlying canonicalizer.
func (s *Signer) Style() Style {
	return s.canon.Style()
}

// Sign stamps p with the current time, canonicalizes it and signs the result.
// The same clock reading is used for the message and for TimestampText.
func (s *Signer) Sign(p Payload) (*SignedRequest, error) {
	now := s.clock()
	text := s.format.Format(now)

	p.Timestamp = text
	if s.canon.Style() == StyleSortedQuery {
		params := p.Params.Clone()
		params[s.timestampKey] = text
		p.Params = params
	}

	msg, err := s.canon.Canonicalize(&p)
	if err != nil {
		return nil, err
	}

	return &SignedRequest{
		Timestamp:        now.UnixMilli(),
		TimestampText:    text,
		CanonicalMessage: msg,
		Signature:        HMAC(msg, s.secret, s.canon.Encoding()),
		Params:           p.Params,
	}, nil
}

// String never includes the secret.
func (s *Signer) String() string {
	return fmt.Sprintf("Signer{style:%s}", s.canon.Style())
}

// GoString keeps %#v from printing the secret.
func (s *Signer) GoString() string {
	return s.String()
}
