package exchange

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"sandi/internal/keyring"
	"sandi/pkg/signer"
)

type Option func(*Options)

// Options holds the settings shared by every exchange client.
type Options struct {
	Logger       zerolog.Logger
	Clock        func() time.Time
	RoundTripper http.RoundTripper
	Registry     *signer.Registry
	KeyRing      *keyring.KeyRing
}

// WithLogger sets the logger for the client and its dispatcher.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithClock replaces the signing clock, mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(o *Options) {
		o.Clock = clock
	}
}

// WithRoundTripper replaces the HTTP transport.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(o *Options) {
		o.RoundTripper = rt
	}
}

// WithRegistry replaces the default signing style registry.
func WithRegistry(r *signer.Registry) Option {
	return func(o *Options) {
		o.Registry = r
	}
}

// WithKeyRing supplies credentials when the config carries none.
// The ring's current key is used.
func WithKeyRing(kr *keyring.KeyRing) Option {
	return func(o *Options) {
		o.KeyRing = kr
	}
}

func ApplyOptions(opts ...Option) *Options {
	o := &Options{
		Logger: zerolog.Nop(),
		Clock:  time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.Registry == nil {
		o.Registry = signer.NewDefaultRegistry()
	}
	return o
}
