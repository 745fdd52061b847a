// Package exchange holds the plumbing shared by the per-exchange clients:
// config checks, credential lookup, signer selection and the dispatcher.
// There is no common trading interface; each exchange package keeps its own
// methods and parameter shapes.
package exchange

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/cockroachdb/apd/v3"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"sandi/internal/keyring"
	"sandi/internal/transport"
	"sandi/pkg/core"
	"sandi/pkg/signer"
)

// Profile describes how one exchange market authenticates.
type Profile struct {
	ProductionURL string
	SandboxURL    string
	// Styles lists the signing styles the wire format can carry.
	Styles          []signer.Style
	Passphrase      bool
	TimestampFormat signer.TimestampFormat
	// TimestampKey overrides the parameter that carries the sorted-query timestamp.
	TimestampKey string
	Classifier   transport.Classifier
	// Public clients may be built without credentials; only unsigned calls work then.
	Public bool
}

// Base is embedded by every exchange client.
type Base struct {
	Config     *core.Config
	Dispatcher *transport.Dispatcher
	Logger     zerolog.Logger

	profile Profile
	opts    *Options
	ring    *keyring.KeyRing

	mu   sync.Mutex
	keys *Keys
}

// Keys is one credential set together with the signer built for it.
// A request reads its key, passphrase and signature from the same Keys.
type Keys struct {
	*core.Credentials
	signer *signer.Signer
}

// Style returns the signing style of k's signer.
func (k *Keys) Style() signer.Style {
	return k.signer.Style()
}

// Sign signs p with k's secret and api key.
func (k *Keys) Sign(p signer.Payload) (*signer.SignedRequest, error) {
	p.APIKey = k.APIKey
	return k.signer.Sign(p)
}

// NewBase validates cfg, resolves credentials and the signing style, and
// builds the dispatcher for the exchange described by profile.
func NewBase(cfg *core.Config, profile Profile, opts ...Option) (*Base, error) {
	if cfg == nil {
		return nil, core.NewValidationError("", "config is required").WithCode(core.ErrCodeInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := ApplyOptions(opts...)

	b := &Base{
		Config:  cfg,
		Logger:  o.Logger.With().Str("exchange", cfg.Exchange).Str("market", cfg.MarketType.String()).Logger(),
		profile: profile,
		opts:    o,
	}

	creds := cfg.Credentials
	if creds == nil && o.KeyRing != nil {
		current, err := o.KeyRing.Current()
		if err != nil {
			return nil, err
		}
		creds = current
		b.ring = o.KeyRing
	}

	if err := creds.Check(profile.Passphrase); err != nil {
		if !profile.Public || creds != nil {
			return nil, core.NewValidationError(cfg.Exchange, err.Error()).
				WithCode(core.ErrCodeNoCredentials).
				WithCause(err)
		}
	} else {
		keys, err := b.newKeys(creds)
		if err != nil {
			return nil, err
		}
		b.keys = keys
	}

	dopts := []transport.Option{transport.WithLogger(b.Logger)}
	if profile.Classifier != nil {
		dopts = append(dopts, transport.WithClassifier(profile.Classifier))
	}
	if o.RoundTripper != nil {
		dopts = append(dopts, transport.WithRoundTripper(o.RoundTripper))
	}
	d, err := transport.NewDispatcher(&transport.Config{
		Exchange: cfg.Exchange,
		BaseURL:  cfg.ResolveBaseURL(profile.ProductionURL, profile.SandboxURL),
		Timeout:  cfg.Timeout,
	}, dopts...)
	if err != nil {
		return nil, err
	}
	b.Dispatcher = d

	b.Logger.Debug().
		Object("credentials", credsOrEmpty(creds)).
		Bool("sandbox", cfg.Sandbox).
		Msg("client ready")
	return b, nil
}

func (b *Base) newKeys(creds *core.Credentials) (*Keys, error) {
	canon, err := b.opts.Registry.Resolve(b.Config)
	if err != nil {
		return nil, err
	}
	if len(b.profile.Styles) > 0 {
		if err := signer.Require(canon, b.profile.Styles...); err != nil {
			return nil, err
		}
	}
	sopts := []signer.Option{
		signer.WithClock(b.opts.Clock),
		signer.WithTimestampFormat(b.profile.TimestampFormat),
	}
	if b.profile.TimestampKey != "" {
		sopts = append(sopts, signer.WithTimestampKey(b.profile.TimestampKey))
	}
	sg, err := signer.NewSigner(canon, creds.SecretKey, sopts...)
	if err != nil {
		return nil, err
	}
	return &Keys{Credentials: creds, signer: sg}, nil
}

// ForMarket returns a copy of cfg pinned to market. The caller's config is not modified.
func ForMarket(cfg *core.Config, market core.MarketType) *core.Config {
	if cfg == nil {
		return nil
	}
	out := *cfg
	out.MarketType = market
	return &out
}

func credsOrEmpty(c *core.Credentials) core.Credentials {
	if c == nil {
		return core.Credentials{}
	}
	return *c
}

// Name returns the exchange name from the config.
func (b *Base) Name() string {
	return b.Config.Exchange
}

// Keys returns the credentials to sign the next request with. A client
// built from a key ring follows the ring's current entry, so a rotation
// after an authentication failure takes effect on the next call. Public-only
// clients fail with a NO_CREDENTIALS error.
func (b *Base) Keys() (*Keys, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ring != nil {
		creds, err := b.ring.Current()
		if err != nil {
			return nil, err
		}
		if b.keys == nil || b.keys.Credentials != creds {
			keys, err := b.newKeys(creds)
			if err != nil {
				return nil, err
			}
			if b.keys != nil {
				b.Logger.Info().Str("api_key", core.MaskKey(creds.APIKey)).Msg("signing key changed")
			}
			b.keys = keys
		}
	}
	if b.keys == nil {
		return nil, core.NewValidationError(b.Name(), "credentials are required for signed endpoints").
			WithCode(core.ErrCodeNoCredentials).
			WithCause(core.ErrNoCredentials)
	}
	return b.keys, nil
}

// Sign signs p with the current keys.
func (b *Base) Sign(p signer.Payload) (*signer.SignedRequest, error) {
	keys, err := b.Keys()
	if err != nil {
		return nil, err
	}
	return keys.Sign(p)
}

// Do sends req through the dispatcher. Signed calls report their outcome to
// the key ring, which rotates keys on authentication failures.
func (b *Base) Do(ctx context.Context, req *core.Request) (*core.Response, error) {
	resp, err := b.Dispatcher.Do(ctx, req)
	if b.ring != nil && req.RequireAuth {
		if err != nil {
			b.ring.OnError(err)
		} else {
			b.ring.MarkUsed()
		}
	}
	return resp, err
}

// RecvWindow returns the configured receive window in milliseconds as text.
func (b *Base) RecvWindow() string {
	return strconv.FormatInt(b.Config.RecvWindow.Milliseconds(), 10)
}

func (b *Base) Close() error {
	return b.Dispatcher.Close()
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Decimals validate as numbers, so tags such as gt=0 and required_if work on them.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		d, ok := field.Interface().(apd.Decimal)
		if !ok {
			return nil
		}
		f, err := d.Float64()
		if err != nil {
			return nil
		}
		return f
	}, apd.Decimal{})
	return v
}

// Validate checks v's validate tags and reports failures as validation
// errors for exchange, before anything is sent.
func Validate(exchange string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fields []string
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	} else {
		fields = append(fields, err.Error())
	}
	return core.NewValidationError(exchange, "invalid parameters: "+strings.Join(fields, ", ")).
		WithCause(err)
}

// ClientOrderID returns id, or a new random id when it is empty.
// maxLen trims the id for exchanges with short limits; 0 keeps it whole.
func ClientOrderID(id string, maxLen int) string {
	if id != "" {
		return id
	}
	id = strings.ReplaceAll(uuid.NewString(), "-", "")
	if maxLen > 0 && len(id) > maxLen {
		id = id[:maxLen]
	}
	return id
}
