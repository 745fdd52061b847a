// Package stream opens authenticated private websocket streams on Bitget and OKX.
//
// The login frame is signed like a REST request: timestamp (unix seconds),
// "GET", and a fixed verify path, HMAC-SHA256 in base64. Once the server
// acknowledges the login, every further message is handed to the caller's
// handler as raw bytes. Streams never reconnect.
package stream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"

	"sandi/internal/transport"
	"sandi/internal/ws"
	"sandi/pkg/core"
	"sandi/pkg/signer"
)

type ConnState = ws.ConnState

const (
	StateDisconnected  = ws.StateDisconnected
	StateConnecting    = ws.StateConnecting
	StateConnected     = ws.StateConnected
	StateAuthenticated = ws.StateAuthenticated
	StateClosed        = ws.StateClosed
)

// Venue selects the exchange-specific login path and default endpoint.
type Venue int

const (
	VenueBitget Venue = iota
	VenueOKX
)

func (v Venue) String() string {
	if v == VenueOKX {
		return "okx"
	}
	return "bitget"
}

// VerifyPath is the path signed in the login frame.
func (v Venue) VerifyPath() string {
	if v == VenueOKX {
		return "/users/self/verify"
	}
	return "/user/verify"
}

// Default private endpoints.
const (
	BitgetPrivateURL  = "wss://ws.bitget.com/v2/ws/private"
	OKXPrivateURL     = "wss://ws.okx.com:8443/ws/v5/private"
	OKXDemoPrivateURL = "wss://wspap.okx.com:8443/ws/v5/private?brokerId=9999"
)

// DefaultURL returns the production or demo endpoint for v.
func (v Venue) DefaultURL(sandbox bool) string {
	if v == VenueOKX {
		if sandbox {
			return OKXDemoPrivateURL
		}
		return OKXPrivateURL
	}
	return BitgetPrivateURL
}

// Config describes one private stream.
type Config struct {
	Venue       Venue
	URL         string
	Sandbox     bool
	Credentials *core.Credentials
	// LoginTimeout bounds the wait for the login acknowledgement.
	LoginTimeout time.Duration
	// PingInterval is how often the text "ping" keepalive is sent. Zero disables it.
	PingInterval time.Duration
}

// Stream is one authenticated websocket connection.
type Stream struct {
	config  Config
	signer  *signer.Signer
	client  *transport.WSClient
	handler func([]byte)
	logger  zerolog.Logger

	mu      sync.Mutex
	loginCh chan *core.ExchangeError
	stopCh  chan struct{}
	once    sync.Once
}

// Option configures a Stream.
type Option func(*Stream)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Stream) {
		s.logger = logger
	}
}

// WithClock replaces the signing clock, mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Stream) {
		s.signer = mustSigner(s.config.Credentials.SecretKey, clock)
	}
}

// New validates cfg and prepares a stream. handler receives every message
// that arrives after a successful login.
func New(cfg Config, handler func([]byte), opts ...Option) (*Stream, error) {
	if err := cfg.Credentials.Check(true); err != nil {
		return nil, core.NewValidationError(cfg.Venue.String(), err.Error()).
			WithCode(core.ErrCodeNoCredentials).
			WithCause(err)
	}
	if cfg.URL == "" {
		cfg.URL = cfg.Venue.DefaultURL(cfg.Sandbox)
	}
	if cfg.LoginTimeout == 0 {
		cfg.LoginTimeout = 10 * time.Second
	}
	if handler == nil {
		handler = func([]byte) {}
	}

	s := &Stream{
		config:  cfg,
		signer:  mustSigner(cfg.Credentials.SecretKey, time.Now),
		handler: handler,
		logger:  zerolog.Nop(),
		loginCh: make(chan *core.ExchangeError, 1),
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.client = transport.NewWSClient(transport.WSConfig{URL: cfg.URL}, s.onMessage)
	s.client.SetLogger(s.logger)
	return s, nil
}

func mustSigner(secret string, clock func() time.Time) *signer.Signer {
	sg, err := signer.NewSigner(signer.PrehashBase64{}, secret,
		signer.WithClock(clock),
		signer.WithTimestampFormat(signer.Seconds))
	if err != nil {
		// Credentials were checked before this point.
		panic(err)
	}
	return sg
}

type loginArg struct {
	APIKey     string `json:"apiKey"`
	Passphrase string `json:"passphrase"`
	Timestamp  string `json:"timestamp"`
	Sign       string `json:"sign"`
}

type loginFrame struct {
	Op   string     `json:"op"`
	Args []loginArg `json:"args"`
}

// LoginFrame builds the signed login message for the configured venue.
func (s *Stream) LoginFrame() ([]byte, *signer.SignedRequest, error) {
	signed, err := s.signer.Sign(signer.Payload{Method: "GET", Path: s.config.Venue.VerifyPath()})
	if err != nil {
		return nil, nil, err
	}
	frame := loginFrame{
		Op: "login",
		Args: []loginArg{{
			APIKey:     s.config.Credentials.APIKey,
			Passphrase: s.config.Credentials.Passphrase,
			Timestamp:  signed.TimestampText,
			Sign:       signed.Signature,
		}},
	}
	data, err := sonic.Marshal(frame)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal login frame: %w", err)
	}
	return data, signed, nil
}

// Connect dials, logs in and waits for the acknowledgement.
// A rejected login is returned as an authentication error and the socket is closed.
func (s *Stream) Connect(ctx context.Context) error {
	if err := s.client.Connect(ctx); err != nil {
		if exErr, ok := core.AsExchangeError(err); ok && exErr.Exchange == "" {
			exErr.Exchange = s.config.Venue.String()
		}
		return err
	}

	frame, _, err := s.LoginFrame()
	if err != nil {
		_ = s.client.Close()
		return err
	}
	if err := s.client.WriteMessage(frame); err != nil {
		_ = s.client.Close()
		return core.NewExchangeError(s.config.Venue.String(), core.ErrorTypeNetwork, 0, "send login frame").
			WithCode(core.ErrCodeNetwork).
			WithCause(err)
	}

	timer := time.NewTimer(s.config.LoginTimeout)
	defer timer.Stop()

	select {
	case exErr := <-s.loginCh:
		if exErr != nil {
			_ = s.client.Close()
			return exErr
		}
	case <-timer.C:
		_ = s.client.Close()
		return core.NewExchangeError(s.config.Venue.String(), core.ErrorTypeTimeout, 0, "login not acknowledged").
			WithCode(core.ErrCodeTimeout)
	case <-s.client.Done():
		return core.NewExchangeError(s.config.Venue.String(), core.ErrorTypeNetwork, 0, "connection closed during login").
			WithCode(core.ErrCodeNetwork).
			WithCause(s.client.Err())
	case <-ctx.Done():
		_ = s.client.Close()
		return transport.ContextError(s.config.Venue.String(), "login", ctx.Err())
	}

	s.client.MarkAuthenticated()
	s.logger.Info().Str("venue", s.config.Venue.String()).Msg("stream authenticated")

	if s.config.PingInterval > 0 {
		go s.keepalive()
	}
	return nil
}

type event struct {
	Event string `json:"event"`
	Code  any    `json:"code"`
	Msg   string `json:"msg"`
}

func (s *Stream) onMessage(data []byte) {
	if string(data) == "pong" {
		return
	}
	if s.client.State() == ws.StateAuthenticated {
		s.handler(data)
		return
	}

	var ev event
	if err := sonic.Unmarshal(data, &ev); err != nil {
		return
	}
	switch ev.Event {
	case "login":
		code := signer.FormatValue(ev.Code)
		if code == "" || code == "0" {
			s.client.MarkAuthenticated()
			s.deliverLogin(nil)
			return
		}
		s.deliverLogin(s.loginError(code, ev.Msg))
	case "error":
		s.deliverLogin(s.loginError(signer.FormatValue(ev.Code), ev.Msg))
	}
}

func (s *Stream) loginError(code, msg string) *core.ExchangeError {
	if msg == "" {
		msg = "login rejected"
	}
	return core.NewExchangeErrorWithCode(s.config.Venue.String(), core.ErrorTypeAuthentication, 0,
		string(core.ErrCodeLoginRejected), fmt.Sprintf("%s (code %s)", msg, code))
}

func (s *Stream) deliverLogin(exErr *core.ExchangeError) {
	select {
	case s.loginCh <- exErr:
	default:
	}
}

func (s *Stream) keepalive() {
	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.client.SendText("ping"); err != nil {
				return
			}
		case <-s.client.Done():
			return
		case <-s.stopCh:
			return
		}
	}
}

// Subscribe sends {"op":"subscribe","args":args}. Arguments are passed through untouched.
func (s *Stream) Subscribe(args ...any) error {
	return s.Send(map[string]any{"op": "subscribe", "args": args})
}

// Send writes v as a JSON text frame.
func (s *Stream) Send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client.SendJSON(v)
}

func (s *Stream) State() ConnState {
	return s.client.State()
}

// Done is closed when the connection ends.
func (s *Stream) Done() <-chan struct{} {
	return s.client.Done()
}

func (s *Stream) Close() error {
	s.once.Do(func() { close(s.stopCh) })
	return s.client.Close()
}
