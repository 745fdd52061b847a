// Package transport sends signed requests to exchanges and turns every kind of
// failure into a single *core.ExchangeError.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"resty.dev/v3"

	"sandi/pkg/core"
)

// Classifier inspects a reply and returns the exchange error it carries, or nil
// when the reply is a success. It is called for 2xx and non-2xx replies alike.
type Classifier func(status int, body []byte) *core.ExchangeError

// Config describes one dispatcher.
type Config struct {
	Exchange string        `validate:"required"`
	BaseURL  string        `validate:"required,url"`
	Timeout  time.Duration `validate:"min=1ms"`
}

// Dispatcher performs exactly one HTTP call per Do. It never retries.
// It is safe for concurrent use.
type Dispatcher struct {
	client   *resty.Client
	exchange string
	classify Classifier
	logger   zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithClassifier sets the exchange-specific reply classifier.
func WithClassifier(c Classifier) Option {
	return func(d *Dispatcher) {
		d.classify = c
	}
}

// WithRoundTripper replaces the underlying HTTP transport.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(d *Dispatcher) {
		d.client.SetTransport(rt)
	}
}

var validate = validator.New()

// NewDispatcher validates cfg and builds a dispatcher for it.
func NewDispatcher(cfg *Config, opts ...Option) (*Dispatcher, error) {
	if cfg == nil {
		return nil, core.NewValidationError("", "dispatcher config is required")
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, core.NewValidationError(cfg.Exchange, fmt.Sprintf("invalid dispatcher config: %v", err)).
			WithCode(core.ErrCodeInvalidConfig)
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(cfg.BaseURL, "/"))
	client.SetTimeout(cfg.Timeout)
	client.SetRetryCount(0)
	client.SetRedirectPolicy(resty.NoRedirectPolicy())
	client.SetHeader("Accept", "application/json")

	d := &Dispatcher{
		client:   client,
		exchange: cfg.Exchange,
		classify: StatusOnly,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	client.SetLogger(restyLogger{logger: d.logger})

	return d, nil
}

// Exchange returns the exchange name used in errors and logs.
func (d *Dispatcher) Exchange() string {
	return d.exchange
}

// Close releases idle connections. Further calls fail with core.ErrClientClosed.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.client.Close()
}

// Do sends req once and returns the untouched reply.
// Any transport failure, non-2xx status or in-body error code is returned as
// *core.ExchangeError; the response is nil in that case.
func (d *Dispatcher) Do(ctx context.Context, req *core.Request) (*core.Response, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil, core.NewExchangeError(d.exchange, core.ErrorTypeUnknown, 0, core.ErrClientClosed.Error()).
			WithCode(core.ErrCodeClientClosed).
			WithCause(core.ErrClientClosed)
	}

	method := strings.ToUpper(req.Method)
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		return nil, core.NewValidationError(d.exchange, fmt.Sprintf("unsupported http method: %q", req.Method))
	}

	r := d.client.R().SetContext(ctx)
	for k, v := range req.Headers {
		r.SetHeader(k, v)
	}
	if req.Body != "" {
		r.SetBody(req.Body)
	}

	start := time.Now()
	resp, err := r.Execute(method, req.URI())
	latency := time.Since(start)

	if err != nil {
		exErr := d.transportError(method, req.Path, err)
		d.logger.Warn().
			Str("exchange", d.exchange).
			Str("method", method).
			Str("path", req.Path).
			Dur("latency", latency).
			Str("kind", exErr.Kind.String()).
			Bool("outcome_unknown", exErr.OutcomeUnknown).
			Msg("http request failed")
		return nil, exErr
	}

	body := resp.Bytes()
	status := resp.StatusCode()

	d.logger.Debug().
		Str("exchange", d.exchange).
		Str("method", method).
		Str("path", req.Path).
		Int("status", status).
		Int("size", len(body)).
		Dur("latency", latency).
		Msg("http response")

	if exErr := d.classifyReply(method, status, body); exErr != nil {
		return nil, exErr
	}

	headers := make(map[string]string, len(resp.Header()))
	for k, v := range resp.Header() {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	return &core.Response{
		StatusCode: status,
		Body:       body,
		Headers:    headers,
	}, nil
}

// classifyReply maps a reply to an error. A non-GET reply with no exchange
// code and a 408 or 5xx status may come from a gateway that forwarded the
// request, so its outcome is unknown.
func (d *Dispatcher) classifyReply(method string, status int, body []byte) *core.ExchangeError {
	success := status >= 200 && status < 300

	var exErr *core.ExchangeError
	if d.classify != nil {
		exErr = d.classify(status, body)
	}
	if exErr == nil && !success {
		exErr = StatusError(d.exchange, status, body)
		exErr.OutcomeUnknown = method != http.MethodGet &&
			(status == http.StatusRequestTimeout || status >= 500)
	}
	if exErr == nil {
		return nil
	}

	exErr.Exchange = d.exchange
	exErr.StatusCode = status
	return exErr
}

// transportError converts a failed round trip. The *url.Error wrapper is
// dropped because its text contains the full URL, signature included.
func (d *Dispatcher) transportError(method, path string, err error) *core.ExchangeError {
	cause := err
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		cause = urlErr.Err
	}

	errType := core.ErrorTypeNetwork
	code := core.ErrCodeNetwork
	switch {
	case errors.Is(cause, context.Canceled):
		code = core.ErrCodeCanceled
	case isTimeout(cause):
		errType = core.ErrorTypeTimeout
		code = core.ErrCodeTimeout
	}

	exErr := core.NewExchangeError(d.exchange, errType, 0,
		fmt.Sprintf("%s %s: %v", method, path, cause)).
		WithCode(code).
		WithCause(cause)
	exErr.OutcomeUnknown = method != http.MethodGet
	return exErr
}

// ContextError reports a context that ended while op was waiting. A passed
// deadline is a timeout; a cancellation keeps the network type with code CANCELED.
func ContextError(exchange, op string, err error) *core.ExchangeError {
	errType, code := core.ErrorTypeNetwork, core.ErrCodeCanceled
	if errors.Is(err, context.DeadlineExceeded) {
		errType, code = core.ErrorTypeTimeout, core.ErrCodeTimeout
	}
	return core.NewExchangeError(exchange, errType, 0, fmt.Sprintf("%s: %v", op, err)).
		WithCode(code).
		WithCause(err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
