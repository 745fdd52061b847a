package core

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultTimeout bounds every HTTP call when the config leaves Timeout unset.
	DefaultTimeout = 10 * time.Second
	// DefaultRecvWindow is the validity window sent to exchanges that accept one.
	DefaultRecvWindow = 5 * time.Second
)

// Config contains the options for one exchange client.
type Config struct {
	Exchange    string       `json:"exchange" yaml:"exchange" validate:"required,oneof=binance bybit bitget mexc okx"`
	MarketType  MarketType   `json:"market_type" yaml:"market"`
	Sandbox     bool         `json:"sandbox" yaml:"sandbox"`
	BaseURL     string       `json:"base_url,omitempty" yaml:"base_url" validate:"omitempty,url"`
	Credentials *Credentials `json:"credentials,omitempty" yaml:"credentials"`

	// Timeout is the maximum duration for a single HTTP request.
	Timeout time.Duration `json:"timeout" yaml:"timeout" validate:"min=1ms"`
	// RecvWindow is sent to exchanges that support a server-side validity window.
	RecvWindow time.Duration `json:"recv_window" yaml:"recv_window" validate:"min=0"`
	// SignStyle overrides the canonicalization style chosen for the exchange.
	SignStyle string `json:"sign_style,omitempty" yaml:"sign_style" validate:"omitempty,oneof=prehash-hex prehash-base64 sorted-query keyed-prehash"`

	LogLevel string `json:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// DefaultConfig returns a Config for the specified exchange with a 10s timeout,
// a 5s receive window and info logging.
func DefaultConfig(exchange string) *Config {
	return &Config{
		Exchange:   exchange,
		MarketType: MarketTypeSpot,
		Timeout:    DefaultTimeout,
		RecvWindow: DefaultRecvWindow,
		LogLevel:   "info",
	}
}

// LoadConfig reads a YAML config file on top of the defaults and validates it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML bytes on top of the defaults and validates the result.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return NewExchangeError(c.Exchange, ErrorTypeBadRequest, 0, err.Error()).
			WithCode(ErrCodeInvalidConfig).
			asValidation()
	}
	return nil
}

func (e *ExchangeError) asValidation() *ExchangeError {
	e.Kind = KindValidation
	return e
}

// WithCredentials sets the API credentials and returns the config for chaining.
func (c *Config) WithCredentials(creds *Credentials) *Config {
	c.Credentials = creds
	return c
}

// WithSandbox enables or disables sandbox mode and returns the config for chaining.
func (c *Config) WithSandbox(sandbox bool) *Config {
	c.Sandbox = sandbox
	return c
}

// WithTimeout sets the request timeout and returns the config for chaining.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithMarket sets the market type and returns the config for chaining.
func (c *Config) WithMarket(mt MarketType) *Config {
	c.MarketType = mt
	return c
}

// WithBaseURL overrides the exchange host, mainly for tests and proxies.
func (c *Config) WithBaseURL(url string) *Config {
	c.BaseURL = url
	return c
}

// WithSignStyle overrides the canonicalization style and returns the config for chaining.
func (c *Config) WithSignStyle(style string) *Config {
	c.SignStyle = style
	return c
}

// ResolveBaseURL returns the override when set, otherwise the sandbox or production host.
func (c *Config) ResolveBaseURL(production, sandbox string) string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	if c.Sandbox && sandbox != "" {
		return sandbox
	}
	return production
}
