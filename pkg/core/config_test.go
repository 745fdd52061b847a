package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig("binance")

	assert.Equal(t, "binance", config.Exchange)
	assert.Equal(t, MarketTypeSpot, config.MarketType)
	assert.False(t, config.Sandbox)
	assert.Equal(t, 10*time.Second, config.Timeout)
	assert.Equal(t, 5*time.Second, config.RecvWindow)
	assert.Equal(t, "info", config.LogLevel)
	assert.NoError(t, config.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid_config",
			config: DefaultConfig("okx"),
		},
		{
			name:    "missing_exchange",
			config:  &Config{Timeout: time.Second},
			wantErr: true,
			errMsg:  "Exchange",
		},
		{
			name:    "unsupported_exchange",
			config:  DefaultConfig("kraken"),
			wantErr: true,
			errMsg:  "Exchange",
		},
		{
			name:    "invalid_timeout",
			config:  DefaultConfig("bybit").WithTimeout(-1 * time.Second),
			wantErr: true,
			errMsg:  "Timeout",
		},
		{
			name:    "invalid_base_url",
			config:  DefaultConfig("mexc").WithBaseURL("not a url"),
			wantErr: true,
			errMsg:  "BaseURL",
		},
		{
			name:    "invalid_sign_style",
			config:  DefaultConfig("bitget").WithSignStyle("md5"),
			wantErr: true,
			errMsg:  "SignStyle",
		},
		{
			name:   "sign_style_override",
			config: DefaultConfig("bitget").WithSignStyle("prehash-base64"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.True(t, IsValidationError(err))
			assert.True(t, IsErrorCode(err, ErrCodeInvalidConfig))
		})
	}
}

func TestConfig_Builders(t *testing.T) {
	creds := &Credentials{APIKey: "key", SecretKey: "secret"}
	config := DefaultConfig("bybit").
		WithCredentials(creds).
		WithSandbox(true).
		WithTimeout(3 * time.Second).
		WithMarket(MarketTypeFutures)

	assert.Same(t, creds, config.Credentials)
	assert.True(t, config.Sandbox)
	assert.Equal(t, 3*time.Second, config.Timeout)
	assert.Equal(t, MarketTypeFutures, config.MarketType)
}

func TestConfig_ResolveBaseURL(t *testing.T) {
	const prod, test = "https://api.bybit.com", "https://api-testnet.bybit.com"

	assert.Equal(t, prod, DefaultConfig("bybit").ResolveBaseURL(prod, test))
	assert.Equal(t, test, DefaultConfig("bybit").WithSandbox(true).ResolveBaseURL(prod, test))
	assert.Equal(t, prod, DefaultConfig("bitget").WithSandbox(true).ResolveBaseURL(prod, ""))
	assert.Equal(t, "http://127.0.0.1:9",
		DefaultConfig("bybit").WithSandbox(true).WithBaseURL("http://127.0.0.1:9").ResolveBaseURL(prod, test))
}

func TestParseConfig(t *testing.T) {
	data := []byte(`
exchange: bybit
market: linear
sandbox: true
timeout: 2s
recv_window: 10s
log_level: debug
`)
	cfg, err := ParseConfig(data)
	require.NoError(t, err)

	assert.Equal(t, "bybit", cfg.Exchange)
	assert.Equal(t, MarketTypeFutures, cfg.MarketType)
	assert.True(t, cfg.Sandbox)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, 10*time.Second, cfg.RecvWindow)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Nil(t, cfg.Credentials)
}

func TestParseConfig_KeepsDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("exchange: okx\n"))
	require.NoError(t, err)

	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultRecvWindow, cfg.RecvWindow)
	assert.Equal(t, MarketTypeSpot, cfg.MarketType)
}

func TestParseConfig_Invalid(t *testing.T) {
	_, err := ParseConfig([]byte("exchange: okx\nmarket: options\n"))
	assert.Error(t, err)

	_, err = ParseConfig([]byte("exchange: nowhere\n"))
	assert.True(t, IsValidationError(err))
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sandi.yaml")
	require.NoError(t, os.WriteFile(path, []byte("exchange: mexc\nmarket: futures\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "mexc", cfg.Exchange)
	assert.Equal(t, MarketTypeFutures, cfg.MarketType)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
