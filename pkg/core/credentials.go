package core

import (
	"fmt"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
)

// Credentials holds API authentication credentials for an exchange.
// Formatting, JSON and log output only ever show a masked API key.
type Credentials struct {
	// APIKey is the public API key identifier.
	APIKey string `json:"api_key" yaml:"api_key"`
	// SecretKey is the private key used as the HMAC key. It is never transmitted.
	SecretKey string `json:"secret_key" yaml:"secret_key"`
	// Passphrase is the additional credential required by Bitget and OKX.
	Passphrase string `json:"passphrase,omitempty" yaml:"passphrase"`
}

// CredentialsFromEnv reads PREFIX_API_KEY, PREFIX_API_SECRET and PREFIX_API_PASSPHRASE.
func CredentialsFromEnv(prefix string) (*Credentials, error) {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	creds := &Credentials{
		APIKey:     os.Getenv(prefix + "_API_KEY"),
		SecretKey:  os.Getenv(prefix + "_API_SECRET"),
		Passphrase: os.Getenv(prefix + "_API_PASSPHRASE"),
	}
	if creds.APIKey == "" || creds.SecretKey == "" {
		return nil, fmt.Errorf("%s_API_KEY/%s_API_SECRET: %w", prefix, prefix, ErrNoCredentials)
	}
	return creds, nil
}

// Check reports missing fields without revealing any values.
func (c *Credentials) Check(requirePassphrase bool) error {
	if c == nil || c.APIKey == "" || c.SecretKey == "" {
		return ErrNoCredentials
	}
	if requirePassphrase && c.Passphrase == "" {
		return fmt.Errorf("passphrase required: %w", ErrNoCredentials)
	}
	return nil
}

// String implements fmt.Stringer with the key masked and secrets omitted.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{APIKey:%s}", MaskKey(c.APIKey))
}

// GoString keeps %#v from dumping the secret.
func (c Credentials) GoString() string {
	return c.String()
}

// MarshalJSON emits only the masked key.
func (c Credentials) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(map[string]string{"api_key": MaskKey(c.APIKey)})
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (c Credentials) MarshalZerologObject(e *zerolog.Event) {
	e.Str("api_key", MaskKey(c.APIKey)).
		Bool("has_passphrase", c.Passphrase != "")
}

// MaskKey keeps the first and last four characters of long keys.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
