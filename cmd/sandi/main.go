// Command sandi signs and sends single REST calls to Binance, Bybit, Bitget,
// MEXC and OKX. Replies are printed as the raw JSON the exchange returned.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"sandi/internal/keyring"
	"sandi/pkg/core"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "sandi",
		Usage: "Signed REST calls to crypto exchanges",
		Description: `Credentials are read from <EXCHANGE>_API_KEY, <EXCHANGE>_API_SECRET and
<EXCHANGE>_API_PASSPHRASE, optionally loaded from a .env file. A second set under
<EXCHANGE>_BACKUP_API_KEY and friends is used when the first is missing or rejected.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "exchange",
				Aliases: []string{"x"},
				Usage:   "binance, bybit, bitget, mexc or okx",
				EnvVars: []string{"SANDI_EXCHANGE"},
			},
			&cli.StringFlag{
				Name:    "market",
				Aliases: []string{"m"},
				Usage:   "spot or futures",
				Value:   "spot",
			},
			&cli.BoolFlag{
				Name:  "sandbox",
				Usage: "use the exchange testnet or demo mode",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "YAML config file; flags override its values",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "dotenv file with credentials",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "override the exchange base URL",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "HTTP timeout",
			},
			&cli.StringFlag{
				Name:  "sign-style",
				Usage: "override the signing style (prehash-hex, prehash-base64, sorted-query, keyed-prehash)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
		},
		Before: func(c *cli.Context) error {
			path := c.String("env-file")
			if err := godotenv.Load(path); err != nil && c.IsSet("env-file") {
				return fmt.Errorf("load %s: %w", path, err)
			}
			return nil
		},
		Commands: []*cli.Command{
			signCommand(),
			{
				Name:  "order",
				Usage: "Place, cancel or look up an order",
				Subcommands: []*cli.Command{
					placeCommand(),
					cancelCommand(),
					statusCommand(),
				},
			},
			balanceCommand(),
			positionsCommand(),
			klinesCommand(),
		},
	}
}

// loadConfig merges the config file, the global flags and the credentials
// found in the environment.
func loadConfig(c *cli.Context) (*core.Config, error) {
	cfg := core.DefaultConfig("")
	if path := c.String("config"); path != "" {
		loaded, err := core.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if c.IsSet("exchange") || cfg.Exchange == "" {
		cfg.Exchange = c.String("exchange")
	}
	if c.IsSet("market") || c.String("config") == "" {
		market, err := core.ParseMarketType(c.String("market"))
		if err != nil {
			return nil, core.NewValidationError(cfg.Exchange, err.Error())
		}
		cfg.MarketType = market
	}
	if c.IsSet("sandbox") {
		cfg.Sandbox = c.Bool("sandbox")
	}
	if c.IsSet("base-url") {
		cfg.BaseURL = c.String("base-url")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}
	if c.IsSet("sign-style") {
		cfg.SignStyle = c.String("sign-style")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadKeyRing returns the credentials for cfg's exchange. Missing credentials
// are not an error here; the client decides whether it needs them.
func loadKeyRing(cfg *core.Config, logger zerolog.Logger) *keyring.KeyRing {
	if cfg.Credentials != nil {
		return nil
	}
	ring, err := keyring.FromEnv(cfg.Exchange, cfg.Exchange+"_backup")
	if err != nil {
		logger.Debug().Str("exchange", cfg.Exchange).Msg("no credentials in environment")
		return nil
	}
	ring.SetLogger(logger)
	return ring
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().Timestamp().Logger()
}

func printError(w io.Writer, err error) {
	exErr, ok := core.AsExchangeError(err)
	if !ok {
		fmt.Fprintf(w, "error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "error: %s/%s", exErr.Kind, exErr.Type)
	if exErr.Code != "" {
		fmt.Fprintf(w, " code=%s", exErr.Code)
	}
	if exErr.StatusCode != 0 {
		fmt.Fprintf(w, " status=%d", exErr.StatusCode)
	}
	fmt.Fprintf(w, ": %s\n", exErr.Message)
	if exErr.OutcomeUnknown {
		fmt.Fprintln(w, "warning: the request may have reached the exchange; check the order status before retrying")
	}
}

var errUnsupported = errors.New("not supported")
