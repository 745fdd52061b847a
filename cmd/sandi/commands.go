package main

import (
	"context"
	"fmt"

	"github.com/cockroachdb/apd/v3"
	"github.com/urfave/cli/v2"

	"sandi/pkg/core"
	"sandi/pkg/exchange"
	"sandi/pkg/exchange/binance"
)

// run builds the venue for the global flags, performs one call and prints the
// raw reply.
func run(c *cli.Context, call func(context.Context, *venue) (*core.Response, error)) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)
	opts := []exchange.Option{exchange.WithLogger(logger)}
	if ring := loadKeyRing(cfg, logger); ring != nil {
		opts = append(opts, exchange.WithKeyRing(ring))
	}

	v, err := newVenue(cfg, opts...)
	if err != nil {
		return err
	}
	defer v.Close()

	resp, err := call(c.Context, v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, resp.String())
	return err
}

func decimalFlag(c *cli.Context, name string) (apd.Decimal, error) {
	s := c.String(name)
	if s == "" {
		return apd.Decimal{}, nil
	}
	d, err := core.ParseDecimal(s)
	if err != nil {
		return apd.Decimal{}, core.NewValidationError(c.String("exchange"), fmt.Sprintf("--%s: %v", name, err))
	}
	return d, nil
}

var symbolFlag = &cli.StringFlag{
	Name:     "symbol",
	Aliases:  []string{"s"},
	Usage:    "instrument, e.g. BTCUSDT, BTCUSDT_UMCBL, BTC_USDT or BTC-USDT-SWAP",
	Required: true,
}

func placeCommand() *cli.Command {
	return &cli.Command{
		Name:  "place",
		Usage: "Place an order",
		Flags: []cli.Flag{
			symbolFlag,
			&cli.StringFlag{Name: "side", Usage: "buy or sell (bitget futures: open_long, close_short, ...)", Required: true},
			&cli.StringFlag{Name: "type", Usage: "market, limit or stop", Value: "market"},
			&cli.StringFlag{Name: "qty", Aliases: []string{"q"}, Usage: "order quantity", Required: true},
			&cli.StringFlag{Name: "price", Aliases: []string{"p"}, Usage: "limit price"},
			&cli.StringFlag{Name: "stop-price", Usage: "trigger price for stop orders"},
			&cli.StringFlag{Name: "client-id", Usage: "client order id; generated when empty"},
			&cli.IntFlag{Name: "leverage", Usage: "leverage for futures orders"},
			&cli.StringFlag{Name: "td-mode", Usage: "okx trade mode: cash, cross or isolated"},
			&cli.BoolFlag{Name: "reduce-only", Usage: "only reduce an open position"},
		},
		Action: func(c *cli.Context) error {
			args := orderArgs{
				Symbol:     c.String("symbol"),
				Side:       c.String("side"),
				Type:       c.String("type"),
				ClientID:   c.String("client-id"),
				Leverage:   c.Int("leverage"),
				TdMode:     c.String("td-mode"),
				ReduceOnly: c.Bool("reduce-only"),
			}
			var err error
			if args.Qty, err = decimalFlag(c, "qty"); err != nil {
				return err
			}
			if args.Price, err = decimalFlag(c, "price"); err != nil {
				return err
			}
			if args.StopPrice, err = decimalFlag(c, "stop-price"); err != nil {
				return err
			}
			return run(c, func(ctx context.Context, v *venue) (*core.Response, error) {
				return v.place(ctx, args)
			})
		},
	}
}

var refFlags = []cli.Flag{
	symbolFlag,
	&cli.StringFlag{Name: "id", Usage: "exchange order id"},
	&cli.StringFlag{Name: "client-id", Usage: "client order id"},
}

func refFrom(c *cli.Context) orderRef {
	return orderRef{Symbol: c.String("symbol"), OrderID: c.String("id"), ClientID: c.String("client-id")}
}

func cancelCommand() *cli.Command {
	return &cli.Command{
		Name:  "cancel",
		Usage: "Cancel an order",
		Flags: refFlags,
		Action: func(c *cli.Context) error {
			return run(c, func(ctx context.Context, v *venue) (*core.Response, error) {
				return v.cancel(ctx, refFrom(c))
			})
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Look up an order",
		Flags: refFlags,
		Action: func(c *cli.Context) error {
			return run(c, func(ctx context.Context, v *venue) (*core.Response, error) {
				return v.status(ctx, refFrom(c))
			})
		},
	}
}

func balanceCommand() *cli.Command {
	return &cli.Command{
		Name:      "balance",
		Usage:     "Show account balances",
		ArgsUsage: "[asset | account type | product type]",
		Action: func(c *cli.Context) error {
			return run(c, func(ctx context.Context, v *venue) (*core.Response, error) {
				return v.balance(ctx, c.Args().First())
			})
		},
	}
}

func positionsCommand() *cli.Command {
	return &cli.Command{
		Name:      "positions",
		Usage:     "Show open positions",
		ArgsUsage: "[symbol]",
		Action: func(c *cli.Context) error {
			return run(c, func(ctx context.Context, v *venue) (*core.Response, error) {
				return v.positions(ctx, c.Args().First())
			})
		},
	}
}

// klinesCommand reads public Binance spot candles. It needs no credentials.
func klinesCommand() *cli.Command {
	return &cli.Command{
		Name:  "klines",
		Usage: "Fetch Binance spot candles",
		Flags: []cli.Flag{
			symbolFlag,
			&cli.StringFlag{Name: "interval", Aliases: []string{"i"}, Value: "1h"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 100},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadKlinesConfig(c)
			if err != nil {
				return err
			}
			client, err := binance.NewSpotClient(cfg, exchange.WithLogger(newLogger(cfg.LogLevel)))
			if err != nil {
				return err
			}
			defer client.Close()

			resp, err := client.GetKlines(c.Context, binance.KlineQuery{
				Symbol:   c.String("symbol"),
				Interval: c.String("interval"),
				Limit:    c.Int("limit"),
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.App.Writer, resp.String())
			return err
		},
	}
}

func loadKlinesConfig(c *cli.Context) (*core.Config, error) {
	cfg := core.DefaultConfig("binance")
	cfg.Sandbox = c.Bool("sandbox")
	if c.IsSet("base-url") {
		cfg.BaseURL = c.String("base-url")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
