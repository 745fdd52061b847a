package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"sandi/pkg/core"
	"sandi/pkg/exchange"
	"sandi/pkg/exchange/binance"
	"sandi/pkg/exchange/bitget"
	"sandi/pkg/exchange/bybit"
	"sandi/pkg/exchange/mexc"
	"sandi/pkg/exchange/okx"
)

// orderArgs is the command-line view of an order. Each venue maps it onto
// its own order type and casing.
type orderArgs struct {
	Symbol     string
	Side       string
	Type       string
	Qty        apd.Decimal
	Price      apd.Decimal
	StopPrice  apd.Decimal
	ClientID   string
	Leverage   int
	TdMode     string
	ReduceOnly bool
}

type orderRef struct {
	Symbol   string
	OrderID  string
	ClientID string
}

// venue is the set of calls the CLI can make on one exchange and market.
// Calls a venue lacks return errUnsupported.
type venue struct {
	place     func(context.Context, orderArgs) (*core.Response, error)
	cancel    func(context.Context, orderRef) (*core.Response, error)
	status    func(context.Context, orderRef) (*core.Response, error)
	balance   func(context.Context, string) (*core.Response, error)
	positions func(context.Context, string) (*core.Response, error)
	closer    func() error
}

func (v *venue) Close() error {
	if v.closer == nil {
		return nil
	}
	return v.closer()
}

func unsupported(cfg *core.Config, op string) error {
	return core.NewValidationError(cfg.Exchange, fmt.Sprintf("%s on %s %s: %v", op, cfg.Exchange, cfg.MarketType, errUnsupported))
}

func newVenue(cfg *core.Config, opts ...exchange.Option) (*venue, error) {
	futures := cfg.MarketType == core.MarketTypeFutures
	switch cfg.Exchange {
	case "binance":
		if futures {
			return binanceFutures(cfg, opts)
		}
		return binanceSpot(cfg, opts)
	case "bybit":
		if futures {
			return bybitUnified(cfg, opts)
		}
		return bybitSpot(cfg, opts)
	case "bitget":
		if futures {
			return bitgetFutures(cfg, opts)
		}
		return bitgetSpot(cfg, opts)
	case "mexc":
		if futures {
			return mexcFutures(cfg, opts)
		}
		return mexcSpot(cfg, opts)
	case "okx":
		return okxVenue(cfg, opts)
	default:
		return nil, core.NewValidationError(cfg.Exchange, "unknown exchange")
	}
}

func binanceSpot(cfg *core.Config, opts []exchange.Option) (*venue, error) {
	c, err := binance.NewSpotClient(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &venue{
		place: func(ctx context.Context, a orderArgs) (*core.Response, error) {
			return c.PlaceOrder(ctx, binance.SpotOrder{
				Symbol: a.Symbol, Side: upper(a.Side), Type: upper(a.Type),
				Quantity: a.Qty, Price: a.Price, ClientOrderID: a.ClientID,
			})
		},
		cancel: func(ctx context.Context, r orderRef) (*core.Response, error) {
			return c.CancelOrder(ctx, binance.OrderQuery{Symbol: r.Symbol, OrderID: r.OrderID, ClientOrderID: r.ClientID})
		},
		status: func(ctx context.Context, r orderRef) (*core.Response, error) {
			return c.GetOrder(ctx, binance.OrderQuery{Symbol: r.Symbol, OrderID: r.OrderID, ClientOrderID: r.ClientID})
		},
		balance: func(ctx context.Context, _ string) (*core.Response, error) {
			return c.GetAccount(ctx)
		},
		positions: func(context.Context, string) (*core.Response, error) {
			return nil, unsupported(cfg, "positions")
		},
		closer: c.Close,
	}, nil
}

func binanceFutures(cfg *core.Config, opts []exchange.Option) (*venue, error) {
	c, err := binance.NewFuturesClient(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &venue{
		place: func(ctx context.Context, a orderArgs) (*core.Response, error) {
			if a.Leverage > 0 {
				if _, err := c.SetLeverage(ctx, a.Symbol, a.Leverage); err != nil {
					return nil, err
				}
			}
			return c.PlaceOrder(ctx, binance.FuturesOrder{
				Symbol: a.Symbol, Side: upper(a.Side), Type: upper(a.Type),
				Quantity: a.Qty, Price: a.Price, StopPrice: a.StopPrice,
				ReduceOnly: a.ReduceOnly, ClientOrderID: a.ClientID,
			})
		},
		cancel: func(ctx context.Context, r orderRef) (*core.Response, error) {
			return c.CancelOrder(ctx, binance.OrderQuery{Symbol: r.Symbol, OrderID: r.OrderID, ClientOrderID: r.ClientID})
		},
		status: func(ctx context.Context, r orderRef) (*core.Response, error) {
			return c.GetOrder(ctx, binance.OrderQuery{Symbol: r.Symbol, OrderID: r.OrderID, ClientOrderID: r.ClientID})
		},
		balance: func(ctx context.Context, _ string) (*core.Response, error) {
			return c.GetBalance(ctx)
		},
		positions: c.GetPositions,
		closer:    c.Close,
	}, nil
}

func bybitSpot(cfg *core.Config, opts []exchange.Option) (*venue, error) {
	c, err := bybit.NewSpotClient(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &venue{
		place: func(ctx context.Context, a orderArgs) (*core.Response, error) {
			return c.PlaceOrder(ctx, bybit.SpotOrder{
				Symbol: a.Symbol, Side: title(a.Side), Type: upper(a.Type), Qty: a.Qty, Price: a.Price,
			})
		},
		cancel: func(context.Context, orderRef) (*core.Response, error) {
			return nil, unsupported(cfg, "cancel")
		},
		status: func(context.Context, orderRef) (*core.Response, error) {
			return nil, unsupported(cfg, "status")
		},
		balance: func(context.Context, string) (*core.Response, error) {
			return nil, unsupported(cfg, "balance")
		},
		positions: func(context.Context, string) (*core.Response, error) {
			return nil, unsupported(cfg, "positions")
		},
		closer: c.Close,
	}, nil
}

func bybitUnified(cfg *core.Config, opts []exchange.Option) (*venue, error) {
	c, err := bybit.NewUnifiedClient(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &venue{
		place: func(ctx context.Context, a orderArgs) (*core.Response, error) {
			o := bybit.LinearOrder{
				Symbol: a.Symbol, Side: title(a.Side), Qty: a.Qty, Price: a.Price,
				TriggerPrice: a.StopPrice, ReduceOnly: a.ReduceOnly, OrderLinkID: a.ClientID,
			}
			switch strings.ToLower(a.Type) {
			case "market":
				return c.PlaceMarketOrder(ctx, o)
			case "limit":
				return c.PlaceLimitOrder(ctx, o)
			case "stop", "stop_market":
				return c.PlaceStopMarketOrder(ctx, o)
			default:
				return nil, core.NewValidationError(cfg.Exchange, fmt.Sprintf("order type %q: want market, limit or stop", a.Type))
			}
		},
		cancel: func(ctx context.Context, r orderRef) (*core.Response, error) {
			return c.CancelOrder(ctx, r.Symbol, r.OrderID)
		},
		status: func(ctx context.Context, r orderRef) (*core.Response, error) {
			return c.GetOrder(ctx, r.Symbol, r.OrderID, r.ClientID)
		},
		balance: func(ctx context.Context, account string) (*core.Response, error) {
			if account == "" {
				account = "UNIFIED"
			}
			return c.GetWalletBalance(ctx, upper(account))
		},
		positions: c.GetPositions,
		closer:    c.Close,
	}, nil
}

func bitgetFutures(cfg *core.Config, opts []exchange.Option) (*venue, error) {
	c, err := bitget.NewFuturesClient(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &venue{
		place: func(ctx context.Context, a orderArgs) (*core.Response, error) {
			o := bitget.FuturesOrder{
				Symbol: a.Symbol, Side: strings.ToLower(a.Side), Size: a.Qty, Price: a.Price,
				TriggerPrice: a.StopPrice, ReduceOnly: a.ReduceOnly, ClientOID: a.ClientID,
			}
			switch strings.ToLower(a.Type) {
			case "market":
				return c.PlaceMarketOrder(ctx, o)
			case "limit":
				return c.PlaceLimitOrder(ctx, o)
			case "stop", "stop_market":
				return c.PlaceStopOrder(ctx, o)
			default:
				return nil, core.NewValidationError(cfg.Exchange, fmt.Sprintf("order type %q: want market, limit or stop", a.Type))
			}
		},
		cancel: func(ctx context.Context, r orderRef) (*core.Response, error) {
			return c.CancelOrder(ctx, r.Symbol, r.OrderID)
		},
		status: func(ctx context.Context, r orderRef) (*core.Response, error) {
			return c.GetOrderStatus(ctx, r.Symbol, r.OrderID)
		},
		balance: func(ctx context.Context, productType string) (*core.Response, error) {
			return c.GetAccounts(ctx, strings.ToLower(productType))
		},
		positions: func(ctx context.Context, symbol string) (*core.Response, error) {
			return c.GetPosition(ctx, symbol, "")
		},
		closer: c.Close,
	}, nil
}

func bitgetSpot(cfg *core.Config, opts []exchange.Option) (*venue, error) {
	c, err := bitget.NewSpotClient(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &venue{
		place: func(ctx context.Context, a orderArgs) (*core.Response, error) {
			return c.PlaceOrder(ctx, bitget.SpotOrder{
				Symbol: a.Symbol, Side: strings.ToLower(a.Side), OrderType: strings.ToLower(a.Type),
				Size: a.Qty, Price: a.Price, ClientOID: a.ClientID,
			})
		},
		cancel: func(context.Context, orderRef) (*core.Response, error) {
			return nil, unsupported(cfg, "cancel")
		},
		status: func(ctx context.Context, r orderRef) (*core.Response, error) {
			return c.GetOrderStatus(ctx, r.Symbol, r.OrderID)
		},
		balance: c.GetAssets,
		positions: func(context.Context, string) (*core.Response, error) {
			return nil, unsupported(cfg, "positions")
		},
		closer: c.Close,
	}, nil
}

func mexcSpot(cfg *core.Config, opts []exchange.Option) (*venue, error) {
	c, err := mexc.NewSpotClient(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &venue{
		place: func(ctx context.Context, a orderArgs) (*core.Response, error) {
			return c.PlaceOrder(ctx, mexc.SpotOrder{
				Symbol: a.Symbol, Side: upper(a.Side), Type: upper(a.Type),
				Quantity: a.Qty, Price: a.Price, ClientOrderID: a.ClientID,
			})
		},
		cancel: func(ctx context.Context, r orderRef) (*core.Response, error) {
			return c.CancelOrder(ctx, r.Symbol, r.OrderID, r.ClientID)
		},
		status: func(ctx context.Context, r orderRef) (*core.Response, error) {
			return c.GetOrder(ctx, r.Symbol, r.OrderID, r.ClientID)
		},
		balance: func(ctx context.Context, _ string) (*core.Response, error) {
			return c.GetAccount(ctx)
		},
		positions: func(context.Context, string) (*core.Response, error) {
			return nil, unsupported(cfg, "positions")
		},
		closer: c.Close,
	}, nil
}

func mexcFutures(cfg *core.Config, opts []exchange.Option) (*venue, error) {
	c, err := mexc.NewFuturesClient(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &venue{
		place: func(ctx context.Context, a orderArgs) (*core.Response, error) {
			return c.PlaceOrder(ctx, mexc.FuturesOrder{
				Symbol: a.Symbol, Side: upper(a.Side), Type: upper(a.Type),
				Volume: a.Qty, Price: a.Price, Leverage: a.Leverage,
			})
		},
		cancel: func(ctx context.Context, r orderRef) (*core.Response, error) {
			return c.CancelOrder(ctx, r.Symbol, r.OrderID)
		},
		status: func(ctx context.Context, r orderRef) (*core.Response, error) {
			return c.GetOrderStatus(ctx, r.Symbol, r.OrderID)
		},
		balance: func(ctx context.Context, _ string) (*core.Response, error) {
			return c.GetAccountAssets(ctx)
		},
		positions: func(context.Context, string) (*core.Response, error) {
			return nil, unsupported(cfg, "positions")
		},
		closer: c.Close,
	}, nil
}

func okxVenue(cfg *core.Config, opts []exchange.Option) (*venue, error) {
	c, err := okx.NewClient(cfg, opts...)
	if err != nil {
		return nil, err
	}
	futures := cfg.MarketType == core.MarketTypeFutures
	return &venue{
		place: func(ctx context.Context, a orderArgs) (*core.Response, error) {
			mode := a.TdMode
			if mode == "" {
				mode = "cash"
				if futures {
					mode = "cross"
				}
			}
			return c.PlaceOrder(ctx, okx.Order{
				InstID: a.Symbol, TdMode: mode, Side: strings.ToLower(a.Side), OrdType: strings.ToLower(a.Type),
				Size: a.Qty, Price: a.Price, ReduceOnly: a.ReduceOnly, ClOrdID: a.ClientID,
			})
		},
		cancel: func(ctx context.Context, r orderRef) (*core.Response, error) {
			return c.CancelOrder(ctx, r.Symbol, r.OrderID, r.ClientID)
		},
		status: func(ctx context.Context, r orderRef) (*core.Response, error) {
			return c.GetOrder(ctx, r.Symbol, r.OrderID, r.ClientID)
		},
		balance: c.GetBalance,
		positions: func(ctx context.Context, instID string) (*core.Response, error) {
			instType := ""
			if futures && instID == "" {
				instType = "SWAP"
			}
			return c.GetPositions(ctx, instType, instID)
		},
		closer: c.Close,
	}, nil
}

func upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// title renders buy/BUY as Buy.
func title(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
