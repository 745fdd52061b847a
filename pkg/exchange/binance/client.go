package binance

import (
	"context"
	"net/http"
	"strconv"

	"github.com/cockroachdb/apd/v3"

	"sandi/pkg/core"
	"sandi/pkg/exchange"
)

const name = "binance"

// SpotClient calls the Binance spot REST API.
type SpotClient struct {
	*exchange.Base
}

// NewSpotClient builds a spot client. cfg's market is ignored.
func NewSpotClient(cfg *core.Config, opts ...exchange.Option) (*SpotClient, error) {
	base, err := exchange.NewBase(exchange.ForMarket(cfg, core.MarketTypeSpot),
		profile(SpotProductionURL, SpotSandboxURL), opts...)
	if err != nil {
		return nil, err
	}
	return &SpotClient{Base: base}, nil
}

// SpotOrder is a new spot order. Limit orders rest as GTC unless TimeInForce says otherwise.
type SpotOrder struct {
	Symbol        string      `validate:"required"`
	Side          string      `validate:"required,oneof=BUY SELL"`
	Type          string      `validate:"required,oneof=MARKET LIMIT"`
	Quantity      apd.Decimal `validate:"gt=0"`
	Price         apd.Decimal `validate:"required_if=Type LIMIT,gte=0"`
	TimeInForce   string      `validate:"omitempty,oneof=GTC IOC FOK"`
	ClientOrderID string      `validate:"omitempty,max=36"`
}

// OrderQuery identifies an order by exchange id or client id.
type OrderQuery struct {
	Symbol        string `validate:"required"`
	OrderID       string `validate:"required_without=ClientOrderID"`
	ClientOrderID string
}

func (q OrderQuery) params() core.Params {
	return core.Params{"symbol": formatSymbol(q.Symbol)}.
		SetIf("orderId", q.OrderID).
		SetIf("origClientOrderId", q.ClientOrderID)
}

// PlaceOrder sends POST /api/v3/order. A client order id is generated when
// none is given so an order with an unknown outcome can be looked up.
func (c *SpotClient) PlaceOrder(ctx context.Context, o SpotOrder) (*core.Response, error) {
	if err := exchange.Validate(name, o); err != nil {
		return nil, err
	}

	params := core.Params{
		"symbol":           formatSymbol(o.Symbol),
		"side":             o.Side,
		"type":             o.Type,
		"quantity":         core.DecimalText(&o.Quantity),
		"newClientOrderId": exchange.ClientOrderID(o.ClientOrderID, 36),
	}
	if o.Type == "LIMIT" {
		params.Set("price", core.DecimalText(&o.Price))
		tif := o.TimeInForce
		if tif == "" {
			tif = "GTC"
		}
		params.Set("timeInForce", tif)
	}

	req, err := signedRequest(c.Base, http.MethodPost, "/api/v3/order", params)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// GetOrder sends GET /api/v3/order.
func (c *SpotClient) GetOrder(ctx context.Context, q OrderQuery) (*core.Response, error) {
	if err := exchange.Validate(name, q); err != nil {
		return nil, err
	}
	req, err := signedRequest(c.Base, http.MethodGet, "/api/v3/order", q.params())
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// CancelOrder sends DELETE /api/v3/order.
func (c *SpotClient) CancelOrder(ctx context.Context, q OrderQuery) (*core.Response, error) {
	if err := exchange.Validate(name, q); err != nil {
		return nil, err
	}
	req, err := signedRequest(c.Base, http.MethodDelete, "/api/v3/order", q.params())
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// GetAccount returns balances and permissions.
func (c *SpotClient) GetAccount(ctx context.Context) (*core.Response, error) {
	req, err := signedRequest(c.Base, http.MethodGet, "/api/v3/account", core.Params{})
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// KlineQuery selects candles. Zero times are omitted; Limit defaults to 500.
type KlineQuery struct {
	Symbol    string `validate:"required"`
	Interval  string `validate:"required,oneof=1s 1m 3m 5m 15m 30m 1h 2h 4h 6h 8h 12h 1d 3d 1w 1M"`
	Limit     int    `validate:"omitempty,min=1,max=1000"`
	StartTime int64
	EndTime   int64
}

// GetKlines calls the public /api/v3/klines endpoint. It needs no credentials.
func (c *SpotClient) GetKlines(ctx context.Context, q KlineQuery) (*core.Response, error) {
	if err := exchange.Validate(name, q); err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit == 0 {
		limit = 500
	}
	params := core.Params{
		"symbol":   formatSymbol(q.Symbol),
		"interval": q.Interval,
		"limit":    strconv.Itoa(limit),
	}
	if q.StartTime > 0 {
		params.Set("startTime", q.StartTime)
	}
	if q.EndTime > 0 {
		params.Set("endTime", q.EndTime)
	}
	return c.Do(ctx, publicRequest("/api/v3/klines", params))
}

// FuturesClient calls the Binance USD-M futures REST API.
type FuturesClient struct {
	*exchange.Base
}

// NewFuturesClient builds a USD-M futures client. cfg's market is ignored.
func NewFuturesClient(cfg *core.Config, opts ...exchange.Option) (*FuturesClient, error) {
	base, err := exchange.NewBase(exchange.ForMarket(cfg, core.MarketTypeFutures),
		profile(FuturesProductionURL, FuturesSandboxURL), opts...)
	if err != nil {
		return nil, err
	}
	return &FuturesClient{Base: base}, nil
}

// FuturesOrder is a new USD-M futures order. StopPrice is required for the
// STOP and TAKE_PROFIT families.
type FuturesOrder struct {
	Symbol        string      `validate:"required"`
	Side          string      `validate:"required,oneof=BUY SELL"`
	Type          string      `validate:"required,oneof=MARKET LIMIT STOP STOP_MARKET TAKE_PROFIT TAKE_PROFIT_MARKET"`
	Quantity      apd.Decimal `validate:"gt=0"`
	Price         apd.Decimal `validate:"required_if=Type LIMIT,required_if=Type STOP,required_if=Type TAKE_PROFIT,gte=0"`
	StopPrice     apd.Decimal `validate:"required_if=Type STOP,required_if=Type STOP_MARKET,required_if=Type TAKE_PROFIT,required_if=Type TAKE_PROFIT_MARKET,gte=0"`
	TimeInForce   string      `validate:"omitempty,oneof=GTC IOC FOK GTX"`
	ReduceOnly    bool
	ClientOrderID string `validate:"omitempty,max=36"`
}

// SetLeverage sends POST /fapi/v1/leverage.
func (c *FuturesClient) SetLeverage(ctx context.Context, symbol string, leverage int) (*core.Response, error) {
	if symbol == "" || leverage < 1 || leverage > 125 {
		return nil, core.NewValidationError(name, "symbol and a leverage between 1 and 125 are required")
	}
	req, err := signedRequest(c.Base, http.MethodPost, "/fapi/v1/leverage", core.Params{
		"symbol":   formatSymbol(symbol),
		"leverage": leverage,
	})
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// PlaceOrder sends POST /fapi/v1/order.
func (c *FuturesClient) PlaceOrder(ctx context.Context, o FuturesOrder) (*core.Response, error) {
	if err := exchange.Validate(name, o); err != nil {
		return nil, err
	}

	params := core.Params{
		"symbol":           formatSymbol(o.Symbol),
		"side":             o.Side,
		"type":             o.Type,
		"quantity":         core.DecimalText(&o.Quantity),
		"newClientOrderId": exchange.ClientOrderID(o.ClientOrderID, 36),
	}
	if core.IsPositive(&o.Price) {
		params.Set("price", core.DecimalText(&o.Price))
		tif := o.TimeInForce
		if tif == "" {
			tif = "GTC"
		}
		params.Set("timeInForce", tif)
	}
	if core.IsPositive(&o.StopPrice) {
		params.Set("stopPrice", core.DecimalText(&o.StopPrice))
	}
	if o.ReduceOnly {
		params.Set("reduceOnly", true)
	}

	req, err := signedRequest(c.Base, http.MethodPost, "/fapi/v1/order", params)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// GetOrder sends GET /fapi/v1/order.
func (c *FuturesClient) GetOrder(ctx context.Context, q OrderQuery) (*core.Response, error) {
	if err := exchange.Validate(name, q); err != nil {
		return nil, err
	}
	req, err := signedRequest(c.Base, http.MethodGet, "/fapi/v1/order", q.params())
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// CancelOrder sends DELETE /fapi/v1/order.
func (c *FuturesClient) CancelOrder(ctx context.Context, q OrderQuery) (*core.Response, error) {
	if err := exchange.Validate(name, q); err != nil {
		return nil, err
	}
	req, err := signedRequest(c.Base, http.MethodDelete, "/fapi/v1/order", q.params())
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// ClosePosition closes quantity of an open position with a reduce-only
// MARKET order on the opposite side. side is the side of the closing order.
func (c *FuturesClient) ClosePosition(ctx context.Context, symbol, side string, quantity apd.Decimal) (*core.Response, error) {
	return c.PlaceOrder(ctx, FuturesOrder{
		Symbol:     symbol,
		Side:       side,
		Type:       "MARKET",
		Quantity:   quantity,
		ReduceOnly: true,
	})
}

// GetPositions sends GET /fapi/v2/positionRisk, for one symbol or all when symbol is empty.
func (c *FuturesClient) GetPositions(ctx context.Context, symbol string) (*core.Response, error) {
	params := core.Params{}
	if symbol != "" {
		params.Set("symbol", formatSymbol(symbol))
	}
	req, err := signedRequest(c.Base, http.MethodGet, "/fapi/v2/positionRisk", params)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// GetBalance sends GET /fapi/v2/balance.
func (c *FuturesClient) GetBalance(ctx context.Context) (*core.Response, error) {
	req, err := signedRequest(c.Base, http.MethodGet, "/fapi/v2/balance", core.Params{})
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}
