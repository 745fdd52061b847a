package mexc

import (
	"context"
	"net/http"

	"github.com/cockroachdb/apd/v3"

	"sandi/pkg/core"
	"sandi/pkg/exchange"
)

// SpotClient calls the MEXC spot v3 API.
type SpotClient struct {
	*exchange.Base
}

func NewSpotClient(cfg *core.Config, opts ...exchange.Option) (*SpotClient, error) {
	base, err := exchange.NewBase(exchange.ForMarket(cfg, core.MarketTypeSpot), spotProfile(), opts...)
	if err != nil {
		return nil, err
	}
	return &SpotClient{Base: base}, nil
}

// SpotOrder is a spot order; LIMIT orders require Price.
type SpotOrder struct {
	Symbol        string      `validate:"required"`
	Side          string      `validate:"required,oneof=BUY SELL"`
	Type          string      `validate:"required,oneof=LIMIT MARKET LIMIT_MAKER IMMEDIATE_OR_CANCEL FILL_OR_KILL"`
	Quantity      apd.Decimal `validate:"gt=0"`
	Price         apd.Decimal `validate:"required_if=Type LIMIT,required_if=Type LIMIT_MAKER,gte=0"`
	ClientOrderID string      `validate:"omitempty,max=32"`
}

// PlaceOrder sends POST /api/v3/order.
func (c *SpotClient) PlaceOrder(ctx context.Context, o SpotOrder) (*core.Response, error) {
	if err := exchange.Validate(name, o); err != nil {
		return nil, err
	}
	params := core.Params{
		"symbol":           o.Symbol,
		"side":             o.Side,
		"type":             o.Type,
		"quantity":         core.DecimalText(&o.Quantity),
		"newClientOrderId": exchange.ClientOrderID(o.ClientOrderID, 32),
	}
	if core.IsPositive(&o.Price) && o.Type != "MARKET" {
		params.Set("price", core.DecimalText(&o.Price))
	}
	return c.send(ctx, http.MethodPost, "/api/v3/order", params)
}

// GetOrder sends GET /api/v3/order. Exactly one of orderID and clientOrderID is needed.
func (c *SpotClient) GetOrder(ctx context.Context, symbol, orderID, clientOrderID string) (*core.Response, error) {
	params, err := orderParams(symbol, orderID, clientOrderID)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, http.MethodGet, "/api/v3/order", params)
}

// CancelOrder sends DELETE /api/v3/order.
func (c *SpotClient) CancelOrder(ctx context.Context, symbol, orderID, clientOrderID string) (*core.Response, error) {
	params, err := orderParams(symbol, orderID, clientOrderID)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, http.MethodDelete, "/api/v3/order", params)
}

// GetAccount sends GET /api/v3/account.
func (c *SpotClient) GetAccount(ctx context.Context) (*core.Response, error) {
	return c.send(ctx, http.MethodGet, "/api/v3/account", core.Params{})
}

func orderParams(symbol, orderID, clientOrderID string) (core.Params, error) {
	if symbol == "" || (orderID == "") == (clientOrderID == "") {
		return nil, core.NewValidationError(name, "symbol and exactly one of order id or client order id are required")
	}
	return core.Params{"symbol": symbol}.
		SetIf("orderId", orderID).
		SetIf("origClientOrderId", clientOrderID), nil
}

func (c *SpotClient) send(ctx context.Context, method, path string, params core.Params) (*core.Response, error) {
	req, err := spotRequest(c.Base, method, path, params)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// FuturesClient calls the MEXC contract API.
type FuturesClient struct {
	*exchange.Base
}

func NewFuturesClient(cfg *core.Config, opts ...exchange.Option) (*FuturesClient, error) {
	base, err := exchange.NewBase(exchange.ForMarket(cfg, core.MarketTypeFutures), futuresProfile(), opts...)
	if err != nil {
		return nil, err
	}
	return &FuturesClient{Base: base}, nil
}

// FuturesOrder is a contract order. Symbols use underscores, e.g. BTC_USDT.
// PositionMode defaults to isolated.
type FuturesOrder struct {
	Symbol       string      `validate:"required"`
	Side         string      `validate:"required,oneof=BUY SELL"`
	Type         string      `validate:"required,oneof=LIMIT MARKET"`
	Volume       apd.Decimal `validate:"gt=0"`
	Price        apd.Decimal `validate:"required_if=Type LIMIT,gte=0"`
	Leverage     int         `validate:"omitempty,min=1,max=125"`
	PositionMode string      `validate:"omitempty,oneof=isolated cross"`
}

// PlaceOrder sends POST /api/v1/private/order/submit.
func (c *FuturesClient) PlaceOrder(ctx context.Context, o FuturesOrder) (*core.Response, error) {
	if err := exchange.Validate(name, o); err != nil {
		return nil, err
	}
	mode := o.PositionMode
	if mode == "" {
		mode = "isolated"
	}
	params := core.Params{
		"symbol":        o.Symbol,
		"side":          o.Side,
		"type":          o.Type,
		"volume":        core.DecimalText(&o.Volume),
		"position_mode": mode,
	}
	if core.IsPositive(&o.Price) {
		params.Set("price", core.DecimalText(&o.Price))
	}
	if o.Leverage > 0 {
		params.Set("leverage", o.Leverage)
	}
	return c.send(ctx, http.MethodPost, "/api/v1/private/order/submit", params)
}

// GetOrderStatus sends GET /api/v1/private/order/get.
func (c *FuturesClient) GetOrderStatus(ctx context.Context, symbol, orderID string) (*core.Response, error) {
	if symbol == "" || orderID == "" {
		return nil, core.NewValidationError(name, "symbol and order id are required")
	}
	return c.send(ctx, http.MethodGet, "/api/v1/private/order/get", core.Params{"order_id": orderID, "symbol": symbol})
}

// CancelOrder sends POST /api/v1/private/order/cancel.
func (c *FuturesClient) CancelOrder(ctx context.Context, symbol, orderID string) (*core.Response, error) {
	if symbol == "" || orderID == "" {
		return nil, core.NewValidationError(name, "symbol and order id are required")
	}
	return c.send(ctx, http.MethodPost, "/api/v1/private/order/cancel", core.Params{"order_id": orderID, "symbol": symbol})
}

// GetAccountAssets sends GET /api/v1/private/account/assets.
func (c *FuturesClient) GetAccountAssets(ctx context.Context) (*core.Response, error) {
	return c.send(ctx, http.MethodGet, "/api/v1/private/account/assets", core.Params{})
}

func (c *FuturesClient) send(ctx context.Context, method, path string, params core.Params) (*core.Response, error) {
	req, err := futuresRequest(c.Base, method, path, params)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}
