package bitget

import (
	"context"
	"net/http"

	"github.com/cockroachdb/apd/v3"

	"sandi/pkg/core"
	"sandi/pkg/exchange"
	"sandi/pkg/signer"
)

// FuturesClient calls the mix (USDT-M) v1 API with hex signatures.
type FuturesClient struct {
	*exchange.Base
}

func NewFuturesClient(cfg *core.Config, opts ...exchange.Option) (*FuturesClient, error) {
	base, err := exchange.NewBase(exchange.ForMarket(cfg, core.MarketTypeFutures),
		profile(signer.StylePrehashHex), opts...)
	if err != nil {
		return nil, err
	}
	return &FuturesClient{Base: base}, nil
}

// FuturesOrder describes a mix order. Symbols carry the product suffix, e.g. BTCUSDT_UMCBL.
// MarginMode defaults to isolated and MarginCoin to USDT.
type FuturesOrder struct {
	Symbol       string      `validate:"required"`
	Side         string      `validate:"required,oneof=buy sell open_long open_short close_long close_short"`
	Size         apd.Decimal `validate:"gt=0"`
	Price        apd.Decimal `validate:"omitempty,gt=0"`
	TriggerPrice apd.Decimal `validate:"omitempty,gt=0"`
	MarginMode   string      `validate:"omitempty,oneof=isolated cross"`
	MarginCoin   string
	ReduceOnly   bool
	ClientOID    string `validate:"omitempty,max=40"`
}

type futuresOrderBody struct {
	Symbol       string `json:"symbol"`
	MarginCoin   string `json:"marginCoin"`
	MarginMode   string `json:"marginMode"`
	Side         string `json:"side"`
	OrderType    string `json:"orderType"`
	Size         string `json:"size"`
	Price        string `json:"price,omitempty"`
	TriggerPrice string `json:"triggerPrice,omitempty"`
	TriggerType  string `json:"triggerType,omitempty"`
	ReduceOnly   bool   `json:"reduceOnly"`
	ClientOID    string `json:"clientOid"`
}

func (o *FuturesOrder) body(orderType string) futuresOrderBody {
	mode := o.MarginMode
	if mode == "" {
		mode = "isolated"
	}
	coin := o.MarginCoin
	if coin == "" {
		coin = "USDT"
	}
	return futuresOrderBody{
		Symbol:     o.Symbol,
		MarginCoin: coin,
		MarginMode: mode,
		Side:       o.Side,
		OrderType:  orderType,
		Size:       core.DecimalText(&o.Size),
		ReduceOnly: o.ReduceOnly,
		ClientOID:  exchange.ClientOrderID(o.ClientOID, 40),
	}
}

// PlaceMarketOrder sends a market order to /order/placeOrder.
func (c *FuturesClient) PlaceMarketOrder(ctx context.Context, o FuturesOrder) (*core.Response, error) {
	if err := exchange.Validate(name, o); err != nil {
		return nil, err
	}
	return c.send(ctx, http.MethodPost, "/order/placeOrder", nil, o.body("market"))
}

// PlaceLimitOrder sends a limit order; Price is required.
func (c *FuturesClient) PlaceLimitOrder(ctx context.Context, o FuturesOrder) (*core.Response, error) {
	if err := exchange.Validate(name, o); err != nil {
		return nil, err
	}
	if !core.IsPositive(&o.Price) {
		return nil, core.NewValidationError(name, "limit order requires a price")
	}
	body := o.body("limit")
	body.Price = core.DecimalText(&o.Price)
	return c.send(ctx, http.MethodPost, "/order/placeOrder", nil, body)
}

// PlaceStopOrder sends a market order that triggers on the market price
// reaching TriggerPrice.
func (c *FuturesClient) PlaceStopOrder(ctx context.Context, o FuturesOrder) (*core.Response, error) {
	if err := exchange.Validate(name, o); err != nil {
		return nil, err
	}
	if !core.IsPositive(&o.TriggerPrice) {
		return nil, core.NewValidationError(name, "stop order requires a trigger price")
	}
	body := o.body("market")
	body.TriggerPrice = core.DecimalText(&o.TriggerPrice)
	body.TriggerType = "market_price"
	return c.send(ctx, http.MethodPost, "/order/placeOrder", nil, body)
}

type orderRef struct {
	Symbol  string `json:"symbol"`
	OrderID string `json:"orderId"`
}

// CancelOrder sends POST /order/cancel-order.
func (c *FuturesClient) CancelOrder(ctx context.Context, symbol, orderID string) (*core.Response, error) {
	if symbol == "" || orderID == "" {
		return nil, core.NewValidationError(name, "symbol and order id are required")
	}
	return c.send(ctx, http.MethodPost, "/order/cancel-order", nil, orderRef{Symbol: symbol, OrderID: orderID})
}

// GetOrderStatus sends GET /order/detail.
func (c *FuturesClient) GetOrderStatus(ctx context.Context, symbol, orderID string) (*core.Response, error) {
	if symbol == "" || orderID == "" {
		return nil, core.NewValidationError(name, "symbol and order id are required")
	}
	return c.send(ctx, http.MethodGet, "/order/detail", core.Params{"symbol": symbol, "orderId": orderID}, nil)
}

// GetPosition returns the position for symbol in marginCoin (USDT when empty).
func (c *FuturesClient) GetPosition(ctx context.Context, symbol, marginCoin string) (*core.Response, error) {
	if symbol == "" {
		return nil, core.NewValidationError(name, "symbol is required")
	}
	if marginCoin == "" {
		marginCoin = "USDT"
	}
	return c.send(ctx, http.MethodGet, "/position/singlePosition-v2",
		core.Params{"symbol": symbol, "marginCoin": marginCoin}, nil)
}

// GetAccounts lists futures accounts for productType, e.g. umcbl.
func (c *FuturesClient) GetAccounts(ctx context.Context, productType string) (*core.Response, error) {
	if productType == "" {
		productType = "umcbl"
	}
	return c.send(ctx, http.MethodGet, "/account/accounts", core.Params{"productType": productType}, nil)
}

func (c *FuturesClient) send(ctx context.Context, method, endpoint string, query core.Params, body any) (*core.Response, error) {
	req, err := signedRequest(c.Base, method, futuresPrefix+endpoint, query, body)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// SpotClient calls the spot v1 API with base64 signatures.
type SpotClient struct {
	*exchange.Base
}

func NewSpotClient(cfg *core.Config, opts ...exchange.Option) (*SpotClient, error) {
	base, err := exchange.NewBase(exchange.ForMarket(cfg, core.MarketTypeSpot),
		profile(signer.StylePrehashBase64), opts...)
	if err != nil {
		return nil, err
	}
	return &SpotClient{Base: base}, nil
}

// SpotOrder is a spot order. Limit orders require Price; Force defaults to normal.
type SpotOrder struct {
	Symbol    string      `validate:"required"`
	Side      string      `validate:"required,oneof=buy sell"`
	OrderType string      `validate:"required,oneof=limit market"`
	Size      apd.Decimal `validate:"gt=0"`
	Price     apd.Decimal `validate:"required_if=OrderType limit,gte=0"`
	Force     string      `validate:"omitempty,oneof=normal post_only fok ioc"`
	ClientOID string      `validate:"omitempty,max=40"`
}

type spotOrderBody struct {
	Symbol    string `json:"symbol"`
	Side      string `json:"side"`
	OrderType string `json:"orderType"`
	Force     string `json:"force"`
	Size      string `json:"size"`
	Price     string `json:"price,omitempty"`
	ClientOID string `json:"clientOrderId"`
}

// PlaceOrder sends POST /api/spot/v1/trade/orders.
func (c *SpotClient) PlaceOrder(ctx context.Context, o SpotOrder) (*core.Response, error) {
	if err := exchange.Validate(name, o); err != nil {
		return nil, err
	}
	force := o.Force
	if force == "" {
		force = "normal"
	}
	body := spotOrderBody{
		Symbol:    o.Symbol,
		Side:      o.Side,
		OrderType: o.OrderType,
		Force:     force,
		Size:      core.DecimalText(&o.Size),
		ClientOID: exchange.ClientOrderID(o.ClientOID, 40),
	}
	if o.OrderType == "limit" {
		body.Price = core.DecimalText(&o.Price)
	}
	return c.send(ctx, http.MethodPost, "/trade/orders", nil, body)
}

// GetOrderStatus sends GET /api/spot/v1/trade/orderInfo. The query is part of the signed path.
func (c *SpotClient) GetOrderStatus(ctx context.Context, symbol, orderID string) (*core.Response, error) {
	if symbol == "" || orderID == "" {
		return nil, core.NewValidationError(name, "symbol and order id are required")
	}
	return c.send(ctx, http.MethodGet, "/trade/orderInfo", core.Params{"orderId": orderID, "symbol": symbol}, nil)
}

// GetAssets lists spot balances, for one coin when coin is set.
func (c *SpotClient) GetAssets(ctx context.Context, coin string) (*core.Response, error) {
	return c.send(ctx, http.MethodGet, "/account/assets", core.Params{}.SetIf("coin", coin), nil)
}

func (c *SpotClient) send(ctx context.Context, method, endpoint string, query core.Params, body any) (*core.Response, error) {
	req, err := signedRequest(c.Base, method, spotPrefix+endpoint, query, body)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}
