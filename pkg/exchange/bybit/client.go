package bybit

import (
	"context"
	"net/http"

	"github.com/cockroachdb/apd/v3"

	"sandi/pkg/core"
	"sandi/pkg/exchange"
	"sandi/pkg/signer"
)

// SpotClient places orders through the v3 spot endpoint, which takes a
// signed form body.
type SpotClient struct {
	*exchange.Base
}

func NewSpotClient(cfg *core.Config, opts ...exchange.Option) (*SpotClient, error) {
	base, err := exchange.NewBase(exchange.ForMarket(cfg, core.MarketTypeSpot),
		profile(signer.StyleSortedQuery), opts...)
	if err != nil {
		return nil, err
	}
	return &SpotClient{Base: base}, nil
}

// SpotOrder is a v3 spot order. Price is sent only for LIMIT orders.
type SpotOrder struct {
	Symbol      string      `validate:"required"`
	Side        string      `validate:"required,oneof=Buy Sell"`
	Type        string      `validate:"required,oneof=LIMIT MARKET"`
	Qty         apd.Decimal `validate:"gt=0"`
	Price       apd.Decimal `validate:"required_if=Type LIMIT,gte=0"`
	TimeInForce string      `validate:"omitempty,oneof=GTC FOK IOC"`
}

// PlaceOrder sends POST /spot/v3/private/order.
func (c *SpotClient) PlaceOrder(ctx context.Context, o SpotOrder) (*core.Response, error) {
	if err := exchange.Validate(name, o); err != nil {
		return nil, err
	}

	tif := o.TimeInForce
	if tif == "" {
		tif = "GTC"
	}
	params := core.Params{
		"symbol":      o.Symbol,
		"side":        o.Side,
		"type":        o.Type,
		"qty":         core.DecimalText(&o.Qty),
		"timeInForce": tif,
	}
	if o.Type == "LIMIT" {
		params.Set("price", core.DecimalText(&o.Price))
	}

	req, err := formRequest(c.Base, "/spot/v3/private/order", params)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// UnifiedClient calls the v5 unified trading API for linear perpetuals.
type UnifiedClient struct {
	*exchange.Base
}

func NewUnifiedClient(cfg *core.Config, opts ...exchange.Option) (*UnifiedClient, error) {
	base, err := exchange.NewBase(exchange.ForMarket(cfg, core.MarketTypeFutures),
		profile(signer.StyleKeyedPrehash), opts...)
	if err != nil {
		return nil, err
	}
	return &UnifiedClient{Base: base}, nil
}

const category = "linear"

// LinearOrder holds the fields shared by the linear order methods.
// OrderLinkID is generated when empty.
type LinearOrder struct {
	Symbol         string      `validate:"required"`
	Side           string      `validate:"required,oneof=Buy Sell"`
	Qty            apd.Decimal `validate:"gt=0"`
	Price          apd.Decimal `validate:"omitempty,gt=0"`
	TriggerPrice   apd.Decimal `validate:"omitempty,gt=0"`
	TimeInForce    string      `validate:"omitempty,oneof=GTC IOC FOK PostOnly"`
	ReduceOnly     bool
	CloseOnTrigger bool
	OrderLinkID    string `validate:"omitempty,max=36"`
}

func (o *LinearOrder) params(orderType string) core.Params {
	return core.Params{
		"category":       category,
		"symbol":         o.Symbol,
		"side":           o.Side,
		"orderType":      orderType,
		"qty":            core.DecimalText(&o.Qty),
		"reduceOnly":     o.ReduceOnly,
		"closeOnTrigger": o.CloseOnTrigger,
		"orderLinkId":    exchange.ClientOrderID(o.OrderLinkID, 36),
	}
}

// PlaceMarketOrder sends a Market order to POST /v5/order/create.
func (c *UnifiedClient) PlaceMarketOrder(ctx context.Context, o LinearOrder) (*core.Response, error) {
	if err := exchange.Validate(name, o); err != nil {
		return nil, err
	}
	return c.post(ctx, "/v5/order/create", o.params("Market"))
}

// PlaceLimitOrder sends a Limit order; TimeInForce defaults to GTC.
func (c *UnifiedClient) PlaceLimitOrder(ctx context.Context, o LinearOrder) (*core.Response, error) {
	if err := exchange.Validate(name, o); err != nil {
		return nil, err
	}
	if !core.IsPositive(&o.Price) {
		return nil, core.NewValidationError(name, "limit order requires a price")
	}
	tif := o.TimeInForce
	if tif == "" {
		tif = "GTC"
	}
	params := o.params("Limit").
		Set("price", core.DecimalText(&o.Price)).
		Set("timeInForce", tif)
	return c.post(ctx, "/v5/order/create", params)
}

// PlaceStopMarketOrder sends a conditional Market order. It triggers when the
// price rises to TriggerPrice for Buy and falls to it for Sell.
func (c *UnifiedClient) PlaceStopMarketOrder(ctx context.Context, o LinearOrder) (*core.Response, error) {
	if err := exchange.Validate(name, o); err != nil {
		return nil, err
	}
	if !core.IsPositive(&o.TriggerPrice) {
		return nil, core.NewValidationError(name, "stop order requires a trigger price")
	}
	direction := 2
	if o.Side == "Buy" {
		direction = 1
	}
	params := o.params("Market").
		Set("triggerPrice", core.DecimalText(&o.TriggerPrice)).
		Set("triggerDirection", direction)
	return c.post(ctx, "/v5/order/create", params)
}

// CancelOrder sends POST /v5/order/cancel.
func (c *UnifiedClient) CancelOrder(ctx context.Context, symbol, orderID string) (*core.Response, error) {
	if symbol == "" || orderID == "" {
		return nil, core.NewValidationError(name, "symbol and order id are required")
	}
	return c.post(ctx, "/v5/order/cancel", core.Params{
		"category": category,
		"symbol":   symbol,
		"orderId":  orderID,
	})
}

// GetOrder looks up an open or recent order by order id or order link id.
func (c *UnifiedClient) GetOrder(ctx context.Context, symbol, orderID, orderLinkID string) (*core.Response, error) {
	if symbol == "" || (orderID == "" && orderLinkID == "") {
		return nil, core.NewValidationError(name, "symbol and an order id or order link id are required")
	}
	params := core.Params{"category": category, "symbol": symbol}.
		SetIf("orderId", orderID).
		SetIf("orderLinkId", orderLinkID)
	return c.get(ctx, "/v5/order/realtime", params)
}

// GetPositions sends GET /v5/position/list for symbol.
func (c *UnifiedClient) GetPositions(ctx context.Context, symbol string) (*core.Response, error) {
	if symbol == "" {
		return nil, core.NewValidationError(name, "symbol is required")
	}
	return c.get(ctx, "/v5/position/list", core.Params{"category": category, "symbol": symbol})
}

// GetWalletBalance sends GET /v5/account/wallet-balance.
// accountType is UNIFIED, SPOT or CONTRACT.
func (c *UnifiedClient) GetWalletBalance(ctx context.Context, accountType string) (*core.Response, error) {
	switch accountType {
	case "UNIFIED", "SPOT", "CONTRACT":
	default:
		return nil, core.NewValidationError(name, "account type must be UNIFIED, SPOT or CONTRACT")
	}
	return c.get(ctx, "/v5/account/wallet-balance", core.Params{"accountType": accountType})
}

func (c *UnifiedClient) get(ctx context.Context, path string, params core.Params) (*core.Response, error) {
	req, err := unifiedRequest(c.Base, http.MethodGet, path, params)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

func (c *UnifiedClient) post(ctx context.Context, path string, params core.Params) (*core.Response, error) {
	req, err := unifiedRequest(c.Base, http.MethodPost, path, params)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}
