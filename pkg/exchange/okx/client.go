package okx

import (
	"context"
	"net/http"

	"github.com/cockroachdb/apd/v3"

	"sandi/pkg/core"
	"sandi/pkg/exchange"
)

// Client calls the OKX v5 API. One client serves spot and swap instruments;
// the instrument id and trade mode select the market.
type Client struct {
	*exchange.Base
}

func NewClient(cfg *core.Config, opts ...exchange.Option) (*Client, error) {
	base, err := exchange.NewBase(cfg, profile(), opts...)
	if err != nil {
		return nil, err
	}
	return &Client{Base: base}, nil
}

// Order is a v5 order. TdMode is cash for spot and cross or isolated for
// margin and swaps, e.g. InstID BTC-USDT or BTC-USDT-SWAP.
type Order struct {
	InstID     string      `validate:"required"`
	TdMode     string      `validate:"required,oneof=cash cross isolated"`
	Side       string      `validate:"required,oneof=buy sell"`
	OrdType    string      `validate:"required,oneof=market limit post_only fok ioc"`
	Size       apd.Decimal `validate:"gt=0"`
	Price      apd.Decimal `validate:"required_unless=OrdType market,gte=0"`
	PosSide    string      `validate:"omitempty,oneof=long short net"`
	ReduceOnly bool
	ClOrdID    string `validate:"omitempty,alphanum,max=32"`
}

type orderBody struct {
	InstID     string `json:"instId"`
	TdMode     string `json:"tdMode"`
	Side       string `json:"side"`
	OrdType    string `json:"ordType"`
	Sz         string `json:"sz"`
	Px         string `json:"px,omitempty"`
	PosSide    string `json:"posSide,omitempty"`
	ReduceOnly bool   `json:"reduceOnly,omitempty"`
	ClOrdID    string `json:"clOrdId"`
}

// PlaceOrder sends POST /api/v5/trade/order.
func (c *Client) PlaceOrder(ctx context.Context, o Order) (*core.Response, error) {
	if err := exchange.Validate(name, o); err != nil {
		return nil, err
	}
	body := orderBody{
		InstID:     o.InstID,
		TdMode:     o.TdMode,
		Side:       o.Side,
		OrdType:    o.OrdType,
		Sz:         core.DecimalText(&o.Size),
		PosSide:    o.PosSide,
		ReduceOnly: o.ReduceOnly,
		ClOrdID:    exchange.ClientOrderID(o.ClOrdID, 32),
	}
	if o.OrdType != "market" {
		body.Px = core.DecimalText(&o.Price)
	}
	return c.send(ctx, http.MethodPost, "/api/v5/trade/order", nil, body)
}

type orderRef struct {
	InstID  string `json:"instId"`
	OrdID   string `json:"ordId,omitempty"`
	ClOrdID string `json:"clOrdId,omitempty"`
}

func (r orderRef) check() error {
	if r.InstID == "" || (r.OrdID == "") == (r.ClOrdID == "") {
		return core.NewValidationError(name, "instrument id and exactly one of ordId or clOrdId are required")
	}
	return nil
}

// CancelOrder sends POST /api/v5/trade/cancel-order.
func (c *Client) CancelOrder(ctx context.Context, instID, ordID, clOrdID string) (*core.Response, error) {
	ref := orderRef{InstID: instID, OrdID: ordID, ClOrdID: clOrdID}
	if err := ref.check(); err != nil {
		return nil, err
	}
	return c.send(ctx, http.MethodPost, "/api/v5/trade/cancel-order", nil, ref)
}

type closeBody struct {
	InstID  string `json:"instId"`
	MgnMode string `json:"mgnMode"`
	PosSide string `json:"posSide,omitempty"`
}

// ClosePosition sends POST /api/v5/trade/close-position, closing the whole
// position at market. PosSide is required in long/short mode and empty in
// net mode.
func (c *Client) ClosePosition(ctx context.Context, instID, mgnMode, posSide string) (*core.Response, error) {
	if instID == "" {
		return nil, core.NewValidationError(name, "instrument id is required")
	}
	if mgnMode != "cross" && mgnMode != "isolated" {
		return nil, core.NewValidationError(name, "margin mode must be cross or isolated")
	}
	switch posSide {
	case "", "long", "short", "net":
	default:
		return nil, core.NewValidationError(name, "position side must be long, short or net")
	}
	body := closeBody{InstID: instID, MgnMode: mgnMode, PosSide: posSide}
	return c.send(ctx, http.MethodPost, "/api/v5/trade/close-position", nil, body)
}

// GetOrder sends GET /api/v5/trade/order.
func (c *Client) GetOrder(ctx context.Context, instID, ordID, clOrdID string) (*core.Response, error) {
	ref := orderRef{InstID: instID, OrdID: ordID, ClOrdID: clOrdID}
	if err := ref.check(); err != nil {
		return nil, err
	}
	query := core.Params{"instId": instID}.SetIf("ordId", ordID).SetIf("clOrdId", clOrdID)
	return c.send(ctx, http.MethodGet, "/api/v5/trade/order", query, nil)
}

// GetPositions sends GET /api/v5/account/positions. Empty arguments are omitted.
func (c *Client) GetPositions(ctx context.Context, instType, instID string) (*core.Response, error) {
	query := core.Params{}.SetIf("instType", instType).SetIf("instId", instID)
	return c.send(ctx, http.MethodGet, "/api/v5/account/positions", query, nil)
}

// GetBalance sends GET /api/v5/account/balance, optionally for a comma-separated currency list.
func (c *Client) GetBalance(ctx context.Context, ccy string) (*core.Response, error) {
	return c.send(ctx, http.MethodGet, "/api/v5/account/balance", core.Params{}.SetIf("ccy", ccy), nil)
}

func (c *Client) send(ctx context.Context, method, path string, query core.Params, body any) (*core.Response, error) {
	req, err := signedRequest(c.Base, method, path, query, body)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}
