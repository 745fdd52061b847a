package mexc

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sandi/pkg/core"
	"sandi/pkg/exchange"
)

const (
	testKey    = "mx0vglkey123456"
	testSecret = "mexc-secret-abcdef"
	testTime   = "1700000000000"
)

type captured struct {
	method string
	path   string
	query  string
	header http.Header
	body   string
}

func newServer(t *testing.T, status int, reply string) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got.method = r.Method
		got.path = r.URL.Path
		got.query = r.URL.RawQuery
		got.header = r.Header.Clone()
		got.body = string(body)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(server.Close)
	return server, got
}

func testConfig(url string) *core.Config {
	cfg := core.DefaultConfig("mexc").
		WithBaseURL(url).
		WithCredentials(&core.Credentials{APIKey: testKey, SecretKey: testSecret})
	cfg.RecvWindow = 0
	return cfg
}

var fixedClock = exchange.WithClock(func() time.Time { return time.UnixMilli(1700000000000) })

func hexHMAC(msg string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestSpotClient_PlaceOrder(t *testing.T) {
	server, got := newServer(t, http.StatusOK, `{"symbol":"BTCUSDT","orderId":"C02__1","type":"LIMIT"}`)
	c, err := NewSpotClient(testConfig(server.URL), fixedClock)
	require.NoError(t, err)

	_, err = c.PlaceOrder(context.Background(), SpotOrder{
		Symbol: "BTCUSDT", Side: "BUY", Type: "LIMIT",
		Quantity: core.MustDecimal("0.001"), Price: core.MustDecimal("50000"), ClientOrderID: "mx-1",
	})
	require.NoError(t, err)

	signed := "newClientOrderId=mx-1&price=50000&quantity=0.001&side=BUY&symbol=BTCUSDT&timestamp=" + testTime + "&type=LIMIT"
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/api/v3/order", got.path)
	assert.Equal(t, signed+"&signature="+hexHMAC(signed), got.query)
	assert.Equal(t, testKey, got.header.Get("X-MEXC-APIKEY"))
	assert.Empty(t, got.body)
}

func TestSpotClient_RecvWindowIsSigned(t *testing.T) {
	server, got := newServer(t, http.StatusOK, `{"balances":[]}`)
	cfg := testConfig(server.URL)
	cfg.RecvWindow = 5 * time.Second
	c, err := NewSpotClient(cfg, fixedClock)
	require.NoError(t, err)

	_, err = c.GetAccount(context.Background())
	require.NoError(t, err)
	signed := "recvWindow=5000&timestamp=" + testTime
	assert.Equal(t, signed+"&signature="+hexHMAC(signed), got.query)
}

func TestSpotClient_OrderLookups(t *testing.T) {
	server, got := newServer(t, http.StatusOK, `{"orderId":"1"}`)
	c, err := NewSpotClient(testConfig(server.URL), fixedClock)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.GetOrder(ctx, "BTCUSDT", "1", "")
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, got.method)
	signed := "orderId=1&symbol=BTCUSDT&timestamp=" + testTime
	assert.Equal(t, signed+"&signature="+hexHMAC(signed), got.query)

	_, err = c.CancelOrder(ctx, "BTCUSDT", "", "mx-1")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, got.method)

	_, err = c.CancelOrder(ctx, "BTCUSDT", "1", "mx-1")
	assert.True(t, core.IsValidationError(err))
	_, err = c.GetOrder(ctx, "BTCUSDT", "", "")
	assert.True(t, core.IsValidationError(err))
}

func TestSpotClient_LimitWithoutPrice(t *testing.T) {
	c, err := NewSpotClient(testConfig("https://example.com"))
	require.NoError(t, err)
	_, err = c.PlaceOrder(context.Background(), SpotOrder{Symbol: "BTCUSDT", Side: "BUY", Type: "LIMIT", Quantity: core.MustDecimal("1")})
	assert.True(t, core.IsValidationError(err))
}

func TestOrders_RejectNegativePrices(t *testing.T) {
	spot, err := NewSpotClient(testConfig("http://127.0.0.1:1"))
	require.NoError(t, err)
	futures, err := NewFuturesClient(testConfig("http://127.0.0.1:1"))
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		name  string
		place func() error
	}{
		{"spot limit", func() error {
			_, err := spot.PlaceOrder(ctx, SpotOrder{Symbol: "BTCUSDT", Side: "BUY", Type: "LIMIT",
				Quantity: core.MustDecimal("1"), Price: core.MustDecimal("-1")})
			return err
		}},
		{"spot limit maker", func() error {
			_, err := spot.PlaceOrder(ctx, SpotOrder{Symbol: "BTCUSDT", Side: "SELL", Type: "LIMIT_MAKER",
				Quantity: core.MustDecimal("1"), Price: core.MustDecimal("-1")})
			return err
		}},
		{"futures limit", func() error {
			_, err := futures.PlaceOrder(ctx, FuturesOrder{Symbol: "BTC_USDT", Side: "BUY", Type: "LIMIT",
				Volume: core.MustDecimal("1"), Price: core.MustDecimal("-30000")})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, core.IsValidationError(tt.place()))
		})
	}
}

func TestFuturesClient_PlaceOrder(t *testing.T) {
	server, got := newServer(t, http.StatusOK, `{"success":true,"code":0,"data":"739113577038255616"}`)
	c, err := NewFuturesClient(testConfig(server.URL), fixedClock)
	require.NoError(t, err)

	resp, err := c.PlaceOrder(context.Background(), FuturesOrder{
		Symbol: "BTC_USDT", Side: "BUY", Type: "LIMIT",
		Volume: core.MustDecimal("0.01"), Price: core.MustDecimal("30000"), Leverage: 10,
	})
	require.NoError(t, err)
	data, err := resp.Data("data")
	require.NoError(t, err)
	assert.Equal(t, `"739113577038255616"`, string(data))

	signed := "leverage=10&position_mode=isolated&price=30000&side=BUY&symbol=BTC_USDT&timestamp=" + testTime +
		"&type=LIMIT&volume=0.01"
	assert.Equal(t, "/api/v1/private/order/submit", got.path)
	assert.Equal(t, testKey, got.header.Get("ApiKey"))
	assert.Equal(t, testTime, got.header.Get("Request-Time"))
	assert.Equal(t, hexHMAC(signed), got.header.Get("Signature"))
	assert.JSONEq(t, `{"leverage":10,"position_mode":"isolated","price":"30000","side":"BUY",
		"symbol":"BTC_USDT","timestamp":"`+testTime+`","type":"LIMIT","volume":"0.01"}`, got.body)
	assert.Empty(t, got.query)
}

func TestFuturesClient_QueryAndCancel(t *testing.T) {
	server, got := newServer(t, http.StatusOK, `{"success":true,"code":0,"data":{}}`)
	c, err := NewFuturesClient(testConfig(server.URL), fixedClock)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.GetOrderStatus(ctx, "BTC_USDT", "123")
	require.NoError(t, err)
	assert.Equal(t, "order_id=123&symbol=BTC_USDT&timestamp="+testTime, got.query)
	assert.Equal(t, hexHMAC(got.query), got.header.Get("Signature"))

	_, err = c.GetAccountAssets(ctx)
	require.NoError(t, err)
	assert.Equal(t, "timestamp="+testTime, got.query)

	_, err = c.CancelOrder(ctx, "BTC_USDT", "123")
	require.NoError(t, err)
	assert.JSONEq(t, `{"order_id":"123","symbol":"BTC_USDT","timestamp":"`+testTime+`"}`, got.body)
}

func TestFuturesClient_ErrorCodes(t *testing.T) {
	tests := []struct {
		reply    string
		wantType core.ErrorType
	}{
		{`{"success":false,"code":602,"message":"Signature verification failed!"}`, core.ErrorTypeAuthentication},
		{`{"success":false,"code":2005,"message":"Balance insufficient"}`, core.ErrorTypeInsufficientFunds},
		{`{"success":false,"code":510,"message":"Requests are too frequent"}`, core.ErrorTypeRateLimit},
	}
	for _, tt := range tests {
		server, _ := newServer(t, http.StatusOK, tt.reply)
		c, err := NewFuturesClient(testConfig(server.URL), fixedClock)
		require.NoError(t, err)

		_, err = c.GetAccountAssets(context.Background())
		exErr, ok := core.AsExchangeError(err)
		require.True(t, ok, tt.reply)
		assert.Equal(t, tt.wantType, exErr.Type, tt.reply)
		assert.NotEmpty(t, exErr.Message)
	}
}
