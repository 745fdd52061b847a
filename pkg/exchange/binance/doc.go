// Package binance signs and sends Binance spot and USD-M futures REST calls.
//
// Signed endpoints carry every parameter, recvWindow and timestamp in the
// query string, sorted by key, followed by signature=<hex HMAC-SHA256 of
// that query>. The API key travels in the X-MBX-APIKEY header.
//
// Example usage:
//
//	cfg := core.DefaultConfig("binance").WithCredentials(creds)
//	spot, err := binance.NewSpotClient(cfg)
//	resp, err := spot.PlaceOrder(ctx, binance.SpotOrder{
//		Symbol: "BTCUSDT", Side: "BUY", Type: "MARKET", Quantity: core.MustDecimal("0.001"),
//	})
package binance
