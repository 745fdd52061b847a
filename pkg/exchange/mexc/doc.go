// Package mexc signs and sends MEXC spot and contract REST calls.
//
// Both APIs sign the parameters plus timestamp as a key-sorted k=v query
// with a hex HMAC-SHA256. Spot appends signature= to the query and sends the
// key in X-MEXC-APIKEY; contracts send ApiKey, Request-Time and Signature headers.
package mexc
