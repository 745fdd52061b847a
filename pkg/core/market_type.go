package core

import (
	"fmt"
	"strings"
)

// MarketType represents the type of trading market on an exchange.
type MarketType int

// Market type constants define the available trading market categories.
const (
	// MarketTypeSpot indicates spot trading where assets are exchanged immediately.
	MarketTypeSpot MarketType = iota
	// MarketTypeFutures indicates perpetual or delivery contracts.
	MarketTypeFutures
)

// String returns the string representation of the market type ("spot" or "futures").
func (m MarketType) String() string {
	return [...]string{
		"spot",
		"futures",
	}[m]
}

// ParseMarketType accepts "spot" and "futures" (and the common aliases swap, linear, contract).
func ParseMarketType(s string) (MarketType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "spot":
		return MarketTypeSpot, nil
	case "futures", "future", "swap", "linear", "contract", "mix":
		return MarketTypeFutures, nil
	default:
		return MarketTypeSpot, fmt.Errorf("unknown market type %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m MarketType) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, used by both JSON and YAML config.
func (m *MarketType) UnmarshalText(text []byte) error {
	mt, err := ParseMarketType(string(text))
	if err != nil {
		return err
	}
	*m = mt
	return nil
}
