package signer

import (
	"fmt"
	"sort"
	"sync"

	"sandi/pkg/core"
)

// Registry maps configuration keys such as "bitget-futures" to canonicalizers,
// so the signing style is chosen by configuration rather than at the call site.
type Registry struct {
	mu     sync.RWMutex
	styles map[string]Canonicalizer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		styles: make(map[string]Canonicalizer),
	}
}

// NewDefaultRegistry returns a registry populated with the styles each
// supported exchange and market expects.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("binance-spot", SortedQuery{})
	r.Register("binance-futures", SortedQuery{})
	r.Register("bybit-spot", SortedQuery{})
	r.Register("bybit-futures", KeyedPrehash{})
	r.Register("bitget-spot", PrehashBase64{})
	r.Register("bitget-futures", PrehashHex{})
	r.Register("mexc-spot", SortedQuery{})
	r.Register("mexc-futures", SortedQuery{})
	r.Register("okx-spot", PrehashBase64{})
	r.Register("okx-futures", PrehashBase64{})
	return r
}

// Key builds the registry key for an exchange and market.
func Key(exchange string, market core.MarketType) string {
	return exchange + "-" + market.String()
}

// Register adds a canonicalizer under key, replacing any existing entry.
func (r *Registry) Register(key string, c Canonicalizer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.styles[key] = c
}

// Get returns the canonicalizer registered under key.
func (r *Registry) Get(key string) (Canonicalizer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.styles[key]
	if !exists {
		return nil, core.NewValidationError(component, fmt.Sprintf("no signing style registered for %q", key))
	}
	return c, nil
}

// Resolve picks the canonicalizer for cfg: the SignStyle override when set,
// otherwise the entry for the configured exchange and market.
func (r *Registry) Resolve(cfg *core.Config) (Canonicalizer, error) {
	if cfg == nil {
		return nil, core.NewValidationError(component, "config is required")
	}
	if cfg.SignStyle != "" {
		style, err := ParseStyle(cfg.SignStyle)
		if err != nil {
			return nil, err
		}
		return New(style)
	}
	return r.Get(Key(cfg.Exchange, cfg.MarketType))
}

// Keys returns the registered keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.styles))
	for k := range r.styles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Unregister removes key from the registry.
func (r *Registry) Unregister(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.styles, key)
}

// Exists reports whether key is registered.
func (r *Registry) Exists(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.styles[key]
	return exists
}

// Require returns an error unless c has one of the allowed styles.
// Clients use it to reject overrides their wire format cannot carry.
func Require(c Canonicalizer, allowed ...Style) error {
	for _, s := range allowed {
		if c.Style() == s {
			return nil
		}
	}
	return core.NewValidationError(component, fmt.Sprintf("signing style %s is not supported here", c.Style()))
}
