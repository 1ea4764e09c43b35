// Package marketdata defines the quote provider contract and the vendor
// implementations behind it. Callers only ever see Provider; which vendor
// answers for a symbol is decided by a Router.
package marketdata

import (
	"context"
	"sync"

	"quantfolio/internal/models"
)

// Provider produces a strictly positive quote for a symbol or trading pair.
// Implementations must be safe for concurrent use across symbols.
type Provider interface {
	Name() string
	FetchQuote(ctx context.Context, symbol string) (models.Quote, error)
}

// Router selects a provider per symbol and falls back to a default one.
type Router struct {
	mu       sync.RWMutex
	routes   map[string]Provider
	fallback Provider
}

func NewRouter(fallback Provider) *Router {
	return &Router{routes: map[string]Provider{}, fallback: fallback}
}

func (r *Router) Route(symbol string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[symbol] = p
}

// For returns the provider bound to symbol, the fallback, or nil.
func (r *Router) For(symbol string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.routes[symbol]; ok {
		return p
	}
	return r.fallback
}

func (r *Router) Name() string { return "router" }

func (r *Router) FetchQuote(ctx context.Context, symbol string) (models.Quote, error) {
	p := r.For(symbol)
	if p == nil {
		return models.Quote{}, models.UnknownSymbolError{Provider: r.Name(), Symbol: symbol}
	}
	return p.FetchQuote(ctx, symbol)
}
