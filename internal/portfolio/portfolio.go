// Package portfolio keeps an ordered set of holdings and the totals derived
// from them. Every mutation recomputes the totals before the write lock is
// released, so Summary is a plain read of a consistent aggregate.
package portfolio

import (
	"sync"
	"time"

	"quantfolio/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Portfolio struct {
	mu       sync.RWMutex
	holdings []*Holding
	index    map[uuid.UUID]int
	summary  models.Summary
	now      func() time.Time
}

func New() *Portfolio {
	return &Portfolio{
		index: map[uuid.UUID]int{},
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// RecordAcquisition appends a new holding and returns its handle. On error the
// portfolio is left untouched.
func (p *Portfolio) RecordAcquisition(symbol string, quantity, costBasisPerUnit decimal.Decimal, platform string) (uuid.UUID, error) {
	h, err := newHolding("record acquisition", symbol, quantity, costBasisPerUnit, platform)
	if err != nil {
		return uuid.Nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	h.lastQuotedAt = p.now()
	p.index[h.id] = len(p.holdings)
	p.holdings = append(p.holdings, h)
	p.recompute()
	return h.id, nil
}

func (p *Portfolio) Record(a models.Acquisition) (uuid.UUID, error) {
	return p.RecordAcquisition(a.Symbol, a.Quantity, a.CostBasis, a.Platform)
}

// ApplyQuote sets the live price of one holding. Quotes must be strictly positive.
func (p *Portfolio) ApplyQuote(id uuid.UUID, newPrice decimal.Decimal) error {
	if err := validateQuote("apply quote", newPrice); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	i, ok := p.index[id]
	if !ok {
		return models.NotFoundError{Op: "apply quote", ID: id.String()}
	}
	if err := p.holdings[i].updatePriceAt(newPrice, p.now()); err != nil {
		return err
	}
	p.recompute()
	return nil
}

// ApplySymbolQuote applies q to every holding of q.Symbol and returns how many
// holdings it touched. A symbol nobody holds is a NotFoundError.
func (p *Portfolio) ApplySymbolQuote(q models.Quote) (int, error) {
	if err := validateQuote("apply symbol quote", q.Price); err != nil {
		return 0, err
	}
	at := q.ObservedAt
	if at.IsZero() {
		at = p.now()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, h := range p.holdings {
		if h.symbol != q.Symbol {
			continue
		}
		if err := h.updatePriceAt(q.Price, at); err != nil {
			return 0, err
		}
		n++
	}
	if n == 0 {
		return 0, models.NotFoundError{Op: "apply symbol quote", ID: q.Symbol}
	}
	p.recompute()
	return n, nil
}

func validateQuote(op string, price decimal.Decimal) error {
	if !price.IsPositive() {
		return models.InvalidInputError{Op: op, Field: "price", Value: price.String(), Reason: "must be positive"}
	}
	return nil
}

// recompute must run with p.mu held for writing.
func (p *Portfolio) recompute() {
	invested := decimal.Zero
	value := decimal.Zero
	for _, h := range p.holdings {
		invested = invested.Add(h.invested())
		value = value.Add(h.value())
	}
	p.summary.TotalInvested = invested
	p.summary.CurrentValue = value
	if invested.IsPositive() {
		p.summary.OverallReturnPct = value.Sub(invested).Div(invested).Mul(hundred)
	}
}

func (p *Portfolio) Summary() models.Summary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.summary
}

// Holding returns a snapshot of the holding with the given handle.
func (p *Portfolio) Holding(id uuid.UUID) (Holding, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	i, ok := p.index[id]
	if !ok {
		return Holding{}, models.NotFoundError{Op: "get holding", ID: id.String()}
	}
	return *p.holdings[i], nil
}

// Holdings returns snapshots in acquisition order.
func (p *Portfolio) Holdings() []Holding {
	p.mu.RLock()
	defer p.mu.RUnlock()
	res := make([]Holding, 0, len(p.holdings))
	for _, h := range p.holdings {
		res = append(res, *h)
	}
	return res
}

// Symbols lists distinct symbols in first-acquisition order.
func (p *Portfolio) Symbols() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	seen := map[string]bool{}
	res := []string{}
	for _, h := range p.holdings {
		if seen[h.symbol] {
			continue
		}
		seen[h.symbol] = true
		res = append(res, h.symbol)
	}
	return res
}

func (p *Portfolio) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.holdings)
}
