package portfolio

import (
	"time"

	"quantfolio/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Holding is a single position. Quantity and cost basis never change after
// creation; only the live price moves, together with lastQuotedAt.
type Holding struct {
	id           uuid.UUID
	symbol       string
	quantity     decimal.Decimal
	costBasis    decimal.Decimal
	livePrice    decimal.Decimal
	platform     string
	lastQuotedAt time.Time
}

// NewHolding creates a position whose live price starts at its cost basis.
func NewHolding(symbol string, quantity, costBasisPerUnit decimal.Decimal, platform string) (*Holding, error) {
	return newHolding("create holding", symbol, quantity, costBasisPerUnit, platform)
}

func newHolding(op, symbol string, quantity, costBasisPerUnit decimal.Decimal, platform string) (*Holding, error) {
	if err := validateHolding(op, symbol, quantity, costBasisPerUnit); err != nil {
		return nil, err
	}
	return &Holding{
		id:           uuid.New(),
		symbol:       symbol,
		quantity:     quantity,
		costBasis:    costBasisPerUnit,
		livePrice:    costBasisPerUnit,
		platform:     platform,
		lastQuotedAt: time.Now().UTC(),
	}, nil
}

func validateHolding(op, symbol string, quantity, cost decimal.Decimal) error {
	if symbol == "" {
		return models.InvalidInputError{Op: op, Field: "symbol", Value: symbol, Reason: "must not be empty"}
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return models.InvalidInputError{Op: op, Field: "quantity", Value: quantity.String(), Reason: "must be positive"}
	}
	if cost.IsNegative() {
		return models.InvalidInputError{Op: op, Field: "cost basis", Value: cost.String(), Reason: "must not be negative"}
	}
	return nil
}

func (h *Holding) ID() uuid.UUID                     { return h.id }
func (h *Holding) Symbol() string                    { return h.symbol }
func (h *Holding) Quantity() decimal.Decimal         { return h.quantity }
func (h *Holding) CostBasisPerUnit() decimal.Decimal { return h.costBasis }
func (h *Holding) LivePrice() decimal.Decimal        { return h.livePrice }
func (h *Holding) Platform() string                  { return h.platform }
func (h *Holding) LastQuotedAt() time.Time           { return h.lastQuotedAt }

// UpdatePrice sets the live price and stamps the quote time.
func (h *Holding) UpdatePrice(newPrice decimal.Decimal) error {
	return h.updatePriceAt(newPrice, time.Now().UTC())
}

func (h *Holding) updatePriceAt(newPrice decimal.Decimal, at time.Time) error {
	if newPrice.IsNegative() {
		return models.InvalidInputError{Op: "update price", Field: "price", Value: newPrice.String(), Reason: "must not be negative"}
	}
	h.livePrice = newPrice
	h.lastQuotedAt = at
	return nil
}

// UnrealizedPnL is (live - cost) * quantity and may be negative.
func (h *Holding) UnrealizedPnL() decimal.Decimal {
	return h.livePrice.Sub(h.costBasis).Mul(h.quantity)
}

func (h *Holding) HasReached(targetPrice decimal.Decimal) bool {
	return h.livePrice.GreaterThanOrEqual(targetPrice)
}

func (h *Holding) invested() decimal.Decimal { return h.costBasis.Mul(h.quantity) }
func (h *Holding) value() decimal.Decimal    { return h.livePrice.Mul(h.quantity) }
