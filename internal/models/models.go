package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Acquisition is a logged purchase as handed over by the transaction log.
type Acquisition struct {
	Symbol    string          `json:"symbol"`
	Quantity  decimal.Decimal `json:"quantity"`
	CostBasis decimal.Decimal `json:"cost_basis"`
	Platform  string          `json:"platform"`
}

// Quote is a single price observation produced by a provider.
type Quote struct {
	Symbol     string          `json:"symbol"`
	Price      decimal.Decimal `json:"price"`
	ObservedAt time.Time       `json:"observed_at"`
	Source     string          `json:"source"`
}

type Summary struct {
	TotalInvested    decimal.Decimal `json:"total_invested"`
	CurrentValue     decimal.Decimal `json:"current_value"`
	OverallReturnPct decimal.Decimal `json:"overall_return_pct"`
}

// ReturnString renders the return with two decimals, e.g. "20.00%".
func (s Summary) ReturnString() string {
	return s.OverallReturnPct.StringFixed(2) + "%"
}

// AlertEvent is emitted once when a watched holding reaches its target.
type AlertEvent struct {
	AlertID       string          `json:"alert_id,omitempty"`
	Symbol        string          `json:"symbol"`
	TargetPrice   decimal.Decimal `json:"target_price"`
	ObservedPrice decimal.Decimal `json:"observed_price"`
	Time          time.Time       `json:"time"`
}
