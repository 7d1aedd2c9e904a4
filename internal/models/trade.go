package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	TradeTypeBuy  = "Buy"
	TradeTypeSell = "Sell"
)

// Trade is a completed trade record. Rows are append-only; the store lists
// them newest-first.
type Trade struct {
	gorm.Model
	Key     string    `gorm:"uniqueIndex" json:"key"`
	Type    string    `json:"type"` // "Buy" or "Sell"
	Price   string    `json:"price"`
	Date    time.Time `json:"date"`
	In      string    `json:"in"`
	Out     string    `json:"out"`
	GasUsed float64   `json:"gasUsed"`
	Link    string    `json:"link"`
	Chain   string    `json:"chain"`

	// AmountOut is the token quantity obtained by a Buy, used when the
	// position is later liquidated.
	AmountOut float64 `json:"amountOut"`

	// CostBasis is recorded on Buy trades, Profit on Sell trades. Both are
	// nil when not computable; nil and zero mean different things to the
	// profit engine.
	CostBasis *float64 `json:"costBasis,omitempty"`
	Profit    *float64 `json:"profit,omitempty"`
}
