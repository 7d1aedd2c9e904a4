package models

import "gorm.io/gorm"

// Position is the bot's single position ledger.
// There should only ever be one row in this table.
type Position struct {
	gorm.Model
	Open              bool    `json:"positionOpen"`
	StablecoinBalance float64 `json:"stablecoinBalance"`
	TokenBalance      float64 `json:"tokenBalance"`
	LastTrade         string  `json:"lastTrade"`
	LastTradeTime     string  `json:"lastTradeTime"`
	LastTradePrice    string  `json:"lastTradePrice"`

	// PNL is a running snapshot of realized profit. The trade history is
	// authoritative; this field only saves the dashboard a full scan.
	PNL float64 `json:"PNL"`

	// OpenTradeKey is the key of the Buy trade that opened the current
	// position. Empty when the position is closed.
	OpenTradeKey string `json:"openTradeKey"`
}
