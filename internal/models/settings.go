package models

import "gorm.io/gorm"

// Settings holds the operator-tunable trading configuration. There should
// only ever be one row in this table; the executor reloads it at the start
// of every order attempt so control-panel edits apply on the next signal.
type Settings struct {
	gorm.Model
	ActiveChain string `json:"activeChain"`
	Stablecoin  string `json:"stablecoin"`
	Token       string `json:"token"`

	// Size is the fraction of the stablecoin balance committed per buy.
	Size     float64 `json:"size"`
	Slippage float64 `json:"slippage"`
	Min      float64 `json:"min"`
	Max      bool    `json:"max"`

	// Status is the bot-enabled flag. Signals received while false are
	// acknowledged and silently dropped.
	Status bool `json:"status"`

	AlertsEnabled bool `json:"alertsEnabled"`
}
