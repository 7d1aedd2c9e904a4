package models

import (
	"time"

	"gorm.io/gorm"
)

// Event types recorded by the bot. NETWORK and ROUTING exist only as
// derived buckets in the log statistics; they are never written as rows.
const (
	EventOrderConflict = "ORDER_CONFLICT"
	EventBuyFailed     = "BUY"
	EventSellFailed    = "SELL"
	EventBotStatus     = "BOT_STATUS"
	EventRouteFailed   = "ROUTE"
	EventTimeout       = "TIMEOUT"
)

// Event is an operational event or failure, append-only and listed
// newest-first. Failures carry the raw underlying error message.
type Event struct {
	gorm.Model
	Key     string    `gorm:"uniqueIndex" json:"key"`
	Type    string    `json:"type"`
	Message string    `json:"message"`
	Chain   string    `json:"chain,omitempty"`
	Time    time.Time `json:"time"`
}
