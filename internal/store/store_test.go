package store

import (
	"strings"
	"testing"

	"dex-trade-bot-go/internal/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupStoreTest(t *testing.T) *GormStore {
	// Use a new, non-shared in-memory database for each test to ensure isolation.
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(&models.Settings{}, &models.Position{}, &models.Trade{}, &models.Event{})
	assert.NoError(t, err)

	return New(db)
}

func TestPositionRoundTrip(t *testing.T) {
	st := setupStoreTest(t)
	st.db.Create(&models.Position{Open: false, StablecoinBalance: 1000})

	position, err := st.Position()
	assert.NoError(t, err)
	assert.False(t, position.Open)

	position.Open = true
	position.TokenBalance = 0.12
	position.OpenTradeKey = "open-key"
	assert.NoError(t, st.SavePosition(position))

	// Read back without mutation.
	reloaded, err := st.Position()
	assert.NoError(t, err)
	assert.True(t, reloaded.Open)
	assert.Equal(t, 0.12, reloaded.TokenBalance)
	assert.Equal(t, "open-key", reloaded.OpenTradeKey)
	assert.Equal(t, position.ID, reloaded.ID)
}

func TestTradesNewestFirst(t *testing.T) {
	st := setupStoreTest(t)

	assert.NoError(t, st.AppendTrade(&models.Trade{Key: "t1", Type: models.TradeTypeBuy}))
	assert.NoError(t, st.AppendTrade(&models.Trade{Key: "t2", Type: models.TradeTypeSell}))
	assert.NoError(t, st.AppendTrade(&models.Trade{Key: "t3", Type: models.TradeTypeBuy}))

	trades, err := st.Trades()
	assert.NoError(t, err)
	assert.Len(t, trades, 3)
	assert.Equal(t, "t3", trades[0].Key)
	assert.Equal(t, "t1", trades[2].Key)

	last, err := st.LastTrade()
	assert.NoError(t, err)
	assert.Equal(t, "t3", last.Key)

	// Reads are idempotent.
	again, err := st.Trades()
	assert.NoError(t, err)
	assert.Len(t, again, 3)
}

func TestTradeByKey(t *testing.T) {
	st := setupStoreTest(t)

	assert.NoError(t, st.AppendTrade(&models.Trade{Key: "open-key", Type: models.TradeTypeBuy}))

	trade, err := st.TradeByKey("open-key")
	assert.NoError(t, err)
	assert.Equal(t, models.TradeTypeBuy, trade.Type)

	_, err = st.TradeByKey("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLastTradeEmptyHistory(t *testing.T) {
	st := setupStoreTest(t)

	_, err := st.LastTrade()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEventLogAppendAndClear(t *testing.T) {
	st := setupStoreTest(t)

	assert.NoError(t, st.AppendEvent(&models.Event{Type: models.EventOrderConflict, Message: "first"}))
	assert.NoError(t, st.AppendEvent(&models.Event{Type: models.EventBuyFailed, Message: "second"}))

	events, err := st.Events()
	assert.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, "second", events[0].Message)
	// Keys are generated on append when unset.
	assert.NotEmpty(t, events[0].Key)
	assert.NotEqual(t, events[0].Key, events[1].Key)

	assert.NoError(t, st.ClearEvents())

	events, err = st.Events()
	assert.NoError(t, err)
	assert.Empty(t, events)

	// Clearing an already-empty log is fine.
	assert.NoError(t, st.ClearEvents())
}

func TestSettingsRoundTrip(t *testing.T) {
	st := setupStoreTest(t)
	st.db.Create(&models.Settings{ActiveChain: "mumbai", Stablecoin: "USDC", Token: "WETH", Size: 0.25})

	settings, err := st.Settings()
	assert.NoError(t, err)
	assert.Equal(t, "mumbai", settings.ActiveChain)

	settings.ActiveChain = "polygon"
	settings.Status = true
	assert.NoError(t, st.SaveSettings(settings))

	reloaded, err := st.Settings()
	assert.NoError(t, err)
	assert.Equal(t, "polygon", reloaded.ActiveChain)
	assert.True(t, reloaded.Status)
}

func TestNewKey(t *testing.T) {
	a := NewKey()
	b := NewKey()

	assert.True(t, strings.HasPrefix(a, "0x"))
	assert.Len(t, a, 66)
	assert.NotEqual(t, a, b)
}
