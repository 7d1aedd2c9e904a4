package trader

import (
	"testing"

	"dex-trade-bot-go/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestComputeTradeStats(t *testing.T) {
	testCases := []struct {
		name     string
		trades   []models.Trade
		expected TradeStats
	}{
		{
			name:     "Empty history",
			trades:   nil,
			expected: TradeStats{},
		},
		{
			name: "Totals and average over defined profits only",
			trades: []models.Trade{
				{Chain: "Arbitrum", Profit: floatPtr(10)},
				{Chain: "Arbitrum", Profit: floatPtr(-4)},
				{Chain: "Polygon"},
			},
			// Two trades carry profit: 10 - 4 = 6, average 3.
			expected: TradeStats{MostFrequentChain: "Arbitrum", TotalProfit: 6, AverageProfit: 3},
		},
		{
			name: "Zero profit excluded from the average",
			trades: []models.Trade{
				{Chain: "Polygon", Profit: floatPtr(0)},
				{Chain: "Polygon", Profit: floatPtr(8)},
			},
			expected: TradeStats{MostFrequentChain: "Polygon", TotalProfit: 8, AverageProfit: 8},
		},
		{
			name: "Ties go to the chain that reached the count first",
			trades: []models.Trade{
				{Chain: "Polygon"},
				{Chain: "Arbitrum"},
				{Chain: "Arbitrum"},
				{Chain: "Polygon"},
			},
			expected: TradeStats{MostFrequentChain: "Arbitrum"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ComputeTradeStats(tc.trades))
		})
	}
}

func TestComputeEventStats(t *testing.T) {
	events := []models.Event{
		{Type: models.EventOrderConflict, Message: "Buy order received, but a position is already open"},
		{Type: models.EventBuyFailed, Message: "could not detect network mumbai"},
		{Type: models.EventSellFailed, Message: "dial tcp: connection refused"},
		{Type: models.EventRouteFailed, Message: "insufficient liquidity"},
		{Type: models.EventTimeout, Message: "transaction confirmation timed out: 0xdead"},
	}

	stats := ComputeEventStats(events)

	assert.Equal(t, 1, stats[models.EventOrderConflict])
	assert.Equal(t, 1, stats[models.EventBuyFailed])
	assert.Equal(t, 1, stats[models.EventSellFailed])
	assert.Equal(t, 1, stats[models.EventRouteFailed])
	assert.Equal(t, 1, stats[models.EventTimeout])

	// Derived buckets overlap the recorded categories.
	assert.Equal(t, 2, stats["NETWORK"])
	assert.Equal(t, 1, stats["ROUTING"])
}

func TestComputeEventStats_Empty(t *testing.T) {
	stats := ComputeEventStats(nil)
	assert.Empty(t, stats)
}
