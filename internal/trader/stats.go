package trader

import (
	"strings"

	"dex-trade-bot-go/internal/models"
)

// TradeStats summarizes the trade history for the dashboard.
type TradeStats struct {
	MostFrequentChain string  `json:"mostFrequentChain"`
	TotalProfit       float64 `json:"totalProfit"`
	AverageProfit     float64 `json:"averageProfit"`
}

// ComputeTradeStats aggregates trades in a single pass. Ties for the most
// frequent chain go to the chain that reached the maximum first. The
// average is taken only over trades with a defined, non-zero profit and
// defaults to 0 when none qualify.
func ComputeTradeStats(trades []models.Trade) TradeStats {
	chainCount := make(map[string]int)
	maxCount := 0

	var stats TradeStats
	profitable := 0

	for _, trade := range trades {
		if trade.Chain != "" {
			chainCount[trade.Chain]++
			if chainCount[trade.Chain] > maxCount {
				maxCount = chainCount[trade.Chain]
				stats.MostFrequentChain = trade.Chain
			}
		}

		if trade.Profit != nil && *trade.Profit != 0 {
			stats.TotalProfit += *trade.Profit
			profitable++
		}
	}

	if profitable > 0 {
		stats.AverageProfit = stats.TotalProfit / float64(profitable)
	}

	return stats
}

// networkMarkers are substrings that identify an underlying error message
// as a network failure, whatever category the event was filed under.
var networkMarkers = []string{
	"could not detect network",
	"connection refused",
	"no such host",
}

// ComputeEventStats counts events per category and adds two derived
// buckets: NETWORK for events whose message carries a network-error marker
// and ROUTING for route-generation failures. The derived buckets are
// reconstructed at read time from pattern matching, so they overlap with
// the recorded categories rather than partitioning them.
func ComputeEventStats(events []models.Event) map[string]int {
	stats := make(map[string]int)

	for _, event := range events {
		stats[event.Type]++

		message := strings.ToLower(event.Message)
		for _, marker := range networkMarkers {
			if strings.Contains(message, marker) {
				stats["NETWORK"]++
				break
			}
		}

		if event.Type == models.EventRouteFailed {
			stats["ROUTING"]++
		}
	}

	return stats
}
