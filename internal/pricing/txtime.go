package pricing

import (
	"context"
	"fmt"
	"time"

	"dex-trade-bot-go/internal/chains"
	"dex-trade-bot-go/internal/explorer"
)

// TxTimePricer resolves the USD price of a chain's native currency at the
// time a transaction was mined: tx hash -> block -> block timestamp ->
// day-bucketed historical price.
type TxTimePricer struct {
	Explorer explorer.ClientInterface
	Gecko    GeckoInterface
}

// PriceAtTx returns the native-currency USD price at the block time of the
// given transaction.
func (p *TxTimePricer) PriceAtTx(ctx context.Context, chain chains.Chain, txHash string) (float64, error) {
	number, err := p.Explorer.TxBlockNumber(ctx, txHash)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve block for %s: %w", txHash, err)
	}

	var minedAt time.Time
	minedAt, err = p.Explorer.BlockTime(ctx, number)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve block time for %s: %w", txHash, err)
	}

	return p.Gecko.PriceAt(ctx, chain.CoinID, minedAt)
}
