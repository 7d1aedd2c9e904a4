package trader

import (
	"context"

	"dex-trade-bot-go/internal/chains"
	"dex-trade-bot-go/internal/models"
	"go.uber.org/zap"
)

// TxPricer resolves the USD price of a chain's native currency at the time
// a transaction was mined.
type TxPricer interface {
	PriceAtTx(ctx context.Context, chain chains.Chain, txHash string) (float64, error)
}

// PnLEngine converts gas usage into quote-currency cost and computes cost
// basis and realized profit for trades.
type PnLEngine struct {
	pricer TxPricer
	logger *zap.Logger
}

// NewPnLEngine creates a P&L engine over the given transaction pricer.
func NewPnLEngine(pricer TxPricer, logger *zap.Logger) *PnLEngine {
	return &PnLEngine{pricer: pricer, logger: logger}
}

// CostBasis returns the total quote-currency cost of a buy: the trade
// amount plus the gas fee converted at the transaction's block-time native
// price. A price lookup failure degrades to the bare trade amount rather
// than blocking the trade record.
func (p *PnLEngine) CostBasis(ctx context.Context, chain chains.Chain, txHash string, gasUsed, buyAmount float64) float64 {
	price, err := p.pricer.PriceAtTx(ctx, chain, txHash)
	if err != nil {
		p.logger.Error("Failed to price gas for cost basis, recording trade amount only",
			zap.String("tx", txHash), zap.Error(err))
		price = 0
	}
	return gasUsed*price + buyAmount
}

// Profit returns the realized profit of a sell against the trade that
// opened the position: proceeds minus the recorded cost basis minus the
// sell's gas fee in quote currency. It returns nil when the profit is not
// computable: no opening trade, the opening trade is not a Buy with a cost
// basis, or the gas price lookup fails. Callers must treat nil as "not
// computable", never as zero.
func (p *PnLEngine) Profit(ctx context.Context, chain chains.Chain, txHash string, gasUsed, amountIn float64, openTrade *models.Trade) *float64 {
	if openTrade == nil || openTrade.Type != models.TradeTypeBuy || openTrade.CostBasis == nil {
		return nil
	}

	price, err := p.pricer.PriceAtTx(ctx, chain, txHash)
	if err != nil {
		p.logger.Error("Failed to price gas for profit computation",
			zap.String("tx", txHash), zap.Error(err))
		return nil
	}

	profit := amountIn - *openTrade.CostBasis - gasUsed*price
	return &profit
}
