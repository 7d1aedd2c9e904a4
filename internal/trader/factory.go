package trader

import (
	"context"
	"sync"

	"dex-trade-bot-go/internal/chains"
	"dex-trade-bot-go/internal/config"
	"dex-trade-bot-go/internal/explorer"
	"dex-trade-bot-go/internal/pricing"
	"dex-trade-bot-go/internal/router"
	"go.uber.org/zap"
)

// chainClientFactory builds and caches the per-chain collaborators:
// explorer client, route engine, and transaction-time pricer.
type chainClientFactory struct {
	cfg    *config.Config
	gecko  pricing.GeckoInterface
	logger *zap.Logger

	mu    sync.Mutex
	cache map[string]*Clients
}

// NewClientFactory creates the production client factory. Clients are
// cached per chain; the price oracle is shared across chains.
func NewClientFactory(cfg *config.Config, gecko pricing.GeckoInterface, logger *zap.Logger) ClientFactory {
	return &chainClientFactory{
		cfg:    cfg,
		gecko:  gecko,
		logger: logger,
		cache:  make(map[string]*Clients),
	}
}

func (f *chainClientFactory) For(ctx context.Context, chain chains.Chain) (*Clients, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if clients, ok := f.cache[chain.Name]; ok {
		return clients, nil
	}

	balances := explorer.NewClient(chain, &f.cfg.Explorer, f.logger)

	engine, err := router.NewAggregatorEngine(ctx, chain, f.cfg, f.logger)
	if err != nil {
		return nil, err
	}

	clients := &Clients{
		Balances: balances,
		Router:   engine,
		Pricer:   &pricing.TxTimePricer{Explorer: balances, Gecko: f.gecko},
	}
	f.cache[chain.Name] = clients
	return clients, nil
}
