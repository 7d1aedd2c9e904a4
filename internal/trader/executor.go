package trader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"dex-trade-bot-go/internal/alerts"
	"dex-trade-bot-go/internal/chains"
	"dex-trade-bot-go/internal/config"
	"dex-trade-bot-go/internal/explorer"
	"dex-trade-bot-go/internal/models"
	"dex-trade-bot-go/internal/router"
	"dex-trade-bot-go/internal/store"
	"go.uber.org/zap"
)

// Signal types accepted by the intake surface.
const (
	SignalBuy  = "BUY"
	SignalSell = "SELL"
)

const timeLayout = "2006-01-02 15:04:05"

// Clients bundles the per-chain collaborators used by one order attempt.
type Clients struct {
	Balances explorer.ClientInterface
	Router   router.Engine
	Pricer   TxPricer
}

// ClientFactory builds the per-chain collaborators. The executor asks for
// them on every order so a chain switch in the settings takes effect on the
// next signal.
type ClientFactory interface {
	For(ctx context.Context, chain chains.Chain) (*Clients, error)
}

// Executor orchestrates buy and sell orders: preconditions against the
// position ledger, route generation and execution, P&L computation, and
// persistence. Buy and Sell never return an error; every failure is caught,
// recorded in the event log, and alerted best-effort.
type Executor struct {
	// mu serializes entire order attempts, precondition check through
	// post-execution persistence. Without it two concurrent buy signals
	// could both pass the open-position check before either commits.
	mu sync.Mutex

	logger  *zap.Logger
	cfg     *config.Config
	store   store.Store
	clients ClientFactory
	alerts  alerts.Dispatcher
}

// NewExecutor creates an order executor.
func NewExecutor(logger *zap.Logger, cfg *config.Config, st store.Store, clients ClientFactory, dispatcher alerts.Dispatcher) *Executor {
	return &Executor{
		logger:  logger,
		cfg:     cfg,
		store:   st,
		clients: clients,
		alerts:  dispatcher,
	}
}

// orderEnv is the fresh per-order context: operator settings, resolved
// chain and tokens, and the chain's collaborators.
type orderEnv struct {
	settings *models.Settings
	chain    chains.Chain
	stable   chains.Token
	token    chains.Token
	clients  *Clients
	pnl      *PnLEngine
}

// orderEnv reloads the operator settings and resolves everything the order
// needs. Settings are never cached across orders; control-panel edits must
// apply on the next signal.
func (e *Executor) orderEnv(ctx context.Context) (*orderEnv, error) {
	settings, err := e.store.Settings()
	if err != nil {
		return nil, err
	}

	chain, err := chains.Resolve(settings.ActiveChain)
	if err != nil {
		return nil, err
	}

	stable, err := chain.Token(settings.Stablecoin)
	if err != nil {
		return nil, err
	}

	token, err := chain.Token(settings.Token)
	if err != nil {
		return nil, err
	}

	clients, err := e.clients.For(ctx, chain)
	if err != nil {
		return nil, err
	}

	return &orderEnv{
		settings: settings,
		chain:    chain,
		stable:   stable,
		token:    token,
		clients:  clients,
		pnl:      NewPnLEngine(clients.Pricer, e.logger),
	}, nil
}

// HandleSignal runs the gate chain and dispatches the order. It is the
// asynchronous half of the signal intake: the HTTP handler has already
// acknowledged the caller, and nothing here propagates back.
func (e *Executor) HandleSignal(ctx context.Context, signalType, price string) {
	env, err := e.orderEnv(ctx)
	if err != nil {
		e.logger.Error("Failed to prepare order", zap.Error(err))
		return
	}

	if !e.hasGasMoney(ctx, env) {
		e.logger.Error("Insufficient gas funds")
		e.notify(env, "Insufficient gas funds")
		return
	}

	if !env.settings.Status {
		// Routine halt: drop silently so the event log stays useful.
		e.logger.Info("Bot is disabled, dropping signal", zap.String("type", signalType))
		return
	}

	switch signalType {
	case SignalBuy:
		e.logger.Info("Processing buy order...", zap.String("price", price))
		e.Buy(ctx, price)
	case SignalSell:
		e.logger.Info("Processing sell order...", zap.String("price", price))
		e.Sell(ctx, price)
	default:
		e.logger.Warn("Unknown signal type", zap.String("type", signalType))
	}
}

// hasGasMoney reports whether the trading account holds enough native
// currency to pay for a swap on the active chain. Read failures count as
// insufficient; an order that cannot verify gas must not run.
func (e *Executor) hasGasMoney(ctx context.Context, env *orderEnv) bool {
	balance, err := env.clients.Balances.NativeBalance(ctx, e.cfg.Wallet.Address)
	if err != nil {
		e.logger.Error("Failed to read native balance", zap.Error(err))
		return false
	}
	return balance >= e.cfg.Trading.MinGasBalance
}

// Buy opens a position by swapping the configured fraction of the
// stablecoin balance into the speculative token.
func (e *Executor) Buy(ctx context.Context, price string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	env, err := e.orderEnv(ctx)
	if err != nil {
		e.logger.Error("Failed to prepare buy order", zap.Error(err))
		return
	}

	position, err := e.store.Position()
	if err != nil {
		e.logger.Error("Failed to load position", zap.Error(err))
		return
	}

	if position.Open {
		e.logger.Error("Position already open, skipping buy order")
		e.trackEvent(models.EventOrderConflict, "Buy order received, but a position is already open", env.chain.DisplayName)
		return
	}

	stableBalance, err := env.clients.Balances.TokenBalance(ctx, e.cfg.Wallet.Address, env.stable)
	if err != nil {
		e.orderFailed(env, models.EventBuyFailed, "Buy order failed", err)
		return
	}

	if stableBalance <= env.settings.Min {
		e.logger.Error("Insufficient stablecoin balance, skipping buy order",
			zap.Float64("balance", stableBalance),
			zap.Float64("min", env.settings.Min))
		return
	}

	tradeAmount := stableBalance * env.settings.Size
	if env.settings.Max {
		tradeAmount = stableBalance
	}

	route, err := env.clients.Router.GenerateRoute(ctx, env.stable, env.token, tradeAmount, env.settings.Slippage)
	if err != nil {
		e.logger.Error("Trade cancelled, no route available", zap.Error(err))
		e.trackEvent(models.EventRouteFailed, err.Error(), env.chain.DisplayName)
		return
	}

	exec, err := env.clients.Router.ExecuteRoute(ctx, route)
	if err != nil {
		e.orderFailed(env, models.EventBuyFailed, "Buy order failed", err)
		return
	}

	stableAfter, tokenAfter, err := e.readBalances(ctx, env)
	if err != nil {
		e.orderFailed(env, models.EventBuyFailed, "Buy order failed", err)
		return
	}

	costBasis := env.pnl.CostBasis(ctx, env.chain, exec.TxHash, exec.GasUsed, tradeAmount)

	key := store.NewKey()
	now := time.Now()

	position.Open = tokenAfter > 0
	position.StablecoinBalance = stableAfter
	position.TokenBalance = tokenAfter
	position.LastTrade = fmt.Sprintf("Position opened at %s", price)
	position.LastTradeTime = "[" + now.Format(timeLayout) + "]"
	position.LastTradePrice = price
	position.OpenTradeKey = key

	if err := e.store.SavePosition(position); err != nil {
		e.logger.Error("Failed to save position after buy", zap.Error(err))
	}

	trade := &models.Trade{
		Key:       key,
		Type:      models.TradeTypeBuy,
		Price:     price,
		Date:      now,
		In:        fmt.Sprintf("%.5f %s", tokenAfter, env.token.Symbol),
		Out:       fmt.Sprintf("%.2f %s", tradeAmount, env.stable.Symbol),
		AmountOut: tokenAfter,
		GasUsed:   exec.GasUsed,
		CostBasis: &costBasis,
		Link:      env.chain.TxLink(exec.TxHash),
		Chain:     env.chain.DisplayName,
	}
	if err := e.store.AppendTrade(trade); err != nil {
		e.logger.Error("Failed to append buy trade", zap.Error(err))
	}

	e.notify(env, fmt.Sprintf("Position opened at %s (%.5f %s)", price, tokenAfter, env.token.Symbol))
	e.logger.Info("Buy order executed",
		zap.String("tx", exec.TxHash),
		zap.Float64("amount", tradeAmount),
		zap.Float64("cost_basis", costBasis))
}

// Sell closes the position by liquidating the entire token balance back
// into the stablecoin.
func (e *Executor) Sell(ctx context.Context, price string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	env, err := e.orderEnv(ctx)
	if err != nil {
		e.logger.Error("Failed to prepare sell order", zap.Error(err))
		return
	}

	position, err := e.store.Position()
	if err != nil {
		e.logger.Error("Failed to load position", zap.Error(err))
		return
	}

	if !position.Open {
		e.logger.Error("No position currently open, skipping sell order")
		e.trackEvent(models.EventOrderConflict, "Sell order received, but no position is currently open", env.chain.DisplayName)
		return
	}

	// Both balances are needed up front: the proceeds are reconstructed
	// afterwards as the stablecoin delta.
	stableBefore, tokenBalance, err := e.readBalances(ctx, env)
	if err != nil {
		e.orderFailed(env, models.EventSellFailed, "Sell order failed", err)
		return
	}

	if tokenBalance <= 0 {
		e.logger.Error("Insufficient token balance, skipping sell order",
			zap.String("token", env.token.Symbol))
		return
	}

	route, err := env.clients.Router.GenerateRoute(ctx, env.token, env.stable, tokenBalance, env.settings.Slippage)
	if err != nil {
		e.logger.Error("Trade cancelled, no route available", zap.Error(err))
		e.trackEvent(models.EventRouteFailed, err.Error(), env.chain.DisplayName)
		return
	}

	exec, err := env.clients.Router.ExecuteRoute(ctx, route)
	if err != nil {
		e.orderFailed(env, models.EventSellFailed, "Sell order failed", err)
		return
	}

	stableAfter, tokenAfter, err := e.readBalances(ctx, env)
	if err != nil {
		e.orderFailed(env, models.EventSellFailed, "Sell order failed", err)
		return
	}

	amountIn := stableAfter - stableBefore
	profit := env.pnl.Profit(ctx, env.chain, exec.TxHash, exec.GasUsed, amountIn, e.openingTrade(position))

	now := time.Now()

	position.Open = tokenAfter > 0
	position.StablecoinBalance = stableAfter
	position.TokenBalance = tokenAfter
	position.LastTrade = fmt.Sprintf("Position closed at %s", price)
	position.LastTradeTime = "[" + now.Format(timeLayout) + "]"
	position.LastTradePrice = price
	if !position.Open {
		position.OpenTradeKey = ""
	}
	if profit != nil {
		position.PNL += *profit
	}

	if err := e.store.SavePosition(position); err != nil {
		e.logger.Error("Failed to save position after sell", zap.Error(err))
	}

	trade := &models.Trade{
		Key:     store.NewKey(),
		Type:    models.TradeTypeSell,
		Price:   price,
		Date:    now,
		In:      fmt.Sprintf("%.2f %s", amountIn, env.stable.Symbol),
		Out:     fmt.Sprintf("%.5f %s", tokenBalance, env.token.Symbol),
		GasUsed: exec.GasUsed,
		Profit:  profit,
		Link:    env.chain.TxLink(exec.TxHash),
		Chain:   env.chain.DisplayName,
	}
	if err := e.store.AppendTrade(trade); err != nil {
		e.logger.Error("Failed to append sell trade", zap.Error(err))
	}

	switch {
	case profit == nil:
		e.notify(env, fmt.Sprintf("Position closed at %s", price))
	case *profit > 0:
		e.notify(env, fmt.Sprintf("Position closed at %s for a gain of $%.2f (total P&L: $%.2f)", price, *profit, position.PNL))
	default:
		e.notify(env, fmt.Sprintf("Position closed at %s for a loss of $%.2f (total P&L: $%.2f)", price, *profit, position.PNL))
	}

	e.logger.Info("Sell order executed",
		zap.String("tx", exec.TxHash),
		zap.Float64("proceeds", amountIn))
}

// openingTrade resolves the trade that opened the current position. The
// explicit key on the ledger is preferred; records written before the key
// existed fall back to the newest history entry.
func (e *Executor) openingTrade(position *models.Position) *models.Trade {
	if position.OpenTradeKey != "" {
		trade, err := e.store.TradeByKey(position.OpenTradeKey)
		if err == nil {
			return trade
		}
		if !errors.Is(err, store.ErrNotFound) {
			e.logger.Error("Failed to load opening trade", zap.Error(err))
			return nil
		}
	}

	trade, err := e.store.LastTrade()
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			e.logger.Error("Failed to load last trade", zap.Error(err))
		}
		return nil
	}
	return trade
}

// readBalances reads both configured token balances for the trading account.
func (e *Executor) readBalances(ctx context.Context, env *orderEnv) (stable, token float64, err error) {
	stable, err = env.clients.Balances.TokenBalance(ctx, e.cfg.Wallet.Address, env.stable)
	if err != nil {
		return 0, 0, err
	}
	token, err = env.clients.Balances.TokenBalance(ctx, e.cfg.Wallet.Address, env.token)
	if err != nil {
		return 0, 0, err
	}
	return stable, token, nil
}

// orderFailed converts an execution failure into an alert plus an event log
// entry. Confirmation timeouts get their own category so the dashboard can
// distinguish "never mined in time" from an outright execution error.
func (e *Executor) orderFailed(env *orderEnv, eventType, alertMsg string, err error) {
	e.logger.Error(alertMsg, zap.Error(err))
	e.notify(env, alertMsg)

	if errors.Is(err, router.ErrConfirmTimeout) {
		eventType = models.EventTimeout
	}
	e.trackEvent(eventType, err.Error(), env.chain.DisplayName)
}

// trackEvent appends an entry to the event log.
func (e *Executor) trackEvent(eventType, message, chain string) {
	event := &models.Event{
		Type:    eventType,
		Message: message,
		Chain:   chain,
		Time:    time.Now(),
	}
	if err := e.store.AppendEvent(event); err != nil {
		e.logger.Error("Failed to append event", zap.Error(err))
	}
}

// notify sends a best-effort alert unless the operator disabled alerts.
func (e *Executor) notify(env *orderEnv, msg string) {
	if env == nil || !env.settings.AlertsEnabled {
		return
	}
	e.alerts.Send(msg)
}
