package trader

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"dex-trade-bot-go/internal/chains"
	"dex-trade-bot-go/internal/config"
	"dex-trade-bot-go/internal/models"
	"dex-trade-bot-go/internal/pricing"
	"dex-trade-bot-go/internal/store"
	"go.uber.org/zap"
)

// SignalRunner is the asynchronous half of the signal intake.
type SignalRunner interface {
	HandleSignal(ctx context.Context, signalType, price string)
}

// APIServer provides the HTTP control surface: signal intake, operator
// config, status, and the trade/event read endpoints the dashboard polls.
type APIServer struct {
	server *http.Server
	logger *zap.Logger
	cfg    *config.Config
	store  store.Store
	runner SignalRunner

	clients ClientFactory
	gecko   pricing.GeckoInterface
}

// NewAPIServer creates a new APIServer.
func NewAPIServer(cfg *config.Config, st store.Store, runner SignalRunner, clients ClientFactory, gecko pricing.GeckoInterface, logger *zap.Logger) *APIServer {
	s := &APIServer{
		logger:  logger.Named("api-server"),
		cfg:     cfg,
		store:   st,
		runner:  runner,
		clients: clients,
		gecko:   gecko,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/trade", s.tradeHandler)
	mux.HandleFunc("/api/chain", s.chainHandler)
	mux.HandleFunc("/api/config", s.configHandler)
	mux.HandleFunc("/api/status", s.statusHandler)
	mux.HandleFunc("/api/trades", s.tradesHandler)
	mux.HandleFunc("/api/logs", s.logsHandler)
	mux.HandleFunc("/api/assets", s.assetsHandler)
	mux.HandleFunc("/health", s.healthHandler)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: mux,
	}
	return s
}

// Start runs the HTTP server in a new goroutine.
func (s *APIServer) Start() {
	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Error("API server failed", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *APIServer) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")
	return s.server.Shutdown(ctx)
}

func (s *APIServer) writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to write response", zap.Error(err))
	}
}

type tradeSignal struct {
	Type  string `json:"type"`
	Price string `json:"price"`
}

// tradeHandler is the signal intake. It acknowledges immediately and runs
// the gates and order asynchronously; callers learn the outcome from the
// trade history and event log, never from this response.
func (s *APIServer) tradeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var signal tradeSignal
	if err := json.NewDecoder(r.Body).Decode(&signal); err != nil {
		http.Error(w, "invalid signal payload", http.StatusBadRequest)
		return
	}

	s.logger.Info("Received trade signal",
		zap.String("type", signal.Type),
		zap.String("price", signal.Price))

	go s.runner.HandleSignal(context.Background(), signal.Type, signal.Price)

	s.writeJSON(w, map[string]any{"success": true})
}

// chainRow is one registry entry for the control panel's chain picker.
type chainRow struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	ID          int64  `json:"id"`
	Currency    string `json:"currency"`
}

// chainHandler returns the supported chain registry plus the chain the bot
// currently trades on.
func (s *APIServer) chainHandler(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.Settings()
	if err != nil {
		s.logger.Error("Failed to retrieve settings", zap.Error(err))
		http.Error(w, "failed to retrieve active chain", http.StatusInternalServerError)
		return
	}

	names := chains.Names()
	sort.Strings(names)

	rows := make([]chainRow, 0, len(names))
	for _, name := range names {
		chain, err := chains.Resolve(name)
		if err != nil {
			continue
		}
		rows = append(rows, chainRow{
			Name:        chain.Name,
			DisplayName: chain.DisplayName,
			ID:          chain.ID,
			Currency:    chain.Currency,
		})
	}

	s.writeJSON(w, map[string]any{
		"chains":      rows,
		"activeChain": settings.ActiveChain,
	})
}

type configUpdate struct {
	Config *models.Settings `json:"config"`
	Log    *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"log"`
}

// configHandler reads or replaces the operator settings. A write may carry
// an optional event description, appended to the event log to audit
// operator-driven changes.
func (s *APIServer) configHandler(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.Settings()
	if err != nil {
		s.logger.Error("Failed to retrieve settings", zap.Error(err))
		http.Error(w, "failed to retrieve config", http.StatusInternalServerError)
		return
	}

	if r.Method == http.MethodGet {
		s.writeJSON(w, map[string]any{"success": true, "config": settings})
		return
	}

	var update configUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil || update.Config == nil {
		http.Error(w, "invalid config payload", http.StatusBadRequest)
		return
	}

	if _, err := chains.Resolve(update.Config.ActiveChain); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Full replacement onto the existing singleton row.
	update.Config.ID = settings.ID
	update.Config.CreatedAt = settings.CreatedAt
	if err := s.store.SaveSettings(update.Config); err != nil {
		s.logger.Error("Config update failed", zap.Error(err))
		s.writeJSON(w, map[string]any{"success": false, "config": settings})
		return
	}

	if update.Log != nil {
		event := &models.Event{
			Type:    update.Log.Type,
			Message: update.Log.Message,
			Chain:   update.Config.ActiveChain,
			Time:    time.Now(),
		}
		if err := s.store.AppendEvent(event); err != nil {
			s.logger.Error("Failed to append config event", zap.Error(err))
		}
	}

	s.writeJSON(w, map[string]any{"success": true, "config": update.Config})
}

type statusUpdate struct {
	Status bool `json:"status"`
}

// statusHandler reads or sets the bot-enabled flag. Writes are audited as
// BOT_STATUS events.
func (s *APIServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.Settings()
	if err != nil {
		s.logger.Error("Failed to retrieve status", zap.Error(err))
		http.Error(w, "failed to retrieve status", http.StatusInternalServerError)
		return
	}

	if r.Method == http.MethodGet {
		s.writeJSON(w, map[string]any{"success": true, "status": settings.Status})
		return
	}

	var update statusUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "invalid status payload", http.StatusBadRequest)
		return
	}

	settings.Status = update.Status
	if err := s.store.SaveSettings(settings); err != nil {
		s.logger.Error("Status update failed", zap.Error(err))
		s.writeJSON(w, map[string]any{"success": false, "status": settings.Status})
		return
	}

	message := "Bot stopped via control panel"
	if update.Status {
		message = "Bot started via control panel"
	}
	event := &models.Event{
		Type:    models.EventBotStatus,
		Message: message,
		Chain:   settings.ActiveChain,
		Time:    time.Now(),
	}
	if err := s.store.AppendEvent(event); err != nil {
		s.logger.Error("Failed to append status event", zap.Error(err))
	}
	s.logger.Info(message)

	s.writeJSON(w, map[string]any{"success": true, "status": settings.Status})
}

// tradesHandler returns the full trade history plus aggregate statistics.
func (s *APIServer) tradesHandler(w http.ResponseWriter, r *http.Request) {
	trades, err := s.store.Trades()
	if err != nil {
		s.logger.Error("Failed to retrieve trades", zap.Error(err))
		http.Error(w, "failed to retrieve trades", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, map[string]any{
		"trades": trades,
		"stats":  ComputeTradeStats(trades),
	})
}

type logsAction struct {
	Action string `json:"action"`
}

// logsHandler returns the event log plus per-category statistics, and
// supports the destructive clear-all action.
func (s *APIServer) logsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var action logsAction
		if err := json.NewDecoder(r.Body).Decode(&action); err != nil || action.Action != "delete" {
			http.Error(w, "invalid logs action", http.StatusBadRequest)
			return
		}
		if err := s.store.ClearEvents(); err != nil {
			s.logger.Error("Failed to clear events", zap.Error(err))
			http.Error(w, "failed to clear logs", http.StatusInternalServerError)
			return
		}
		s.logger.Info("Event log cleared")
		s.writeJSON(w, map[string]any{"success": true})
		return
	}

	events, err := s.store.Events()
	if err != nil {
		s.logger.Error("Failed to retrieve events", zap.Error(err))
		http.Error(w, "failed to retrieve logs", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, map[string]any{
		"logs":  events,
		"stats": ComputeEventStats(events),
	})
}

// asset is one dashboard balance row.
type asset struct {
	Name    string  `json:"name"`
	Key     string  `json:"key"`
	Symbol  string  `json:"symbol"`
	Chain   string  `json:"chain"`
	Balance float64 `json:"balance"`
	Price   float64 `json:"price"`
}

// assetsHandler returns the trading account's holdings on the active
// chain: native currency plus both configured tokens, with spot prices.
// Price lookups are best effort; a zero price is rendered, not an error.
func (s *APIServer) assetsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	settings, err := s.store.Settings()
	if err != nil {
		http.Error(w, "failed to retrieve settings", http.StatusInternalServerError)
		return
	}
	chain, err := chains.Resolve(settings.ActiveChain)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	clients, err := s.clients.For(ctx, chain)
	if err != nil {
		s.logger.Error("Failed to build chain clients", zap.Error(err))
		http.Error(w, "failed to reach chain", http.StatusInternalServerError)
		return
	}

	address := s.cfg.Wallet.Address
	assets := make([]asset, 0, 3)

	if balance, err := clients.Balances.NativeBalance(ctx, address); err == nil {
		price, _ := s.gecko.SpotPrice(ctx, chain.CoinID)
		assets = append(assets, asset{
			Name:    chain.Currency,
			Key:     chain.Name + "-native",
			Symbol:  chain.Currency,
			Chain:   chain.DisplayName,
			Balance: balance,
			Price:   price,
		})
	} else {
		s.logger.Error("Failed to read native balance", zap.Error(err))
	}

	for _, symbol := range []string{settings.Stablecoin, settings.Token} {
		token, err := chain.Token(symbol)
		if err != nil {
			s.logger.Error("Unknown token in settings", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		balance, err := clients.Balances.TokenBalance(ctx, address, token)
		if err != nil {
			s.logger.Error("Failed to read token balance", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		price, _ := s.gecko.SpotPrice(ctx, token.CoinID)
		assets = append(assets, asset{
			Name:    token.Name,
			Key:     chain.Name + "-" + token.Symbol,
			Symbol:  token.Symbol,
			Chain:   chain.DisplayName,
			Balance: balance,
			Price:   price,
		})
	}

	s.writeJSON(w, map[string]any{"assets": assets})
}

func (s *APIServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}
