package router

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dex-trade-bot-go/internal/chains"
	"dex-trade-bot-go/internal/config"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrConfirmTimeout is returned when a submitted transaction is not mined
// within the configured confirmation window. The transaction may still
// confirm later; callers must not treat this as a guaranteed revert.
var ErrConfirmTimeout = errors.New("transaction confirmation timed out")

const receiptPollInterval = 5 * time.Second

// Route is an executable swap plan between two tokens for a given amount.
type Route struct {
	TokenIn     chains.Token
	TokenOut    chains.Token
	AmountIn    float64
	AmountUnits *big.Int
	ExpectedOut float64
	Slippage    float64
}

// Execution is the on-chain outcome of a route.
type Execution struct {
	TxHash string
	// GasUsed is the total fee in native-currency units
	// (gasUsed * effectiveGasPrice).
	GasUsed float64
}

// Engine defines the two route operations the order executor consumes.
type Engine interface {
	GenerateRoute(ctx context.Context, tokenIn, tokenOut chains.Token, amount, slippage float64) (*Route, error)
	ExecuteRoute(ctx context.Context, route *Route) (*Execution, error)
}

// ethBackend is the slice of ethclient the engine needs. Tests substitute a
// fake; production uses *ethclient.Client.
type ethBackend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

var _ ethBackend = (*ethclient.Client)(nil)

// AggregatorEngine quotes swaps through a 1inch-style aggregator API and
// submits the returned calldata through an Ethereum node. It implements
// Engine.
type AggregatorEngine struct {
	client         *resty.Client
	backend        ethBackend
	chain          chains.Chain
	wallet         config.Wallet
	confirmTimeout time.Duration
	logger         *zap.Logger
}

var _ Engine = (*AggregatorEngine)(nil)

// NewAggregatorEngine creates a route engine for the given chain, dialing
// the chain's RPC endpoint for submission.
func NewAggregatorEngine(ctx context.Context, chain chains.Chain, cfg *config.Config, logger *zap.Logger) (*AggregatorEngine, error) {
	backend, err := ethclient.DialContext(ctx, chain.RPC)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s rpc: %w", chain.Name, err)
	}

	client := resty.New().
		SetBaseURL(fmt.Sprintf("%s/%d", cfg.Aggregator.BaseURL, chain.ID))
	if cfg.Aggregator.APIKey != "" {
		client.SetAuthToken(cfg.Aggregator.APIKey)
	}

	return &AggregatorEngine{
		client:         client,
		backend:        backend,
		chain:          chain,
		wallet:         cfg.Wallet,
		confirmTimeout: time.Duration(cfg.Trading.ConfirmTimeout) * time.Second,
		logger:         logger,
	}, nil
}

type quoteResponse struct {
	DstAmount string `json:"dstAmount"`
}

// GenerateRoute asks the aggregator for a quote. A nil route with an error
// means no executable plan exists for the pair and amount.
func (e *AggregatorEngine) GenerateRoute(ctx context.Context, tokenIn, tokenOut chains.Token, amount, slippage float64) (*Route, error) {
	units := toUnits(amount, tokenIn.Decimals)

	var quote quoteResponse
	resp, err := e.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"src":    tokenIn.Address,
			"dst":    tokenOut.Address,
			"amount": units.String(),
		}).
		SetResult(&quote).
		Execute(http.MethodGet, "/quote")
	if err != nil {
		return nil, fmt.Errorf("quote request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("quote request failed with status %s: %s", resp.Status(), resp.String())
	}

	expectedOut, err := fromUnits(quote.DstAmount, tokenOut.Decimals)
	if err != nil {
		return nil, fmt.Errorf("invalid quote amount: %w", err)
	}

	e.logger.Debug("Route generated",
		zap.String("token_in", tokenIn.Symbol),
		zap.String("token_out", tokenOut.Symbol),
		zap.Float64("amount_in", amount),
		zap.Float64("expected_out", expectedOut),
	)

	return &Route{
		TokenIn:     tokenIn,
		TokenOut:    tokenOut,
		AmountIn:    amount,
		AmountUnits: units,
		ExpectedOut: expectedOut,
		Slippage:    slippage,
	}, nil
}

type swapResponse struct {
	Tx struct {
		To       string `json:"to"`
		Data     string `json:"data"`
		Value    string `json:"value"`
		Gas      uint64 `json:"gas"`
		GasPrice string `json:"gasPrice"`
	} `json:"tx"`
}

// ExecuteRoute fetches the swap calldata for the route, signs it with the
// trading wallet, submits it, and waits for the receipt. Submission is
// irreversible; a confirmation timeout does not mean the swap failed.
func (e *AggregatorEngine) ExecuteRoute(ctx context.Context, route *Route) (*Execution, error) {
	var swap swapResponse
	resp, err := e.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"src":      route.TokenIn.Address,
			"dst":      route.TokenOut.Address,
			"amount":   route.AmountUnits.String(),
			"from":     e.wallet.Address,
			"slippage": strconv.FormatFloat(route.Slippage, 'f', -1, 64),
		}).
		SetResult(&swap).
		Execute(http.MethodGet, "/swap")
	if err != nil {
		return nil, fmt.Errorf("swap request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("swap request failed with status %s: %s", resp.Status(), resp.String())
	}

	key, err := parsePrivateKey(e.wallet.PrivateKey)
	if err != nil {
		return nil, err
	}

	from := common.HexToAddress(e.wallet.Address)
	nonce, err := e.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, ok := new(big.Int).SetString(swap.Tx.GasPrice, 10)
	if !ok || gasPrice.Sign() == 0 {
		gasPrice, err = e.backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get gas price: %w", err)
		}
	}

	value, ok := new(big.Int).SetString(swap.Tx.Value, 10)
	if !ok {
		value = big.NewInt(0)
	}

	to := common.HexToAddress(swap.Tx.To)
	tx := types.NewTransaction(nonce, to, value, swap.Tx.Gas, gasPrice, common.FromHex(swap.Tx.Data))

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(big.NewInt(e.chain.ID)), key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := e.backend.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}

	hash := signed.Hash()
	e.logger.Info("Swap submitted",
		zap.String("tx", hash.Hex()),
		zap.String("token_in", route.TokenIn.Symbol),
		zap.String("token_out", route.TokenOut.Symbol),
	)

	receipt, err := e.waitMined(ctx, hash)
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("transaction %s reverted", hash.Hex())
	}

	return &Execution{
		TxHash:  hash.Hex(),
		GasUsed: gasCost(receipt, gasPrice),
	}, nil
}

// waitMined polls for the transaction receipt with a hard deadline. An
// unmined transaction surfaces as ErrConfirmTimeout so the executor can
// file it under its own category.
func (e *AggregatorEngine) waitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, e.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := e.backend.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s", ErrConfirmTimeout, hash.Hex())
		case <-ticker.C:
		}
	}
}

func gasCost(receipt *types.Receipt, fallbackGasPrice *big.Int) float64 {
	price := receipt.EffectiveGasPrice
	if price == nil {
		price = fallbackGasPrice
	}

	wei := new(big.Int).Mul(new(big.Int).SetUint64(receipt.GasUsed), price)
	cost, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e18)).Float64()
	return cost
}

func parsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	hexKey = strings.TrimSpace(strings.TrimPrefix(hexKey, "0x"))
	if hexKey == "" {
		return nil, fmt.Errorf("wallet private key missing")
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid wallet private key: %w", err)
	}
	return key, nil
}

// toUnits converts a human amount to raw token units.
func toUnits(amount float64, decimals int) *big.Int {
	scaled := new(big.Float).Mul(big.NewFloat(amount), big.NewFloat(math.Pow10(decimals)))
	units, _ := scaled.Int(nil)
	return units
}

// fromUnits converts a raw token unit string to a human amount.
func fromUnits(raw string, decimals int) (float64, error) {
	units, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return 0, fmt.Errorf("invalid unit amount %q", raw)
	}
	value, _ := new(big.Float).Quo(new(big.Float).SetInt(units), big.NewFloat(math.Pow10(decimals))).Float64()
	return value, nil
}
