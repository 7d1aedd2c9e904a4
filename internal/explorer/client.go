package explorer

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dex-trade-bot-go/internal/chains"
	"dex-trade-bot-go/internal/config"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ClientInterface defines the interface for an etherscan-family explorer
// client scoped to one chain.
type ClientInterface interface {
	NativeBalance(ctx context.Context, address string) (float64, error)
	TokenBalance(ctx context.Context, address string, token chains.Token) (float64, error)
	TxBlockNumber(ctx context.Context, txHash string) (uint64, error)
	BlockTime(ctx context.Context, number uint64) (time.Time, error)
}

// Client reads account balances and transaction metadata from the chain's
// block explorer API. It implements ClientInterface.
type Client struct {
	client  *resty.Client
	apiKey  string
	logger  *zap.Logger
	limiter *rate.Limiter
}

// ensure Client implements the interface
var _ ClientInterface = (*Client)(nil)

// NewClient creates an explorer client for the given chain. The API key is
// looked up from the bootstrap config by the chain's key name.
func NewClient(chain chains.Chain, cfg *config.Explorer, logger *zap.Logger) *Client {
	client := resty.New().SetBaseURL(chain.ExplorerAPI)
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &Client{
		client:  client,
		apiKey:  cfg.APIKeys[chain.APIKeyName],
		logger:  logger,
		limiter: limiter,
	}
}

// envelope is the etherscan response wrapper for module=account calls.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

// proxyEnvelope wraps module=proxy calls, which return raw JSON-RPC results.
type proxyEnvelope struct {
	Result map[string]any `json:"result"`
}

// doRequest executes a GET with rate limiting and bounded retry on
// throttling and server errors.
func (c *Client) doRequest(ctx context.Context, req *resty.Request, path string) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		resp, err = req.Execute(http.MethodGet, path)
		if err == nil && !resp.IsError() {
			return resp, nil
		}

		shouldRetry := resp == nil || resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= 500
		if !shouldRetry {
			return nil, fmt.Errorf("explorer request failed with status %s: %s", resp.Status(), resp.String())
		}

		retryAfter := time.Duration(math.Pow(2, float64(i))) * time.Second
		c.logger.Warn("Explorer request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("explorer request failed after %d attempts: %w", maxRetries, err)
}

// NativeBalance returns the native-currency balance of an address in whole
// units (wei converted to ether).
func (c *Client) NativeBalance(ctx context.Context, address string) (float64, error) {
	var result envelope
	req := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"module":  "account",
			"action":  "balance",
			"address": address,
			"tag":     "latest",
			"apikey":  c.apiKey,
		}).
		SetResult(&result)

	if _, err := c.doRequest(ctx, req, "/api"); err != nil {
		return 0, fmt.Errorf("failed to get native balance: %w", err)
	}

	return parseUnits(result.Result, 18)
}

// TokenBalance returns the ERC-20 balance of an address, normalized by the
// token's decimals.
func (c *Client) TokenBalance(ctx context.Context, address string, token chains.Token) (float64, error) {
	var result envelope
	req := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"module":          "account",
			"action":          "tokenbalance",
			"contractaddress": token.Address,
			"address":         address,
			"tag":             "latest",
			"apikey":          c.apiKey,
		}).
		SetResult(&result)

	if _, err := c.doRequest(ctx, req, "/api"); err != nil {
		return 0, fmt.Errorf("failed to get %s balance: %w", token.Symbol, err)
	}

	return parseUnits(result.Result, token.Decimals)
}

// TxBlockNumber returns the block number a transaction was mined in.
func (c *Client) TxBlockNumber(ctx context.Context, txHash string) (uint64, error) {
	var result proxyEnvelope
	req := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"module": "proxy",
			"action": "eth_getTransactionByHash",
			"txhash": txHash,
			"apikey": c.apiKey,
		}).
		SetResult(&result)

	if _, err := c.doRequest(ctx, req, "/api"); err != nil {
		return 0, fmt.Errorf("failed to get transaction %s: %w", txHash, err)
	}

	blockHex, _ := result.Result["blockNumber"].(string)
	if blockHex == "" {
		return 0, fmt.Errorf("transaction %s has no block number", txHash)
	}

	number, err := strconv.ParseUint(strings.TrimPrefix(blockHex, "0x"), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse block number %q: %w", blockHex, err)
	}
	return number, nil
}

// BlockTime returns the timestamp of a block.
func (c *Client) BlockTime(ctx context.Context, number uint64) (time.Time, error) {
	var result proxyEnvelope
	req := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"module":  "proxy",
			"action":  "eth_getBlockByNumber",
			"tag":     fmt.Sprintf("0x%x", number),
			"boolean": "false",
			"apikey":  c.apiKey,
		}).
		SetResult(&result)

	if _, err := c.doRequest(ctx, req, "/api"); err != nil {
		return time.Time{}, fmt.Errorf("failed to get block %d: %w", number, err)
	}

	tsHex, _ := result.Result["timestamp"].(string)
	if tsHex == "" {
		return time.Time{}, fmt.Errorf("block %d has no timestamp", number)
	}

	ts, err := strconv.ParseInt(strings.TrimPrefix(tsHex, "0x"), 16, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse block timestamp %q: %w", tsHex, err)
	}
	return time.Unix(ts, 0).UTC(), nil
}

// parseUnits converts a raw integer balance string to a float normalized by
// the given number of decimals.
func parseUnits(raw string, decimals int) (float64, error) {
	units, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return 0, fmt.Errorf("invalid balance %q", raw)
	}

	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	value, _ := new(big.Float).Quo(new(big.Float).SetInt(units), scale).Float64()
	return value, nil
}
