package explorer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dex-trade-bot-go/internal/chains"
	"dex-trade-bot-go/internal/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	chain := chains.Chain{Name: "testchain", ExplorerAPI: server.URL, APIKeyName: "test"}
	cfg := &config.Explorer{
		APIKeys:        map[string]string{"test": "test-key"},
		RateLimit:      100,
		RateLimitBurst: 10,
	}
	return NewClient(chain, cfg, zap.NewNop())
}

func TestNativeBalance(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "account", r.URL.Query().Get("module"))
		assert.Equal(t, "balance", r.URL.Query().Get("action"))
		assert.Equal(t, "0xWallet", r.URL.Query().Get("address"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))

		// 1.5 ETH in wei.
		json.NewEncoder(w).Encode(map[string]string{
			"status": "1", "message": "OK", "result": "1500000000000000000",
		})
	})

	balance, err := client.NativeBalance(context.Background(), "0xWallet")
	assert.NoError(t, err)
	assert.InDelta(t, 1.5, balance, 1e-9)
}

func TestTokenBalance(t *testing.T) {
	token := chains.Token{Symbol: "USDC", Address: "0xToken", Decimals: 6}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tokenbalance", r.URL.Query().Get("action"))
		assert.Equal(t, "0xToken", r.URL.Query().Get("contractaddress"))

		json.NewEncoder(w).Encode(map[string]string{
			"status": "1", "message": "OK", "result": "1000000000",
		})
	})

	balance, err := client.TokenBalance(context.Background(), "0xWallet", token)
	assert.NoError(t, err)
	assert.InDelta(t, 1000, balance, 1e-9)
}

func TestTokenBalance_InvalidResult(t *testing.T) {
	token := chains.Token{Symbol: "USDC", Address: "0xToken", Decimals: 6}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"status": "0", "message": "NOTOK", "result": "Max rate limit reached",
		})
	})

	_, err := client.TokenBalance(context.Background(), "0xWallet", token)
	assert.Error(t, err)
}

func TestTxBlockNumber(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "proxy", r.URL.Query().Get("module"))
		assert.Equal(t, "eth_getTransactionByHash", r.URL.Query().Get("action"))
		assert.Equal(t, "0xdead", r.URL.Query().Get("txhash"))

		json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{"blockNumber": "0x2a"},
		})
	})

	number, err := client.TxBlockNumber(context.Background(), "0xdead")
	assert.NoError(t, err)
	assert.Equal(t, uint64(42), number)
}

func TestTxBlockNumber_Pending(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// A pending transaction carries a null block number.
		json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{"blockNumber": nil},
		})
	})

	_, err := client.TxBlockNumber(context.Background(), "0xdead")
	assert.Error(t, err)
}

func TestBlockTime(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eth_getBlockByNumber", r.URL.Query().Get("action"))
		assert.Equal(t, "0x2a", r.URL.Query().Get("tag"))

		// 2021-01-01T00:00:00Z.
		json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{"timestamp": "0x5fee6600"},
		})
	})

	ts, err := client.BlockTime(context.Background(), 42)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), ts)
}

func TestParseUnits(t *testing.T) {
	value, err := parseUnits("1000000000000000000", 18)
	assert.NoError(t, err)
	assert.InDelta(t, 1.0, value, 1e-9)

	value, err = parseUnits("2500000", 6)
	assert.NoError(t, err)
	assert.InDelta(t, 2.5, value, 1e-9)

	_, err = parseUnits("not-a-number", 18)
	assert.Error(t, err)
}
