package pricing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dex-trade-bot-go/internal/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestGecko(t *testing.T, handler http.HandlerFunc) *Gecko {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return NewGecko(&config.Pricing{BaseURL: server.URL}, zap.NewNop())
}

func TestSpotPrice(t *testing.T) {
	gecko := newTestGecko(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "matic-network", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))

		json.NewEncoder(w).Encode(map[string]map[string]float64{
			"matic-network": {"usd": 0.82},
		})
	})

	price, err := gecko.SpotPrice(context.Background(), "matic-network")
	assert.NoError(t, err)
	assert.InDelta(t, 0.82, price, 1e-9)
}

func TestSpotPrice_UnknownCoin(t *testing.T) {
	gecko := newTestGecko(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]map[string]float64{})
	})

	_, err := gecko.SpotPrice(context.Background(), "dogecoin2")
	assert.Error(t, err)
}

func TestPriceAt_DayBucket(t *testing.T) {
	gecko := newTestGecko(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/ethereum/history", r.URL.Path)
		// The history endpoint buckets by UTC calendar day.
		assert.Equal(t, "01-01-2021", r.URL.Query().Get("date"))

		json.NewEncoder(w).Encode(map[string]any{
			"market_data": map[string]any{
				"current_price": map[string]float64{"usd": 737.7},
			},
		})
	})

	at := time.Date(2021, 1, 1, 23, 59, 59, 0, time.UTC)
	price, err := gecko.PriceAt(context.Background(), "ethereum", at)
	assert.NoError(t, err)
	assert.InDelta(t, 737.7, price, 1e-9)
}

func TestPriceAt_MissingMarketData(t *testing.T) {
	gecko := newTestGecko(t, func(w http.ResponseWriter, r *http.Request) {
		// Coins with no data for the day return an empty body.
		json.NewEncoder(w).Encode(map[string]any{})
	})

	_, err := gecko.PriceAt(context.Background(), "ethereum", time.Now())
	assert.Error(t, err)
}
