package pricing

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"dex-trade-bot-go/internal/config"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// GeckoInterface defines the price-oracle operations the bot consumes.
type GeckoInterface interface {
	SpotPrice(ctx context.Context, coinID string) (float64, error)
	PriceAt(ctx context.Context, coinID string, at time.Time) (float64, error)
}

// Gecko is a coingecko client. It implements GeckoInterface.
type Gecko struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

var _ GeckoInterface = (*Gecko)(nil)

// NewGecko creates a new coingecko client. The free API throttles hard, so
// the limiter is deliberately conservative.
func NewGecko(cfg *config.Pricing, logger *zap.Logger) *Gecko {
	return &Gecko{
		client:  resty.New().SetBaseURL(cfg.BaseURL),
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(0.5), 1),
	}
}

func (g *Gecko) doRequest(ctx context.Context, req *resty.Request, path string) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		resp, err = req.Execute(http.MethodGet, path)
		if err == nil && !resp.IsError() {
			return resp, nil
		}

		shouldRetry := resp == nil || resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= 500
		if !shouldRetry {
			return nil, fmt.Errorf("price request failed with status %s: %s", resp.Status(), resp.String())
		}

		retryAfter := time.Duration(math.Pow(2, float64(i))) * time.Second
		g.logger.Warn("Price request failed, retrying...",
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

	return nil, fmt.Errorf("price request failed after %d attempts: %w", maxRetries, err)
}

// SpotPrice returns the current USD price of a coin.
func (g *Gecko) SpotPrice(ctx context.Context, coinID string) (float64, error) {
	result := map[string]map[string]float64{}
	req := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ids":           coinID,
			"vs_currencies": "usd",
		}).
		SetResult(&result)

	if _, err := g.doRequest(ctx, req, "/simple/price"); err != nil {
		return 0, fmt.Errorf("failed to get spot price for %s: %w", coinID, err)
	}

	price, ok := result[coinID]["usd"]
	if !ok {
		return 0, fmt.Errorf("no usd price for %s", coinID)
	}
	return price, nil
}

type historyResponse struct {
	MarketData struct {
		CurrentPrice map[string]float64 `json:"current_price"`
	} `json:"market_data"`
}

// PriceAt returns the USD price of a coin on the day containing the given
// time. Day granularity is all the history endpoint offers; sub-day
// precision is a deliberate approximation.
func (g *Gecko) PriceAt(ctx context.Context, coinID string, at time.Time) (float64, error) {
	var result historyResponse
	req := g.client.R().
		SetContext(ctx).
		SetQueryParam("date", at.UTC().Format("02-01-2006")).
		SetResult(&result)

	if _, err := g.doRequest(ctx, req, "/coins/"+coinID+"/history"); err != nil {
		return 0, fmt.Errorf("failed to get historical price for %s: %w", coinID, err)
	}

	price, ok := result.MarketData.CurrentPrice["usd"]
	if !ok {
		return 0, fmt.Errorf("no historical usd price for %s", coinID)
	}
	return price, nil
}
