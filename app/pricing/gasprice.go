package pricing

import (
	"context"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultGasPrice is used when no override is configured and no live
// price can be fetched.
const DefaultGasPrice = 3.25

const gasPriceCacheKey = "gas_price"

// GasPriceProvider returns a current fuel price in dollars per gallon.
type GasPriceProvider interface {
	CurrentPrice(ctx context.Context) (float64, error)
}

// GasPrice resolves the fuel price for pickup cost estimates. Resolution
// order: configured override, cached live price, DefaultGasPrice.
type GasPrice struct {
	override float64
	provider GasPriceProvider
	cache    *gocache.Cache
}

func NewGasPrice(override float64, provider GasPriceProvider) *GasPrice {
	return &GasPrice{
		override: override,
		provider: provider,
		cache:    gocache.New(6*time.Hour, time.Hour),
	}
}

func (g *GasPrice) Get(ctx context.Context) float64 {
	if g.override > 0 {
		return g.override
	}

	if cached, found := g.cache.Get(gasPriceCacheKey); found {
		return cached.(float64)
	}

	if g.provider != nil {
		price, err := g.provider.CurrentPrice(ctx)
		if err == nil && price > 0 {
			g.cache.Set(gasPriceCacheKey, price, gocache.DefaultExpiration)
			return price
		}
		if err != nil {
			slog.Warn("Gas price lookup failed, using default", "error", err)
		}
	}

	return DefaultGasPrice
}
