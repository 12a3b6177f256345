package pricing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rosesandhello/facescrape/app/market"
)

// PriceStats summarizes the sold comparables found for a product.
type PriceStats struct {
	Reference  float64 // price used for the profit decision
	Min        float64
	Max        float64
	Avg        float64
	SampleSize int
}

// HasComparables reports whether any sold listings backed the stats.
func (s PriceStats) HasComparables() bool {
	return s.SampleSize > 0
}

// Lookup resolves a reference sale price for a product from recent sold
// listings. With useLowest set the reference is the cheapest sale,
// otherwise the arithmetic mean.
type Lookup struct {
	source    market.ComparablesSource
	useLowest bool
}

func NewLookup(source market.ComparablesSource, useLowest bool) *Lookup {
	return &Lookup{source: source, useLowest: useLowest}
}

// Run fetches sold comparables for the query and aggregates them. An empty
// result set is not an error: the stats simply carry no reference price.
func (l *Lookup) Run(ctx context.Context, query string) (PriceStats, error) {
	samples, err := l.source.FetchSoldComparables(ctx, query)
	if err != nil {
		return PriceStats{}, fmt.Errorf("failed to fetch comparables: %w", err)
	}

	stats := Aggregate(samples, l.useLowest)
	if !stats.HasComparables() {
		slog.Debug("No sold comparables found", "query", query)
	}
	return stats, nil
}

// Aggregate computes price stats over a sample set.
func Aggregate(samples []market.PriceSample, useLowest bool) PriceStats {
	if len(samples) == 0 {
		return PriceStats{}
	}

	stats := PriceStats{
		Min:        samples[0].Price,
		Max:        samples[0].Price,
		SampleSize: len(samples),
	}

	var sum float64
	for _, sample := range samples {
		sum += sample.Price
		if sample.Price < stats.Min {
			stats.Min = sample.Price
		}
		if sample.Price > stats.Max {
			stats.Max = sample.Price
		}
	}
	stats.Avg = sum / float64(len(samples))

	if useLowest {
		stats.Reference = stats.Min
	} else {
		stats.Reference = stats.Avg
	}
	return stats
}
