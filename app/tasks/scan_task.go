package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/rosesandhello/facescrape/app/category"
	"github.com/rosesandhello/facescrape/app/database"
	"github.com/rosesandhello/facescrape/app/identify"
	"github.com/rosesandhello/facescrape/app/listing"
	"github.com/rosesandhello/facescrape/app/market"
	"github.com/rosesandhello/facescrape/app/pricing"
)

// ScanSettings carries the global scan parameters shared by all watches.
type ScanSettings struct {
	ZipCode        string
	RadiusMiles    int
	MaxAgeDays     int
	ExcludePending bool
	SortByPrice    bool
}

// ScanTask runs one scan cycle over all enabled watches. Failures are
// isolated per watch and per listing: one bad listing never aborts the
// rest of the cycle.
type ScanTask struct {
	Task
	configCache *category.ConfigCache
	marketplace market.MarketplaceSource
	identifier  *identify.Identifier
	lookup      *pricing.Lookup
	pickup      *pricing.PickupEstimator
	evaluator   *pricing.Evaluator
	oppRepo     database.OpportunityRepository
	settings    ScanSettings
}

func NewScanTask(configCache *category.ConfigCache, marketplace market.MarketplaceSource,
	identifier *identify.Identifier, lookup *pricing.Lookup, pickup *pricing.PickupEstimator,
	evaluator *pricing.Evaluator, oppRepo database.OpportunityRepository, settings ScanSettings) *ScanTask {
	return &ScanTask{
		Task:        NewTask(TaskTypeScan, "*"),
		configCache: configCache,
		marketplace: marketplace,
		identifier:  identifier,
		lookup:      lookup,
		pickup:      pickup,
		evaluator:   evaluator,
		oppRepo:     oppRepo,
		settings:    settings,
	}
}

type scanCounts struct {
	total        int
	rejected     int
	unidentified int
	noComps      int
	accepted     int
	declined     int
	failed       int
}

func (c *scanCounts) add(other scanCounts) {
	c.total += other.total
	c.rejected += other.rejected
	c.unidentified += other.unidentified
	c.noComps += other.noComps
	c.accepted += other.accepted
	c.declined += other.declined
	c.failed += other.failed
}

func (t *ScanTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	watchConfigs := t.configCache.GetEnabledConfigs()
	if len(watchConfigs) == 0 {
		slog.Debug("No enabled watch configurations found")
		return nil
	}

	var counts scanCounts
	for _, watchConfig := range watchConfigs {
		watchCounts, err := t.scanWatch(ctx, watchConfig)
		counts.add(watchCounts)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Error("Watch scan failed", "watch", watchConfig.Name, "error", err)
		}
	}

	slog.Info("Task completed",
		"type", "Scan",
		"watches", len(watchConfigs),
		"duration", t.GetDuration(),
		"total", counts.total,
		"rejected", counts.rejected,
		"unidentified", counts.unidentified,
		"no_comparables", counts.noComps,
		"accepted", counts.accepted,
		"declined", counts.declined,
		"failed", counts.failed)

	return nil
}

func (t *ScanTask) scanWatch(ctx context.Context, watchConfig *category.Config) (scanCounts, error) {
	var counts scanCounts

	radius := t.settings.RadiusMiles
	if watchConfig.Settings.RadiusMiles > 0 {
		radius = watchConfig.Settings.RadiusMiles
	}

	listings, err := t.marketplace.FetchListings(ctx, watchConfig.Query, t.settings.ZipCode, radius)
	if err != nil {
		return counts, fmt.Errorf("failed to fetch listings: %w", err)
	}
	counts.total = len(listings)

	if t.settings.SortByPrice {
		sort.SliceStable(listings, func(i, j int) bool {
			return listings[i].Price < listings[j].Price
		})
	}

	parser := listing.NewParser(t.settings.MaxAgeDays, t.settings.ExcludePending, watchConfig.Settings.ExcludeKeywords)
	now := time.Now().UTC()

	for _, raw := range listings {
		if ctx.Err() != nil {
			return counts, ctx.Err()
		}

		outcome, err := t.processListing(ctx, watchConfig, parser, raw, now)
		if err != nil {
			counts.failed++
			slog.Warn("Listing processing failed", "watch", watchConfig.Name, "listing", raw.Key(), "error", err)
			continue
		}

		switch outcome {
		case outcomeRejected:
			counts.rejected++
		case outcomeUnidentified:
			counts.unidentified++
		case outcomeNoComparables:
			counts.noComps++
		case outcomeAccepted:
			counts.accepted++
		case outcomeDeclined:
			counts.declined++
		}
	}

	return counts, nil
}

type listingOutcome int

const (
	outcomeRejected listingOutcome = iota
	outcomeUnidentified
	outcomeNoComparables
	outcomeAccepted
	outcomeDeclined
)

func (t *ScanTask) processListing(ctx context.Context, watchConfig *category.Config,
	parser *listing.Parser, raw listing.RawListing, now time.Time) (listingOutcome, error) {

	parsed, rejection := parser.Run(raw, now)
	if rejection != nil {
		slog.Debug("Listing rejected", "listing", raw.Key(), "reason", rejection.String())
		return outcomeRejected, nil
	}

	if watchConfig.Settings.MaxPriceDollars > 0 && parsed.Price > watchConfig.Settings.MaxPriceDollars {
		slog.Debug("Listing over price cap", "listing", raw.Key(), "price", parsed.Price)
		return outcomeRejected, nil
	}

	resolution := t.identifier.Run(ctx, parsed)
	if resolution.State != identify.Resolved {
		slog.Debug("Listing not identified", "listing", raw.Key(), "tiers_tried", len(resolution.TiersTried))
		return outcomeUnidentified, nil
	}
	identity := resolution.Identity

	stats, err := t.lookup.Run(ctx, identity.CanonicalName)
	if err != nil {
		return 0, fmt.Errorf("failed to look up comparables: %w", err)
	}
	if !stats.HasComparables() {
		return outcomeNoComparables, nil
	}

	pickupCost := t.pickup.Cost(ctx, parsed.Location)
	eval := t.evaluator.RunWithThreshold(parsed.Price, pickupCost, stats, watchConfig.Settings.MinProfitDollars)
	if !eval.Accepted {
		return outcomeDeclined, nil
	}

	opp := &database.Opportunity{
		Source:          parsed.Source,
		ListingID:       parsed.ListingID,
		WatchName:       watchConfig.Name,
		Title:           parsed.Title,
		URL:             parsed.URL,
		Price:           parsed.Price,
		ReferencePrice:  eval.ReferencePrice,
		PickupCost:      eval.PickupCost,
		Profit:          eval.Profit,
		Accepted:        true,
		ProductName:     identity.CanonicalName,
		ProductCategory: identity.Category,
		ProductBrand:    identity.Attribute("brand"),
		ProductModel:    identity.Attribute("model"),
		IdentifyTier:    string(identity.Tier),
	}

	if _, err := t.oppRepo.Upsert(opp, now); err != nil {
		return 0, fmt.Errorf("failed to store opportunity: %w", err)
	}

	slog.Info("Opportunity found",
		"watch", watchConfig.Name,
		"listing", raw.Key(),
		"title", parsed.Title,
		"price", parsed.Price,
		"reference", eval.ReferencePrice,
		"profit", eval.Profit)

	return outcomeAccepted, nil
}
