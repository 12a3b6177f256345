package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rosesandhello/facescrape/app/database"
	"github.com/rosesandhello/facescrape/app/market"
	"github.com/rosesandhello/facescrape/app/pricing"
)

// RecheckTask revisits stored opportunities whose last check is older than
// the recheck interval. Listings that disappeared are marked removed,
// listings the page reports as sold are marked sold, and listings whose
// profit decision no longer holds are marked stale. A
// failure on one opportunity never blocks the rest of the batch.
type RecheckTask struct {
	Task
	marketplace market.MarketplaceSource
	lookup      *pricing.Lookup
	evaluator   *pricing.Evaluator
	oppRepo     database.OpportunityRepository
	interval    time.Duration
	limit       int
}

func NewRecheckTask(marketplace market.MarketplaceSource, lookup *pricing.Lookup,
	evaluator *pricing.Evaluator, oppRepo database.OpportunityRepository,
	interval time.Duration, limit int) *RecheckTask {
	return &RecheckTask{
		Task:        NewTask(TaskTypeRecheck, "*"),
		marketplace: marketplace,
		lookup:      lookup,
		evaluator:   evaluator,
		oppRepo:     oppRepo,
		interval:    interval,
		limit:       limit,
	}
}

func (t *RecheckTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	now := time.Now().UTC()
	due, err := t.oppRepo.GetDueForRecheck(now, t.interval, t.limit)
	if err != nil {
		return fmt.Errorf("failed to get opportunities due for recheck: %w", err)
	}

	if len(due) == 0 {
		slog.Debug("No opportunities due for recheck")
		return nil
	}

	refreshed := 0
	removed := 0
	sold := 0
	stale := 0
	failed := 0

	for i := range due {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		opp := &due[i]
		status, err := t.recheckOne(ctx, opp, time.Now().UTC())
		if err != nil {
			failed++
			slog.Warn("Opportunity recheck failed", "listing", opp.Key(), "error", err)
			continue
		}

		switch status {
		case database.StatusActive:
			refreshed++
		case database.StatusRemoved:
			removed++
		case database.StatusSold:
			sold++
		case database.StatusStale:
			stale++
		}
	}

	slog.Info("Task completed",
		"type", "Recheck",
		"duration", t.GetDuration(),
		"due", len(due),
		"refreshed", refreshed,
		"removed", removed,
		"sold", sold,
		"stale", stale,
		"failed", failed)

	return nil
}

// recheckOne re-fetches a single opportunity and returns its new status.
// As long as the listing still exists, the refreshed prices are persisted
// and a price history entry recorded, whatever the new decision.
func (t *RecheckTask) recheckOne(ctx context.Context, opp *database.Opportunity, now time.Time) (string, error) {
	raw, err := t.marketplace.FetchListingByURL(ctx, opp.URL)
	if err != nil {
		return "", fmt.Errorf("failed to re-fetch listing: %w", err)
	}

	if raw == nil {
		if err := t.oppRepo.UpdateStatus(opp.ID, database.StatusRemoved, now); err != nil {
			return "", fmt.Errorf("failed to mark opportunity removed: %w", err)
		}
		slog.Debug("Listing gone, opportunity removed", "listing", opp.Key())
		return database.StatusRemoved, nil
	}

	if raw.IsSold {
		if err := t.oppRepo.UpdateStatus(opp.ID, database.StatusSold, now); err != nil {
			return "", fmt.Errorf("failed to mark opportunity sold: %w", err)
		}
		slog.Debug("Listing sold", "listing", opp.Key())
		return database.StatusSold, nil
	}

	query := opp.ProductName
	if query == "" {
		query = opp.Title
	}

	stats, err := t.lookup.Run(ctx, query)
	if err != nil {
		return "", fmt.Errorf("failed to refresh comparables: %w", err)
	}

	// Pickup distance is unknown on a re-fetch; the original estimate
	// still applies since the item has not moved.
	eval := t.evaluator.Run(raw.Price, opp.PickupCost, stats)

	status := database.StatusActive
	if raw.IsPending || !eval.Accepted {
		status = database.StatusStale
		slog.Debug("Opportunity no longer profitable", "listing", opp.Key(), "profit", eval.Profit)
	}

	updated := *opp
	updated.Price = raw.Price
	updated.ReferencePrice = eval.ReferencePrice
	updated.Profit = eval.Profit
	updated.Accepted = eval.Accepted
	if _, err := t.oppRepo.UpsertWithStatus(&updated, status, now); err != nil {
		return "", fmt.Errorf("failed to refresh opportunity: %w", err)
	}

	return status, nil
}
