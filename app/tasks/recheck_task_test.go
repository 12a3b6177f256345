package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rosesandhello/facescrape/app/database"
	"github.com/rosesandhello/facescrape/app/listing"
	"github.com/rosesandhello/facescrape/app/market"
	"github.com/rosesandhello/facescrape/app/pricing"
)

func dueOpportunity(id int64, listingID string) database.Opportunity {
	return database.Opportunity{
		ID:          id,
		Source:      "facebook",
		ListingID:   listingID,
		WatchName:   "switch",
		Title:       "Nintendo Switch OLED",
		URL:         "https://example.com/item/" + listingID,
		Price:       150,
		PickupCost:  5,
		ProductName: "nintendo switch oled",
		Status:      database.StatusActive,
		FirstSeen:   time.Now().UTC().Add(-48 * time.Hour),
		LastChecked: time.Now().UTC().Add(-24 * time.Hour),
	}
}

func newTestRecheckTask(marketplace market.MarketplaceSource, comps market.ComparablesSource,
	repo *MockOpportunityRepository, minProfit float64) *RecheckTask {
	lookup := pricing.NewLookup(comps, false)
	evaluator := pricing.NewEvaluator(minProfit)
	return NewRecheckTask(marketplace, lookup, evaluator, repo, 12*time.Hour, 50)
}

func TestRecheckTaskRefreshesActiveListing(t *testing.T) {
	opp := dueOpportunity(1, "100")
	repo := &MockOpportunityRepository{due: []database.Opportunity{opp}}
	marketplace := &MockMarketplaceSource{
		byURL: map[string]*listing.RawListing{
			opp.URL: {Source: "facebook", ListingID: "100", Title: opp.Title, Price: 140},
		},
	}
	comps := &MockComparablesSource{samples: []market.PriceSample{{Price: 250}}}

	task := newTestRecheckTask(marketplace, comps, repo, 50)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(repo.upserts) != 1 {
		t.Fatalf("Expected 1 refreshed opportunity, got %d", len(repo.upserts))
	}
	refreshed := repo.upserts[0]
	if refreshed.Price != 140 {
		t.Errorf("Expected refreshed price 140, got %f", refreshed.Price)
	}
	if repo.upsertStatuses[0] != database.StatusActive {
		t.Errorf("Expected active upsert, got %q", repo.upsertStatuses[0])
	}
	// 250 reference, 140 asking, 5 pickup.
	if refreshed.Profit != 105 {
		t.Errorf("Expected profit 105, got %f", refreshed.Profit)
	}
	if len(repo.statusChanges) != 0 {
		t.Errorf("Expected no status changes, got %v", repo.statusChanges)
	}
}

func TestRecheckTaskMarksRemovedWhenListingGone(t *testing.T) {
	opp := dueOpportunity(1, "100")
	repo := &MockOpportunityRepository{due: []database.Opportunity{opp}}
	marketplace := &MockMarketplaceSource{byURL: map[string]*listing.RawListing{}}

	task := newTestRecheckTask(marketplace, &MockComparablesSource{}, repo, 50)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(repo.statusChanges) != 1 {
		t.Fatalf("Expected 1 status change, got %d", len(repo.statusChanges))
	}
	if repo.statusChanges[0].status != database.StatusRemoved {
		t.Errorf("Expected removed status, got %q", repo.statusChanges[0].status)
	}
	if len(repo.upserts) != 0 {
		t.Errorf("Expected no upserts for removed listing, got %d", len(repo.upserts))
	}
}

func TestRecheckTaskMarksStaleOnDecisionFlip(t *testing.T) {
	opp := dueOpportunity(1, "100")
	repo := &MockOpportunityRepository{due: []database.Opportunity{opp}}
	marketplace := &MockMarketplaceSource{
		byURL: map[string]*listing.RawListing{
			// Seller raised the price past profitability.
			opp.URL: {Source: "facebook", ListingID: "100", Title: opp.Title, Price: 240},
		},
	}
	comps := &MockComparablesSource{samples: []market.PriceSample{{Price: 250}}}

	task := newTestRecheckTask(marketplace, comps, repo, 50)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}

	// The refreshed prices must still be written, so the price history
	// keeps recording even when the row goes stale.
	if len(repo.upserts) != 1 {
		t.Fatalf("Expected refreshed opportunity upserted on decision flip, got %d upserts", len(repo.upserts))
	}
	if repo.upsertStatuses[0] != database.StatusStale {
		t.Errorf("Expected stale upsert, got %q", repo.upsertStatuses[0])
	}
	refreshed := repo.upserts[0]
	if refreshed.Price != 240 {
		t.Errorf("Expected refreshed price 240, got %f", refreshed.Price)
	}
	// 250 reference, 240 asking, 5 pickup.
	if refreshed.Profit != 5 {
		t.Errorf("Expected refreshed profit 5, got %f", refreshed.Profit)
	}
	if refreshed.Accepted {
		t.Error("Expected refreshed opportunity not accepted")
	}
	if len(repo.statusChanges) != 0 {
		t.Errorf("Expected no bare status changes, got %v", repo.statusChanges)
	}
}

func TestRecheckTaskMarksSold(t *testing.T) {
	opp := dueOpportunity(1, "100")
	repo := &MockOpportunityRepository{due: []database.Opportunity{opp}}
	marketplace := &MockMarketplaceSource{
		byURL: map[string]*listing.RawListing{
			opp.URL: {Source: "facebook", ListingID: "100", Title: opp.Title, Price: 150, IsSold: true},
		},
	}

	task := newTestRecheckTask(marketplace, &MockComparablesSource{}, repo, 50)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(repo.statusChanges) != 1 {
		t.Fatalf("Expected 1 status change, got %d", len(repo.statusChanges))
	}
	if repo.statusChanges[0].status != database.StatusSold {
		t.Errorf("Expected sold status, got %q", repo.statusChanges[0].status)
	}
	if len(repo.upserts) != 0 {
		t.Errorf("Expected no upserts for sold listing, got %d", len(repo.upserts))
	}
}

func TestRecheckTaskIsolatesPerItemFailures(t *testing.T) {
	first := dueOpportunity(1, "100")
	second := dueOpportunity(2, "200")
	third := dueOpportunity(3, "300")
	repo := &MockOpportunityRepository{due: []database.Opportunity{first, second, third}}

	marketplace := &MockMarketplaceSource{
		byURL: map[string]*listing.RawListing{
			first.URL: {Source: "facebook", ListingID: "100", Title: first.Title, Price: 150},
			third.URL: {Source: "facebook", ListingID: "300", Title: third.Title, Price: 150},
		},
		byURLErr: map[string]error{
			second.URL: errors.New("fetch blew up"),
		},
	}
	comps := &MockComparablesSource{samples: []market.PriceSample{{Price: 250}}}

	task := newTestRecheckTask(marketplace, comps, repo, 50)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected per-item failure to be isolated, got: %v", err)
	}

	if len(marketplace.byURLCalls) != 3 {
		t.Errorf("Expected all 3 listings fetched, got %d", len(marketplace.byURLCalls))
	}
	if len(repo.upserts) != 2 {
		t.Errorf("Expected 2 refreshed opportunities, got %d", len(repo.upserts))
	}
}

func TestRecheckTaskStaleWhenPending(t *testing.T) {
	opp := dueOpportunity(1, "100")
	repo := &MockOpportunityRepository{due: []database.Opportunity{opp}}
	marketplace := &MockMarketplaceSource{
		byURL: map[string]*listing.RawListing{
			opp.URL: {Source: "facebook", ListingID: "100", Title: opp.Title, Price: 150, IsPending: true},
		},
	}
	comps := &MockComparablesSource{samples: []market.PriceSample{{Price: 250}}}

	task := newTestRecheckTask(marketplace, comps, repo, 50)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(repo.upserts) != 1 || repo.upsertStatuses[0] != database.StatusStale {
		t.Errorf("Expected pending listing upserted stale, got %d upserts %v", len(repo.upserts), repo.upsertStatuses)
	}
}

func TestRecheckTaskPropagatesRepoError(t *testing.T) {
	repo := &MockOpportunityRepository{dueErr: errors.New("db locked")}
	task := newTestRecheckTask(&MockMarketplaceSource{}, &MockComparablesSource{}, repo, 50)

	if err := task.Execute(context.Background()); err == nil {
		t.Fatal("Expected error when the due query fails")
	}
}
