package tasks

import (
	"context"
	"time"

	"github.com/rosesandhello/facescrape/app/database"
	"github.com/rosesandhello/facescrape/app/listing"
	"github.com/rosesandhello/facescrape/app/market"
)

type MockMarketplaceSource struct {
	listings     []listing.RawListing
	fetchErr     error
	byURL        map[string]*listing.RawListing
	byURLErr     map[string]error
	fetchCalls   int
	byURLCalls   []string
	lastQuery    string
	lastZip      string
	lastRadius   int
}

var _ market.MarketplaceSource = (*MockMarketplaceSource)(nil)

func (m *MockMarketplaceSource) FetchListings(ctx context.Context, query, zipCode string, radiusMiles int) ([]listing.RawListing, error) {
	m.fetchCalls++
	m.lastQuery = query
	m.lastZip = zipCode
	m.lastRadius = radiusMiles
	return m.listings, m.fetchErr
}

func (m *MockMarketplaceSource) FetchListingByURL(ctx context.Context, url string) (*listing.RawListing, error) {
	m.byURLCalls = append(m.byURLCalls, url)
	if err, ok := m.byURLErr[url]; ok {
		return nil, err
	}
	return m.byURL[url], nil
}

type MockComparablesSource struct {
	samples   []market.PriceSample
	err       error
	callCount int
}

var _ market.ComparablesSource = (*MockComparablesSource)(nil)

func (m *MockComparablesSource) FetchSoldComparables(ctx context.Context, query string) ([]market.PriceSample, error) {
	m.callCount++
	return m.samples, m.err
}

type statusChange struct {
	id     int64
	status string
}

type MockOpportunityRepository struct {
	due            []database.Opportunity
	dueErr         error
	upserts        []database.Opportunity
	upsertStatuses []string
	upsertErr      error
	statusChanges  []statusChange
	statusErr      error
	nextID         int64
}

var _ database.OpportunityRepository = (*MockOpportunityRepository)(nil)

func (m *MockOpportunityRepository) Upsert(opp *database.Opportunity, now time.Time) (int64, error) {
	return m.UpsertWithStatus(opp, database.StatusActive, now)
}

func (m *MockOpportunityRepository) UpsertWithStatus(opp *database.Opportunity, status string, now time.Time) (int64, error) {
	if m.upsertErr != nil {
		return 0, m.upsertErr
	}
	m.upserts = append(m.upserts, *opp)
	m.upsertStatuses = append(m.upsertStatuses, status)
	m.nextID++
	return m.nextID, nil
}

func (m *MockOpportunityRepository) GetByKey(source, listingID string) (*database.Opportunity, error) {
	return nil, nil
}

func (m *MockOpportunityRepository) GetOpportunities(status string, limit int) ([]database.Opportunity, error) {
	return nil, nil
}

func (m *MockOpportunityRepository) GetDueForRecheck(now time.Time, interval time.Duration, limit int) ([]database.Opportunity, error) {
	return m.due, m.dueErr
}

func (m *MockOpportunityRepository) UpdateStatus(id int64, status string, now time.Time) error {
	if m.statusErr != nil {
		return m.statusErr
	}
	m.statusChanges = append(m.statusChanges, statusChange{id: id, status: status})
	return nil
}

func (m *MockOpportunityRepository) GetPriceHistory(opportunityID int64) ([]database.PricePoint, error) {
	return nil, nil
}

func (m *MockOpportunityRepository) GetStatusCounts() (map[string]int, error) {
	return nil, nil
}
