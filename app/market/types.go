package market

import (
	"context"
	"time"

	"github.com/rosesandhello/facescrape/app/listing"
)

// PriceSample is one sold comparable from the secondary market.
type PriceSample struct {
	Price  float64
	SoldAt *time.Time
	Title  string
	URL    string
}

// MarketplaceSource is the scraping collaborator for the primary
// marketplace. FetchListingByURL returns (nil, nil) when the listing is gone
// or expired; callers translate that into a removed status.
type MarketplaceSource interface {
	FetchListings(ctx context.Context, query, zipCode string, radiusMiles int) ([]listing.RawListing, error)
	FetchListingByURL(ctx context.Context, url string) (*listing.RawListing, error)
}

// ComparablesSource is the scraping collaborator for the secondary market's
// sold listings.
type ComparablesSource interface {
	FetchSoldComparables(ctx context.Context, query string) ([]PriceSample, error)
}
