package database

import (
	"time"
)

// Opportunity statuses.
const (
	StatusActive  = "active"
	StatusSold    = "sold"
	StatusStale   = "stale"
	StatusRemoved = "removed"
)

// Opportunity represents a tracked listing in the database
type Opportunity struct {
	ID              int64
	Source          string
	ListingID       string
	WatchName       string
	Title           string
	URL             string
	Price           float64
	ReferencePrice  float64
	PickupCost      float64
	Profit          float64
	Accepted        bool
	ProductName     string
	ProductCategory string
	ProductBrand    string
	ProductModel    string
	IdentifyTier    string
	Status          string
	FirstSeen       time.Time
	LastChecked     time.Time
}

// Key returns the dedup key for the opportunity.
func (o *Opportunity) Key() string {
	return o.Source + ":" + o.ListingID
}

// PricePoint is one entry in an opportunity's price history
type PricePoint struct {
	ID             int64
	OpportunityID  int64
	Price          float64
	ReferencePrice float64
	Profit         float64
	RecordedAt     time.Time
}
