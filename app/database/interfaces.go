package database

import (
	"time"
)

type OpportunityRepository interface {
	Upsert(opp *Opportunity, now time.Time) (int64, error)
	UpsertWithStatus(opp *Opportunity, status string, now time.Time) (int64, error)
	GetByKey(source, listingID string) (*Opportunity, error)
	GetOpportunities(status string, limit int) ([]Opportunity, error)
	GetDueForRecheck(now time.Time, interval time.Duration, limit int) ([]Opportunity, error)
	UpdateStatus(id int64, status string, now time.Time) error
	GetPriceHistory(opportunityID int64) ([]PricePoint, error)
	GetStatusCounts() (map[string]int, error)
}
