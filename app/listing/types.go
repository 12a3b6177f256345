package listing

import (
	"time"
)

// Location carries whatever position information the marketplace exposed for
// a listing. Coordinates and the parsed distance are both optional; zero
// values mean unknown.
type Location struct {
	Lat           float64
	Lng           float64
	DistanceMiles float64 // parsed from strings like "5 miles away"
	Raw           string
}

func (l Location) HasCoordinates() bool {
	return l.Lat != 0 || l.Lng != 0
}

// RawListing is an immutable snapshot of one marketplace scrape.
type RawListing struct {
	Source      string // marketplace identifier, e.g. "facebook"
	ListingID   string
	Title       string
	Price       float64
	PriceRaw    string
	Description string
	ImageURLs   []string // ordered, first image is the primary photo
	Location    Location
	PostedAt    *time.Time
	PostedLabel string // relative age string, e.g. "2 days ago"
	URL         string
	Condition   string
	SellerName  string
	IsPending   bool
	IsSold      bool // item page reports the listing as sold
}

// Key uniquely identifies a listing across scans.
func (r RawListing) Key() string {
	return r.Source + ":" + r.ListingID
}

// ParsedListing is a RawListing normalized for the pipeline. AgeDays is
// always computed against the scan time, never cached across rechecks.
type ParsedListing struct {
	RawListing

	NormalizedTitle string
	AgeDays         int // -1 when the posting time is unknown

	// IsVague flags a title that carries a vague keyword but survived
	// rejection because it also names a specific product ("Nintendo Switch
	// bundle"). Defective matches always reject, so no flag exists for them.
	IsVague bool
}

type RejectRule string

const (
	RejectTooOld    RejectRule = "too_old"
	RejectPending   RejectRule = "pending"
	RejectDefective RejectRule = "defective"
	RejectVague     RejectRule = "vague"
)

// Rejection explains why the parser refused to produce a ParsedListing.
// Rejections are expected outcomes, not errors.
type Rejection struct {
	Rule   RejectRule
	Detail string
}

func (r *Rejection) String() string {
	if r.Detail == "" {
		return string(r.Rule)
	}
	return string(r.Rule) + ": " + r.Detail
}
