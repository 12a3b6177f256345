package listing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Parser normalizes raw marketplace scrapes into ParsedListings and rejects
// the ones the pipeline should not spend lookups on. Pure transformation over
// the provided data; a rejected listing produces a Rejection, not an error.
type Parser struct {
	maxAgeDays      int // 0 = no age limit
	excludePending  bool
	extraExclusions []string // watch-level exclusion keywords, already lowercased
}

func NewParser(maxAgeDays int, excludePending bool, extraExclusions []string) *Parser {
	lowered := make([]string, 0, len(extraExclusions))
	for _, kw := range extraExclusions {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			lowered = append(lowered, kw)
		}
	}
	return &Parser{
		maxAgeDays:      maxAgeDays,
		excludePending:  excludePending,
		extraExclusions: lowered,
	}
}

// Run parses one raw listing. Reject precedence: age, pending, defective
// keyword, vagueness. A title that is both vague and defective is rejected
// once with the defect rule.
func (p *Parser) Run(raw RawListing, now time.Time) (*ParsedListing, *Rejection) {
	normalized := NormalizeTitle(raw.Title)
	ageDays := computeAgeDays(raw, now)

	if p.maxAgeDays > 0 && ageDays > p.maxAgeDays {
		return nil, &Rejection{
			Rule:   RejectTooOld,
			Detail: fmt.Sprintf("listed %d days ago, max is %d", ageDays, p.maxAgeDays),
		}
	}

	if p.excludePending && raw.IsPending {
		return nil, &Rejection{Rule: RejectPending, Detail: "listing marked as pending"}
	}

	if kw := p.matchExclusion(normalized); kw != "" {
		return nil, &Rejection{
			Rule:   RejectDefective,
			Detail: fmt.Sprintf("title contains '%s'", kw),
		}
	}

	vagueKw := MatchVague(normalized)
	if vagueKw != "" && !HasSpecificProduct(normalized) {
		return nil, &Rejection{
			Rule:   RejectVague,
			Detail: fmt.Sprintf("generic listing ('%s'), no brand or model", vagueKw),
		}
	}

	parsed := &ParsedListing{
		RawListing:      raw,
		NormalizedTitle: normalized,
		AgeDays:         ageDays,
		IsVague:         vagueKw != "",
	}
	return parsed, nil
}

func (p *Parser) matchExclusion(normalized string) string {
	if kw := MatchDefect(normalized); kw != "" {
		return kw
	}
	for _, kw := range p.extraExclusions {
		if strings.Contains(normalized, kw) {
			return kw
		}
	}
	return ""
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeTitle applies NFKC normalization, lowercases, and collapses
// whitespace so keyword matching behaves the same for full-width and
// decorated characters sellers paste into titles.
func NormalizeTitle(title string) string {
	normalized := norm.NFKC.String(title)
	normalized = strings.ToLower(normalized)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(normalized, " "))
}

var relativeAgeRe = regexp.MustCompile(`(?i)(?:listed\s+)?(\d+)\s*(minute|hour|day|week|month)s?\s*ago`)

// computeAgeDays derives listing age from the posted timestamp when the
// scraper captured one, falling back to the relative label ("2 weeks ago").
// Returns -1 when neither is available.
func computeAgeDays(raw RawListing, now time.Time) int {
	if raw.PostedAt != nil {
		days := int(now.Sub(*raw.PostedAt).Hours() / 24)
		if days < 0 {
			days = 0
		}
		return days
	}

	m := relativeAgeRe.FindStringSubmatch(raw.PostedLabel)
	if m == nil {
		return -1
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return -1
	}
	switch strings.ToLower(m[2]) {
	case "minute":
		return 0
	case "hour":
		if n < 12 {
			return 0
		}
		return 1
	case "day":
		return n
	case "week":
		return n * 7
	case "month":
		return n * 30
	}
	return -1
}

var nonPriceRe = regexp.MustCompile(`[^\d.]`)

// ParsePrice extracts a numeric price from strings like "$1,234" or "Free".
func ParsePrice(priceStr string) (float64, bool) {
	s := strings.ToLower(strings.TrimSpace(priceStr))
	if s == "" {
		return 0, false
	}
	if s == "free" {
		return 0, true
	}
	cleaned := nonPriceRe.ReplaceAllString(s, "")
	if cleaned == "" {
		return 0, false
	}
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return price, true
}

var distanceRes = []*regexp.Regexp{
	regexp.MustCompile(`(\d+(?:\.\d+)?)\s*miles?\s*away`),
	regexp.MustCompile(`(\d+(?:\.\d+)?)\s*mi\b`),
}

// ParseDistance extracts a one-way distance in miles from location strings
// like "5 miles away" or "Pittsburgh, PA · 12 miles away".
func ParseDistance(location string) (float64, bool) {
	lowered := strings.ToLower(location)
	for _, re := range distanceRes {
		if m := re.FindStringSubmatch(lowered); m != nil {
			d, err := strconv.ParseFloat(m[1], 64)
			if err == nil {
				return d, true
			}
		}
	}
	return 0, false
}
