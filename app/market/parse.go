package market

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/rosesandhello/facescrape/app/listing"
)

var (
	itemHrefPattern  = regexp.MustCompile(`/marketplace/item/(\d+)`)
	cardPricePattern = regexp.MustCompile(`(?i)^(?:free|(?:[A-Z]{0,3}\$|\$)[\d,]+(?:\.\d{2})?)$`)
	milesPattern     = regexp.MustCompile(`(?i)^[\d,.]+\s*(?:miles?|mi|km)(?:\s+away)?$`)
	postedPattern    = regexp.MustCompile(`(?i)^(?:listed\s+)?(?:just now|\d+\s+(?:minute|hour|day|week|month)s?\s+ago)$`)
)

// Phrases the item page shows once a listing is deleted or expired.
var unavailableMarkers = []string{
	"this listing isn't available",
	"this listing is no longer available",
	"this content isn't available",
}

// Phrases the item page shows once the seller marks the item sold. Sold is
// surfaced distinctly so the pipeline can tell a completed sale from a
// deleted listing.
var soldMarkers = []string{
	"item sold",
	"this item is sold",
}

// extractListings pulls listing snapshots out of a rendered search results
// page. Marketplace markup uses generated class names, so we anchor on the
// item links and classify the text lines inside each card instead of
// relying on selectors.
func extractListings(html string) []listing.RawListing {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var listings []listing.RawListing

	doc.Find(`a[href*="/marketplace/item/"]`).Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		m := itemHrefPattern.FindStringSubmatch(href)
		if m == nil || seen[m[1]] {
			return
		}

		raw := classifyCardLines(cardLines(sel))
		if raw.Title == "" {
			return
		}
		seen[m[1]] = true

		raw.ListingID = m[1]
		raw.URL = "https://www.facebook.com/marketplace/item/" + m[1]
		if img, ok := sel.Find("img").First().Attr("src"); ok && img != "" {
			raw.ImageURLs = []string{img}
		}
		listings = append(listings, raw)
	})

	return listings
}

// cardLines collects the distinct text lines of a listing card, in
// document order.
func cardLines(sel *goquery.Selection) []string {
	var lines []string
	seen := make(map[string]bool)
	sel.Find("span").Each(func(_ int, span *goquery.Selection) {
		if span.Children().Length() > 0 {
			return
		}
		text := strings.TrimSpace(span.Text())
		if text == "" || seen[text] {
			return
		}
		seen[text] = true
		lines = append(lines, text)
	})
	return lines
}

// classifyCardLines maps the text lines of a card onto listing fields:
// price, pending flag, distance, posted label, and title with optional
// location. The first line that matches no pattern is the title; a later
// unmatched line is the location.
func classifyCardLines(lines []string) listing.RawListing {
	var raw listing.RawListing
	for _, line := range lines {
		switch {
		case cardPricePattern.MatchString(line):
			if raw.PriceRaw == "" {
				raw.PriceRaw = line
				if price, ok := listing.ParsePrice(line); ok {
					raw.Price = price
				}
			}
		case strings.EqualFold(line, "pending"):
			raw.IsPending = true
		case milesPattern.MatchString(line):
			raw.Location.Raw = line
			if dist, ok := listing.ParseDistance(line); ok {
				raw.Location.DistanceMiles = dist
			}
		case postedPattern.MatchString(line):
			raw.PostedLabel = line
		case raw.Title == "":
			raw.Title = line
		case raw.Location.Raw == "":
			raw.Location.Raw = line
		}
	}
	return raw
}

// parseItemPage extracts a single listing from a rendered item page.
// Returns nil when the page reports the listing is gone; a sold page
// returns a minimal snapshot with IsSold set.
func parseItemPage(html, pageURL string) *listing.RawListing {
	lower := strings.ToLower(html)
	for _, marker := range unavailableMarkers {
		if strings.Contains(lower, marker) {
			return nil
		}
	}

	sold := false
	for _, marker := range soldMarkers {
		if strings.Contains(lower, marker) {
			sold = true
			break
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	raw := &listing.RawListing{URL: pageURL, IsSold: sold}
	if m := itemHrefPattern.FindStringSubmatch(pageURL); m != nil {
		raw.ListingID = m[1]
	}

	if title, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		raw.Title = strings.TrimSpace(title)
	}
	if raw.Title == "" {
		raw.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	// Page titles carry a "Marketplace - " prefix and a " | Facebook" suffix.
	raw.Title = strings.TrimPrefix(raw.Title, "Marketplace - ")
	if idx := strings.Index(raw.Title, " | "); idx > 0 {
		raw.Title = raw.Title[:idx]
	}
	// Sold pages sometimes drop the title block; the sold flag alone is
	// still a usable answer.
	if raw.Title == "" && !sold {
		return nil
	}

	if desc, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		raw.Description = strings.TrimSpace(desc)
	}

	doc.Find("span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		text := strings.TrimSpace(span.Text())
		if span.Children().Length() == 0 && cardPricePattern.MatchString(text) {
			raw.PriceRaw = text
			if price, ok := listing.ParsePrice(text); ok {
				raw.Price = price
			}
			return false
		}
		return true
	})

	if strings.Contains(lower, ">pending<") {
		raw.IsPending = true
	}

	return raw
}
