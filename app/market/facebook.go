package market

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/rosesandhello/facescrape/app/listing"
)

// FacebookClient fetches marketplace pages through a headless browser.
// Marketplace pages are client-rendered, so a plain HTTP GET returns an
// empty shell; chromedp gives us the hydrated DOM, and the extraction
// helpers in parse.go do the rest.
type FacebookClient struct {
	baseURL   string
	userAgent string
	headless  bool
	timeout   time.Duration
}

var _ MarketplaceSource = (*FacebookClient)(nil)

func NewFacebookClient(userAgent string, headless bool) *FacebookClient {
	return &FacebookClient{
		baseURL:   "https://www.facebook.com",
		userAgent: userAgent,
		headless:  headless,
		timeout:   60 * time.Second,
	}
}

// FetchListings loads the marketplace search results for a query around the
// given ZIP and extracts listing snapshots from the rendered page.
func (c *FacebookClient) FetchListings(ctx context.Context, query, zipCode string, radiusMiles int) ([]listing.RawListing, error) {
	searchURL := fmt.Sprintf("%s/marketplace/%s/search?query=%s&radius=%d&sortBy=price_ascend",
		c.baseURL, url.PathEscape(zipCode), url.QueryEscape(query), radiusMiles)

	html, err := c.renderPage(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("failed to render search page: %w", err)
	}

	listings := extractListings(html)
	for i := range listings {
		listings[i].Source = "facebook"
	}

	slog.Debug("Marketplace listings fetched", "query", query, "count", len(listings))
	return listings, nil
}

// FetchListingByURL re-fetches a single listing. Returns (nil, nil) when the
// listing page reports it is no longer available.
func (c *FacebookClient) FetchListingByURL(ctx context.Context, listingURL string) (*listing.RawListing, error) {
	html, err := c.renderPage(ctx, listingURL)
	if err != nil {
		return nil, fmt.Errorf("failed to render listing page: %w", err)
	}

	raw := parseItemPage(html, listingURL)
	if raw == nil {
		return nil, nil
	}
	raw.Source = "facebook"
	return raw, nil
}

func (c *FacebookClient) renderPage(ctx context.Context, pageURL string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", c.headless),
		chromedp.UserAgent(c.userAgent),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	timeoutCtx, cancelTimeout := context.WithTimeout(browserCtx, c.timeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(timeoutCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(3*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser navigation failed: %w", err)
	}

	return html, nil
}
