package market

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/rosesandhello/facescrape/app/listing"
)

// EbayClient scrapes eBay's sold/completed listings search as the
// comparables source. No API credentials involved; the sold results page is
// plain server-rendered HTML.
type EbayClient struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

var _ ComparablesSource = (*EbayClient)(nil)

func NewEbayClient(userAgent string, httpClient *http.Client) *EbayClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &EbayClient{
		baseURL:    "https://www.ebay.com",
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

// FetchSoldComparables queries sold listings for the given search string.
// Network failures retry once before surfacing.
func (c *EbayClient) FetchSoldComparables(ctx context.Context, query string) ([]PriceSample, error) {
	searchURL := fmt.Sprintf("%s/sch/i.html?_nkw=%s&LH_Sold=1&LH_Complete=1&_sop=13",
		c.baseURL, url.QueryEscape(query))

	data, err := fetchWithRetry(ctx, c.httpClient, searchURL, c.userAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sold listings: %w", err)
	}

	samples, err := parseSoldListings(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sold listings: %w", err)
	}

	slog.Debug("Sold comparables fetched", "query", query, "samples", len(samples))
	return samples, nil
}

// parseSoldListings extracts price samples from the sold-results HTML.
func parseSoldListings(data []byte) ([]PriceSample, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(data)))
	if err != nil {
		return nil, err
	}

	var samples []PriceSample
	doc.Find(".s-item").Each(func(_ int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Find(".s-item__title").Text())
		if title == "" || strings.EqualFold(title, "Shop on eBay") {
			return
		}

		priceText := strings.TrimSpace(s.Find(".s-item__price").First().Text())
		// Price ranges ("$50.00 to $80.00") are ambiguous, skip them.
		if strings.Contains(strings.ToLower(priceText), " to ") {
			return
		}
		price, ok := listing.ParsePrice(priceText)
		if !ok || price <= 0 {
			return
		}

		sample := PriceSample{
			Price: price,
			Title: title,
		}

		if href, exists := s.Find(".s-item__link").Attr("href"); exists {
			sample.URL = href
		}

		// "Sold Oct 12, 2025"
		soldText := strings.TrimSpace(s.Find(".s-item__caption").Text())
		if soldAt := parseSoldDate(soldText); soldAt != nil {
			sample.SoldAt = soldAt
		}

		samples = append(samples, sample)
	})

	return samples, nil
}

func parseSoldDate(text string) *time.Time {
	text = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "Sold"))
	if text == "" {
		return nil
	}
	t, err := time.Parse("Jan 2, 2006", text)
	if err != nil {
		return nil
	}
	return &t
}

// fetchWithRetry performs a GET with a single retry on network error or
// non-2xx status. Scrape targets are idempotent, so the retry is safe.
func fetchWithRetry(ctx context.Context, client *http.Client, rawURL, userAgent string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(2 * time.Second):
			}
		}

		data, err := fetchOnce(ctx, client, rawURL, userAgent)
		if err == nil {
			return data, nil
		}
		lastErr = err
		slog.Warn("Fetch attempt failed", "url", rawURL, "attempt", attempt+1, "error", err)
	}
	return nil, lastErr
}

func fetchOnce(ctx context.Context, client *http.Client, rawURL, userAgent string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	return io.ReadAll(resp.Body)
}
