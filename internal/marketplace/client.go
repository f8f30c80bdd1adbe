// Package marketplace is the direct-API ingestion client. It polls the
// marketplace search endpoint and optionally enriches hits with full item
// details, returning raw listings for the normalizer.
package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client provides access to the marketplace search and item APIs.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// Listing is a raw search hit as the direct API returns it. Field presence
// varies per item; the normalizer turns this into a canonical listing.
type Listing struct {
	ItemID         string   `json:"item_id"`
	Title          string   `json:"title"`
	Price          float64  `json:"price"`
	ThumbnailURL   string   `json:"thumbnail_url"`
	GalleryURL     string   `json:"gallery_url"`
	ViewURL        string   `json:"view_url"`
	SellerID       string   `json:"seller_id"`
	SellerFeedback int      `json:"seller_feedback"`
	StartTime      string   `json:"start_time"`
	Condition      string   `json:"condition"`
	CategoryName   string   `json:"category_name"`
	Description    string   `json:"description,omitempty"`
	Images         []string `json:"images,omitempty"`
}

// ItemDetails is the full-item payload: complete image set, description,
// and the item-specifics table keyed by attribute name.
type ItemDetails struct {
	Images      []string          `json:"images"`
	Description string            `json:"description"`
	Specifics   map[string]string `json:"specifics"`
}

// NewClient creates a new marketplace API client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// FetchListings retrieves the newest listings matching a search query,
// newest first.
func (c *Client) FetchListings(ctx context.Context, query string, limit int) ([]Listing, error) {
	u, err := url.Parse(c.baseURL + "/search")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	q := u.Query()
	q.Set("q", query)
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("sort", "newly_listed")
	u.RawQuery = q.Encode()

	resp, err := c.doRequest(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listings: %w", err)
	}
	defer resp.Body.Close()

	var listings []Listing
	if err := json.NewDecoder(resp.Body).Decode(&listings); err != nil {
		return nil, fmt.Errorf("failed to decode listings: %w", err)
	}

	return listings, nil
}

// FetchDetails retrieves the full image set, description, and item
// specifics for a single listing. Search hits only carry thumbnails.
func (c *Client) FetchDetails(ctx context.Context, itemID string) (*ItemDetails, error) {
	u, err := url.Parse(c.baseURL + "/item/" + url.PathEscape(itemID))
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	resp, err := c.doRequest(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch item %s: %w", itemID, err)
	}
	defer resp.Body.Close()

	var details ItemDetails
	if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
		return nil, fmt.Errorf("failed to decode item %s: %w", itemID, err)
	}

	return &details, nil
}

// doRequest performs HTTP request with retry logic
func (c *Client) doRequest(ctx context.Context, urlStr string) (*http.Response, error) {
	maxRetries := 3
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, "GET", urlStr, nil)
		if err != nil {
			return nil, err
		}

		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(i+1) * time.Second)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			time.Sleep(time.Duration(i+1) * time.Second)
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
