// Package directapi resolves products through retailer JSON APIs,
// skipping HTML scraping entirely for the handful of stores that expose
// one. Lookups are best-effort: any failure yields nil and the caller
// falls back to the scrape pipeline.
package directapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/price-scout/internal/extract"
	"github.com/sells-group/price-scout/internal/model"
	"github.com/sells-group/price-scout/internal/resilience"
)

// Client resolves a product URL to ProductData via a retailer API.
type Client interface {
	// Lookup returns the product behind the URL, or nil when the URL is
	// not served by this API or the lookup fails.
	Lookup(ctx context.Context, rawURL string) *model.ProductData
}

const psBaseURL = "https://direct.playstation.com/en-us/api/v1"

var productCodeRe = regexp.MustCompile(`/products/(\d+)`)

// PlayStation looks up products on the PlayStation Direct catalog API.
// URLs on other domains, or PlayStation URLs without a numeric product
// code, are not applicable and return nil immediately.
type PlayStation struct {
	baseURL string
	http    *http.Client
	retry   resilience.Policy
}

// Option configures the PlayStation client.
type Option func(*PlayStation)

// WithBaseURL sets a custom API base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *PlayStation) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *PlayStation) {
		c.http = hc
	}
}

// WithRetryPolicy overrides the retry policy for API calls.
func WithRetryPolicy(p resilience.Policy) Option {
	return func(c *PlayStation) {
		c.retry = p
	}
}

// NewPlayStation creates a PlayStation Direct API client.
func NewPlayStation(opts ...Option) *PlayStation {
	c := &PlayStation{
		baseURL: psBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		retry: resilience.Policy{
			Attempts: 2,
			Backoff:  200 * time.Millisecond,
			OnRetry:  resilience.RetryLogger("playstation lookup"),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type psResponse struct {
	Products []psProduct `json:"products"`
}

type psProduct struct {
	Name           string     `json:"name"`
	Price          *psPrice   `json:"price"`
	DefaultVariant *psVariant `json:"defaultVariant"`
}

type psPrice struct {
	Value          float64 `json:"value"`
	CurrencySymbol string  `json:"currencySymbol"`
}

type psVariant struct {
	Images []string `json:"images"`
}

// Lookup resolves a PlayStation Direct product URL through the catalog
// API. Best-effort: network errors, bad statuses, and empty catalogs all
// log and return nil.
func (c *PlayStation) Lookup(ctx context.Context, rawURL string) *model.ProductData {
	domain := extract.Domain(rawURL)
	if !strings.Contains(domain, "playstation") {
		return nil
	}

	m := productCodeRe.FindStringSubmatch(rawURL)
	if m == nil {
		return nil
	}
	code := m[1]

	body, err := resilience.RetryVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, code)
	})
	if err != nil {
		zap.L().Warn("playstation api: request failed",
			zap.String("product_code", code),
			zap.Error(err),
		)
		return nil
	}

	var parsed psResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		zap.L().Warn("playstation api: malformed response",
			zap.String("product_code", code),
			zap.Error(err),
		)
		return nil
	}
	if len(parsed.Products) == 0 {
		return nil
	}

	p := parsed.Products[0]
	out := &model.ProductData{
		Title:    p.Name,
		Currency: "$",
		Image:    model.PlaceholderImage,
		URL:      rawURL,
		Store:    "direct.playstation.com",
	}
	if out.Title == "" {
		out.Title = "PlayStation Product"
	}
	if p.Price != nil {
		out.Price = p.Price.Value
		if p.Price.CurrencySymbol != "" {
			out.Currency = p.Price.CurrencySymbol
		}
	}
	if p.DefaultVariant != nil && len(p.DefaultVariant.Images) > 0 {
		out.Image = p.DefaultVariant.Images[0]
	}
	return out
}

func (c *PlayStation) get(ctx context.Context, code string) ([]byte, error) {
	reqURL := fmt.Sprintf("%s/products?productCodes=%s", c.baseURL, code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "playstation: create request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "playstation: request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resilience.RetryableStatus(resp.StatusCode) {
		return nil, resilience.Transient(
			eris.Errorf("playstation: status %d", resp.StatusCode), resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("playstation: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, eris.Wrap(err, "playstation: read body")
	}
	return body, nil
}
