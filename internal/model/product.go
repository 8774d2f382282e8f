// Package model defines the product and comparison types exchanged by the
// extraction pipeline and the comparison synthesizer.
package model

// Title and image placeholders returned when every extraction stage fails.
// A ProductData carrying TitleNotFound together with a zero price signals
// total extraction failure; it is still a well-formed result, not an error.
const (
	TitleNotFound    = "Product Title Not Found"
	PlaceholderImage = "/placeholder.svg"
)

// ProductData is the canonical product record the pipeline commits to
// returning for a scraped URL.
type ProductData struct {
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Image    string  `json:"image"`
	URL      string  `json:"url"`
	Store    string  `json:"store"`
}

// Incomplete reports whether the record still needs another extraction
// stage: the title is missing or the failure sentinel, or no price was
// recovered. This is the gate for the AI and URL-inference fallbacks.
func (p ProductData) Incomplete() bool {
	return p.Title == "" || p.Title == TitleNotFound || len(p.Title) < 5 || p.Price == 0
}

// HasTitle reports whether a usable (non-sentinel) title was extracted.
func (p ProductData) HasTitle() bool {
	return p.Title != "" && p.Title != TitleNotFound && len(p.Title) > 3
}

// RawExtraction holds the unvalidated strings gathered by a single
// extraction stage. The price normalizer turns PriceText into a number.
type RawExtraction struct {
	Title     string `json:"title"`
	PriceText string `json:"price"`
	Image     string `json:"image"`
}

// Empty reports whether the stage found nothing at all.
func (r RawExtraction) Empty() bool {
	return r.Title == "" && r.PriceText == "" && r.Image == ""
}

// Assessment is a qualitative retailer score on a 0–5 scale.
type Assessment struct {
	Cost        float64 `json:"cost"`
	Value       float64 `json:"value"`
	Quality     float64 `json:"quality"`
	Description string  `json:"description"`
}

// PriceComparison is a single simulated competitor listing.
type PriceComparison struct {
	Title        string     `json:"title"`
	Price        float64    `json:"price"`
	Currency     string     `json:"currency"`
	Image        string     `json:"image"`
	URL          string     `json:"url"`
	Store        string     `json:"store"`
	Availability string     `json:"availability"`
	Rating       float64    `json:"rating"`
	Reviews      int        `json:"reviews"`
	InStock      bool       `json:"inStock"`
	Condition    string     `json:"condition"`
	Verified     bool       `json:"verified"`
	Position     int        `json:"position"`
	Assessment   Assessment `json:"assessment"`
}

// ScrapeRequest is the inbound request for a scrape operation.
type ScrapeRequest struct {
	URL       string `json:"url"`
	RequestID string `json:"requestId"`
}

// ScrapeResponse pairs the canonical product with its comparison listings.
type ScrapeResponse struct {
	OriginalProduct ProductData       `json:"originalProduct"`
	Comparisons     []PriceComparison `json:"comparisons"`
}
