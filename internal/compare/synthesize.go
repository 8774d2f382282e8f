package compare

import (
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/price-scout/internal/model"
)

const maxListings = 12

var stockStatuses = []string{
	"In stock", "In stock", "In stock", "Low stock", "Out of stock",
}

// Synthesizer turns a scraped product into a list of simulated
// competitor listings. The randomness source is injected so tests can
// seed it and assert exact output.
type Synthesizer struct {
	catalog []RetailerProfile

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSynthesizer creates a Synthesizer over the given catalog. A nil rng
// gets a freshly seeded one; a nil or empty catalog gets the default.
func NewSynthesizer(catalog []RetailerProfile, rng *rand.Rand) *Synthesizer {
	if len(catalog) == 0 {
		catalog = DefaultCatalog()
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Synthesizer{catalog: catalog, rng: rng}
}

// Comparisons synthesizes up to 12 competitor listings for the product.
// Retailers whose name appears in the original store's domain are
// excluded, as are listings priced at or below 10 currency units or
// within 2 units of the original. A zero-candidate outcome returns an
// empty slice, never an error.
func (s *Synthesizer) Comparisons(product model.ProductData) []model.PriceComparison {
	query := SearchQuery(product.Title)
	store := strings.ToLower(product.Store)

	eligible := make([]RetailerProfile, 0, len(s.catalog))
	for _, r := range s.catalog {
		if strings.Contains(store, strings.ToLower(r.Name)) {
			continue
		}
		eligible = append(eligible, r)
	}

	n := len(eligible)
	if n > maxListings {
		n = maxListings
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.PriceComparison, 0, n)
	for _, r := range eligible[:n] {
		// Base variation ±7.5%, with occasional extra deals and
		// bundle/premium markups.
		variation := 0.95 + s.rng.Float64()*0.15
		if s.rng.Float64() < 0.10 {
			variation *= 0.8
		}
		if s.rng.Float64() < 0.05 {
			variation *= 1.3
		}
		price := math.Round(product.Price*r.Discount*variation*100) / 100

		status := stockStatuses[s.rng.IntN(len(stockStatuses))]
		inStock := status != "Out of stock"
		availability := status
		if inStock {
			availability += " - " + r.Condition
		}

		baseRating := 4.2
		if r.Name == "Amazon" || r.Name == "Best Buy" {
			baseRating = 4.5
		}
		rating := math.Round((baseRating+s.rng.Float64()*0.6)*10) / 10

		reviews := r.ReviewFloor
		if r.ReviewSpread > 0 {
			reviews += s.rng.IntN(r.ReviewSpread)
		}

		if price <= 10 || math.Abs(price-product.Price) <= 2 {
			continue
		}

		out = append(out, model.PriceComparison{
			Title:        product.Title + " - " + r.Condition,
			Price:        price,
			Currency:     product.Currency,
			Image:        product.Image,
			URL:          SearchURL(r.Name, query),
			Store:        r.Name,
			Availability: availability,
			Rating:       rating,
			Reviews:      reviews,
			InStock:      inStock,
			Condition:    r.Condition,
			Verified:     true,
			Assessment:   AssessmentFor(r.Name, r.Condition),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })

	// Light local shuffle so the ordering doesn't look machine-perfect.
	for i := len(out) - 1; i > 0; i-- {
		if s.rng.Float64() < 0.3 {
			j := i - 2
			if j < 0 {
				j = 0
			}
			out[i], out[j] = out[j], out[i]
		}
	}

	for i := range out {
		out[i].Position = i + 1
	}

	zap.L().Debug("synthesized price comparisons",
		zap.String("store", product.Store),
		zap.Int("count", len(out)),
	)
	return out
}
