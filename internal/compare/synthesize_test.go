package compare

import (
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/price-scout/internal/model"
)

func seededRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func sampleProduct() model.ProductData {
	return model.ProductData{
		Title:    "Sony WH-1000XM5 Wireless Headphones",
		Price:    349.99,
		Currency: "€",
		Image:    "https://cdn.example/xm5.png",
		URL:      "https://shop.example/xm5",
		Store:    "shop.example",
	}
}

func TestSynthesizer_Comparisons_Bounds(t *testing.T) {
	s := NewSynthesizer(nil, seededRNG(1))
	out := s.Comparisons(sampleProduct())

	require.NotEmpty(t, out)
	assert.LessOrEqual(t, len(out), 12)
	for i, c := range out {
		assert.Greater(t, c.Price, 10.0, c.Store)
		assert.Greater(t, abs(c.Price-349.99), 2.0, c.Store)
		assert.Equal(t, i+1, c.Position)
		assert.Equal(t, "€", c.Currency)
		assert.Equal(t, "https://cdn.example/xm5.png", c.Image)
		assert.True(t, c.Verified)
		assert.NotEmpty(t, c.Availability)
		assert.NotEmpty(t, c.Condition)
		assert.Contains(t, c.Title, "Sony WH-1000XM5")
		assert.GreaterOrEqual(t, c.Rating, 4.2)
		assert.LessOrEqual(t, c.Rating, 5.1)
		assert.Positive(t, c.Reviews)
		assert.NotEmpty(t, c.URL)
		assert.NotEmpty(t, c.Assessment.Description)
	}
}

// The local shuffle moves an element at most two positions toward the
// expensive end, so each final price is at least the fully sorted price
// two slots earlier.
func TestSynthesizer_Comparisons_NearlySorted(t *testing.T) {
	for seed := uint64(1); seed <= 10; seed++ {
		s := NewSynthesizer(nil, seededRNG(seed))
		out := s.Comparisons(sampleProduct())

		prices := make([]float64, len(out))
		for i, c := range out {
			prices[i] = c.Price
		}
		ref := append([]float64(nil), prices...)
		sort.Float64s(ref)

		for i := range prices {
			lo := i - 2
			if lo < 0 {
				lo = 0
			}
			assert.GreaterOrEqual(t, prices[i], ref[lo], "seed %d position %d", seed, i)
		}
	}
}

func TestSynthesizer_Comparisons_Deterministic(t *testing.T) {
	a := NewSynthesizer(nil, seededRNG(42)).Comparisons(sampleProduct())
	b := NewSynthesizer(nil, seededRNG(42)).Comparisons(sampleProduct())
	assert.Equal(t, a, b)
}

func TestSynthesizer_Comparisons_ExcludesOriginalStore(t *testing.T) {
	p := sampleProduct()
	p.Store = "amazon.de"

	s := NewSynthesizer(nil, seededRNG(7))
	out := s.Comparisons(p)
	require.NotEmpty(t, out)
	for _, c := range out {
		assert.NotEqual(t, "Amazon", c.Store)
	}
}

func TestSynthesizer_Comparisons_ZeroCandidates(t *testing.T) {
	catalog := []RetailerProfile{
		{Name: "Amazon", Discount: 0.85, Condition: "New", ReviewFloor: 10, ReviewSpread: 10},
	}
	p := sampleProduct()
	p.Store = "www.amazon.com"

	s := NewSynthesizer(catalog, seededRNG(1))
	assert.Empty(t, s.Comparisons(p))
}

func TestSynthesizer_Comparisons_ZeroPrice(t *testing.T) {
	p := sampleProduct()
	p.Price = 0

	s := NewSynthesizer(nil, seededRNG(1))
	// Every simulated price lands at zero, below the 10-unit floor.
	assert.Empty(t, s.Comparisons(p))
}

func TestSynthesizer_Comparisons_AmazonRenewedAssessment(t *testing.T) {
	s := NewSynthesizer(nil, seededRNG(3))
	out := s.Comparisons(sampleProduct())

	for _, c := range out {
		if c.Store == "Amazon" && c.Condition == "Renewed" {
			assert.Equal(t, 2.5, c.Assessment.Value)
		}
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
