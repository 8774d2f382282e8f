package compare

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()
	assert.Len(t, catalog, 17)
	for _, p := range catalog {
		assert.NotEmpty(t, p.Name)
		assert.Greater(t, p.Discount, 0.0)
		assert.LessOrEqual(t, p.Discount, 1.0)
		assert.NotEmpty(t, p.Condition)
		assert.Greater(t, p.ReviewSpread, 0)
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- name: Varle
  discount: 0.9
  condition: New
  review_floor: 100
  review_spread: 400
- name: Skytech
  discount: 0.88
  condition: New
  review_floor: 50
  review_spread: 200
`), 0o644))

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, catalog, 2)
	assert.Equal(t, "Varle", catalog[0].Name)
	assert.Equal(t, 0.9, catalog[0].Discount)
	assert.Equal(t, 400, catalog[0].ReviewSpread)
}

func TestLoadCatalog_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"empty list", `[]`},
		{"missing name", "- discount: 0.9\n  condition: New\n"},
		{"implausible discount", "- name: X\n  discount: 9.5\n"},
		{"not yaml", `{{{{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := LoadCatalog(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestStoreURL(t *testing.T) {
	assert.Equal(t, "https://www.bhphotovideo.com", StoreURL("B&H"))
	assert.Equal(t, "https://www.facebook.com/marketplace", StoreURL("Facebook Marketplace"))
	// Unlisted names get a synthesized storefront.
	assert.Equal(t, "https://somestore.com", StoreURL("Some Store"))
}

func TestSearchURL(t *testing.T) {
	u := SearchURL("Amazon", "Sony WH-1000XM5")
	assert.Contains(t, u, "https://www.amazon.com/s?k=Sony+WH-1000XM5")
	assert.Contains(t, u, "review-rank")

	u = SearchURL("eBay", "iPhone 16 Pro")
	assert.Contains(t, u, "_nkw=iPhone+16+Pro")
	assert.Contains(t, u, "LH_BIN=1")

	// Unlisted retailer falls through to the generic storefront search.
	u = SearchURL("Varle", "PS5")
	assert.Equal(t, "https://varle.com/search?q=PS5", u)
}

func TestAssessmentFor(t *testing.T) {
	amazonNew := AssessmentFor("Amazon", "New")
	assert.Equal(t, 1.5, amazonNew.Value)
	assert.Equal(t, 1.5, amazonNew.Quality)

	amazonRenewed := AssessmentFor("Amazon", "Renewed")
	assert.Equal(t, 2.5, amazonRenewed.Value)
	assert.Equal(t, 2.0, amazonRenewed.Quality)

	costco := AssessmentFor("Costco", "New")
	assert.Equal(t, 4.5, costco.Cost)
	assert.Contains(t, costco.Description, "return policy")

	generic := AssessmentFor("Varle", "New")
	assert.Equal(t, 3.0, generic.Cost)
	assert.Contains(t, generic.Description, "competitive pricing")
}
