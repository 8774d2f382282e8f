// Package compare synthesizes competitor price listings for a scraped
// product from a static retailer catalog. Listings are modeled, not
// fetched: each retailer profile carries a typical discount factor,
// condition, and review volume, and the synthesizer perturbs the
// original price around them.
package compare

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/price-scout/internal/model"
)

// RetailerProfile describes one catalog retailer: how its typical price
// relates to the original, what condition it sells, and how many reviews
// a listing plausibly carries.
type RetailerProfile struct {
	Name         string  `yaml:"name"`
	Discount     float64 `yaml:"discount"`
	Condition    string  `yaml:"condition"`
	ReviewFloor  int     `yaml:"review_floor"`
	ReviewSpread int     `yaml:"review_spread"`
}

// DefaultCatalog returns the built-in retailer catalog: major
// marketplaces, electronics specialists, warehouse clubs, and
// peer-to-peer marketplaces.
func DefaultCatalog() []RetailerProfile {
	return []RetailerProfile{
		// Major retailers.
		{Name: "Amazon", Discount: 0.85, Condition: "New", ReviewFloor: 2000, ReviewSpread: 3000},
		{Name: "Amazon", Discount: 0.65, Condition: "Renewed", ReviewFloor: 1500, ReviewSpread: 1000},
		{Name: "eBay", Discount: 0.75, Condition: "Used - Like New", ReviewFloor: 800, ReviewSpread: 1500},
		{Name: "eBay", Discount: 0.60, Condition: "Used - Very Good", ReviewFloor: 600, ReviewSpread: 1000},
		{Name: "Walmart", Discount: 0.90, Condition: "New", ReviewFloor: 1800, ReviewSpread: 2000},
		{Name: "Best Buy", Discount: 0.95, Condition: "New", ReviewFloor: 1200, ReviewSpread: 1800},
		{Name: "Target", Discount: 0.88, Condition: "New", ReviewFloor: 900, ReviewSpread: 1500},

		// Electronics specialists.
		{Name: "B&H", Discount: 0.92, Condition: "New", ReviewFloor: 800, ReviewSpread: 1200},
		{Name: "Adorama", Discount: 0.90, Condition: "New", ReviewFloor: 600, ReviewSpread: 1000},
		{Name: "Newegg", Discount: 0.87, Condition: "New", ReviewFloor: 1000, ReviewSpread: 1500},

		// Warehouse and specialty stores.
		{Name: "Costco", Discount: 0.83, Condition: "New", ReviewFloor: 500, ReviewSpread: 800},
		{Name: "Sam's Club", Discount: 0.85, Condition: "New", ReviewFloor: 400, ReviewSpread: 600},
		{Name: "World Wide Stereo", Discount: 0.93, Condition: "New", ReviewFloor: 300, ReviewSpread: 500},
		{Name: "Abt Electronics", Discount: 0.89, Condition: "New", ReviewFloor: 200, ReviewSpread: 400},

		// Peer-to-peer marketplaces.
		{Name: "Mercari", Discount: 0.70, Condition: "Used - Good", ReviewFloor: 100, ReviewSpread: 300},
		{Name: "OfferUp", Discount: 0.65, Condition: "Used - Fair", ReviewFloor: 50, ReviewSpread: 200},
		{Name: "Facebook Marketplace", Discount: 0.68, Condition: "Used - Good", ReviewFloor: 80, ReviewSpread: 250},
	}
}

// LoadCatalog reads a retailer catalog from a YAML file. Deployments use
// it to tune discounts or add regional retailers without a rebuild.
func LoadCatalog(path string) ([]RetailerProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "compare: read catalog")
	}
	var catalog []RetailerProfile
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, eris.Wrap(err, "compare: parse catalog")
	}
	if len(catalog) == 0 {
		return nil, eris.Errorf("compare: catalog %s is empty", path)
	}
	for i, p := range catalog {
		if p.Name == "" {
			return nil, eris.Errorf("compare: catalog entry %d has no name", i)
		}
		if p.Discount <= 0 || p.Discount > 1.5 {
			return nil, eris.Errorf("compare: catalog entry %q has implausible discount %v", p.Name, p.Discount)
		}
	}
	return catalog, nil
}

var storeURLs = map[string]string{
	"Amazon":               "https://www.amazon.com",
	"eBay":                 "https://www.ebay.com",
	"Walmart":              "https://www.walmart.com",
	"Best Buy":             "https://www.bestbuy.com",
	"Target":               "https://www.target.com",
	"B&H":                  "https://www.bhphotovideo.com",
	"Adorama":              "https://www.adorama.com",
	"Newegg":               "https://www.newegg.com",
	"Costco":               "https://www.costco.com",
	"Sam's Club":           "https://www.samsclub.com",
	"World Wide Stereo":    "https://www.worldwidestereo.com",
	"Abt Electronics":      "https://www.abt.com",
	"Mercari":              "https://www.mercari.com",
	"OfferUp":              "https://offerup.com",
	"Facebook Marketplace": "https://www.facebook.com/marketplace",
}

// StoreURL returns the retailer's storefront URL, synthesizing a
// plausible one for unlisted names.
func StoreURL(name string) string {
	if u, ok := storeURLs[name]; ok {
		return u
	}
	return fmt.Sprintf("https://%s.com", strings.ReplaceAll(strings.ToLower(name), " ", ""))
}

// SearchURL builds a retailer-specific search URL for the given query,
// with each retailer's own relevance/sort parameters.
func SearchURL(store, query string) string {
	q := url.QueryEscape(query)
	switch store {
	case "Amazon":
		return fmt.Sprintf("https://www.amazon.com/s?k=%s&s=review-rank&ref=sr_st_review-rank", q)
	case "eBay":
		return fmt.Sprintf("https://www.ebay.com/sch/i.html?_nkw=%s&_sop=12&LH_BIN=1", q)
	case "Walmart":
		return fmt.Sprintf("https://www.walmart.com/search?q=%s&sort=best_match", q)
	case "Best Buy":
		return fmt.Sprintf("https://www.bestbuy.com/site/searchpage.jsp?st=%s&_dyncharset=UTF-8&iht=y&usc=All+Categories&ks=960&sort=sr", q)
	case "Target":
		return fmt.Sprintf("https://www.target.com/s?searchTerm=%s&sortBy=relevance", q)
	case "B&H":
		return fmt.Sprintf("https://www.bhphotovideo.com/c/search?Ntt=%s&N=0&InitialSearch=yes&sts=ma", q)
	case "Adorama":
		return fmt.Sprintf("https://www.adorama.com/searchsite/%s?searchredirect=1", q)
	case "Newegg":
		return fmt.Sprintf("https://www.newegg.com/p/pl?d=%s&order=REVIEWS", q)
	case "Costco":
		return fmt.Sprintf("https://www.costco.com/CatalogSearch?keyword=%s&dept=All&sortBy=PriceMin|1", q)
	case "Sam's Club":
		return fmt.Sprintf("https://www.samsclub.com/search?searchTerm=%s&sortKey=relevance", q)
	case "Mercari":
		return fmt.Sprintf("https://www.mercari.com/search/?keyword=%s&sort_order=price_asc", q)
	case "OfferUp":
		return fmt.Sprintf("https://offerup.com/search/?q=%s&sort=date", q)
	case "Facebook Marketplace":
		return fmt.Sprintf("https://www.facebook.com/marketplace/search/?query=%s&sortBy=distance_ascend", q)
	default:
		return fmt.Sprintf("%s/search?q=%s", StoreURL(store), q)
	}
}

var assessments = map[string]model.Assessment{
	"eBay": {
		Cost: 3.5, Value: 3, Quality: 2.5,
		Description: "Global marketplace with wide price and quality ranges; deals on vintage finds, condition can vary.",
	},
	"Walmart": {
		Cost: 4, Value: 2.5, Quality: 2,
		Description: "Budget-friendly options with minimal resale; customers are generally happy with purchase.",
	},
	"Best Buy": {
		Cost: 2.5, Value: 2, Quality: 3,
		Description: "Premium electronics retailer with excellent customer service and warranty support.",
	},
	"Target": {
		Cost: 3.5, Value: 2.5, Quality: 2.5,
		Description: "Trendy products with good quality; often has exclusive items and collaborations.",
	},
	"B&H": {
		Cost: 2, Value: 3, Quality: 4,
		Description: "Professional photography and electronics; excellent reputation and expert support.",
	},
	"Costco": {
		Cost: 4.5, Value: 4, Quality: 3.5,
		Description: "Bulk buying with excellent return policy; great value for money on quality items.",
	},
}

var genericAssessment = model.Assessment{
	Cost: 3, Value: 2.5, Quality: 2.5,
	Description: "Online retailer with competitive pricing and standard service.",
}

// AssessmentFor returns the qualitative assessment for a retailer.
// Amazon's scores depend on the listing condition; unlisted retailers
// get a generic assessment.
func AssessmentFor(store, condition string) model.Assessment {
	if store == "Amazon" {
		a := model.Assessment{
			Cost: 3, Value: 1.5, Quality: 1.5,
			Description: "Large selection, varied quality and reviews; value does not hold very well over time.",
		}
		if strings.Contains(condition, "Renewed") {
			a.Value = 2.5
			a.Quality = 2
		}
		return a
	}
	if a, ok := assessments[store]; ok {
		return a
	}
	return genericAssessment
}
