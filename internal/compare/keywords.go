package compare

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

var knownBrands = []string{
	"Apple", "Samsung", "Sony", "LG", "Dell", "HP", "Lenovo", "ASUS", "Acer",
	"Microsoft", "Google", "Amazon", "Nintendo", "PlayStation", "Xbox",
	"Canon", "Nikon", "Panasonic", "Bose", "JBL", "Beats", "Sennheiser",
	"Nike", "Adidas", "Under Armour", "Levi's", "Calvin Klein",
	"KitchenAid", "Cuisinart", "Black & Decker", "DeWalt", "Makita",
}

var (
	storefrontPrefixRe = regexp.MustCompile(`(?i)^Amazon\.com:\s*`)
	trailingClauseRe   = regexp.MustCompile(`\s*:\s*[^:]*$`)
	fillerWordRe       = regexp.MustCompile(`(?i)\b(for|with|in|by|the|and|or|&)\b`)
	spaceRe            = regexp.MustCompile(`\s+`)

	modelPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d+[A-Za-z]*\b`),         // 16, 5G
		regexp.MustCompile(`\b[A-Za-z]+\d+[A-Za-z]*\b`), // WH1000XM5
		regexp.MustCompile(`(?i)\b(Pro|Plus|Max|Mini|Air|Ultra|SE)\b`),
	}
)

// SearchPhrase derives a search phrase from a product title: storefront
// prefixes, trailing colon clauses, and filler words go, the rest stays
// so branded products still match exactly.
func SearchPhrase(title string) string {
	s := storefrontPrefixRe.ReplaceAllString(title, "")
	s = trailingClauseRe.ReplaceAllString(s, "")
	s = fillerWordRe.ReplaceAllString(s, " ")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Keywords holds the brand and model tokens recognized in a title.
type Keywords struct {
	Brand string
	Model string
}

// ExtractKeywords pulls brand and model identifiers out of a title for
// tighter retailer search queries. Brand matching is case-folded and
// bidirectional so "PLAYSTATION®5" still hits "PlayStation".
func ExtractKeywords(title string) Keywords {
	var kw Keywords

	// Casers are stateful; build one per call rather than sharing.
	fold := cases.Fold()

	for _, word := range strings.Fields(title) {
		w := fold.String(word)
		for _, b := range knownBrands {
			fb := fold.String(b)
			if strings.Contains(w, fb) || strings.Contains(fb, w) {
				kw.Brand = b
				break
			}
		}
		if kw.Brand != "" {
			break
		}
	}

	for _, re := range modelPatterns {
		if m := re.FindAllString(title, -1); len(m) > 0 {
			kw.Model = strings.Join(m, " ")
			break
		}
	}

	return kw
}

// SearchQuery combines brand and model (falling back to the cleaned
// phrase) into the query handed to SearchURL.
func SearchQuery(title string) string {
	phrase := SearchPhrase(title)
	kw := ExtractKeywords(phrase)

	q := kw.Model
	if q == "" {
		q = phrase
	}
	if kw.Brand != "" {
		q = kw.Brand + " " + q
	}
	return strings.TrimSpace(q)
}
