package extract

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/sells-group/price-scout/internal/model"
)

// pattern pairs a field-extraction regexp with an optional cleanup applied
// to the captured group. Cascades are data: adding a retailer means adding
// table entries, not code.
type pattern struct {
	re    *regexp.Regexp
	clean func(string) string
}

func (p pattern) apply(html string) string {
	m := p.re.FindStringSubmatch(html)
	if len(m) < 2 || m[1] == "" {
		// Patterns without a capture group match whole tokens (e.g. a bare
		// product-name regexp); use the full match.
		if len(m) == 1 && m[0] != "" {
			return cleanupText(m[0])
		}
		return ""
	}
	s := cleanupText(m[1])
	if p.clean != nil {
		s = p.clean(s)
	}
	return s
}

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&nbsp;", " ",
)

func cleanupText(s string) string {
	return strings.TrimSpace(entityReplacer.Replace(s))
}

// Generic tier: standard meta tags, page title, common product-page
// conventions, inline JSON keys.
var genericTitlePatterns = []pattern{
	{re: regexp.MustCompile(`(?i)<meta property="og:title" content="([^"]+)"`)},
	{re: regexp.MustCompile(`(?i)<meta name="twitter:title" content="([^"]+)"`)},
	{re: regexp.MustCompile(`(?i)<meta name="title" content="([^"]+)"`)},
	{re: regexp.MustCompile(`(?i)<title[^>]*>([^<]+)</title>`)},
	{re: regexp.MustCompile(`(?i)"productTitle"\s*:\s*"([^"]+)"`)},
	{re: regexp.MustCompile(`(?i)"displayName"\s*:\s*"([^"]+)"`)},
	{re: regexp.MustCompile(`(?i)"familyName"\s*:\s*"([^"]+)"`)},
	{re: regexp.MustCompile(`(?i)data-analytics-title="([^"]+)"`)},
	{re: regexp.MustCompile(`(?i)<h1[^>]*class="[^"]*hero[^"]*"[^>]*>([^<]+)</h1>`)},
	{re: regexp.MustCompile(`(?i)<h1[^>]*class="[^"]*product[^"]*"[^>]*>([^<]+)</h1>`)},
	{re: regexp.MustCompile(`(?i)<h1[^>]*>([^<]+)</h1>`)},
	{re: regexp.MustCompile(`(?i)"productName"\s*:\s*"([^"]+)"`)},
	{re: regexp.MustCompile(`(?i)data-product-name="([^"]+)"`)},
	{re: regexp.MustCompile(`(?i)"@type"\s*:\s*"Product"[^}]*"name"\s*:\s*"([^"]+)"`)},
}

var genericPricePatterns = []pattern{
	{re: regexp.MustCompile(`(?i)<meta property="product:price:amount" content="([^"]+)"`)},
	{re: regexp.MustCompile(`(?i)<meta itemprop="price" content="([^"]+)"`)},
	{re: regexp.MustCompile(`(?i)data-price="([^"]+)"`)},
	{re: regexp.MustCompile(`(?i)class="[^"]*price[^"]*"[^>]*>([^<]*[€$£][^<]*)`)},
}

var imagePatterns = []pattern{
	{re: regexp.MustCompile(`(?i)<meta property="og:image" content="([^"]+)"`)},
	{re: regexp.MustCompile(`(?i)<meta name="twitter:image" content="([^"]+)"`)},
	{re: regexp.MustCompile(`(?i)<link rel="image_src" href="([^"]+)"`)},
}

// Retailer tier: per-domain pattern sets, consulted only for fields the
// generic tier left unresolved. Keyed by domain substring.
var retailerTitlePatterns = map[string][]pattern{
	"amazon": {
		{re: regexp.MustCompile(`(?i)<span[^>]*id="productTitle"[^>]*>([^<]+)</span>`)},
		{re: regexp.MustCompile(`(?i)"title"\s*:\s*"([^"]{10,})"`), clean: stripAmazonTitle},
		{re: regexp.MustCompile(`(?i)<title[^>]*>Amazon\.com:\s*([^|<]+)`), clean: stripAmazonTitle},
	},
	"apple": {
		{re: regexp.MustCompile(`(?i)Buy\s+(iPhone\s+\d+[^<>\n"]*)`)},
		{re: regexp.MustCompile(`(?i)Buy\s+(iPad[^<>\n"]*)`)},
		{re: regexp.MustCompile(`(?i)Buy\s+(Mac[^<>\n"]*)`)},
		{re: regexp.MustCompile(`(?i)Buy\s+(Apple\s+[^<>\n"]*)`)},
		{re: regexp.MustCompile(`(?i)iPhone\s+\d+[^<>\n"]{0,50}`)},
		{re: regexp.MustCompile(`(?i)iPad[^<>\n"]{0,50}`)},
	},
	"playstation": {
		{re: regexp.MustCompile(`(?i)PlayStation[\s\x{00A0}]*5[\s\x{00A0}]*Pro`)},
		{re: regexp.MustCompile(`(?i)PS5[\s\x{00A0}]*Pro`)},
		{re: regexp.MustCompile(`(?i)PlayStation[\s\x{00A0}]*\d+[^<>\n"]{0,30}`)},
	},
	"pigu.lt": {
		{re: regexp.MustCompile(`(?i)<title[^>]*>([^<]+?)\s*[|-]\s*pigu\.lt`)},
		{re: regexp.MustCompile(`(?i)<span[^>]*class="[^"]*product-name[^"]*"[^>]*>([^<]+)</span>`)},
	},
	"ideal.lt": {
		{re: regexp.MustCompile(`(?i)<title[^>]*>([^<]+?)\s*-\s*IDEAL\.LT`)},
	},
}

var retailerPricePatterns = map[string][]pattern{
	"amazon": {
		{re: regexp.MustCompile(`(?is)<span[^>]*class="[^"]*a-price-whole[^"]*"[^>]*>([^<]+)</span>\s*<span[^>]*class="[^"]*a-price-fraction[^"]*"[^>]*>([^<]+)</span>`), clean: nil},
		{re: regexp.MustCompile(`(?i)<span[^>]*class="[^"]*a-price-whole[^"]*"[^>]*>([^<]+)</span>`)},
		{re: regexp.MustCompile(`(?i)<span[^>]*id="priceblock_dealprice"[^>]*>([^<]+)</span>`)},
		{re: regexp.MustCompile(`(?i)<span[^>]*id="priceblock_ourprice"[^>]*>([^<]+)</span>`)},
		{re: regexp.MustCompile(`(?i)"priceAmount"\s*:\s*"([^"]+)"`)},
		{re: regexp.MustCompile(`(?i)"displayPrice"\s*:\s*"([^"]+)"`)},
	},
	"apple": {
		{re: regexp.MustCompile(`(?i)"dimensionPriceFrom"\s*:\s*"([^"]+)"`)},
		{re: regexp.MustCompile(`(?i)"fromPrice"\s*:\s*"([^"]+)"`)},
		{re: regexp.MustCompile(`(?i)From\s*(\$\d{3,4})`)},
	},
	"playstation": {
		{re: regexp.MustCompile(`(?i)"price"\s*:\s*(\d+)`)},
		{re: regexp.MustCompile(`(?i)"amount"\s*:\s*"(\d+)"`)},
	},
	"pigu.lt": {
		{re: regexp.MustCompile(`(?i)"currentPrice"\s*:\s*"?([0-9,]+\.?\d*)"?`)},
		{re: regexp.MustCompile(`(?i)class="[^"]*price[^"]*"[^>]*>([^<]*€[^<]*)`)},
		{re: regexp.MustCompile(`(?i)Kaina[^0-9]*([0-9,]+(?:[.,][0-9]{2})?)`), clean: euroSuffix},
	},
	"ideal.lt": {
		{re: regexp.MustCompile(`(?i)class="[^"]*price[^"]*"[^>]*>([^<]*€[^<]*)`)},
		{re: regexp.MustCompile(`(?i)Kaina[^0-9]*([0-9,]+(?:\.[0-9]{2})?)`), clean: euroSuffix},
	},
	"logitechg.com": {
		{re: regexp.MustCompile(`(?i)data-price="([^"]+)"`)},
		{re: regexp.MustCompile(`(?i)class="[^"]*price[^"]*"[^>]*>([^<]*€[^<]*)`)},
	},
	"ebay.de": {
		{re: regexp.MustCompile(`(?i)notranslate">([^<]*€[^<]*)<`)},
		{re: regexp.MustCompile(`(?i)EUR\s*(\d{2,4}(?:[.,]\d{2})?)`), clean: euroSuffix},
	},
}

// Last-resort tier: broad JSON-like key scans plus the raw page title,
// consulted only for fields every prior tier left empty. These quoted-key
// scans match indiscriminately — including inside ld+json blocks — so
// they must stay behind the structured JSON-LD scan.
var lastResortTitlePatterns = []pattern{
	{re: regexp.MustCompile(`(?i)"name"\s*:\s*"([^"]{10,})"`)},
	{re: regexp.MustCompile(`(?i)"title"\s*:\s*"([^"]{10,})"`)},
	{re: regexp.MustCompile(`(?i)data-product-name="([^"]+)"`)},
	{re: regexp.MustCompile(`(?i)<title[^>]*>([^<]+)</title>`)},
}

var lastResortPricePatterns = []pattern{
	{re: regexp.MustCompile(`(?i)"price"\s*:\s*"([^"]+)"`)},
}

func stripAmazonTitle(s string) string {
	s = regexp.MustCompile(`(?i)^Amazon\.com:\s*`).ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// euroSuffix tags a bare numeral as Euro; the price normalizer sorts out
// the separator convention.
func euroSuffix(s string) string {
	if strings.Contains(s, "€") {
		return s
	}
	return "€" + s
}

// FromHTML runs the heuristic tier cascade over raw HTML. First match per
// field wins, independently for title, price text, and image. Unresolved
// fields stay empty; the function never fails.
func FromHTML(html, pageURL string) model.RawExtraction {
	domain := Domain(pageURL)
	var out model.RawExtraction

	// Generic tier.
	for _, p := range genericTitlePatterns {
		if t := p.apply(html); len(t) > 3 {
			out.Title = t
			break
		}
	}
	for _, p := range genericPricePatterns {
		if v := p.apply(html); v != "" {
			out.PriceText = v
			break
		}
	}
	for _, p := range imagePatterns {
		if v := p.apply(html); v != "" {
			out.Image = v
			break
		}
	}

	// Retailer tier, only for fields still unresolved.
	if out.Title == "" {
		for key, patterns := range retailerTitlePatterns {
			if out.Title != "" || !strings.Contains(domain, key) {
				continue
			}
			for _, p := range patterns {
				if t := p.apply(html); len(t) > 3 {
					out.Title = t
					break
				}
			}
		}
	}
	if out.PriceText == "" {
		for key, patterns := range retailerPricePatterns {
			if out.PriceText != "" || !strings.Contains(domain, key) {
				continue
			}
			for _, p := range patterns {
				if v := applyPricePattern(p, html); v != "" {
					out.PriceText = v
					break
				}
			}
		}
	}

	// JSON-LD deep scan, consulted for any still-empty field including
	// the image, which the earlier tiers never read out of ld+json.
	if out.Title == "" || out.PriceText == "" || out.Image == "" {
		title, priceText, image := scanJSONLD(html)
		if out.Title == "" {
			out.Title = title
		}
		if out.PriceText == "" {
			out.PriceText = priceText
		}
		if out.Image == "" {
			out.Image = image
		}
	}

	// Last resort.
	if out.Title == "" {
		for _, p := range lastResortTitlePatterns {
			if t := p.apply(html); len(t) > 3 {
				out.Title = t
				break
			}
		}
	}
	if out.PriceText == "" {
		for _, p := range lastResortPricePatterns {
			if v := p.apply(html); v != "" {
				out.PriceText = v
				break
			}
		}
	}

	out.Image = resolveImageURL(out.Image, pageURL)
	return out
}

// applyPricePattern handles the Amazon whole+fraction split where two
// capture groups form one decimal price.
func applyPricePattern(p pattern, html string) string {
	m := p.re.FindStringSubmatch(html)
	if len(m) >= 3 && m[1] != "" && m[2] != "" {
		return cleanupText(m[1]) + "." + cleanupText(m[2])
	}
	return p.apply(html)
}

var jsonLDRe = regexp.MustCompile(`(?is)<script[^>]*type=["']application/ld\+json["'][^>]*>(.*?)</script>`)

// scanJSONLD isolates ld+json blocks and accepts the first one describing
// a Product (or at least carrying a name). Offer prices are harvested when
// present, rendered with the offer currency's symbol.
func scanJSONLD(html string) (title, priceText, image string) {
	for _, m := range jsonLDRe.FindAllStringSubmatch(html, -1) {
		var doc any
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &doc); err != nil {
			continue
		}
		for _, node := range flattenJSONLD(doc) {
			if title, priceText, image = productFromNode(node); title != "" {
				return title, priceText, image
			}
		}
	}
	return "", "", ""
}

// flattenJSONLD yields candidate objects from a decoded ld+json document,
// descending into top-level arrays and @graph containers.
func flattenJSONLD(doc any) []map[string]any {
	switch v := doc.(type) {
	case map[string]any:
		if graph, ok := v["@graph"].([]any); ok {
			var out []map[string]any
			for _, g := range graph {
				if node, ok := g.(map[string]any); ok {
					out = append(out, node)
				}
			}
			return out
		}
		return []map[string]any{v}
	case []any:
		var out []map[string]any
		for _, item := range v {
			if node, ok := item.(map[string]any); ok {
				out = append(out, node)
			}
		}
		return out
	}
	return nil
}

func productFromNode(node map[string]any) (title, priceText, image string) {
	name, _ := node["name"].(string)
	if !isProductType(node["@type"]) && name == "" {
		return "", "", ""
	}
	if len(strings.TrimSpace(name)) <= 3 {
		return "", "", ""
	}
	title = strings.TrimSpace(name)

	if offer := firstOffer(node["offers"]); offer != nil {
		priceText = renderOfferPrice(offer)
	}

	switch img := node["image"].(type) {
	case string:
		image = img
	case []any:
		if len(img) > 0 {
			image, _ = img[0].(string)
		}
	}
	return title, priceText, image
}

func isProductType(t any) bool {
	switch v := t.(type) {
	case string:
		return v == "Product"
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == "Product" {
				return true
			}
		}
	}
	return false
}

func firstOffer(offers any) map[string]any {
	switch v := offers.(type) {
	case map[string]any:
		return v
	case []any:
		if len(v) > 0 {
			if m, ok := v[0].(map[string]any); ok {
				return m
			}
		}
	}
	return nil
}

var isoSymbols = map[string]string{"EUR": "€", "USD": "$", "GBP": "£"}

func renderOfferPrice(offer map[string]any) string {
	var amount string
	switch p := offer["price"].(type) {
	case string:
		amount = p
	case float64:
		amount = trimFloat(p)
	}
	if amount == "" {
		return ""
	}
	if cur, _ := offer["priceCurrency"].(string); cur != "" {
		if sym, ok := isoSymbols[strings.ToUpper(cur)]; ok {
			return sym + amount
		}
	}
	return amount
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%.2f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

// resolveImageURL turns relative image paths into absolute URLs against
// the source page's origin. Unresolvable inputs pass through unchanged.
func resolveImageURL(image, pageURL string) string {
	if image == "" || strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		return image
	}
	base, err := url.Parse(pageURL)
	if err != nil || base.Host == "" {
		return image
	}
	rel, err := url.Parse(image)
	if err != nil {
		return image
	}
	return base.ResolveReference(rel).String()
}
