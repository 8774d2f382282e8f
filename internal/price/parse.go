// Package price parses free-form retail price text into a numeric amount
// and a currency symbol. Parsing is pure and total: malformed input yields
// a zero amount, never an error.
package price

import (
	"regexp"
	"strconv"
	"strings"
)

// Amount is a parsed price with its currency symbol.
type Amount struct {
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

// Known currency symbols, scanned in order when no Euro marker is present.
var currencySymbols = []string{"$", "£", "€", "¥", "₹", "₽"}

// currencyWords maps textual currency codes to symbols.
var currencyWords = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// pricePattern pairs a numeric-extraction regexp with a specificity flag.
// Patterns are ordered most specific (currency-adjacent, separator-aware)
// to least specific (bare digit run).
type pricePattern struct {
	re          *regexp.Regexp
	hasCurrency bool
}

var pricePatterns = []pricePattern{
	// Euro-adjacent, European separators.
	{regexp.MustCompile(`€\s*(\d{1,4}(?:[,.\s]\d{3})*(?:[,.]\d{2})?)`), true},
	{regexp.MustCompile(`(\d{1,4}(?:[,.\s]\d{3})*(?:[,.]\d{2})?)\s*€`), true},
	{regexp.MustCompile(`(?i)EUR\s*(\d{1,4}(?:[,.\s]\d{3})*(?:[,.]\d{2})?)`), true},
	{regexp.MustCompile(`(?i)(\d{1,4}(?:[,.\s]\d{3})*(?:[,.]\d{2})?)\s*EUR`), true},

	// Other currency symbols.
	{regexp.MustCompile(`[$£¥₹₽]\s*(\d{1,4}(?:,\d{3})*(?:\.\d{2})?)`), true},
	{regexp.MustCompile(`(\d{1,4}(?:,\d{3})*(?:\.\d{2})?)\s*[$£¥₹₽]`), true},

	// Currency words.
	{regexp.MustCompile(`(?i)(\d{1,4}(?:,\d{3})*(?:\.\d{2})?)\s*(?:USD|GBP|CAD|AUD)`), true},
	{regexp.MustCompile(`(?i)(?:USD|GBP|CAD|AUD)\s*(\d{1,4}(?:,\d{3})*(?:\.\d{2})?)`), true},

	// Price keywords in the primary market languages.
	{regexp.MustCompile(`(?i)(?:price|cost|kaina|preis|prix|precio)\s*:?\s*€?\s*(\d{1,4}(?:[,.]\d{2,3})?)`), false},
	{regexp.MustCompile(`(?i)(?:from|starting|ab|vanaf)\s*€?\s*(\d{1,4}(?:[,.]\d{2})?)`), false},

	// Bare European and US decimal formats.
	{regexp.MustCompile(`(\d{1,3}(?:[\s.]\d{3})*,\d{2})`), false},
	{regexp.MustCompile(`(\d{1,3}(?:,\d{3})*\.\d{2})`), false},

	// Last resort: short decimal, then a bare 2–5 digit run.
	{regexp.MustCompile(`(\d{2,4}[,.]\d{2})`), false},
	{regexp.MustCompile(`(\d{2,5})`), false},
}

// Candidate amounts outside this range are treated as noise (SKU fragments,
// pixel sizes, review counts).
const (
	minPlausible = 1
	maxPlausible = 50000
)

// Parser extracts amounts from price text. The zero value is not usable;
// construct with NewParser.
type Parser struct {
	defaultCurrency string
}

// NewParser returns a Parser that falls back to defaultCurrency when no
// currency marker is found in the text. The primary pipeline uses "€",
// the legacy pipeline "$".
func NewParser(defaultCurrency string) *Parser {
	if defaultCurrency == "" {
		defaultCurrency = "€"
	}
	return &Parser{defaultCurrency: defaultCurrency}
}

// DefaultCurrency returns the configured fallback currency symbol.
func (p *Parser) DefaultCurrency() string { return p.defaultCurrency }

var wsRe = regexp.MustCompile(`\s+`)
var trailingEuroRe = regexp.MustCompile(`\d\s*€`)

// Parse extracts the most plausible price from text. It never fails: when
// no pattern matches, the result carries a zero price and the detected or
// default currency.
func (p *Parser) Parse(text string) Amount {
	if text == "" {
		return Amount{Price: 0, Currency: p.defaultCurrency}
	}

	clean := strings.TrimSpace(wsRe.ReplaceAllString(text, " "))
	currency := p.detectCurrency(clean)

	for _, pat := range pricePatterns {
		best, ok := bestMatch(pat.re, clean)
		if ok {
			return Amount{Price: best, Currency: currency}
		}
	}

	return Amount{Price: 0, Currency: currency}
}

// detectCurrency scans for currency markers. Euro markers take priority
// because the primary target market is European; other symbols and
// currency words are checked next, then the configured default.
func (p *Parser) detectCurrency(text string) string {
	if strings.Contains(text, "€") ||
		strings.Contains(strings.ToLower(text), "eur") ||
		trailingEuroRe.MatchString(text) {
		return "€"
	}
	for _, sym := range currencySymbols {
		if strings.Contains(text, sym) {
			return sym
		}
	}
	upper := strings.ToUpper(text)
	for word, sym := range currencyWords {
		if strings.Contains(upper, word) {
			return sym
		}
	}
	return p.defaultCurrency
}

// bestMatch runs one pattern over the text and picks the most plausible
// candidate: values in the typical product range (10–5000) beat values
// outside it, earlier matches beat later ones.
func bestMatch(re *regexp.Regexp, text string) (float64, bool) {
	matches := re.FindAllStringSubmatch(text, -1)
	var (
		found    bool
		fallback float64
	)
	for _, m := range matches {
		if len(m) < 2 || m[1] == "" {
			continue
		}
		v, ok := normalizeNumeral(m[1])
		if !ok || v < minPlausible || v > maxPlausible {
			continue
		}
		if v >= 10 && v <= 5000 {
			return v, true
		}
		if !found {
			fallback = v
			found = true
		}
	}
	return fallback, found
}

// normalizeNumeral strips grouping separators and leaves at most one
// decimal point before the final two digits. Handles both the European
// convention (1.234,56) and the US one (1,234.56).
func normalizeNumeral(s string) (float64, bool) {
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")

	switch {
	case hasComma && hasDot:
		// Whichever separator comes last is the decimal point.
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		parts := strings.Split(s, ",")
		if len(parts) == 2 && len(parts[1]) == 2 {
			s = parts[0] + "." + parts[1]
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasDot:
		// A dot followed by exactly three digits is a grouping separator
		// when no decimal part follows (European thousands).
		parts := strings.Split(s, ".")
		if len(parts) > 1 && len(parts[len(parts)-1]) == 3 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
