package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/price-scout/internal/model"
	"github.com/sells-group/price-scout/pkg/anthropic"
)

// Character budget for the HTML payload sent to the model. Keeps prompts
// inside token limits on heavyweight retailer pages.
const defaultHTMLBudget = 50000

const aiSystemPrompt = `You extract product information from e-commerce page HTML. ` +
	`Respond with ONLY a valid JSON object, no prose.`

const aiPromptTemplate = `Extract product information from this e-commerce page HTML. Return ONLY a valid JSON object with these exact fields:

{
  "title": "Product name (clean, without site name or extra text)",
  "price": "Price as string with currency symbol (e.g., '€299.99', '$199.00')",
  "image": "Main product image URL (absolute URL)"
}

RULES:
- Look for prices in multiple formats: €123.45, 123,45 €, €123, EUR 123.45, 123.45 EUR
- If you find ANY price (even without currency), include it with € symbol as default
- Look for Lithuanian "Kaina", German "Preis", French "Prix", Spanish "Precio"
- Check JSON-LD structured data, meta tags, data attributes
- If no clear price is found, use "0"
- Clean up title to remove site name, navigation, and category text
- Focus on the MAIN product being sold, not related items
- Image should be the main product photo, not a thumbnail

URL: %s
Domain: %s

HTML:
%s

JSON:`

// AIExtractor asks a generative model for product fields when the
// heuristic tiers come up short. It is the only stage with meaningful
// latency and cost, so the orchestrator invokes it at most once per
// request.
type AIExtractor struct {
	client     anthropic.Client
	model      string
	htmlBudget int
}

// NewAIExtractor creates an AIExtractor. A nil client disables the stage:
// Extract then always returns nil.
func NewAIExtractor(client anthropic.Client, modelID string) *AIExtractor {
	return &AIExtractor{
		client:     client,
		model:      modelID,
		htmlBudget: defaultHTMLBudget,
	}
}

// WithHTMLBudget overrides the HTML character budget.
func (e *AIExtractor) WithHTMLBudget(n int) *AIExtractor {
	if n > 0 {
		e.htmlBudget = n
	}
	return e
}

// Extract sends trimmed page HTML to the model and parses its JSON reply.
// Any failure — missing client, network error, malformed reply — yields
// nil so the orchestrator can fall through to the next stage.
func (e *AIExtractor) Extract(ctx context.Context, html, pageURL string) *model.RawExtraction {
	if e.client == nil {
		zap.L().Debug("ai extract: no client configured, skipping")
		return nil
	}

	clean := trimHTML(html, e.htmlBudget)
	prompt := fmt.Sprintf(aiPromptTemplate, pageURL, Domain(pageURL), clean)

	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.model,
		MaxTokens: 1024,
		System:    aiSystemPrompt,
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		zap.L().Warn("ai extract: model call failed",
			zap.String("url", pageURL),
			zap.Error(err),
		)
		return nil
	}
	resp.Usage.LogCost(e.model, "ai_extract")

	raw := parseAIReply(resp.Text())
	if raw == nil {
		zap.L().Warn("ai extract: no parseable JSON in reply",
			zap.String("url", pageURL),
		)
	}
	return raw
}

var (
	scriptRe  = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe   = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	commentRe = regexp.MustCompile(`(?s)<!--.*?-->`)
)

// trimHTML strips script, style, and comment blocks and truncates the
// remainder to the character budget.
func trimHTML(html string, budget int) string {
	html = scriptRe.ReplaceAllString(html, "")
	html = styleRe.ReplaceAllString(html, "")
	html = commentRe.ReplaceAllString(html, "")
	if len(html) > budget {
		html = html[:budget]
	}
	return html
}

// parseAIReply scans the model's reply for the first balanced {...} span
// and JSON-parses it. Returns nil when no valid object is present.
func parseAIReply(text string) *model.RawExtraction {
	span := firstJSONObject(text)
	if span == "" {
		return nil
	}

	var raw model.RawExtraction
	if err := json.Unmarshal([]byte(span), &raw); err != nil {
		return nil
	}
	if raw.Title == "" || len(raw.Title) <= 3 || raw.Title == model.TitleNotFound {
		return nil
	}
	return &raw
}

// firstJSONObject returns the first balanced top-level {...} span of the
// text, tracking string literals so braces inside values don't miscount.
func firstJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
