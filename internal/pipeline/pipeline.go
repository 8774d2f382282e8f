// Package pipeline orchestrates product extraction: direct retailer API,
// HTML heuristics, AI-assisted extraction, and URL-pattern inference, in
// that order, each stage running at most once per request. The terminal
// result is always a well-formed ProductData; total failure yields the
// sentinel title with a zero price, never an error.
package pipeline

import (
	"context"
	"net/url"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/price-scout/internal/compare"
	"github.com/sells-group/price-scout/internal/directapi"
	"github.com/sells-group/price-scout/internal/extract"
	"github.com/sells-group/price-scout/internal/fetch"
	"github.com/sells-group/price-scout/internal/history"
	"github.com/sells-group/price-scout/internal/model"
	"github.com/sells-group/price-scout/internal/price"
)

// ErrInvalidURL marks a malformed request URL: the only caller-visible
// failure mode. Everything downstream degrades instead of erroring.
var ErrInvalidURL = eris.New("pipeline: invalid url")

// AIExtractor is the narrow surface the pipeline needs from the
// AI-assisted stage; a nil result means the stage failed or is disabled.
type AIExtractor interface {
	Extract(ctx context.Context, html, pageURL string) *model.RawExtraction
}

// Deps wires the pipeline's collaborators. Direct, AI, and History are
// optional; their stages are skipped when nil.
type Deps struct {
	Direct  directapi.Client
	Fetcher fetch.PageFetcher
	AI      AIExtractor
	Parser  *price.Parser
	Synth   *compare.Synthesizer
	History history.Store
}

// Pipeline runs scrape requests. Stateless between requests; safe for
// concurrent use as long as its collaborators are.
type Pipeline struct {
	deps Deps
}

// New creates a Pipeline, filling in a default parser and synthesizer
// when none are provided.
func New(deps Deps) *Pipeline {
	if deps.Parser == nil {
		deps.Parser = price.NewParser("")
	}
	if deps.Synth == nil {
		deps.Synth = compare.NewSynthesizer(nil, nil)
	}
	return &Pipeline{deps: deps}
}

// Scrape extracts the product behind rawURL and synthesizes competitor
// listings for it. requestID is opaque; it only tags the history record.
func (p *Pipeline) Scrape(ctx context.Context, rawURL, requestID string) (*model.ScrapeResponse, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	product := p.extractProduct(ctx, rawURL)
	comparisons := p.deps.Synth.Comparisons(product)

	zap.L().Info("scrape complete",
		zap.String("url", rawURL),
		zap.String("request_id", requestID),
		zap.String("title", product.Title),
		zap.Float64("price", product.Price),
		zap.Int("comparisons", len(comparisons)),
	)

	p.record(ctx, requestID, product)

	return &model.ScrapeResponse{
		OriginalProduct: product,
		Comparisons:     comparisons,
	}, nil
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return eris.Wrap(ErrInvalidURL, rawURL)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return eris.Wrap(ErrInvalidURL, rawURL)
	}
	return nil
}

// extractProduct walks the fallback chain. Each stage runs at most once;
// a stage failure falls through, never surfaces.
func (p *Pipeline) extractProduct(ctx context.Context, rawURL string) model.ProductData {
	if p.deps.Direct != nil {
		if pd := p.deps.Direct.Lookup(ctx, rawURL); pd != nil {
			zap.L().Debug("resolved via direct api", zap.String("url", rawURL))
			return *pd
		}
	}

	domain := extract.Domain(rawURL)

	var html string
	if p.deps.Fetcher != nil {
		h, err := p.deps.Fetcher.Page(ctx, rawURL)
		if err != nil {
			zap.L().Warn("page fetch failed, continuing with fallbacks",
				zap.String("url", rawURL),
				zap.Error(err),
			)
		} else {
			html = h
		}
	}

	raw := extract.FromHTML(html, rawURL)
	amount := p.deps.Parser.Parse(raw.PriceText)
	product := model.ProductData{
		Title:    raw.Title,
		Price:    amount.Price,
		Currency: amount.Currency,
		Image:    raw.Image,
		URL:      rawURL,
		Store:    domain,
	}

	if product.Incomplete() {
		if replaced, ok := p.tryAI(ctx, html, rawURL, domain, raw.Image); ok {
			product = replaced
		} else if !product.HasTitle() {
			// Last resort, and only when no stage produced a usable title.
			if inferred := extract.InferFromURL(rawURL, domain); inferred != nil {
				a := p.deps.Parser.Parse(inferred.PriceText)
				product = model.ProductData{
					Title:    inferred.Title,
					Price:    a.Price,
					Currency: a.Currency,
					Image:    inferred.Image,
					URL:      rawURL,
					Store:    domain,
				}
				zap.L().Info("resolved via url inference",
					zap.String("url", rawURL),
					zap.String("title", product.Title),
				)
			}
		}
	}

	if product.Title == "" {
		product.Title = model.TitleNotFound
	}
	if product.Image == "" {
		product.Image = model.PlaceholderImage
	}
	return product
}

// tryAI runs the AI-assisted stage once. The AI result replaces the
// heuristic one wholesale when its title is usable, keeping the
// heuristic image if the model returned none.
func (p *Pipeline) tryAI(ctx context.Context, html, rawURL, domain, fallbackImage string) (model.ProductData, bool) {
	if p.deps.AI == nil || html == "" {
		return model.ProductData{}, false
	}

	raw := p.deps.AI.Extract(ctx, html, rawURL)
	if raw == nil || len(raw.Title) <= 3 || raw.Title == model.TitleNotFound {
		return model.ProductData{}, false
	}

	amount := p.deps.Parser.Parse(raw.PriceText)
	product := model.ProductData{
		Title:    raw.Title,
		Price:    amount.Price,
		Currency: amount.Currency,
		Image:    raw.Image,
		URL:      rawURL,
		Store:    domain,
	}
	if product.Image == "" {
		product.Image = fallbackImage
	}
	zap.L().Info("resolved via ai extraction",
		zap.String("url", rawURL),
		zap.String("title", product.Title),
	)
	return product, true
}

// record appends the scrape to history, best-effort.
func (p *Pipeline) record(ctx context.Context, requestID string, product model.ProductData) {
	if p.deps.History == nil || requestID == "" {
		return
	}
	_, err := p.deps.History.Add(ctx, history.Entry{
		RequestID: requestID,
		URL:       product.URL,
		Title:     product.Title,
		Store:     product.Store,
		Price:     product.Price,
		Currency:  product.Currency,
	})
	if err != nil {
		zap.L().Warn("history record failed", zap.Error(err))
	}
}
