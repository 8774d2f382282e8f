package main

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/price-scout/internal/compare"
	"github.com/sells-group/price-scout/internal/directapi"
	"github.com/sells-group/price-scout/internal/extract"
	"github.com/sells-group/price-scout/internal/fetch"
	"github.com/sells-group/price-scout/internal/history"
	"github.com/sells-group/price-scout/internal/pipeline"
	"github.com/sells-group/price-scout/internal/price"
	"github.com/sells-group/price-scout/pkg/anthropic"
)

// scrapeEnv holds the initialized history store and pipeline shared by
// the scrape/batch/serve commands.
type scrapeEnv struct {
	History  history.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the environment.
func (e *scrapeEnv) Close() {
	if e.History != nil {
		_ = e.History.Close()
	}
}

// initEngine builds the extraction pipeline from configuration. A
// non-zero seed makes the comparison synthesizer deterministic. Callers
// should defer env.Close().
func initEngine(ctx context.Context, seed uint64) (*scrapeEnv, error) {
	store, err := initHistory(ctx)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, eris.Wrap(err, "migrate history store")
	}

	fetcher := fetch.New(fetch.Options{
		UserAgent: cfg.Fetch.UserAgent,
		Timeout:   time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxBody:   cfg.Fetch.MaxBodyBytes,
		RateLimit: rate.Limit(cfg.Fetch.RatePerHost),
		Burst:     cfg.Fetch.Burst,
		Attempts:  cfg.Fetch.RetryAttempts,
	})

	// AI-assisted extraction is optional; without a key the pipeline
	// stops at the heuristic tiers.
	var ai pipeline.AIExtractor
	if cfg.Anthropic.Key != "" {
		client := anthropic.NewClient(cfg.Anthropic.Key)
		ai = extract.NewAIExtractor(client, cfg.Anthropic.Model).WithHTMLBudget(cfg.Anthropic.HTMLBudget)
	} else {
		zap.L().Debug("PRICESCOUT_ANTHROPIC_KEY not set, AI-assisted extraction disabled")
	}

	catalog, err := loadCatalog()
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	var rng *rand.Rand
	if seed != 0 {
		rng = rand.New(rand.NewPCG(seed, seed))
	}

	p := pipeline.New(pipeline.Deps{
		Direct:  directapi.NewPlayStation(directapi.WithBaseURL(cfg.DirectAPI.PlayStationBaseURL)),
		Fetcher: fetcher,
		AI:      ai,
		Parser:  price.NewParser(cfg.Price.DefaultCurrency),
		Synth:   compare.NewSynthesizer(catalog, rng),
		History: store,
	})

	return &scrapeEnv{History: store, Pipeline: p}, nil
}

func initHistory(ctx context.Context) (history.Store, error) {
	switch cfg.History.Driver {
	case "", "memory":
		return history.NewMemory(), nil
	case "sqlite":
		dsn := cfg.History.DatabaseURL
		if dsn == "" {
			dsn = "price-scout.db"
		}
		return history.NewSQLite(dsn)
	case "postgres":
		if cfg.History.DatabaseURL == "" {
			return nil, eris.New("history: postgres driver requires database_url")
		}
		return history.NewPostgres(ctx, cfg.History.DatabaseURL, &history.PoolConfig{
			MaxConns: cfg.History.MaxConns,
			MinConns: cfg.History.MinConns,
		})
	default:
		return nil, eris.Errorf("history: unknown driver %q", cfg.History.Driver)
	}
}

func loadCatalog() ([]compare.RetailerProfile, error) {
	if cfg.Compare.CatalogPath == "" {
		return nil, nil
	}
	catalog, err := compare.LoadCatalog(cfg.Compare.CatalogPath)
	if err != nil {
		return nil, err
	}
	zap.L().Info("loaded retailer catalog",
		zap.String("path", cfg.Compare.CatalogPath),
		zap.Int("retailers", len(catalog)),
	)
	return catalog, nil
}
