package main

import (
	"bufio"
	"context"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/price-scout/internal/model"
)

var (
	batchFile  string
	batchLimit int
	batchSeed  uint64
)

var batchCmd = &cobra.Command{
	Use:   "batch [url...]",
	Short: "Scrape multiple product pages concurrently",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		urls := args
		if batchFile != "" {
			fromFile, err := readURLFile(batchFile)
			if err != nil {
				return err
			}
			urls = append(urls, fromFile...)
		}
		if len(urls) == 0 {
			return eris.New("no urls given: pass them as arguments or via --file")
		}

		env, err := initEngine(ctx, batchSeed)
		if err != nil {
			return err
		}
		defer env.Close()

		return processBatch(ctx, urls, batchLimit, cfg.Batch.MaxConcurrent, func(ctx context.Context, url, requestID string) (*model.ScrapeResponse, error) {
			return env.Pipeline.Scrape(ctx, url, requestID)
		})
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "file with one product URL per line")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of urls to process (0 = all)")
	batchCmd.Flags().Uint64Var(&batchSeed, "seed", 0, "seed the comparison synthesizer for reproducible output")
	rootCmd.AddCommand(batchCmd)
}

// readURLFile reads one URL per line, skipping blanks and # comments.
func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open url file")
	}
	defer f.Close()

	var urls []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "read url file")
	}
	return urls, nil
}

// scrapeFunc is the callback signature for scraping a single URL.
type scrapeFunc func(ctx context.Context, url, requestID string) (*model.ScrapeResponse, error)

// processBatch applies limit, then scrapes urls concurrently with the
// given function. Individual failures are logged, not fatal.
func processBatch(ctx context.Context, urls []string, limit, concurrency int, scrape scrapeFunc) error {
	if limit > 0 && len(urls) > limit {
		urls = urls[:limit]
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("urls", len(urls)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for _, url := range urls {
		g.Go(func() error {
			requestID := uuid.NewString()
			log := zap.L().With(zap.String("url", url), zap.String("request_id", requestID))

			resp, err := scrape(gctx, url, requestID)
			if err != nil {
				failed.Add(1)
				log.Error("scrape failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			log.Info("scrape complete",
				zap.String("title", resp.OriginalProduct.Title),
				zap.Float64("price", resp.OriginalProduct.Price),
				zap.Int("comparisons", len(resp.Comparisons)),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return nil
}
