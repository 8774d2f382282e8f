package main

import (
	"encoding/json"
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/price-scout/internal/export"
)

var (
	scrapeRequestID string
	scrapeXLSX      string
	scrapeSeed      uint64
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>",
	Short: "Scrape a single product page and synthesize price comparisons",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx, scrapeSeed)
		if err != nil {
			return err
		}
		defer env.Close()

		requestID := scrapeRequestID
		if requestID == "" {
			requestID = uuid.NewString()
		}

		resp, err := env.Pipeline.Scrape(ctx, args[0], requestID)
		if err != nil {
			return eris.Wrap(err, "scrape")
		}

		if scrapeXLSX != "" {
			if err := export.WriteReport(scrapeXLSX, resp); err != nil {
				return eris.Wrap(err, "write report")
			}
			zap.L().Info("report written", zap.String("path", scrapeXLSX))
		}

		// Print result JSON to stdout
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	},
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeRequestID, "request-id", "", "request id for the history record (default random)")
	scrapeCmd.Flags().StringVar(&scrapeXLSX, "xlsx", "", "write the result to an xlsx workbook at this path")
	scrapeCmd.Flags().Uint64Var(&scrapeSeed, "seed", 0, "seed the comparison synthesizer for reproducible output")
	rootCmd.AddCommand(scrapeCmd)
}
