package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/price-scout/internal/export"
)

var (
	historyLimit int
	historyXLSX  string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent scrapes from the history store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := initHistory(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate history store")
		}

		entries, err := store.Recent(ctx, historyLimit)
		if err != nil {
			return eris.Wrap(err, "query history")
		}

		if historyXLSX != "" {
			if err := export.WriteHistory(historyXLSX, entries); err != nil {
				return eris.Wrap(err, "write history workbook")
			}
			zap.L().Info("history written",
				zap.String("path", historyXLSX),
				zap.Int("entries", len(entries)),
			)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "max entries to return (0 = store default)")
	historyCmd.Flags().StringVar(&historyXLSX, "xlsx", "", "also write entries to an xlsx workbook at this path")
	rootCmd.AddCommand(historyCmd)
}
