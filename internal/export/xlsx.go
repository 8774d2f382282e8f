// Package export writes scrape results to XLSX workbooks.
package export

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/price-scout/internal/history"
	"github.com/sells-group/price-scout/internal/model"
)

// WriteReport writes one scrape result to an XLSX workbook: a Product
// sheet for the original product and a Comparisons sheet for the
// synthesized listings.
func WriteReport(path string, resp *model.ScrapeResponse) error {
	f := xlsx.NewFile()

	product, err := f.AddSheet("Product")
	if err != nil {
		return eris.Wrap(err, "export: add product sheet")
	}
	addRow(product, "Title", "Price", "Currency", "Store", "URL", "Image")
	p := resp.OriginalProduct
	addRow(product, p.Title, formatPrice(p.Price), p.Currency, p.Store, p.URL, p.Image)

	comparisons, err := f.AddSheet("Comparisons")
	if err != nil {
		return eris.Wrap(err, "export: add comparisons sheet")
	}
	addRow(comparisons,
		"Position", "Store", "Title", "Price", "Currency", "Condition",
		"Availability", "Rating", "Reviews", "In Stock", "URL", "Assessment",
	)
	for _, c := range resp.Comparisons {
		addRow(comparisons,
			fmt.Sprintf("%d", c.Position),
			c.Store,
			c.Title,
			formatPrice(c.Price),
			c.Currency,
			c.Condition,
			c.Availability,
			fmt.Sprintf("%.1f", c.Rating),
			fmt.Sprintf("%d", c.Reviews),
			boolCell(c.InStock),
			c.URL,
			c.Assessment.Description,
		)
	}

	return eris.Wrapf(f.Save(path), "export: save %s", path)
}

// WriteHistory writes history entries to a single-sheet XLSX workbook,
// preserving the given order.
func WriteHistory(path string, entries []history.Entry) error {
	f := xlsx.NewFile()

	sheet, err := f.AddSheet("History")
	if err != nil {
		return eris.Wrap(err, "export: add history sheet")
	}
	addRow(sheet, "Scraped At", "Request ID", "Title", "Store", "Price", "Currency", "URL")
	for _, e := range entries {
		addRow(sheet,
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			e.RequestID,
			e.Title,
			e.Store,
			formatPrice(e.Price),
			e.Currency,
			e.URL,
		)
	}

	return eris.Wrapf(f.Save(path), "export: save %s", path)
}

func addRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().Value = v
	}
}

func formatPrice(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func boolCell(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
