// Package enrich builds marketplace product rows from card lists.
//
// Input is either a dataset with a card name column (plus optional
// quantity, set code, and foil columns) or a whole catalog set. Output is
// a dataset over the canonical marketplace column set, so the merge
// pipeline and exporter handle enriched data like any other upload.
package enrich

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/topdeck/cardforge/internal/logging"
	"github.com/topdeck/cardforge/internal/pricing"
	"github.com/topdeck/cardforge/internal/scryfall"
	"github.com/topdeck/cardforge/internal/tabular"
)

// Catalog is the card lookup surface the enricher needs.
type Catalog interface {
	Named(ctx context.Context, name, setCode string) (*scryfall.Card, error)
	SetCards(ctx context.Context, setCode string) ([]scryfall.Card, error)
}

// RateSource provides currency conversion rates.
type RateSource interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// Enricher looks cards up in the catalog and prices them.
type Enricher struct {
	catalog Catalog
	rates   RateSource
	calc    *pricing.Calculator
	from    string
	to      string
}

// New creates an enricher converting prices from one currency to another.
func New(catalog Catalog, rates RateSource, calc *pricing.Calculator, from, to string) *Enricher {
	return &Enricher{catalog: catalog, rates: rates, calc: calc, from: from, to: to}
}

// Report summarizes one enrichment run.
type Report struct {
	Rows    int      `json:"rows"`
	Missing []string `json:"missing,omitempty"` // card names the catalog had no match for
	Rate    string   `json:"rate,omitempty"`    // conversion rate used, empty when unavailable
}

// Column name candidates accepted in input files.
var (
	nameColumns    = []string{"Name", "name", "Title", "title"}
	qtyColumns     = []string{"Count", "Quantity", "Qty"}
	setColumns     = []string{"Edition Code", "Set Code", "Set"}
	setNameColumns = []string{"Edition", "Set Name"}
	numberColumns  = []string{"Card Number", "Collector Number"}
	foilColumns    = []string{"Foil"}
)

func findColumn(ds *tabular.Dataset, candidates []string) int {
	for _, name := range candidates {
		if i := ds.ColumnIndex(name); i >= 0 {
			return i
		}
	}
	return -1
}

func cellString(row tabular.Row, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx].Render(""))
}

func isFoil(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1":
		return true
	}
	return false
}

// rate fetches the conversion rate once per run. A rate failure is not
// fatal: prices stay empty and the report carries no rate.
func (e *Enricher) rate(ctx context.Context) decimal.Decimal {
	rate, err := e.rates.Rate(ctx, e.from, e.to)
	if err != nil {
		logging.FromContext(ctx).Warn("exchange rate unavailable, prices left empty", "error", err)
		return decimal.Zero
	}
	return rate
}

// Enrich builds product rows for every card named in the input dataset.
// Cards the catalog cannot find keep their name and quantity and are
// listed in the report; any other catalog failure aborts the run.
func (e *Enricher) Enrich(ctx context.Context, ds *tabular.Dataset) (*tabular.Dataset, *Report, error) {
	nameIdx := findColumn(ds, nameColumns)
	if nameIdx < 0 {
		return nil, nil, errors.New("no card name column: expected one of Name, Title")
	}
	qtyIdx := findColumn(ds, qtyColumns)
	setIdx := findColumn(ds, setColumns)
	setNameIdx := findColumn(ds, setNameColumns)
	numberIdx := findColumn(ds, numberColumns)
	foilIdx := findColumn(ds, foilColumns)

	rate := e.rate(ctx)
	report := &Report{}
	if !rate.IsZero() {
		report.Rate = rate.String()
	}

	out := newProductDataset(ds.SourceID, ds.Name)
	for _, row := range ds.Rows {
		name := cellString(row, nameIdx)
		if name == "" {
			continue
		}

		qty := 1
		if q, err := strconv.Atoi(cellString(row, qtyIdx)); err == nil && q > 0 {
			qty = q
		}
		foil := foilIdx >= 0 && isFoil(cellString(row, foilIdx))

		card, err := e.catalog.Named(ctx, name, cellString(row, setIdx))
		if err != nil {
			var nf *scryfall.NotFoundError
			if !errors.As(err, &nf) {
				return nil, nil, err
			}
			report.Missing = append(report.Missing, name)
			card = nil
		}

		out.AppendRow(e.productRow(card, name, qty, foil, rate,
			cellString(row, setNameIdx), cellString(row, numberIdx)))
		report.Rows++
	}
	return out, report, nil
}

// EnrichSet builds product rows for every regular card of a catalog set.
func (e *Enricher) EnrichSet(ctx context.Context, sourceID, setCode string) (*tabular.Dataset, *Report, error) {
	cards, err := e.catalog.SetCards(ctx, setCode)
	if err != nil {
		return nil, nil, err
	}

	rate := e.rate(ctx)
	report := &Report{Rows: len(cards)}
	if !rate.IsZero() {
		report.Rate = rate.String()
	}

	out := newProductDataset(sourceID, "set_"+strings.ToLower(setCode))
	for i := range cards {
		card := &cards[i]
		out.AppendRow(e.productRow(card, card.Name, 1, false, rate, "", ""))
	}
	return out, report, nil
}

func newProductDataset(sourceID, name string) *tabular.Dataset {
	columns := make([]tabular.Column, len(ProductColumns))
	for i, col := range ProductColumns {
		columns[i] = tabular.Column{Name: col, Type: tabular.TypeText}
	}
	ds, _ := tabular.NewDataset(sourceID, name, columns)
	return ds
}

// handle derives the marketplace product handle from the card name.
func handle(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "-"))
}

// option1Value builds the variant label: the set name, with finish and
// alternate-art suffixes.
func option1Value(card *scryfall.Card, foil bool, fallbackSetName string) string {
	setName := fallbackSetName
	if card != nil && card.SetName != "" {
		setName = card.SetName
	}
	v := strings.TrimSpace(setName)
	if foil {
		v += " (Foil)"
	}
	if card != nil && card.HasBoosterfun() {
		v += " [Boosterfun]"
	}
	return v
}

// productRow builds one marketplace row. card may be nil for catalog
// misses, in which case only the name, quantity, and input fallbacks are
// filled.
func (e *Enricher) productRow(card *scryfall.Card, name string, qty int, foil bool, rate decimal.Decimal, fallbackSetName, fallbackNumber string) tabular.Row {
	cells := make(map[string]string, len(productDefaults)+16)
	for col, val := range productDefaults {
		cells[col] = val
	}

	cells["Handle"] = handle(name)
	cells["Name"] = name
	cells["Variant Inventory Qty"] = strconv.Itoa(qty)
	cells["Option1 Value"] = option1Value(card, foil, fallbackSetName)
	cells["Set Name"] = fallbackSetName
	cells["Card Number"] = fallbackNumber

	if card != nil {
		cells["Type"] = card.TypeLine
		cells["Tags"] = card.Tags()
		cells["Rarity (product.metafields.shopify.rarity)"] = card.RarityLabel()
		cells["Color (product.metafields.shopify.color-pattern)"] = strings.Join(card.ColorTags(), ", ")
		cells["Image Src"] = card.ImagePNG()
		cells["Variant Image"] = card.ImagePNG()
		cells["Variant Price"] = e.calc.ListedPrice(card.PriceUSD(foil), rate)
		cells["Rarity"] = card.RarityLabel()
		if card.SetName != "" {
			cells["Set Name"] = card.SetName
		}
		if card.CollectorNumber != "" {
			cells["Card Number"] = card.CollectorNumber
		}
	}

	row := make(tabular.Row, len(ProductColumns))
	for i, col := range ProductColumns {
		row[i] = tabular.Text(cells[col])
	}
	return row
}
