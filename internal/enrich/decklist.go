package enrich

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/topdeck/cardforge/internal/tabular"
)

// CardLine is one parsed decklist entry.
type CardLine struct {
	Name     string
	Quantity int
}

// Decklist line shapes, tried in order:
//
//	4 Lightning Bolt (M10) 146   (Arena export; set and number ignored)
//	4 Lightning Bolt
//	4x Lightning Bolt
//	Lightning Bolt, 4
//	Lightning Bolt               (quantity 1)
var (
	reArenaLine = regexp.MustCompile(`^(\d+)\s+(.+?)(?:\s+\(([A-Z0-9]+)\)\s+\d+)?$`)
	reCountName = regexp.MustCompile(`^(\d+)\s*[xX]?\s+(.+)$`)
	reNameCount = regexp.MustCompile(`^(.+),\s*(\d+)$`)
)

// ParseDecklist parses a plain-text card list into lines. Blank lines are
// skipped; a line that matches no quantity shape is a bare card name with
// quantity one.
func ParseDecklist(text string) []CardLine {
	var lines []CardLine
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if m := reArenaLine.FindStringSubmatch(line); m != nil {
			qty, _ := strconv.Atoi(m[1])
			lines = append(lines, CardLine{Name: strings.TrimSpace(m[2]), Quantity: qty})
			continue
		}
		if m := reCountName.FindStringSubmatch(line); m != nil {
			qty, _ := strconv.Atoi(m[1])
			lines = append(lines, CardLine{Name: strings.TrimSpace(m[2]), Quantity: qty})
			continue
		}
		if m := reNameCount.FindStringSubmatch(line); m != nil {
			qty, _ := strconv.Atoi(m[2])
			lines = append(lines, CardLine{Name: strings.TrimSpace(m[1]), Quantity: qty})
			continue
		}
		lines = append(lines, CardLine{Name: line, Quantity: 1})
	}
	return lines
}

// DecklistDataset parses a decklist into a two-column dataset (Name,
// Quantity) so it can flow through the same pipeline as uploaded CSVs.
func DecklistDataset(sourceID, name, text string) *tabular.Dataset {
	ds, _ := tabular.NewDataset(sourceID, name, []tabular.Column{
		{Name: "Name", Type: tabular.TypeText},
		{Name: "Quantity", Type: tabular.TypeNumber},
	})
	for _, line := range ParseDecklist(text) {
		ds.AppendRow(tabular.Row{
			tabular.Text(line.Name),
			tabular.Number(float64(line.Quantity)),
		})
	}
	return ds
}
