package scryfall

import (
	"sort"
	"strings"
	"unicode"
)

// Card is the subset of the catalog card object the enricher needs.
type Card struct {
	Name            string            `json:"name"`
	TypeLine        string            `json:"type_line"`
	Rarity          string            `json:"rarity"`
	Colors          []string          `json:"colors"`
	Prices          Prices            `json:"prices"`
	ImageURIs       map[string]string `json:"image_uris"`
	CardFaces       []CardFace        `json:"card_faces"`
	SetCode         string            `json:"set"`
	SetName         string            `json:"set_name"`
	CollectorNumber string            `json:"collector_number"`
	FrameEffects    []string          `json:"frame_effects"`
	Layout          string            `json:"layout"`
	Digital         bool              `json:"digital"`
}

// Prices holds the catalog's market prices as decimal strings. Empty means
// no price is known for that finish.
type Prices struct {
	USD     string `json:"usd"`
	USDFoil string `json:"usd_foil"`
}

// CardFace is one face of a multi-faced card.
type CardFace struct {
	ImageURIs map[string]string `json:"image_uris"`
}

// colorNames maps the catalog's single-letter color codes to display names.
var colorNames = map[string]string{
	"W": "White",
	"U": "Blue",
	"B": "Black",
	"R": "Red",
	"G": "Green",
}

// RarityLabel returns the rarity with the first letter capitalized, e.g.
// "mythic" becomes "Mythic".
func (c *Card) RarityLabel() string {
	if c.Rarity == "" {
		return ""
	}
	r := []rune(c.Rarity)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// ColorTags returns one "Colour: X" tag per color. Colorless cards get a
// single "Colour: Colorless" tag.
func (c *Card) ColorTags() []string {
	if len(c.Colors) == 0 {
		return []string{"Colour: Colorless"}
	}
	tags := make([]string, len(c.Colors))
	for i, code := range c.Colors {
		name, ok := colorNames[code]
		if !ok {
			name = code
		}
		tags[i] = "Colour: " + name
	}
	return tags
}

// TypeTag returns a "Type: X" tag built from the supertypes and types on
// the left of the type line's em dash separator. Lowercase words (like
// reminder text artifacts) are skipped.
func (c *Card) TypeTag() string {
	left, _, _ := strings.Cut(c.TypeLine, "—")
	var types []string
	for _, word := range strings.Fields(left) {
		if r := []rune(word); len(r) > 0 && unicode.IsUpper(r[0]) {
			types = append(types, word)
		}
	}
	if len(types) == 0 {
		return ""
	}
	return "Type: " + strings.Join(types, " ")
}

// Tags returns the full comma-separated tag string: color tags, then the
// rarity tag, then the type tag.
func (c *Card) Tags() string {
	tags := c.ColorTags()
	if r := c.RarityLabel(); r != "" {
		tags = append(tags, "Rarity: "+r)
	} else {
		tags = append(tags, "")
	}
	tags = append(tags, c.TypeTag())
	return strings.Join(tags, ", ")
}

// ImagePNG returns the card's PNG image URL, falling back to the first
// card face for layouts without a top-level image.
func (c *Card) ImagePNG() string {
	if url, ok := c.ImageURIs["png"]; ok {
		return url
	}
	if len(c.CardFaces) > 0 {
		return c.CardFaces[0].ImageURIs["png"]
	}
	return ""
}

// PriceUSD returns the USD price for the requested finish. A foil request
// falls back to the regular price when no foil price is listed.
func (c *Card) PriceUSD(foil bool) string {
	if foil && c.Prices.USDFoil != "" {
		return c.Prices.USDFoil
	}
	return c.Prices.USD
}

// HasBoosterfun reports whether the card carries the boosterfun frame
// effect (alternate-art booster treatments).
func (c *Card) HasBoosterfun() bool {
	for _, fe := range c.FrameEffects {
		if fe == "boosterfun" {
			return true
		}
	}
	return false
}

// Set is one catalog set entry.
type Set struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	SetType    string `json:"set_type"`
	ReleasedAt string `json:"released_at"`
}

// saleableSetTypes are the set types carried in the set picker. Memorabilia
// and minigame sets are excluded.
var saleableSetTypes = map[string]bool{
	"expansion":        true,
	"core":             true,
	"masters":          true,
	"draft_innovation": true,
	"commander":        true,
	"starter":          true,
	"funny":            true,
	"duel_deck":        true,
	"box":              true,
	"from_the_vault":   true,
	"spellbook":        true,
	"premium_deck":     true,
	"archenemy":        true,
	"planechase":       true,
	"vanguard":         true,
	"treasure_chest":   true,
	"alchemy":          true,
	"remaster":         true,
}

// filterSets keeps saleable set types and orders newest first.
func filterSets(sets []Set) []Set {
	out := make([]Set, 0, len(sets))
	for _, s := range sets {
		if saleableSetTypes[s.SetType] {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReleasedAt > out[j].ReleasedAt
	})
	return out
}
