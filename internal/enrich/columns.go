package enrich

// ProductColumns is the canonical marketplace CSV column set, in export
// order. Enriched datasets always carry every column; cells the catalog
// cannot fill stay empty.
var ProductColumns = []string{
	"Handle", "Name", "Body (HTML)", "Vendor", "Product Category", "Type", "Tags", "Published",
	"Option1 Name", "Option1 Value", "Option1 Linked To", "Option2 Name", "Option2 Value", "Option2 Linked To",
	"Option3 Name", "Option3 Value", "Option3 Linked To", "Variant SKU", "Variant Grams",
	"Variant Inventory Tracker", "Variant Inventory Qty", "Variant Inventory Policy",
	"Variant Fulfillment Service", "Variant Price", "Variant Compare At Price", "Variant Requires Shipping",
	"Variant Taxable", "Variant Barcode", "Image Src", "Image Position", "Image Alt Text", "Gift Card",
	"SEO Title", "SEO Description", "Google Shopping / Google Product Category", "Google Shopping / Gender",
	"Google Shopping / Age Group", "Google Shopping / MPN", "Google Shopping / Condition",
	"Google Shopping / Custom Product", "Google Shopping / Custom Label 0", "Google Shopping / Custom Label 1",
	"Google Shopping / Custom Label 2", "Google Shopping / Custom Label 3", "Google Shopping / Custom Label 4",
	"Merged Product (product.metafields.merges.product_merged)",
	"Age restrictions (product.metafields.shopify.age-restrictions)",
	"Board game features (product.metafields.shopify.board-game-features)",
	"Board game mechanics (product.metafields.shopify.board-game-mechanics)",
	"Card attributes (product.metafields.shopify.card-attributes)",
	"Color (product.metafields.shopify.color-pattern)",
	"Condition (product.metafields.shopify.condition)",
	"Event type (product.metafields.shopify.event-type)",
	"Gameplay skills (product.metafields.shopify.gameplay-skills)",
	"Rarity (product.metafields.shopify.rarity)",
	"Recommended age group (product.metafields.shopify.recommended-age-group)",
	"Theme (product.metafields.shopify.theme)",
	"Ticket additional features (product.metafields.shopify.ticket-additional-features)",
	"Ticket type (product.metafields.shopify.ticket-type)",
	"Toy/Game material (product.metafields.shopify.toy-game-material)",
	"Trading card packaging (product.metafields.shopify.trading-card-packaging)",
	"Variant Image", "Variant Weight Unit", "Variant Tax Code", "Cost per item", "Status",
	"Set Name", "Card Number", "Rarity",
}

// productDefaults are the store's fixed values for new product rows.
// Everything lists as a draft so a human reviews before publishing.
var productDefaults = map[string]string{
	"Vendor":                      "Top Deck",
	"Product Category":            "Uncategorized",
	"Published":                   "TRUE",
	"Option1 Name":                "Version",
	"Variant Grams":               "2",
	"Variant Inventory Tracker":   "shopify",
	"Variant Inventory Policy":    "deny",
	"Variant Fulfillment Service": "manual",
	"Variant Requires Shipping":   "TRUE",
	"Variant Taxable":             "TRUE",
	"Gift Card":                   "FALSE",
	"Variant Weight Unit":         "g",
	"Status":                      "draft",
}
