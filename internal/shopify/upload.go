package shopify

import (
	"context"
	"strconv"
	"strings"

	"github.com/topdeck/cardforge/internal/logging"
	"github.com/topdeck/cardforge/internal/tabular"
)

// Result reports the outcome of one product or variant operation.
type Result struct {
	Handle  string `json:"handle"`
	Variant string `json:"variant,omitempty"`
	Action  string `json:"action"` // created, updated, added, failed
	Error   string `json:"error,omitempty"`
}

// Uploader pushes an enriched product dataset to the store. Rows are
// grouped by handle: a new handle becomes a product with all its variants,
// an existing handle gets variants updated or added by Option1 value.
type Uploader struct {
	client *Client
}

// NewUploader creates an uploader over the given client.
func NewUploader(client *Client) *Uploader {
	return &Uploader{client: client}
}

// rowGroup is one product's rows, in dataset order.
type rowGroup struct {
	handle string
	rows   []tabular.Row
}

// groupByHandle splits rows into per-handle groups preserving first-seen
// handle order.
func groupByHandle(ds *tabular.Dataset) []rowGroup {
	handleIdx := ds.ColumnIndex("Handle")
	index := make(map[string]int)
	var groups []rowGroup

	for _, row := range ds.Rows {
		handle := ""
		if handleIdx >= 0 {
			handle = strings.TrimSpace(row[handleIdx].Render(""))
		}
		if handle == "" {
			continue
		}
		i, ok := index[handle]
		if !ok {
			i = len(groups)
			index[handle] = i
			groups = append(groups, rowGroup{handle: handle})
		}
		groups[i].rows = append(groups[i].rows, row)
	}
	return groups
}

// cell reads a named column from a row, empty when the column is absent.
func cell(ds *tabular.Dataset, row tabular.Row, col string) string {
	i := ds.ColumnIndex(col)
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i].Render(""))
}

// cellOr reads a named column with a fallback for empty cells.
func cellOr(ds *tabular.Dataset, row tabular.Row, col, fallback string) string {
	if v := cell(ds, row, col); v != "" {
		return v
	}
	return fallback
}

// rowVariant maps one dataset row to an API variant.
func rowVariant(ds *tabular.Dataset, row tabular.Row) Variant {
	qty := 1
	if q, err := strconv.Atoi(cell(ds, row, "Variant Inventory Qty")); err == nil {
		qty = q
	}

	v := Variant{
		Price:               cell(ds, row, "Variant Price"),
		SKU:                 cell(ds, row, "Variant SKU"),
		Option1:             cellOr(ds, row, "Option1 Value", "Default Title"),
		InventoryQuantity:   qty,
		InventoryManagement: cellOr(ds, row, "Variant Inventory Tracker", "shopify"),
		InventoryPolicy:     cellOr(ds, row, "Variant Inventory Policy", "deny"),
		FulfillmentService:  cellOr(ds, row, "Variant Fulfillment Service", "manual"),
	}
	if src := cell(ds, row, "Image Src"); src != "" {
		v.Image = &Image{Src: src}
	}
	return v
}

// rowProduct maps one dataset row to the product shell (no variants).
func rowProduct(ds *tabular.Dataset, row tabular.Row) Product {
	return Product{
		Title:       cell(ds, row, "Name"),
		BodyHTML:    cell(ds, row, "Body (HTML)"),
		Vendor:      cell(ds, row, "Vendor"),
		ProductType: cell(ds, row, "Type"),
		Tags:        cell(ds, row, "Tags"),
		Status:      cellOr(ds, row, "Status", "active"),
	}
}

// Upload pushes every product row in the dataset to the store and returns
// one result per product or variant operation. Per-product failures are
// recorded and the upload continues; only context cancellation aborts.
func (u *Uploader) Upload(ctx context.Context, ds *tabular.Dataset) ([]Result, error) {
	log := logging.FromContext(ctx)
	var results []Result

	for _, group := range groupByHandle(ds) {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		existing, err := u.client.ProductByHandle(ctx, group.handle)
		if err != nil {
			results = append(results, Result{Handle: group.handle, Action: "failed", Error: err.Error()})
			continue
		}

		if existing == nil {
			results = append(results, u.createProduct(ctx, ds, group))
			continue
		}

		// Existing product: match variants by normalized Option1 value.
		byOption := make(map[string]Variant, len(existing.Variants))
		for _, v := range existing.Variants {
			byOption[strings.ToLower(strings.TrimSpace(v.Option1))] = v
		}

		for _, row := range group.rows {
			want := rowVariant(ds, row)
			key := strings.ToLower(strings.TrimSpace(want.Option1))

			if have, ok := byOption[key]; ok {
				results = append(results, u.updateVariant(ctx, group.handle, have, want))
			} else {
				results = append(results, u.addVariant(ctx, group.handle, existing.ID, want))
			}
		}
		log.Info("product synced", "handle", group.handle, "variants", len(group.rows))
	}
	return results, nil
}

// createProduct creates a product with all of the group's variants and
// attaches variant images.
func (u *Uploader) createProduct(ctx context.Context, ds *tabular.Dataset, group rowGroup) Result {
	product := rowProduct(ds, group.rows[0])
	for _, row := range group.rows {
		product.Variants = append(product.Variants, rowVariant(ds, row))
	}

	created, err := u.client.CreateProduct(ctx, &product)
	if err != nil {
		return Result{Handle: group.handle, Action: "failed", Error: err.Error()}
	}

	// The create call drops variant image sources, so attach them now.
	for _, want := range product.Variants {
		if want.Image == nil {
			continue
		}
		for _, got := range created.Variants {
			if got.Option1 != want.Option1 {
				continue
			}
			if imageID, err := u.client.AddProductImage(ctx, created.ID, want.Image.Src); err == nil && imageID != 0 {
				if err := u.client.AssignVariantImage(ctx, got.ID, imageID); err != nil {
					logging.FromContext(ctx).Warn("variant image not assigned",
						"handle", group.handle, "variant", got.Option1, "error", err)
				}
			}
			break
		}
	}

	return Result{Handle: group.handle, Action: "created", Variant: strconv.Itoa(len(product.Variants)) + " variants"}
}

// updateVariant updates an existing variant's price and inventory.
func (u *Uploader) updateVariant(ctx context.Context, handle string, have, want Variant) Result {
	updated, err := u.client.UpdateVariantPrice(ctx, have.ID, want.Price)
	if err != nil {
		return Result{Handle: handle, Variant: want.Option1, Action: "failed", Error: err.Error()}
	}
	if updated.InventoryItemID != 0 {
		if err := u.client.SetInventoryLevel(ctx, updated.InventoryItemID, want.InventoryQuantity); err != nil {
			return Result{Handle: handle, Variant: want.Option1, Action: "failed", Error: err.Error()}
		}
	}
	return Result{Handle: handle, Variant: want.Option1, Action: "updated"}
}

// addVariant adds a new variant to an existing product, sets its inventory,
// and attaches its image.
func (u *Uploader) addVariant(ctx context.Context, handle string, productID int64, want Variant) Result {
	image := want.Image
	want.Image = nil

	added, err := u.client.AddVariant(ctx, productID, &want)
	if err != nil {
		return Result{Handle: handle, Variant: want.Option1, Action: "failed", Error: err.Error()}
	}
	if added.InventoryItemID != 0 {
		if err := u.client.SetInventoryLevel(ctx, added.InventoryItemID, want.InventoryQuantity); err != nil {
			return Result{Handle: handle, Variant: want.Option1, Action: "failed", Error: err.Error()}
		}
	}
	if image != nil {
		if imageID, err := u.client.AddProductImage(ctx, productID, image.Src); err == nil && imageID != 0 {
			if err := u.client.AssignVariantImage(ctx, added.ID, imageID); err != nil {
				logging.FromContext(ctx).Warn("variant image not assigned",
					"handle", handle, "variant", want.Option1, "error", err)
			}
		}
	}
	return Result{Handle: handle, Variant: want.Option1, Action: "added"}
}
