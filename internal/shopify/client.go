// Package shopify is a client for the marketplace Admin REST API, covering
// the product, variant, image, and inventory operations the uploader needs.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Product is the Admin API product resource.
type Product struct {
	ID          int64     `json:"id,omitempty"`
	Title       string    `json:"title"`
	BodyHTML    string    `json:"body_html,omitempty"`
	Vendor      string    `json:"vendor,omitempty"`
	ProductType string    `json:"product_type,omitempty"`
	Tags        string    `json:"tags,omitempty"`
	Status      string    `json:"status,omitempty"`
	Handle      string    `json:"handle,omitempty"`
	Variants    []Variant `json:"variants,omitempty"`
	Images      []Image   `json:"images,omitempty"`
}

// Variant is the Admin API variant resource.
type Variant struct {
	ID                  int64  `json:"id,omitempty"`
	Price               string `json:"price,omitempty"`
	SKU                 string `json:"sku,omitempty"`
	Option1             string `json:"option1,omitempty"`
	InventoryQuantity   int    `json:"inventory_quantity,omitempty"`
	InventoryManagement string `json:"inventory_management,omitempty"`
	InventoryPolicy     string `json:"inventory_policy,omitempty"`
	FulfillmentService  string `json:"fulfillment_service,omitempty"`
	InventoryItemID     int64  `json:"inventory_item_id,omitempty"`
	ImageID             int64  `json:"image_id,omitempty"`
	Image               *Image `json:"image,omitempty"`
}

// Image is the Admin API product image resource.
type Image struct {
	ID  int64  `json:"id,omitempty"`
	Src string `json:"src,omitempty"`
}

// APIError is a non-2xx Admin API response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("marketplace API returned %d: %s", e.Status, e.Body)
}

// Client calls the Admin REST API for one store.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client

	// pollInterval spaces image availability polls.
	pollInterval time.Duration

	mu         sync.Mutex
	locationID int64
}

// New creates a client for the given myshopify store domain and Admin API
// access token.
func New(store, token, apiVersion string, timeout time.Duration) *Client {
	return &Client{
		baseURL:      fmt.Sprintf("https://%s/admin/api/%s", store, apiVersion),
		token:        token,
		httpClient:   &http.Client{Timeout: timeout},
		pollInterval: 2 * time.Second,
	}
}

// do performs one authenticated JSON request. body and out may be nil.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("X-Shopify-Access-Token", c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ProductByHandle fetches the product with the given handle, or nil when
// the store has none.
func (c *Client) ProductByHandle(ctx context.Context, handle string) (*Product, error) {
	var envelope struct {
		Products []Product `json:"products"`
	}
	if err := c.do(ctx, http.MethodGet, "/products.json?handle="+handle, nil, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Products) == 0 {
		return nil, nil
	}
	return &envelope.Products[0], nil
}

// CreateProduct creates a product with its variants and returns the
// created resource.
func (c *Client) CreateProduct(ctx context.Context, p *Product) (*Product, error) {
	var envelope struct {
		Product Product `json:"product"`
	}
	req := map[string]*Product{"product": p}
	if err := c.do(ctx, http.MethodPost, "/products.json", req, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Product, nil
}

// AddVariant adds a variant to an existing product.
func (c *Client) AddVariant(ctx context.Context, productID int64, v *Variant) (*Variant, error) {
	var envelope struct {
		Variant Variant `json:"variant"`
	}
	req := map[string]*Variant{"variant": v}
	path := fmt.Sprintf("/products/%d/variants.json", productID)
	if err := c.do(ctx, http.MethodPost, path, req, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Variant, nil
}

// UpdateVariantPrice sets a variant's price and returns the updated
// resource.
func (c *Client) UpdateVariantPrice(ctx context.Context, variantID int64, price string) (*Variant, error) {
	var envelope struct {
		Variant Variant `json:"variant"`
	}
	req := map[string]*Variant{"variant": {ID: variantID, Price: price}}
	path := fmt.Sprintf("/variants/%d.json", variantID)
	if err := c.do(ctx, http.MethodPut, path, req, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Variant, nil
}

// LocationID returns the store's first inventory location, cached after
// the first call.
func (c *Client) LocationID(ctx context.Context) (int64, error) {
	c.mu.Lock()
	cached := c.locationID
	c.mu.Unlock()
	if cached != 0 {
		return cached, nil
	}

	var envelope struct {
		Locations []struct {
			ID int64 `json:"id"`
		} `json:"locations"`
	}
	if err := c.do(ctx, http.MethodGet, "/locations.json", nil, &envelope); err != nil {
		return 0, err
	}
	if len(envelope.Locations) == 0 {
		return 0, fmt.Errorf("store has no inventory locations")
	}

	c.mu.Lock()
	c.locationID = envelope.Locations[0].ID
	c.mu.Unlock()
	return envelope.Locations[0].ID, nil
}

// SetInventoryLevel sets the available quantity of an inventory item at
// the store's location.
func (c *Client) SetInventoryLevel(ctx context.Context, inventoryItemID int64, available int) error {
	locationID, err := c.LocationID(ctx)
	if err != nil {
		return err
	}

	req := map[string]interface{}{
		"location_id":       locationID,
		"inventory_item_id": inventoryItemID,
		"available":         available,
	}
	return c.do(ctx, http.MethodPost, "/inventory_levels/set.json", req, nil)
}

// productImages lists the images attached to a product.
func (c *Client) productImages(ctx context.Context, productID int64) ([]Image, error) {
	var envelope struct {
		Images []Image `json:"images"`
	}
	path := fmt.Sprintf("/products/%d/images.json", productID)
	if err := c.do(ctx, http.MethodGet, path, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Images, nil
}

// AddProductImage attaches an image by URL and waits for it to become
// available, since the store fetches the source asynchronously. Returns
// the image ID, or 0 if it never appeared.
func (c *Client) AddProductImage(ctx context.Context, productID int64, src string) (int64, error) {
	var envelope struct {
		Image Image `json:"image"`
	}
	req := map[string]*Image{"image": {Src: src}}
	path := fmt.Sprintf("/products/%d/images.json", productID)
	if err := c.do(ctx, http.MethodPost, path, req, &envelope); err != nil {
		return 0, err
	}
	imageID := envelope.Image.ID

	for attempt := 0; attempt < 5; attempt++ {
		images, err := c.productImages(ctx, productID)
		if err != nil {
			return 0, err
		}
		for _, img := range images {
			if img.Src == src && img.ID != 0 {
				return img.ID, nil
			}
		}

		timer := time.NewTimer(c.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return 0, ctx.Err()
		case <-timer.C:
		}
	}
	return imageID, nil
}

// AssignVariantImage points a variant at an already attached product image.
func (c *Client) AssignVariantImage(ctx context.Context, variantID, imageID int64) error {
	req := map[string]*Variant{"variant": {ID: variantID, ImageID: imageID}}
	path := fmt.Sprintf("/variants/%d.json", variantID)
	return c.do(ctx, http.MethodPut, path, req, nil)
}
