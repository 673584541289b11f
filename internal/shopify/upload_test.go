package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/topdeck/cardforge/internal/tabular"
)

func productDataset(t *testing.T, rows ...map[string]string) *tabular.Dataset {
	t.Helper()
	cols := []string{
		"Handle", "Name", "Vendor", "Type", "Tags", "Status",
		"Option1 Value", "Variant Price", "Variant Inventory Qty", "Image Src",
	}
	columns := make([]tabular.Column, len(cols))
	for i, c := range cols {
		columns[i] = tabular.Column{Name: c, Type: tabular.TypeText}
	}
	ds, err := tabular.NewDataset("src-1", "products.csv", columns)
	if err != nil {
		t.Fatal(err)
	}
	for _, cells := range rows {
		row := make(tabular.Row, len(cols))
		for i, c := range cols {
			row[i] = tabular.Text(cells[c])
		}
		ds.AppendRow(row)
	}
	return ds
}

func TestUpload_CreatesNewProduct(t *testing.T) {
	var created *Product
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/products.json" && r.Method == http.MethodGet:
			fmt.Fprint(w, `{"products": []}`)
		case r.URL.Path == "/products.json" && r.Method == http.MethodPost:
			var req struct {
				Product Product `json:"product"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			created = &req.Product
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"product": {"id": 42, "variants": [{"id": 7, "option1": "Magic 2010"}]}}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	client := New("test.myshopify.com", "tok", "2023-10", 5*time.Second)
	client.baseURL = srv.URL
	uploader := NewUploader(client)

	ds := productDataset(t, map[string]string{
		"Handle": "lightning-bolt", "Name": "Lightning Bolt", "Vendor": "Top Deck",
		"Type": "Instant", "Status": "draft",
		"Option1 Value": "Magic 2010", "Variant Price": "21", "Variant Inventory Qty": "3",
	})

	results, err := uploader.Upload(context.Background(), ds)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if len(results) != 1 || results[0].Action != "created" {
		t.Fatalf("results = %+v", results)
	}

	if created == nil || created.Title != "Lightning Bolt" || created.Status != "draft" {
		t.Fatalf("created = %+v", created)
	}
	if len(created.Variants) != 1 || created.Variants[0].InventoryQuantity != 3 {
		t.Errorf("variants = %+v", created.Variants)
	}
}

func TestUpload_UpdatesExistingVariant(t *testing.T) {
	var priceSet, inventorySet bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/products.json":
			fmt.Fprint(w, `{"products": [{"id": 42, "variants":
				[{"id": 7, "option1": "magic 2010", "price": "15"}]}]}`)
		case r.URL.Path == "/variants/7.json" && r.Method == http.MethodPut:
			var req struct {
				Variant Variant `json:"variant"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			if req.Variant.Price != "21" {
				t.Errorf("price = %q", req.Variant.Price)
			}
			priceSet = true
			fmt.Fprint(w, `{"variant": {"id": 7, "inventory_item_id": 700}}`)
		case r.URL.Path == "/locations.json":
			fmt.Fprint(w, `{"locations": [{"id": 99}]}`)
		case r.URL.Path == "/inventory_levels/set.json":
			inventorySet = true
			fmt.Fprint(w, `{}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	client := New("test.myshopify.com", "tok", "2023-10", 5*time.Second)
	client.baseURL = srv.URL
	uploader := NewUploader(client)

	// Option1 matching is case-insensitive.
	ds := productDataset(t, map[string]string{
		"Handle": "lightning-bolt", "Name": "Lightning Bolt",
		"Option1 Value": "Magic 2010", "Variant Price": "21", "Variant Inventory Qty": "3",
	})

	results, err := uploader.Upload(context.Background(), ds)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if len(results) != 1 || results[0].Action != "updated" {
		t.Fatalf("results = %+v", results)
	}
	if !priceSet || !inventorySet {
		t.Errorf("priceSet = %v, inventorySet = %v", priceSet, inventorySet)
	}
}

func TestUpload_AddsNewVariant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/products.json":
			fmt.Fprint(w, `{"products": [{"id": 42, "variants":
				[{"id": 7, "option1": "Magic 2010"}]}]}`)
		case r.URL.Path == "/products/42/variants.json" && r.Method == http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"variant": {"id": 8, "option1": "Magic 2010 (Foil)"}}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	client := New("test.myshopify.com", "tok", "2023-10", 5*time.Second)
	client.baseURL = srv.URL
	uploader := NewUploader(client)

	ds := productDataset(t, map[string]string{
		"Handle": "lightning-bolt", "Name": "Lightning Bolt",
		"Option1 Value": "Magic 2010 (Foil)", "Variant Price": "83",
	})

	results, err := uploader.Upload(context.Background(), ds)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if len(results) != 1 || results[0].Action != "added" {
		t.Fatalf("results = %+v", results)
	}
}

func TestUpload_ImageAssignFailureIsBestEffort(t *testing.T) {
	var assignTried bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/products.json":
			fmt.Fprint(w, `{"products": [{"id": 42, "variants":
				[{"id": 7, "option1": "Magic 2010"}]}]}`)
		case r.URL.Path == "/products/42/variants.json" && r.Method == http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"variant": {"id": 8, "option1": "Magic 2010 (Foil)"}}`)
		case r.URL.Path == "/products/42/images.json" && r.Method == http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"image": {"id": 5, "src": "https://img.example/bolt.png"}}`)
		case r.URL.Path == "/products/42/images.json" && r.Method == http.MethodGet:
			fmt.Fprint(w, `{"images": [{"id": 5, "src": "https://img.example/bolt.png"}]}`)
		case r.URL.Path == "/variants/8.json" && r.Method == http.MethodPut:
			assignTried = true
			http.Error(w, `{"errors": "image busy"}`, http.StatusUnprocessableEntity)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	client := New("test.myshopify.com", "tok", "2023-10", 5*time.Second)
	client.baseURL = srv.URL
	client.pollInterval = time.Millisecond
	uploader := NewUploader(client)

	ds := productDataset(t, map[string]string{
		"Handle": "lightning-bolt", "Name": "Lightning Bolt",
		"Option1 Value": "Magic 2010 (Foil)", "Variant Price": "83",
		"Image Src": "https://img.example/bolt.png",
	})

	results, err := uploader.Upload(context.Background(), ds)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if len(results) != 1 || results[0].Action != "added" || results[0].Error != "" {
		t.Fatalf("results = %+v", results)
	}
	if !assignTried {
		t.Error("variant image assignment never attempted")
	}
}

func TestUpload_FailureDoesNotAbortRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Query().Get("handle") == "bad-card":
			http.Error(w, `{"errors": "boom"}`, http.StatusInternalServerError)
		case r.URL.Path == "/products.json" && r.Method == http.MethodGet:
			fmt.Fprint(w, `{"products": []}`)
		case r.URL.Path == "/products.json" && r.Method == http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"product": {"id": 43}}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	client := New("test.myshopify.com", "tok", "2023-10", 5*time.Second)
	client.baseURL = srv.URL
	uploader := NewUploader(client)

	ds := productDataset(t,
		map[string]string{"Handle": "bad-card", "Name": "Bad Card", "Option1 Value": "X"},
		map[string]string{"Handle": "good-card", "Name": "Good Card", "Option1 Value": "Y"},
	)

	results, err := uploader.Upload(context.Background(), ds)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Action != "failed" || results[0].Error == "" {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].Action != "created" {
		t.Errorf("results[1] = %+v", results[1])
	}
}

func TestGroupByHandle(t *testing.T) {
	ds := productDataset(t,
		map[string]string{"Handle": "a", "Option1 Value": "1"},
		map[string]string{"Handle": "b", "Option1 Value": "1"},
		map[string]string{"Handle": "a", "Option1 Value": "2"},
		map[string]string{"Handle": "", "Option1 Value": "skipped"},
	)

	groups := groupByHandle(ds)
	if len(groups) != 2 {
		t.Fatalf("groups = %+v", groups)
	}
	if groups[0].handle != "a" || len(groups[0].rows) != 2 {
		t.Errorf("groups[0] = %q with %d rows", groups[0].handle, len(groups[0].rows))
	}
	if groups[1].handle != "b" || len(groups[1].rows) != 1 {
		t.Errorf("groups[1] = %q with %d rows", groups[1].handle, len(groups[1].rows))
	}
}
