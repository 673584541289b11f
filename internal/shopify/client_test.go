package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New("test.myshopify.com", "shpat_test", "2023-10", 5*time.Second)
	c.baseURL = srv.URL
	c.pollInterval = time.Millisecond
	return c
}

func TestClient_Auth(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Shopify-Access-Token"); got != "shpat_test" {
			t.Errorf("token header = %q", got)
		}
		fmt.Fprint(w, `{"products": []}`)
	}))

	if _, err := client.ProductByHandle(context.Background(), "bolt"); err != nil {
		t.Fatalf("ProductByHandle: %v", err)
	}
}

func TestProductByHandle(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products.json" || r.URL.Query().Get("handle") != "lightning-bolt" {
			t.Errorf("request = %s %s", r.URL.Path, r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"products": [{"id": 42, "title": "Lightning Bolt",
			"variants": [{"id": 7, "option1": "Magic 2010", "price": "21.00"}]}]}`)
	}))

	product, err := client.ProductByHandle(context.Background(), "lightning-bolt")
	if err != nil {
		t.Fatalf("ProductByHandle: %v", err)
	}
	if product.ID != 42 || len(product.Variants) != 1 || product.Variants[0].Option1 != "Magic 2010" {
		t.Errorf("product = %+v", product)
	}
}

func TestProductByHandle_Missing(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"products": []}`)
	}))

	product, err := client.ProductByHandle(context.Background(), "nope")
	if err != nil {
		t.Fatalf("ProductByHandle: %v", err)
	}
	if product != nil {
		t.Errorf("product = %+v, want nil", product)
	}
}

func TestCreateProduct(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/products.json" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		var req struct {
			Product Product `json:"product"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Product.Title != "Lightning Bolt" || len(req.Product.Variants) != 2 {
			t.Errorf("payload = %+v", req.Product)
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"product": {"id": 42, "title": "Lightning Bolt"}}`)
	}))

	created, err := client.CreateProduct(context.Background(), &Product{
		Title: "Lightning Bolt",
		Variants: []Variant{
			{Option1: "Magic 2010", Price: "21"},
			{Option1: "Magic 2010 (Foil)", Price: "83"},
		},
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if created.ID != 42 {
		t.Errorf("created = %+v", created)
	}
}

func TestCreateProduct_APIError(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors": "Unprocessable"}`, http.StatusUnprocessableEntity)
	}))

	_, err := client.CreateProduct(context.Background(), &Product{Title: "x"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity {
		t.Errorf("status = %d", apiErr.Status)
	}
}

func TestSetInventoryLevel_CachesLocation(t *testing.T) {
	var locationCalls int
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/locations.json":
			locationCalls++
			fmt.Fprint(w, `{"locations": [{"id": 99}]}`)
		case "/inventory_levels/set.json":
			var req map[string]interface{}
			json.NewDecoder(r.Body).Decode(&req)
			if req["location_id"].(float64) != 99 || req["available"].(float64) != 3 {
				t.Errorf("payload = %v", req)
			}
			fmt.Fprint(w, `{}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := client.SetInventoryLevel(ctx, 1234, 3); err != nil {
			t.Fatalf("SetInventoryLevel: %v", err)
		}
	}
	if locationCalls != 1 {
		t.Errorf("location fetched %d times, want 1", locationCalls)
	}
}

func TestAddProductImage_Polls(t *testing.T) {
	var polls int
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"image": {"id": 0}}`)
			return
		}
		polls++
		if polls < 2 {
			fmt.Fprint(w, `{"images": []}`)
			return
		}
		fmt.Fprint(w, `{"images": [{"id": 501, "src": "https://img.example/bolt.png"}]}`)
	}))

	imageID, err := client.AddProductImage(context.Background(), 42, "https://img.example/bolt.png")
	if err != nil {
		t.Fatalf("AddProductImage: %v", err)
	}
	if imageID != 501 {
		t.Errorf("imageID = %d, want 501", imageID)
	}
}
