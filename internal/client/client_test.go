package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"testing"

	"github.com/shopspring/decimal"
)

// newProductServer fakes the product routes with a single known product.
func newProductServer(t *testing.T, knownID string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			if r.URL.Query().Get("order_field") != "price" {
				http.Error(w, "unexpected query "+r.URL.RawQuery, http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte(`{"data":[{"id":"a","name":"A","price":"10","stock":1}],"meta":{"current_page":1,"per_page":15,"total":1,"last_page":1,"from":1,"to":1}}`))
		case http.MethodPost:
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["name"] == "" {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_, _ = w.Write([]byte(`{"erro":"validation_error","message":"There was a validation error","errors":{"name":["The name field is required."]}}`))
				return
			}
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{
				"id": "new", "name": body["name"], "price": body["price"], "stock": body["stock"],
			}})
		}
	})

	mux.HandleFunc("/products/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if path.Base(r.URL.Path) != knownID {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Product not found","message":"The product with the specified ID does not exist"}`))
			return
		}
		switch r.Method {
		case http.MethodGet, http.MethodPut:
			_, _ = w.Write([]byte(`{"data":{"id":"` + knownID + `","name":"Known","price":"5.50","stock":3}}`))
		case http.MethodDelete:
			_, _ = w.Write([]byte(`{"message":"Product deleted successfully"}`))
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_List(t *testing.T) {
	srv := newProductServer(t, "known")
	c := New(srv.URL + "/")

	page, err := c.List(context.Background(), url.Values{"order_field": {"price"}})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Data) != 1 || page.Meta.Total != 1 || *page.Meta.From != 1 {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestClient_GetUpdateDelete(t *testing.T) {
	srv := newProductServer(t, "known")
	c := New(srv.URL)
	ctx := context.Background()

	p, err := c.Get(ctx, "known")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Name != "Known" || !p.Price.Equal(decimal.RequireFromString("5.5")) {
		t.Fatalf("unexpected product: %+v", p)
	}

	if _, err := c.Update(ctx, "known", ProductRequest{Name: "Known", Price: decimal.NewFromInt(5), Stock: 3}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := c.Delete(ctx, "known"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := c.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := c.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_Create(t *testing.T) {
	srv := newProductServer(t, "known")
	c := New(srv.URL)
	ctx := context.Background()

	p, err := c.Create(ctx, ProductRequest{Name: "Lamp", Price: decimal.RequireFromString("19.99"), Stock: 4})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID != "new" || p.Stock != 4 || !p.Price.Equal(decimal.RequireFromString("19.99")) {
		t.Fatalf("unexpected product: %+v", p)
	}

	_, err = c.Create(ctx, ProductRequest{Price: decimal.NewFromInt(1), Stock: 1})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(ve.Errors["name"]) != 1 {
		t.Fatalf("unexpected errors: %v", ve.Errors)
	}
}
