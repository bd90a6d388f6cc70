package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/product-catalog/internal/config"
	prod "github.com/MikeMC777/product-catalog/internal/product"
)

func TestRun_IntoSQLite(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "catalog.db")
	cfg := config.Config{StoreDriver: prod.DriverSQLite, DatabaseDSN: dsn}

	n, err := run(ctx, cfg, 12, false, 7)
	if err != nil || n != 12 {
		t.Fatalf("run = %d, %v", n, err)
	}

	repo, closeRepo, err := prod.Open(ctx, prod.DriverSQLite, dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer closeRepo()
	items, total, err := repo.List(ctx, prod.ListQuery{
		OrderField: "id", OrderDirection: "asc", Page: 1, PerPage: 100, DateField: prod.DefaultDateField,
	})
	if err != nil {
		t.Fatal(err)
	}
	if total != 12 || len(items) != 12 {
		t.Fatalf("stored %d (total %d), want 12", len(items), total)
	}
	lo, hi := decimal.NewFromInt(1), decimal.NewFromInt(100)
	for _, p := range items {
		if p.Price.LessThan(lo) || p.Price.GreaterThan(hi) || p.Stock < 1 || p.Stock > 100 {
			t.Fatalf("out of range: %+v", p)
		}
	}
}

func TestRun_ThroughAPI(t *testing.T) {
	var posts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/products" {
			http.NotFound(w, r)
			return
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["name"] == nil {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message":"There was a validation error","errors":{"name":["The name field is required."]}}`))
			return
		}
		posts.Add(1)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"data": body})
	}))
	defer srv.Close()

	n, err := run(context.Background(), config.Config{ProductSvcBaseURL: srv.URL}, 5, true, 1)
	if err != nil || n != 5 {
		t.Fatalf("run = %d, %v", n, err)
	}
	if posts.Load() != 5 {
		t.Fatalf("server saw %d creates, want 5", posts.Load())
	}
}
