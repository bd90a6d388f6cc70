package product

import (
	"context"
	"errors"
	"math/rand"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/product-catalog/internal/cache"
)

// countingRepo counts List calls so tests can tell cache hits from misses.
type countingRepo struct {
	Repository
	lists int
}

func (c *countingRepo) List(ctx context.Context, q ListQuery) ([]Product, int64, error) {
	c.lists++
	return c.Repository.List(ctx, q)
}

func newTestService(t *testing.T) (*Service, *countingRepo, *cache.Manager) {
	t.Helper()
	store := cache.NewMemoryStore("service-" + t.Name())
	t.Cleanup(store.Flush)
	cm := cache.NewManager(store, cache.Options{})
	repo := &countingRepo{Repository: newTestRepo(t)}
	return NewService(repo, cm), repo, cm
}

func input(name, price string, stock int) Input {
	return Input{Name: name, Price: decimal.RequireFromString(price), Stock: stock}
}

func TestService_ListIsCachedUntilWrite(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)
	if _, err := svc.Create(ctx, input("A", "1", 1)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	params := url.Values{"order_field": {"price"}}
	first, err := svc.List(ctx, params)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	second, _ := svc.List(ctx, url.Values{"order_field": {"price"}})
	if repo.lists != 1 {
		t.Fatalf("repo.List called %d times, want 1", repo.lists)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("cached page differs (-first +second):\n%s", diff)
	}

	if _, err := svc.Create(ctx, input("B", "2", 1)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	third, _ := svc.List(ctx, params)
	if repo.lists != 2 {
		t.Fatalf("repo.List called %d times after write, want 2", repo.lists)
	}
	if third.Meta.Total != 2 {
		t.Fatalf("total = %d, want 2", third.Meta.Total)
	}
}

func TestService_CreateGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	desc := "RGB 60%"
	in := Input{Name: "Keyboard", Description: &desc, Price: decimal.RequireFromString("199.90"), Stock: 10}
	created, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("id not assigned")
	}
	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if diff := cmp.Diff(created, got); diff != "" {
		t.Fatalf("round trip mismatch (-created +got):\n%s", diff)
	}
}

func TestService_UpdateUnknownLeavesCache(t *testing.T) {
	ctx := context.Background()
	svc, _, cm := newTestService(t)

	if _, err := svc.List(ctx, url.Values{}); err != nil {
		t.Fatalf("List: %v", err)
	}
	before, _ := cm.RegisteredKeys(ctx)
	version, _ := cm.Version(ctx)

	if _, err := svc.Update(ctx, "does-not-exist", input("x", "1", 1)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, "does-not-exist"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete = %v, want ErrNotFound", err)
	}

	after, _ := cm.RegisteredKeys(ctx)
	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatalf("registry changed (-before +after):\n%s", diff)
	}
	if v, _ := cm.Version(ctx); v != version {
		t.Fatalf("version changed from %d to %d", version, v)
	}
}

func TestService_DeleteHidesProduct(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	p, _ := svc.Create(ctx, input("Gone", "5", 1))

	if page, _ := svc.List(ctx, url.Values{}); len(page.Data) != 1 {
		t.Fatalf("expected product listed before delete, got %d", len(page.Data))
	}
	if err := svc.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	page, _ := svc.List(ctx, url.Values{})
	if len(page.Data) != 0 {
		t.Fatalf("deleted product still listed: %+v", page.Data)
	}
	if _, err := svc.Get(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete = %v", err)
	}
}

func TestService_UpdateInvalidates(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	p, _ := svc.Create(ctx, input("Mouse", "10", 5))

	_, _ = svc.List(ctx, url.Values{})
	updated, err := svc.Update(ctx, p.ID, input("Mouse Pro", "12.5", 4))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "Mouse Pro" || updated.Description != nil {
		t.Fatalf("update result = %+v", updated)
	}

	page, _ := svc.List(ctx, url.Values{})
	if len(page.Data) != 1 || page.Data[0].Name != "Mouse Pro" {
		t.Fatalf("stale listing after update: %+v", page.Data)
	}
}

func TestSeedInputs(t *testing.T) {
	inputs := SeedInputs(100, newRand(1))
	if len(inputs) != 100 {
		t.Fatalf("len = %d", len(inputs))
	}
	lo, hi := decimal.NewFromInt(1), decimal.NewFromInt(100)
	for i, in := range inputs {
		if in.Price.LessThan(lo) || in.Price.GreaterThan(hi) || in.Price.Exponent() != -2 {
			t.Fatalf("input %d price %s out of range", i, in.Price)
		}
		if in.Stock < 1 || in.Stock > 100 {
			t.Fatalf("input %d stock %d out of range", i, in.Stock)
		}
	}
	if inputs[7].Name != "Product 7" || *inputs[7].Description != "Description of product 7" {
		t.Fatalf("unexpected naming: %+v", inputs[7])
	}
}

func TestSeed_ThroughService(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	n, err := Seed(ctx, SeedInputs(20, newRand(2)), func(ctx context.Context, in Input) error {
		_, err := svc.Create(ctx, in)
		return err
	})
	if err != nil || n != 20 {
		t.Fatalf("Seed = %d, %v", n, err)
	}
	page, _ := svc.List(ctx, url.Values{})
	if page.Meta.Total != 20 || len(page.Data) != 15 || page.Meta.LastPage != 2 {
		t.Fatalf("meta = %+v len=%d", page.Meta, len(page.Data))
	}
}

func newRand(seed int64) *rand.Rand { return rand.New(rand.NewSource(seed)) }
