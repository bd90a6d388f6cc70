package product

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/google/uuid"

	"github.com/MikeMC777/product-catalog/internal/cache"
)

// Service serves product reads and writes. Listings go through the cache
// manager; every successful write invalidates it.
type Service struct {
	repo  Repository
	cache *cache.Manager
	query QueryOptions
	log   *slog.Logger
	newID func() string
}

type ServiceOption func(*Service)

// WithQueryOptions overrides the listing defaults (page size, date field).
func WithQueryOptions(o QueryOptions) ServiceOption {
	return func(s *Service) { s.query = o }
}

func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.log = l }
}

// WithIDGenerator replaces the UUIDv7 generator used for new products.
func WithIDGenerator(f func() string) ServiceOption {
	return func(s *Service) { s.newID = f }
}

func NewService(repo Repository, cm *cache.Manager, opts ...ServiceOption) *Service {
	s := &Service{
		repo:  repo,
		cache: cm,
		query: QueryOptions{PerPage: DefaultPerPage, DateField: DefaultDateField},
		log:   slog.Default(),
		newID: func() string { return uuid.Must(uuid.NewV7()).String() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// List returns one page of products matching params.
func (s *Service) List(ctx context.Context, params url.Values) (Page, error) {
	key, err := s.cache.ComputeKey(ctx, params)
	if err != nil {
		return Page{}, err
	}
	if err := s.cache.Register(ctx, key); err != nil {
		return Page{}, err
	}
	return cache.Remember(ctx, s.cache, key, func(ctx context.Context) (Page, error) {
		q, adjustments := BuildListQuery(Filters, params, s.query)
		for _, a := range adjustments {
			s.log.Warn("ignored product search parameter",
				"param", a.Param, "value", a.Value, "reason", a.Reason)
		}
		items, total, err := s.repo.List(ctx, q)
		if err != nil {
			return Page{}, fmt.Errorf("list products: %w", err)
		}
		return newPage(items, total, q), nil
	})
}

func (s *Service) Create(ctx context.Context, in Input) (*Product, error) {
	p := &Product{ID: s.newID()}
	in.apply(p)
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		return nil, err
	}
	s.log.Info("product created", "id", p.ID)
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Update replaces the writable fields of product id. An unknown id returns
// ErrNotFound and leaves the cache alone.
func (s *Service) Update(ctx context.Context, id string, in Input) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(p)
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update product %s: %w", id, err)
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		return nil, err
	}
	s.log.Info("product updated", "id", p.ID)
	return p, nil
}

// Delete soft-deletes product id. An unknown id returns ErrNotFound and
// leaves the cache alone.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	ok, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if !ok {
		return ErrNotFound
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		return err
	}
	s.log.Info("product deleted", "id", id)
	return nil
}
