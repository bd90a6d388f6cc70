// Command product-service serves the product catalog REST API.
//
// @title        Product Catalog API
// @version      1.0
// @description  CRUD over products with cached, filterable listings.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/product-catalog/internal/cache"
	"github.com/MikeMC777/product-catalog/internal/config"
	"github.com/MikeMC777/product-catalog/internal/health"
	"github.com/MikeMC777/product-catalog/internal/logging"
	prod "github.com/MikeMC777/product-catalog/internal/product"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(logging.Options{}).Error("load config", "error", err)
		os.Exit(1)
	}
	log := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Info("config loaded",
		"addr", cfg.ProductSvcAddr,
		"health_addr", cfg.HealthAddr,
		"store", cfg.StoreDriver,
		"cache_ttl", cfg.CacheTTL,
		"page_size", cfg.PageSize,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dsn := cfg.PostgresDSN
	if cfg.StoreDriver != prod.DriverPostgres {
		dsn = cfg.DatabaseDSN
	}
	repo, closeRepo, err := prod.Open(ctx, cfg.StoreDriver, dsn)
	if err != nil {
		log.Error("open store", "error", err)
		os.Exit(1)
	}
	defer closeRepo()

	store := cache.NewMemoryStore(cfg.CacheTable)
	cm := cache.NewManager(store, cache.Options{TTL: cfg.CacheTTL, Logger: log})
	svc := prod.NewService(repo, cm,
		prod.WithLogger(log),
		prod.WithQueryOptions(prod.QueryOptions{PerPage: cfg.PageSize, DateField: prod.DefaultDateField}),
	)

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.ProductSvcAddr,
		Handler:           newRouter(svc, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	hs := health.NewServer(log)
	hl, err := net.Listen("tcp", cfg.HealthAddr)
	if err != nil {
		log.Error("listen health", "addr", cfg.HealthAddr, "error", err)
		closeRepo()
		os.Exit(1)
	}
	go func() {
		if err := hs.Serve(hl); err != nil {
			log.Error("health server stopped", "error", err)
		}
	}()
	go hs.Watch(ctx, 15*time.Second, storeChecker(repo))

	go func() {
		log.Info("product-service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	hs.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "error", err)
	}
}

// storeChecker reports the store as down when a one-row listing fails.
func storeChecker(repo prod.Repository) health.Checker {
	return func(ctx context.Context) error {
		_, _, err := repo.List(ctx, prod.ListQuery{
			DateField:      prod.DefaultDateField,
			OrderField:     prod.DefaultOrderField,
			OrderDirection: prod.DefaultOrderDirection,
			Page:           1,
			PerPage:        1,
		})
		if err != nil {
			return fmt.Errorf("store check: %w", err)
		}
		return nil
	}
}
