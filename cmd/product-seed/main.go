// Command product-seed fills the catalog with demo products, either straight
// into the store or through a running product-service (-api).
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/MikeMC777/product-catalog/internal/client"
	"github.com/MikeMC777/product-catalog/internal/config"
	"github.com/MikeMC777/product-catalog/internal/logging"
	prod "github.com/MikeMC777/product-catalog/internal/product"
)

func main() {
	n := flag.Int("n", 100, "number of products to insert")
	viaAPI := flag.Bool("api", false, "insert through the REST API at PRODUCT_SERVICE_BASEURL")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed for prices and stock")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.New(logging.Options{}).Error("load config", "error", err)
		os.Exit(1)
	}
	log := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	done, err := run(ctx, cfg, *n, *viaAPI, *seed)
	stop()
	if err != nil {
		log.Error("seed products", "inserted", done, "error", err)
		os.Exit(1)
	}
	log.Info("seeded products", "inserted", done, "api", *viaAPI)
}

func run(ctx context.Context, cfg config.Config, n int, viaAPI bool, seed int64) (int, error) {
	inputs := prod.SeedInputs(n, rand.New(rand.NewSource(seed)))

	var create func(context.Context, prod.Input) error
	if viaAPI {
		c := client.New(cfg.ProductSvcBaseURL)
		create = func(ctx context.Context, in prod.Input) error {
			_, err := c.Create(ctx, client.ProductRequest{
				Name:        in.Name,
				Description: in.Description,
				Price:       in.Price,
				Stock:       in.Stock,
			})
			return err
		}
	} else {
		dsn := cfg.PostgresDSN
		if cfg.StoreDriver != prod.DriverPostgres {
			dsn = cfg.DatabaseDSN
		}
		repo, closeRepo, err := prod.Open(ctx, cfg.StoreDriver, dsn)
		if err != nil {
			return 0, fmt.Errorf("open store: %w", err)
		}
		defer closeRepo()
		// a running service keeps serving cached listings until its TTL
		// runs out; use -api to invalidate them
		create = func(ctx context.Context, in prod.Input) error {
			p := &prod.Product{ID: uuid.Must(uuid.NewV7()).String()}
			p.Name, p.Description, p.Price, p.Stock = in.Name, in.Description, in.Price, in.Stock
			return repo.Create(ctx, p)
		}
	}

	return prod.Seed(ctx, inputs, create)
}
