package product

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
)

// Open connects to the store selected by driver, makes sure the products
// table exists and returns the repository with a function releasing it.
func Open(ctx context.Context, driver, dsn string) (Repository, func(), error) {
	switch driver {
	case DriverPostgres, "":
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		repo := NewPGRepo(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		return repo, pool.Close, nil

	case DriverSQLite, DriverMySQL:
		var dialector gorm.Dialector = sqlite.Open(dsn)
		if driver == DriverMySQL {
			dialector = mysql.Open(dsn)
		}
		db, err := OpenGorm(dialector)
		if err != nil {
			return nil, nil, fmt.Errorf("connect %s: %w", driver, err)
		}
		repo := NewGormRepo(db)
		if err := repo.AutoMigrate(); err != nil {
			return nil, nil, fmt.Errorf("migrate %s: %w", driver, err)
		}
		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return repo, closeFn, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", driver)
}

// OpenGorm opens a gorm connection with UTC timestamps and gorm's own
// logging silenced.
func OpenGorm(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
		Logger:  logger.Default.LogMode(logger.Silent),
	})
}
