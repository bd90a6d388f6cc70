package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_FILE", "PRODUCT_SERVICE_ADDR", "PRODUCT_SERVICE_BASEURL", "PRODUCT_HEALTH_ADDR",
		"STORE_DRIVER", "POSTGRES_DSN", "DATABASE_DSN", "CACHE_TABLE", "CACHE_TTL",
		"PAGE_SIZE", "SHUTDOWN_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ProductSvcAddr != ":8081" || cfg.StoreDriver != "postgres" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.CacheTTL != 600*time.Second || cfg.PageSize != 15 {
		t.Fatalf("cache ttl %v page size %d", cfg.CacheTTL, cfg.PageSize)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CACHE_TTL", "30")
	t.Setenv("PAGE_SIZE", "25")
	t.Setenv("STORE_DRIVER", "SQLite")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CacheTTL != 30*time.Second || cfg.PageSize != 25 || cfg.StoreDriver != "sqlite" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("CACHE_TTL", "ten minutes")
	t.Setenv("PAGE_SIZE", "-3")

	cfg, _ := Load()
	if cfg.CacheTTL != 600*time.Second || cfg.PageSize != 15 {
		t.Fatalf("fallbacks not applied: %+v", cfg)
	}
}

func TestLoad_TOMLFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "catalog.toml", `
store_driver = "mysql"
cache_ttl = 120
page_size = 20
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PAGE_SIZE", "40")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StoreDriver != "mysql" || cfg.CacheTTL != 120*time.Second {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.PageSize != 40 {
		t.Fatalf("env should win over file, page size = %d", cfg.PageSize)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "catalog.yaml", "log_format: text\nproduct_service_addr: \":9090\"\n")
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogFormat != "text" || cfg.ProductSvcAddr != ":9090" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
}

func TestLoad_BadFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", writeFile(t, "catalog.ini", "a=b"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unsupported extension")
	}

	t.Setenv("CONFIG_FILE", writeFile(t, "nested.yaml", "cache:\n  ttl: 3\n"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for nested values")
	}
}
