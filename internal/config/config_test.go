package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Search:   SearchConfig{URLs: []string{"http://localhost:9200"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_MissingSearchURLs(t *testing.T) {
	cfg := validConfig()
	cfg.Search.URLs = nil

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing search urls")
	}
	if err.Error() != "search.urls is required" {
		t.Errorf("unexpected error message: %q", err.Error())
	}
}

func TestValidate_PageSizes(t *testing.T) {
	cfg := validConfig()
	cfg.Listing.DefaultPageSize = 200

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for default page size above max")
	}
	expected := "listing.default_page_size (200) must not exceed listing.max_page_size (100)"
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_EmptyAnalyzer(t *testing.T) {
	cfg := validConfig()
	cfg.Analysis.Analyzers = map[string][]string{"english": nil}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for analyzer without locales")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 10 {
		t.Errorf("expected WriteTimeoutSec=10, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Search.Indexes["webapp"] != "apps" || cfg.Search.Indexes["collection"] != "collections" {
		t.Errorf("unexpected default indexes: %v", cfg.Search.Indexes)
	}
	if cfg.Search.ReindexBatchSize != 100 || cfg.Search.ReindexWorkers != 4 {
		t.Errorf("expected reindex 100/4, got %d/%d", cfg.Search.ReindexBatchSize, cfg.Search.ReindexWorkers)
	}
	if len(cfg.Analysis.Analyzers) == 0 {
		t.Error("expected default analyzer table")
	}
	if len(cfg.Analysis.Plugins) != 1 || cfg.Analysis.Plugins[0] != "polish" {
		t.Errorf("expected plugins [polish], got %v", cfg.Analysis.Plugins)
	}
	if cfg.Listing.DefaultPageSize != 20 {
		t.Errorf("expected DefaultPageSize=20, got %d", cfg.Listing.DefaultPageSize)
	}
	if cfg.Listing.MaxPageSize != 100 {
		t.Errorf("expected MaxPageSize=100, got %d", cfg.Listing.MaxPageSize)
	}
	if cfg.Listing.AppID != 1 {
		t.Errorf("expected AppID=1, got %d", cfg.Listing.AppID)
	}
	if cfg.Storage.KeyPrefix != "appsearch:" {
		t.Errorf("expected KeyPrefix='appsearch:', got %q", cfg.Storage.KeyPrefix)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database: DatabaseConfig{ReadinessTimeout: 15},
		Search:   SearchConfig{Indexes: map[string]string{"webapp": "apps-v2"}, ReindexWorkers: 8},
		Listing:  ListingConfig{DefaultPageSize: 50, MaxPageSize: 500},
		Storage:  StorageConfig{KeyPrefix: "custom:"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Search.Indexes["webapp"] != "apps-v2" {
		t.Errorf("expected index apps-v2, got %q", cfg.Search.Indexes["webapp"])
	}
	if cfg.Search.Indexes["collection"] != "collections" {
		t.Errorf("expected default collection index, got %q", cfg.Search.Indexes["collection"])
	}
	if cfg.Search.ReindexWorkers != 8 {
		t.Errorf("expected ReindexWorkers=8, got %d", cfg.Search.ReindexWorkers)
	}
	if cfg.Listing.MaxPageSize != 500 {
		t.Errorf("expected MaxPageSize=500, got %d", cfg.Listing.MaxPageSize)
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Storage.KeyPrefix)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("APPSEARCH_TEST_URL", "http://es:9200")

	got := string(expandEnvVars([]byte("a: ${APPSEARCH_TEST_URL}\nb: ${APPSEARCH_TEST_MISSING:-fallback}\nc: ${APPSEARCH_TEST_MISSING}")))
	want := "a: http://es:9200\nb: fallback\nc: "
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	yaml := `
http:
  port: 8081
database:
  addrs: ["${APPSEARCH_TEST_REDIS:-localhost:6379}"]
search:
  urls: ["http://localhost:9200"]
  timeout_sec: 3
  indexes:
    webapp: apps-test
`
	if err := os.WriteFile(filepath.Join(dir, "config", "test.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 8081 {
		t.Errorf("expected port 8081, got %d", cfg.HTTP.Port)
	}
	if len(cfg.Database.Addrs) != 1 || cfg.Database.Addrs[0] != "localhost:6379" {
		t.Errorf("unexpected addrs: %v", cfg.Database.Addrs)
	}
	if cfg.Search.TimeoutSec != 3 || cfg.Search.Indexes["webapp"] != "apps-test" {
		t.Errorf("unexpected search config: %+v", cfg.Search)
	}
}
