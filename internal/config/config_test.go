package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Search:   SearchConfig{Indexes: []string{"articles", "books"}},
		KnownFields: KnownFieldsConfig{
			Global:  []string{"contentTypeAlias"},
			ByIndex: map[string][]string{"Articles": {"authorName", "articleYear"}},
		},
		Derived: DerivedConfig{Years: map[string]string{"articleDate": "articleYear"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantMsg string
	}{
		{"port zero", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"port too large", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"missing addrs", func(c *Config) { c.Database.Addrs = nil }, "database.addrs is required"},
		{"blank addr", func(c *Config) { c.Database.Addrs = []string{""} }, "database.addrs[0] is required"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "valkey" }, "database.driver"},
		{"no indexes", func(c *Config) { c.Search.Indexes = nil }, "search.indexes is required"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"empty global field", func(c *Config) { c.KnownFields.Global = []string{""} }, "known_fields.global[0]"},
		{"field with space", func(c *Config) { c.KnownFields.Global = []string{"author name"} }, "invalid field name"},
		{"by_index unknown alias", func(c *Config) {
			c.KnownFields.ByIndex = map[string][]string{"news": {"title"}}
		}, "known_fields.by_index.news"},
		{"preset index unknown", func(c *Config) { c.Search.PresetIndex = "news" }, "search.preset_index"},
		{"derived into itself", func(c *Config) {
			c.Derived.Years = map[string]string{"articleDate": "articleDate"}
		}, "derived.years.articleDate"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tc.wantMsg)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{Search: SearchConfig{Indexes: []string{"articles", "books"}}}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 || cfg.HTTP.WriteTimeoutSec != 10 || cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("http timeouts = %+v", cfg.HTTP)
	}
	if cfg.Database.Driver != DriverRedis {
		t.Errorf("expected driver %q, got %q", DriverRedis, cfg.Database.Driver)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Search.MaxFacetValues != 10 {
		t.Errorf("expected MaxFacetValues=10, got %d", cfg.Search.MaxFacetValues)
	}
	if cfg.Search.DeleteBatchSize != 500 {
		t.Errorf("expected DeleteBatchSize=500, got %d", cfg.Search.DeleteBatchSize)
	}
	if cfg.Search.PresetIndex != "articles" {
		t.Errorf("expected PresetIndex=articles, got %q", cfg.Search.PresetIndex)
	}
	if cfg.KnownFields.IncludeName == nil || !*cfg.KnownFields.IncludeName {
		t.Error("include_name defaults to true")
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	off := false
	cfg := Config{
		HTTP:        HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database:    DatabaseConfig{Driver: DriverElasticsearch, ReadinessTimeout: 15},
		Search:      SearchConfig{MaxFacetValues: 25, DeleteBatchSize: 50, PresetIndex: "books"},
		KnownFields: KnownFieldsConfig{IncludeName: &off},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 || cfg.HTTP.WriteTimeoutSec != 60 || cfg.HTTP.ShutdownSec != 5 {
		t.Errorf("http timeouts overridden: %+v", cfg.HTTP)
	}
	if cfg.Database.Driver != DriverElasticsearch {
		t.Errorf("driver overridden: %q", cfg.Database.Driver)
	}
	if cfg.Search.MaxFacetValues != 25 || cfg.Search.DeleteBatchSize != 50 || cfg.Search.PresetIndex != "books" {
		t.Errorf("search overridden: %+v", cfg.Search)
	}
	if *cfg.KnownFields.IncludeName {
		t.Error("include_name=false must be kept")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("FACETDEX_TEST_HOST", "redis.internal")

	tests := []struct {
		in   string
		want string
	}{
		{"addr: ${FACETDEX_TEST_HOST}", "addr: redis.internal"},
		{"addr: ${FACETDEX_TEST_HOST:-localhost}", "addr: redis.internal"},
		{"addr: ${FACETDEX_TEST_UNSET:-localhost}", "addr: localhost"},
		{"addr: ${FACETDEX_TEST_UNSET}", "addr: "},
		{"plain: value", "plain: value"},
	}
	for _, tc := range tests {
		if got := string(expandEnvVars([]byte(tc.in))); got != tc.want {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("FACETDEX_TEST_PORT", "9090")
	path := filepath.Join(t.TempDir(), "test.yaml")
	body := `
http:
  port: ${FACETDEX_TEST_PORT}
database:
  driver: elasticsearch
  addrs: ["${FACETDEX_TEST_ES:-http://localhost:9200}"]
search:
  environment: dev
  primary: true
  indexes: [articles]
  expand_facet_values: true
known_fields:
  include_name: false
  by_index:
    articles: [authorName]
derived:
  years:
    articleDate: articleYear
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.HTTP.Port)
	}
	if cfg.Database.Addrs[0] != "http://localhost:9200" {
		t.Errorf("addrs = %v", cfg.Database.Addrs)
	}
	if !cfg.Search.Primary || !cfg.Search.ExpandFacetValues || cfg.Search.Environment != "dev" {
		t.Errorf("search = %+v", cfg.Search)
	}
	if *cfg.KnownFields.IncludeName {
		t.Error("include_name should be false")
	}
	if cfg.Derived.Years["articleDate"] != "articleYear" {
		t.Errorf("derived = %+v", cfg.Derived)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("http:\n  port: 8080\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFile(path); err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Fatalf("expected invalid config error, got %v", err)
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadDotEnv(t *testing.T) {
	const key = "FACETDEX_TEST_DOTENV"
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte(key+"=from-file\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	if err := LoadDotEnv(filepath.Join(dir, "absent.env"), path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv(key); got != "from-file" {
		t.Errorf("%s = %q, want from-file", key, got)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("GetEnv() = %q, want local", got)
	}
	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("GetEnv() = %q, want prod", got)
	}
}

func TestLocalConfigLoads(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("config/local.yaml: %v", err)
	}
	if len(cfg.Search.Indexes) == 0 {
		t.Error("local config lists no indexes")
	}
}
