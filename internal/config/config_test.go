package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, env, body string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "config"), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config", env+".yaml"), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	writeConfig(t, "test", `
http:
  port: 8080
database:
  url: postgres://localhost/tabisearch
`)

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Database.MinConns != 2 || cfg.Database.MaxConns != 10 {
		t.Errorf("pool defaults = %d/%d, want 2/10", cfg.Database.MinConns, cfg.Database.MaxConns)
	}
	if cfg.Cache.TTLSec != 300 {
		t.Errorf("cache ttl = %d, want 300", cfg.Cache.TTLSec)
	}
	if cfg.Cache.KeyPrefix != "rag" {
		t.Errorf("key prefix = %q, want rag", cfg.Cache.KeyPrefix)
	}
	if cfg.Embedding.Model != "intfloat/multilingual-e5-small" || cfg.Embedding.Dimensions != 384 {
		t.Errorf("embedding defaults = %q/%d", cfg.Embedding.Model, cfg.Embedding.Dimensions)
	}
	if cfg.Cache.Enabled() {
		t.Error("cache should be disabled with no addrs")
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	writeConfig(t, "test", `
http:
  port: ${TEST_HTTP_PORT:-8080}
database:
  url: ${TEST_DATABASE_URL}
cache:
  addrs:
    - ${TEST_REDIS_ADDR:-localhost:6379}
`)
	t.Setenv("TEST_DATABASE_URL", "postgres://db:5432/tabisearch")
	t.Setenv("TEST_HTTP_PORT", "9090")

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HTTP.Port != 9090 {
		t.Errorf("port = %d, want env value 9090", cfg.HTTP.Port)
	}
	if cfg.Database.URL != "postgres://db:5432/tabisearch" {
		t.Errorf("url = %q", cfg.Database.URL)
	}
	if len(cfg.Cache.Addrs) != 1 || cfg.Cache.Addrs[0] != "localhost:6379" {
		t.Errorf("addrs = %v, want the :-default", cfg.Cache.Addrs)
	}
	if !cfg.Cache.Enabled() {
		t.Error("cache should be enabled with addrs configured")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := Load("nonexistent"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	writeConfig(t, "test", `
http:
  port: 8080
database:
  url: postgres://localhost/tabisearch
  min_conns: 20
  max_conns: 5
`)

	_, err := Load("test")
	if err == nil || !strings.Contains(err.Error(), "min_conns") {
		t.Errorf("error = %v, want min_conns/max_conns violation", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		c := Config{}
		c.HTTP.Port = 8080
		c.Database.URL = "postgres://localhost/tabisearch"
		c.ApplyDefaults()
		return c
	}

	c := valid()
	if err := c.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	c = valid()
	c.HTTP.Port = 0
	if err := c.Validate(); err == nil {
		t.Error("port 0 should be rejected")
	}

	c = valid()
	c.Database.URL = ""
	if err := c.Validate(); err == nil {
		t.Error("empty database url should be rejected")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("GetEnv = %q, want local", got)
	}
	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("GetEnv = %q, want prod", got)
	}
}
