package config_test

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-formsuite/internal/config"
)

func TestLoad_LayersFileOverDefaults(t *testing.T) {
	cfg, err := config.Load("testdata/formsuite.yaml", "testdata/test.env")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != "0.0.0.0:9090" || cfg.Server.BaseURL != "https://forms.example.com" {
		t.Fatalf("server not loaded: %#v", cfg.Server)
	}
	if cfg.Server.ReadTimeout != 5*time.Second || cfg.Server.WriteTimeout != 30*time.Second {
		t.Fatalf("timeouts not layered: %#v", cfg.Server)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.TTL != 30*time.Second {
		t.Fatalf("cache not loaded: %#v", cfg.Cache)
	}
	if cfg.Theme.Default != "dark" || cfg.Theme.Variant != "compact" {
		t.Fatalf("theme not loaded: %#v", cfg.Theme)
	}
	if cfg.Store.Backend != "memory" || cfg.Uploads.MaxBytes != 10<<20 {
		t.Fatalf("defaults lost: %#v", cfg)
	}
	if os.Getenv("FORMSUITE_CONFIG_TEST_MARKER") != "loaded" {
		t.Fatalf("expected .env file to populate the environment")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		"FORMSUITE_STORE":            "rest",
		"FORMSUITE_API_URL":          "https://api.example.com",
		"FORMSUITE_CACHE_TTL":        "1m",
		"FORMSUITE_UPLOAD_MAX_BYTES": "2048",
		"FORMSUITE_METRICS":          "false",
	}
	cfg := config.Default()
	if err := cfg.ApplyEnv(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.Store.Backend != "rest" || cfg.Store.APIURL != "https://api.example.com" {
		t.Fatalf("store env not applied: %#v", cfg.Store)
	}
	if cfg.Cache.TTL != time.Minute || cfg.Uploads.MaxBytes != 2048 || cfg.Metrics.Enabled {
		t.Fatalf("typed env not applied: %#v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	bad := config.Default()
	err := bad.ApplyEnv(func(key string) (string, bool) {
		if key == "FORMSUITE_CACHE_TTL" {
			return "soon", true
		}
		return "", false
	})
	if err == nil || !strings.Contains(err.Error(), "CACHE_TTL") {
		t.Fatalf("expected CACHE_TTL error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := map[string]func(*config.Config){
		"unknown store":      func(c *config.Config) { c.Store.Backend = "mongo" },
		"rest without url":   func(c *config.Config) { c.Store.Backend = "rest" },
		"redis without addr": func(c *config.Config) { c.Cache.Backend = "redis" },
		"bad log level":      func(c *config.Config) { c.Log.Level = "loud" },
		"bad base url":       func(c *config.Config) { c.Server.BaseURL = "not a url" },
		"zero upload limit":  func(c *config.Config) { c.Uploads.MaxBytes = 0 },
		"relative metrics":   func(c *config.Config) { c.Metrics.Path = "metrics" },
	}
	for name, mutate := range cases {
		cfg := config.Default()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
	if err := config.Default().Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}
