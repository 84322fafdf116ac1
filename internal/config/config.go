// Package config loads the settings of the formsuite binaries. Values are
// layered: defaults, then an optional YAML file, then a .env file and the
// process environment. Command-line flags are applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FORMSUITE_"

// Config is the complete binary configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Store   StoreConfig   `yaml:"store"`
	Cache   CacheConfig   `yaml:"cache"`
	Theme   ThemeConfig   `yaml:"theme"`
	Uploads UploadsConfig `yaml:"uploads"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required,hostname_port"`
	// BaseURL is the public origin embed snippets point at.
	BaseURL         string        `yaml:"baseUrl" validate:"required,url"`
	ReadTimeout     time.Duration `yaml:"readTimeout" validate:"gte=0"`
	WriteTimeout    time.Duration `yaml:"writeTimeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" validate:"gte=0"`
	// AdminToken guards the admin API with a bearer token. Empty leaves it
	// open, which only suits local development.
	AdminToken string `yaml:"adminToken"`
	// SeedDir holds form files loaded into the memory store at start.
	SeedDir string `yaml:"seedDir"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn warning error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// StoreConfig selects where forms and submissions live.
type StoreConfig struct {
	// Backend is "memory" or "rest".
	Backend  string `yaml:"backend" validate:"required,oneof=memory rest"`
	APIURL   string `yaml:"apiUrl" validate:"omitempty,url"`
	APIToken string `yaml:"apiToken"`
}

// CacheConfig configures the public form cache.
type CacheConfig struct {
	// Backend is "none", "memory" or "redis".
	Backend       string        `yaml:"backend" validate:"required,oneof=none memory redis"`
	RedisAddr     string        `yaml:"redisAddr"`
	RedisPassword string        `yaml:"redisPassword"`
	RedisDB       int           `yaml:"redisDb" validate:"gte=0"`
	TTL           time.Duration `yaml:"ttl" validate:"gte=0"`
}

// ThemeConfig picks the default theme for rendered surfaces.
type ThemeConfig struct {
	Default string `yaml:"default"`
	Variant string `yaml:"variant"`
}

// UploadsConfig bounds uploaded files.
type UploadsConfig struct {
	MaxBytes int64 `yaml:"maxBytes" validate:"gt=0"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" validate:"omitempty,startswith=/"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			BaseURL:         "http://localhost:8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log:     LogConfig{Level: "info", Format: "text"},
		Store:   StoreConfig{Backend: "memory"},
		Cache:   CacheConfig{Backend: "memory", TTL: 2 * time.Minute},
		Theme:   ThemeConfig{Default: "modern"},
		Uploads: UploadsConfig{MaxBytes: 10 << 20},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

// Load layers defaults, the YAML file at path (skipped when empty), the
// .env file at envFile (skipped when empty or missing) and the environment.
func Load(path, envFile string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from FORMSUITE_* variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	str("ADDR", &c.Server.Addr)
	str("BASE_URL", &c.Server.BaseURL)
	str("ADMIN_TOKEN", &c.Server.AdminToken)
	str("SEED_DIR", &c.Server.SeedDir)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("STORE", &c.Store.Backend)
	str("API_URL", &c.Store.APIURL)
	str("API_TOKEN", &c.Store.APIToken)
	str("CACHE", &c.Cache.Backend)
	str("REDIS_ADDR", &c.Cache.RedisAddr)
	str("REDIS_PASSWORD", &c.Cache.RedisPassword)
	str("THEME", &c.Theme.Default)
	str("THEME_VARIANT", &c.Theme.Variant)
	str("METRICS_PATH", &c.Metrics.Path)

	if v, ok := lookup(EnvPrefix + "REDIS_DB"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %sREDIS_DB: %w", EnvPrefix, err)
		}
		c.Cache.RedisDB = n
	}
	if v, ok := lookup(EnvPrefix + "CACHE_TTL"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %sCACHE_TTL: %w", EnvPrefix, err)
		}
		c.Cache.TTL = d
	}
	if v, ok := lookup(EnvPrefix + "UPLOAD_MAX_BYTES"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("config: %sUPLOAD_MAX_BYTES: %w", EnvPrefix, err)
		}
		c.Uploads.MaxBytes = n
	}
	if v, ok := lookup(EnvPrefix + "METRICS"); ok {
		enabled, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %sMETRICS: %w", EnvPrefix, err)
		}
		c.Metrics.Enabled = enabled
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("config: %w", err)
		}
		parts := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			part := fe.Namespace() + ": " + fe.Tag()
			if fe.Param() != "" {
				part += "=" + fe.Param()
			}
			parts = append(parts, part)
		}
		return fmt.Errorf("config: invalid: %s", strings.Join(parts, "; "))
	}
	switch {
	case c.Store.Backend == "rest" && c.Store.APIURL == "":
		return errors.New("config: invalid: store.apiUrl is required for the rest backend")
	case c.Cache.Backend == "redis" && c.Cache.RedisAddr == "":
		return errors.New("config: invalid: cache.redisAddr is required for the redis backend")
	case c.Metrics.Enabled && c.Metrics.Path == "":
		return errors.New("config: invalid: metrics.path is required when metrics are enabled")
	}
	return nil
}
