// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/fridgesaver/fridgesaver/internal/workflow"
)

const (
	RecipeSourceBackend = "backend"
	RecipeSourceStub    = "stub"
)

type Config struct {
	Port           int           `mapstructure:"port"`
	BackendURL     string        `mapstructure:"backend_url"`
	RecipeSource   string        `mapstructure:"recipe_source"`
	DBPath         string        `mapstructure:"db_path"`
	UploadDir      string        `mapstructure:"upload_dir"`
	MaxUploadSize  int64         `mapstructure:"max_upload_size"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFormat      string        `mapstructure:"log_format"`
}

// Load reads .env files (if present), then the environment, on top of the
// defaults.
func Load(envFiles ...string) (*Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("backend_url", "http://localhost:5000/api")
	v.SetDefault("recipe_source", RecipeSourceBackend)
	v.SetDefault("db_path", "./fridgesaver.db")
	v.SetDefault("upload_dir", "./uploads")
	v.SetDefault("max_upload_size", 10*1024*1024)
	v.SetDefault("session_ttl", "30m")
	v.SetDefault("request_timeout", "30s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	u, err := url.Parse(c.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend_url %q is not an absolute URL", c.BackendURL)
	}

	switch c.RecipeSource {
	case RecipeSourceBackend, RecipeSourceStub:
	default:
		return fmt.Errorf("recipe_source must be %q or %q", RecipeSourceBackend, RecipeSourceStub)
	}

	if c.RecipeSource == RecipeSourceStub && c.DBPath == "" {
		return fmt.Errorf("db_path is required for the stub recipe source")
	}
	if c.UploadDir == "" {
		return fmt.Errorf("upload_dir is required")
	}
	if c.MaxUploadSize <= 0 || c.MaxUploadSize > workflow.MaxFileSize {
		return fmt.Errorf("max_upload_size must be between 1 and %d bytes", workflow.MaxFileSize)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) UseStubRecipes() bool {
	return c.RecipeSource == RecipeSourceStub
}
