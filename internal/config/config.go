// Package config loads service configuration from defaults, an optional
// YAML file and EXCELLERE_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/excellere/excellere/internal/llm"
)

// Config holds all Excellere configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Auth       AuthConfig       `yaml:"auth"`
	LLM        llm.Config       `yaml:"llm"`
	Email      EmailConfig      `yaml:"email"`
	Tracing    TracingConfig    `yaml:"tracing"`
	Difficulty DifficultyConfig `yaml:"difficulty"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	Mode            string        `yaml:"mode"` // gin mode: debug, release, test
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	// PublicBaseURL prefixes credential links in emails.
	PublicBaseURL string `yaml:"public_base_url"`
}

type LogConfig struct {
	Mode  string `yaml:"mode"` // dev, prod
	Level string `yaml:"level"`
}

// DatabaseConfig selects the relational store.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, postgres
	DSN    string `yaml:"dsn"`
}

// RedisConfig configures the phase state cache. An empty Addr selects the
// in-process store, which is only suitable for a single replica.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PhaseTTL time.Duration `yaml:"phase_ttl"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	Issuer    string        `yaml:"issuer"`
	AccessTTL time.Duration `yaml:"access_ttl"`
}

// EmailConfig configures SendGrid delivery. Empty APIKey disables email.
type EmailConfig struct {
	SendGridAPIKey string        `yaml:"sendgrid_api_key"`
	BaseURL        string        `yaml:"base_url"`
	FromEmail      string        `yaml:"from_email"`
	FromName       string        `yaml:"from_name"`
	Timeout        time.Duration `yaml:"timeout"`
}

// TracingConfig selects an OpenTelemetry exporter.
type TracingConfig struct {
	Exporter    string  `yaml:"exporter"` // none, stdout, otlp
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// DifficultyConfig tunes the difficulty adapter.
type DifficultyConfig struct {
	// MaxExternalStepUp caps how many tiers an analysis-supplied
	// next_difficulty may raise the current tier. 0 means no cap.
	MaxExternalStepUp int `yaml:"max_external_step_up"`
}

// Default returns a Config with sensible defaults for local development.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			Mode:            "release",
			ShutdownTimeout: 10 * time.Second,
			PublicBaseURL:   "http://localhost:8080",
		},
		Log: LogConfig{Mode: "dev", Level: "info"},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "excellere.db",
		},
		Redis: RedisConfig{PhaseTTL: 24 * time.Hour},
		Auth: AuthConfig{
			Issuer:    "excellere",
			AccessTTL: 12 * time.Hour,
		},
		LLM: llm.DefaultConfig(),
		Email: EmailConfig{
			BaseURL:  "https://api.sendgrid.com",
			FromName: "Excellere",
			Timeout:  15 * time.Second,
		},
		Tracing: TracingConfig{
			Exporter:    "none",
			ServiceName: "excellere",
			SampleRatio: 1.0,
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	llm.ApplyEnv(&cfg.LLM)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Addr, "EXCELLERE_ADDR")
	setString(&cfg.Server.Mode, "EXCELLERE_GIN_MODE")
	setString(&cfg.Server.PublicBaseURL, "EXCELLERE_PUBLIC_BASE_URL")
	if v := os.Getenv("EXCELLERE_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}

	setString(&cfg.Log.Mode, "EXCELLERE_LOG_MODE")
	setString(&cfg.Log.Level, "EXCELLERE_LOG_LEVEL")

	setString(&cfg.Database.Driver, "EXCELLERE_DB_DRIVER")
	setString(&cfg.Database.DSN, "EXCELLERE_DB")

	setString(&cfg.Redis.Addr, "EXCELLERE_REDIS_ADDR")
	setString(&cfg.Redis.Password, "EXCELLERE_REDIS_PASSWORD")
	setDuration(&cfg.Redis.PhaseTTL, "EXCELLERE_PHASE_TTL")

	setString(&cfg.Auth.JWTSecret, "EXCELLERE_JWT_SECRET")
	setDuration(&cfg.Auth.AccessTTL, "EXCELLERE_ACCESS_TTL")

	setString(&cfg.Email.SendGridAPIKey, "EXCELLERE_SENDGRID_API_KEY")
	setString(&cfg.Email.FromEmail, "EXCELLERE_EMAIL_FROM")
	setString(&cfg.Email.FromName, "EXCELLERE_EMAIL_FROM_NAME")

	setString(&cfg.Tracing.Exporter, "EXCELLERE_TRACING_EXPORTER")
	setString(&cfg.Tracing.Endpoint, "EXCELLERE_OTLP_ENDPOINT")
}

// Validate checks the settings required to serve traffic.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown database driver: %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database DSN is required (EXCELLERE_DB)")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("EXCELLERE_JWT_SECRET must be at least 16 characters")
	}
	switch c.Tracing.Exporter {
	case "", "none", "stdout", "otlp":
	default:
		return fmt.Errorf("unknown tracing exporter: %q", c.Tracing.Exporter)
	}
	if c.Difficulty.MaxExternalStepUp < 0 {
		return fmt.Errorf("difficulty.max_external_step_up must be >= 0")
	}
	return nil
}

func setString(dst *string, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, env string) {
	v := strings.TrimSpace(os.Getenv(env))
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
