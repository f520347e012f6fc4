// Package config resolves mathdrill settings from defaults, an optional
// YAML file, an optional .env file and MATHDRILL_* environment variables,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/mathdrill/internal/goals"
	"github.com/abhisek/mathdrill/internal/llm"
	"github.com/abhisek/mathdrill/internal/session"
)

type Config struct {
	// DB is a SQLite path or a postgres:// DSN. Empty means the default
	// XDG data path.
	DB   string `yaml:"db"`
	User string `yaml:"user"`

	// Timezone decides which calendar day a practice counts for. Empty
	// means the machine's local zone.
	Timezone string `yaml:"timezone"`

	SessionSize int `yaml:"session_size"`
	GoalTarget  int `yaml:"goal_target"`

	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	getenv func(string) string
}

type LogConfig struct {
	Mode  string `yaml:"mode"`
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	JWTSecret   string   `yaml:"jwt_secret"`
	JWTIssuer   string   `yaml:"jwt_issuer"`
	CORSOrigins []string `yaml:"cors_origins"`
	RedisURL    string   `yaml:"redis_url"`

	// LLMRetention is how long llm_request_events rows are kept.
	LLMRetention time.Duration `yaml:"llm_retention"`
}

type TelemetryConfig struct {
	Enabled bool `yaml:"enabled"`

	// Exporter is "otlp" or "stdout".
	Exporter    string `yaml:"exporter"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		SessionSize: session.DefaultSize,
		GoalTarget:  goals.DefaultTarget,
		Log:         LogConfig{Mode: "production", Level: "info"},
		Server: ServerConfig{
			Addr:         ":8080",
			JWTIssuer:    "mathdrill",
			CORSOrigins:  []string{"*"},
			LLMRetention: 30 * 24 * time.Hour,
		},
		Telemetry: TelemetryConfig{Exporter: "otlp", ServiceName: "mathdrill"},
		getenv:    os.Getenv,
	}
}

// Options controls where Load looks.
type Options struct {
	// File is a YAML config path. A missing file is an error only when
	// the path was given explicitly.
	File string

	// DotEnv is the .env path, ".env" when empty. A missing file is
	// ignored.
	DotEnv string

	// Getenv replaces os.Getenv in tests.
	Getenv func(string) string
}

// Load resolves the configuration.
func Load(opts Options) (Config, error) {
	cfg := Default()

	if opts.File != "" {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", opts.File, err)
		}
	}

	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	dotenv := opts.DotEnv
	if dotenv == "" {
		dotenv = ".env"
	}
	vars, err := godotenv.Read(dotenv)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read %s: %w", dotenv, err)
	}
	cfg.getenv = layered(getenv, vars)

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// layered prefers the real environment over .env values.
func layered(getenv func(string) string, vars map[string]string) func(string) string {
	return func(k string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return vars[k]
	}
}

func (c *Config) applyEnv() error {
	env := c.getenv
	setString := func(dst *string, key string) {
		if v := strings.TrimSpace(env(key)); v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, key string) error {
		v := strings.TrimSpace(env(key))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	setString(&c.DB, "MATHDRILL_DB")
	setString(&c.User, "MATHDRILL_USER")
	setString(&c.Timezone, "MATHDRILL_TZ")
	if err := setInt(&c.SessionSize, "MATHDRILL_SESSION_SIZE"); err != nil {
		return err
	}
	if err := setInt(&c.GoalTarget, "MATHDRILL_GOAL_TARGET"); err != nil {
		return err
	}

	setString(&c.Log.Mode, "MATHDRILL_LOG_MODE")
	setString(&c.Log.Level, "MATHDRILL_LOG_LEVEL")
	setString(&c.Log.File, "MATHDRILL_LOG_FILE")

	setString(&c.Server.Addr, "MATHDRILL_HTTP_ADDR")
	setString(&c.Server.JWTSecret, "MATHDRILL_JWT_SECRET")
	setString(&c.Server.JWTIssuer, "MATHDRILL_JWT_ISSUER")
	setString(&c.Server.RedisURL, "MATHDRILL_REDIS_URL")
	if v := env("MATHDRILL_CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	if v := env("MATHDRILL_LLM_RETENTION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MATHDRILL_LLM_RETENTION: %w", err)
		}
		c.Server.LLMRetention = d
	}

	if v := env("MATHDRILL_OTEL_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("MATHDRILL_OTEL_ENABLED: %w", err)
		}
		c.Telemetry.Enabled = b
	}
	setString(&c.Telemetry.Exporter, "MATHDRILL_OTEL_EXPORTER")
	setString(&c.Telemetry.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&c.Telemetry.ServiceName, "OTEL_SERVICE_NAME")
	return nil
}

// Validate rejects settings no component can run with.
func (c Config) Validate() error {
	if c.SessionSize <= 0 {
		return fmt.Errorf("session size must be positive, got %d", c.SessionSize)
	}
	if c.GoalTarget <= 0 {
		return fmt.Errorf("goal target must be positive, got %d", c.GoalTarget)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	switch c.Telemetry.Exporter {
	case "otlp", "stdout":
	default:
		return fmt.Errorf("unknown telemetry exporter %q", c.Telemetry.Exporter)
	}
	return nil
}

// Location returns the zone streak and goal days are computed in.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// LLM resolves the tutor's provider settings from the same environment.
// It returns llm.ErrNotConfigured when no provider key is set.
func (c Config) LLM() (llm.Config, error) {
	getenv := c.getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	return llm.FromEnv(getenv)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
