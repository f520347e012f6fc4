package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mathdrill/internal/llm"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func noDotEnv(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(Options{Getenv: envMap(nil), DotEnv: noDotEnv(t)})
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.SessionSize)
	assert.Equal(t, 10, cfg.GoalTarget)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 30*24*time.Hour, cfg.Server.LLMRetention)
	assert.False(t, cfg.Telemetry.Enabled)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestLoad_Env(t *testing.T) {
	cfg, err := Load(Options{DotEnv: noDotEnv(t), Getenv: envMap(map[string]string{
		"MATHDRILL_DB":            "postgres://localhost/mathdrill",
		"MATHDRILL_USER":          "kid-1",
		"MATHDRILL_TZ":            "America/New_York",
		"MATHDRILL_SESSION_SIZE":  "8",
		"MATHDRILL_GOAL_TARGET":   "3",
		"MATHDRILL_CORS_ORIGINS":  "https://a.example, https://b.example",
		"MATHDRILL_OTEL_ENABLED":  "true",
		"MATHDRILL_OTEL_EXPORTER": "stdout",
		"MATHDRILL_LLM_RETENTION": "72h",
	})})
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/mathdrill", cfg.DB)
	assert.Equal(t, "kid-1", cfg.User)
	assert.Equal(t, 8, cfg.SessionSize)
	assert.Equal(t, 3, cfg.GoalTarget)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "stdout", cfg.Telemetry.Exporter)
	assert.Equal(t, 72*time.Hour, cfg.Server.LLMRetention)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", loc.String())
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "mathdrill.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
user: from-file
session_size: 12
server:
  addr: ":9090"
  jwt_secret: file-secret
log:
  mode: development
`), 0o600))

	cfg, err := Load(Options{File: file, DotEnv: noDotEnv(t), Getenv: envMap(map[string]string{
		"MATHDRILL_USER": "from-env",
	})})
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.User)
	assert.Equal(t, 12, cfg.SessionSize)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "file-secret", cfg.Server.JWTSecret)
	assert.Equal(t, "development", cfg.Log.Mode)
	assert.Equal(t, "mathdrill", cfg.Server.JWTIssuer, "defaults survive a partial file")
}

func TestLoad_DotEnv(t *testing.T) {
	dotenv := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte("MATHDRILL_USER=dotenv-user\nMATHDRILL_GOAL_TARGET=4\nMATHDRILL_OPENAI_API_KEY=sk-test\n"), 0o600))

	cfg, err := Load(Options{DotEnv: dotenv, Getenv: envMap(map[string]string{
		"MATHDRILL_GOAL_TARGET": "6",
	})})
	require.NoError(t, err)

	assert.Equal(t, "dotenv-user", cfg.User)
	assert.Equal(t, 6, cfg.GoalTarget, "real environment wins over .env")

	lc, err := cfg.LLM()
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderOpenAI, lc.Provider)
	assert.Equal(t, "sk-test", lc.OpenAI.APIKey)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad size", map[string]string{"MATHDRILL_SESSION_SIZE": "many"}},
		{"zero size", map[string]string{"MATHDRILL_SESSION_SIZE": "0"}},
		{"negative goal", map[string]string{"MATHDRILL_GOAL_TARGET": "-1"}},
		{"bad zone", map[string]string{"MATHDRILL_TZ": "Mars/Olympus"}},
		{"bad bool", map[string]string{"MATHDRILL_OTEL_ENABLED": "sometimes"}},
		{"bad exporter", map[string]string{"MATHDRILL_OTEL_EXPORTER": "zipkin"}},
		{"bad retention", map[string]string{"MATHDRILL_LLM_RETENTION": "a while"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(Options{DotEnv: noDotEnv(t), Getenv: envMap(tt.env)})
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(Options{File: filepath.Join(t.TempDir(), "nope.yaml"), DotEnv: noDotEnv(t), Getenv: envMap(nil)})
	assert.Error(t, err)
}

func TestLLM_NotConfigured(t *testing.T) {
	cfg, err := Load(Options{DotEnv: noDotEnv(t), Getenv: envMap(nil)})
	require.NoError(t, err)

	_, err = cfg.LLM()
	assert.ErrorIs(t, err, llm.ErrNotConfigured)
}
