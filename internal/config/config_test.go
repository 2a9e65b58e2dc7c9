package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func requiredEnv() map[string]string {
	return map[string]string{
		"JWT_SECRET":   "0123456789abcdef0123",
		"GROQ_API_KEY": "gsk_test",
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(requiredEnv()))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "data/auditor.db", cfg.DBPath)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.GroqBaseURL)
	assert.Equal(t, "meta-llama/llama-4-maverick-17b-128e-instruct", cfg.GroqModel)
	assert.Equal(t, 3500, cfg.AnalysisMaxTokens)
	assert.Equal(t, "https://api.llama.fi/hacks", cfg.IncidentFeedURL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 3*time.Minute, cfg.HTTPWriteTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.GitHubToken)
}

func TestFromLookup_Overrides(t *testing.T) {
	env := requiredEnv()
	env["PORT"] = "3000"
	env["DB_DRIVER"] = "POSTGRES"
	env["DATABASE_URL"] = "postgres://u:p@localhost/auditor"
	env["GROQ_MODEL"] = "llama-3.3-70b-versatile"
	env["ANALYSIS_MAX_TOKENS"] = "2000"
	env["GITHUB_TOKEN"] = "ghp_x"
	env["CORS_ORIGINS"] = "https://app.example.com, http://localhost:5173 ,"
	env["HTTP_WRITE_TIMEOUT"] = "90s"
	env["LOG_LEVEL"] = "debug"
	env["LOG_FORMAT"] = "json"

	cfg, err := FromLookup(lookupFrom(env))
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "postgres://u:p@localhost/auditor", cfg.DatabaseURL)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.GroqModel)
	assert.Equal(t, 2000, cfg.AnalysisMaxTokens)
	assert.Equal(t, "ghp_x", cfg.GitHubToken)
	assert.Equal(t, []string{"https://app.example.com", "http://localhost:5173"}, cfg.CORSOrigins)
	assert.Equal(t, 90*time.Second, cfg.HTTPWriteTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestFromLookup_Invalid(t *testing.T) {
	tests := []struct {
		name string
		set  map[string]string
		drop string
		want string
	}{
		{name: "missing jwt secret", drop: "JWT_SECRET", want: "JWT_SECRET"},
		{name: "short jwt secret", set: map[string]string{"JWT_SECRET": "short"}, want: "JWT_SECRET"},
		{name: "missing groq key", drop: "GROQ_API_KEY", want: "GROQ_API_KEY"},
		{name: "bad port", set: map[string]string{"PORT": "eighty"}, want: "PORT"},
		{name: "port out of range", set: map[string]string{"PORT": "70000"}, want: "PORT"},
		{name: "bad max tokens", set: map[string]string{"ANALYSIS_MAX_TOKENS": "-1"}, want: "ANALYSIS_MAX_TOKENS"},
		{name: "bad write timeout", set: map[string]string{"HTTP_WRITE_TIMEOUT": "soon"}, want: "HTTP_WRITE_TIMEOUT"},
		{name: "bad log level", set: map[string]string{"LOG_LEVEL": "loud"}, want: "LOG_LEVEL"},
		{name: "bad log format", set: map[string]string{"LOG_FORMAT": "xml"}, want: "LOG_FORMAT"},
		{name: "unknown driver", set: map[string]string{"DB_DRIVER": "mysql"}, want: "DB_DRIVER"},
		{name: "postgres without url", set: map[string]string{"DB_DRIVER": "postgres"}, want: "DATABASE_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := requiredEnv()
			delete(env, tt.drop)
			for k, v := range tt.set {
				env[k] = v
			}

			_, err := FromLookup(lookupFrom(env))

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFromLookup_ReportsAllProblems(t *testing.T) {
	_, err := FromLookup(lookupFrom(map[string]string{"PORT": "x"}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "GROQ_API_KEY")
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"JWT_SECRET=dotenv-secret-0123456789\nGROQ_API_KEY=gsk_dotenv\nPORT=9090\n",
	), 0o600))

	// t.Setenv registers cleanup, so values godotenv sets are removed too.
	t.Setenv("JWT_SECRET", "")
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("PORT", "7070")
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("GROQ_API_KEY")

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "dotenv-secret-0123456789", cfg.JWTSecret)
	assert.Equal(t, "gsk_dotenv", cfg.GroqAPIKey)
	assert.Equal(t, 7070, cfg.Port, "the real environment wins over .env")
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("GROQ_API_KEY", "gsk_test")

	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.env"))
	assert.NoError(t, err)
}
