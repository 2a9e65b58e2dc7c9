// Package config loads runtime settings from the environment.
//
// LOAD ORDER:
//  1. A .env file in the working directory, if present (godotenv)
//  2. The real process environment, which always wins: godotenv.Load never
//     overwrites a variable that is already set
//
// Missing required values stop the server at startup rather than at the first
// request that needs them.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sakif/contract-auditor/internal/analysis"
	"github.com/sakif/contract-auditor/internal/analysis/groq"
	"github.com/sakif/contract-auditor/internal/incident"
)

// Supported DB_DRIVER values.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is everything main needs to assemble the server.
type Config struct {
	Port int

	DBDriver    string
	DBPath      string // sqlite file; ":memory:" works for throwaway runs
	DatabaseURL string // postgres DSN

	JWTSecret string

	GroqAPIKey        string
	GroqBaseURL       string
	GroqModel         string
	AnalysisMaxTokens int

	GitHubToken     string
	IncidentFeedURL string

	CORSOrigins      []string
	HTTPWriteTimeout time.Duration

	LogLevel  slog.Level
	LogFormat string // "text" or "json"
}

// Load reads .env files (default ".env"; missing files are fine) and then
// the environment.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: loading %s: %w", f, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup, which has os.LookupEnv's shape.
// Tests pass a map-backed lookup instead of mutating the process env.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	var errs []error

	cfg := Config{
		DBDriver:        strings.ToLower(get("DB_DRIVER", DriverSQLite)),
		DBPath:          get("DB_PATH", "data/auditor.db"),
		DatabaseURL:     get("DATABASE_URL", ""),
		JWTSecret:       get("JWT_SECRET", ""),
		GroqAPIKey:      get("GROQ_API_KEY", ""),
		GroqBaseURL:     get("GROQ_BASE_URL", groq.DefaultBaseURL),
		GroqModel:       get("GROQ_MODEL", analysis.DefaultModel),
		GitHubToken:     get("GITHUB_TOKEN", ""),
		IncidentFeedURL: get("INCIDENT_FEED_URL", incident.DefaultFeedURL),
		CORSOrigins:     splitList(get("CORS_ORIGINS", "*")),
		LogFormat:       strings.ToLower(get("LOG_FORMAT", "text")),
	}

	port, err := strconv.Atoi(get("PORT", "8080"))
	if err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be a number between 1 and 65535, got %q", get("PORT", "")))
	}
	cfg.Port = port

	maxTokens, err := strconv.Atoi(get("ANALYSIS_MAX_TOKENS", strconv.Itoa(analysis.DefaultMaxTokens)))
	if err != nil || maxTokens <= 0 {
		errs = append(errs, fmt.Errorf("ANALYSIS_MAX_TOKENS must be a positive integer, got %q", get("ANALYSIS_MAX_TOKENS", "")))
	}
	cfg.AnalysisMaxTokens = maxTokens

	// Completions routinely take tens of seconds, so the default is generous.
	wt, err := time.ParseDuration(get("HTTP_WRITE_TIMEOUT", "3m"))
	if err != nil || wt <= 0 {
		errs = append(errs, fmt.Errorf("HTTP_WRITE_TIMEOUT must be a positive duration like 3m, got %q", get("HTTP_WRITE_TIMEOUT", "")))
	}
	cfg.HTTPWriteTimeout = wt

	if err := cfg.LogLevel.UnmarshalText([]byte(get("LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat))
	}

	switch cfg.DBDriver {
	case DriverSQLite:
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when DB_DRIVER=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", cfg.DBDriver))
	}

	if len(cfg.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET is required and must be at least 16 characters"))
	}
	if cfg.GroqAPIKey == "" {
		errs = append(errs, errors.New("GROQ_API_KEY is required"))
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return cfg, nil
}

// Addr is the listen address for http.Server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
