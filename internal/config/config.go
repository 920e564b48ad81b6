// Package config loads the run configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/naka-gawa/github-stats-badges/internal/domain"
)

type Config struct {
	// GitHub
	AccessToken string `envconfig:"ACCESS_TOKEN" validate:"required"`
	Actor       string `envconfig:"GITHUB_ACTOR" validate:"required"`

	// Filters
	Excluded            string `envconfig:"EXCLUDED"`
	ExcludedLangs       string `envconfig:"EXCLUDED_LANGS"`
	CountStatsFromForks string `envconfig:"COUNT_STATS_FROM_FORKS"`

	// App
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"omitempty,oneof=debug info warn error"`
	LogJSON   bool   `envconfig:"LOG_JSON" default:"false"`
	OutputDir string `envconfig:"OUTPUT_DIR" default:"generated" validate:"required"`
	Workers   int    `envconfig:"WORKERS" default:"8" validate:"gt=0"`
}

type Loader struct {
	Prefix   string
	Validate *validator.Validate
	// EnvFiles are loaded before the environment is read. Missing files are skipped.
	EnvFiles []string
}

func NewLoader() *Loader {
	return &Loader{Validate: validator.New(), EnvFiles: []string{".env"}}
}

// Load reads and validates the configuration. Every failure is a *domain.ConfigurationError.
func (l *Loader) Load() (Config, error) {
	var cfg Config

	for _, f := range l.EnvFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return cfg, &domain.ConfigurationError{Field: f, Err: fmt.Errorf("dotenv: %w", err)}
		}
	}
	if err := envconfig.Process(l.Prefix, &cfg); err != nil {
		return cfg, &domain.ConfigurationError{Err: fmt.Errorf("env load: %w", err)}
	}

	if err := l.Validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return cfg, &domain.ConfigurationError{Field: envName(verrs[0].StructField()), Err: fmt.Errorf("failed on %q rule", verrs[0].Tag())}
		}
		return cfg, &domain.ConfigurationError{Err: fmt.Errorf("config validation: %w", err)}
	}
	return cfg, nil
}

// ExcludedRepoSet returns the repositories listed in EXCLUDED.
func (c Config) ExcludedRepoSet() map[string]struct{} {
	return splitSet(c.Excluded)
}

// ExcludedLangSet returns the languages listed in EXCLUDED_LANGS.
func (c Config) ExcludedLangSet() map[string]struct{} {
	return splitSet(c.ExcludedLangs)
}

// ConsiderForkedRepos reports whether COUNT_STATS_FROM_FORKS is set to anything.
func (c Config) ConsiderForkedRepos() bool {
	return strings.TrimSpace(c.CountStatsFromForks) != ""
}

func splitSet(list string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			set[item] = struct{}{}
		}
	}
	return set
}

func envName(field string) string {
	switch field {
	case "AccessToken":
		return "ACCESS_TOKEN"
	case "Actor":
		return "GITHUB_ACTOR"
	case "LogLevel":
		return "LOG_LEVEL"
	case "OutputDir":
		return "OUTPUT_DIR"
	case "Workers":
		return "WORKERS"
	}
	return field
}
