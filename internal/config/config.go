package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the portal configuration
type Config struct {
	Environment    string
	LogJSON        bool
	API            APIConfig
	Guard          GuardConfig
	Revalidate     string // cron spec for background session refresh; empty disables it
	MetricsAddress string // address for the Prometheus endpoint; empty disables it
}

// APIConfig holds how the API origin is resolved and reached
type APIConfig struct {
	BaseOrigin string        // Explicit API origin; wins over PageOrigin
	PageOrigin string        // Origin the portal is served from (development fallback)
	Timeout    time.Duration // HTTP client timeout; zero means none
}

// GuardConfig holds navigation guard configuration
type GuardConfig struct {
	OnUnknown string // "abort" or "anonymous"
}

// fileConfig is the optional YAML file layer. Environment variables override it.
type fileConfig struct {
	Environment string `yaml:"environment"`
	LogJSON     *bool  `yaml:"log_json"`
	API         struct {
		BaseOrigin string `yaml:"base_origin"`
		PageOrigin string `yaml:"page_origin"`
		Timeout    string `yaml:"timeout"`
	} `yaml:"api"`
	Guard struct {
		OnUnknown string `yaml:"on_unknown"`
	} `yaml:"guard"`
	Revalidate     string `yaml:"revalidate"`
	MetricsAddress string `yaml:"metrics_address"`
}

// Load loads configuration from the optional YAML file named by PORTAL_CONFIG
// and from environment variables, with defaults
func Load() (*Config, error) {
	var file fileConfig
	if path := os.Getenv("PORTAL_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	environment := getEnv("APP_ENV", orDefault(file.Environment, "production"))

	// Default: JSON in production, text in development
	logJSON := environment != "development"
	if file.LogJSON != nil {
		logJSON = *file.LogJSON
	}
	if v := os.Getenv("LOG_JSON"); v != "" {
		logJSON = v == "true"
	}

	timeout, err := parseDuration(getEnv("PORTAL_HTTP_TIMEOUT", file.API.Timeout))
	if err != nil {
		return nil, fmt.Errorf("invalid PORTAL_HTTP_TIMEOUT: %w", err)
	}

	// VITE_API_BASE is accepted so existing frontend .env files keep working
	baseOrigin := getEnv("PORTAL_API_BASE", getEnv("VITE_API_BASE", file.API.BaseOrigin))

	return &Config{
		Environment: environment,
		LogJSON:     logJSON,
		API: APIConfig{
			BaseOrigin: strings.TrimSpace(baseOrigin),
			PageOrigin: strings.TrimSpace(getEnv("PORTAL_PAGE_ORIGIN", file.API.PageOrigin)),
			Timeout:    timeout,
		},
		Guard: GuardConfig{
			OnUnknown: getEnv("PORTAL_GUARD_ON_UNKNOWN", orDefault(file.Guard.OnUnknown, "abort")),
		},
		Revalidate:     getEnv("PORTAL_REVALIDATE", file.Revalidate),
		MetricsAddress: getEnv("PORTAL_METRICS_ADDRESS", file.MetricsAddress),
	}, nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", s)
	}
	return d, nil
}

func orDefault(value, defaultValue string) string {
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
