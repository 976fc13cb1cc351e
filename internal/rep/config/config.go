// Package config loads urlwarden configuration from environment variables,
// applies defaults, and validates before anything activates. Configuration
// errors fail fast here, never per request.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/urlwarden/urlwarden/internal/rep/domain"
)

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// Engine selects the evaluator: "auto", "reference", or "accelerated".
	Engine string `koanf:"engine" validate:"required,oneof=auto reference accelerated"`

	// CacheSize bounds the accelerated engine's decision cache.
	CacheSize int `koanf:"cache_size" validate:"gte=0"`

	// WhitelistDomains are always allowed, bypassing every check.
	WhitelistDomains []string `koanf:"whitelist_domains"`

	// AllowedPatterns are regex patterns that explicitly allow a URL.
	AllowedPatterns []string `koanf:"allowed_patterns"`

	// BlockedDomains deny on exact or subdomain host match.
	BlockedDomains []string `koanf:"blocked_domains"`

	// BlockedPatterns are regex patterns that deny a URL.
	BlockedPatterns []string `koanf:"blocked_patterns"`

	// UseHeuristicCheck enables entropy/TLD/script heuristics.
	UseHeuristicCheck bool `koanf:"use_heuristic_check"`

	// EntropyThreshold is the Shannon-entropy cutoff, must be >= 0.
	EntropyThreshold float64 `koanf:"entropy_threshold" validate:"gte=0"`

	// BlockNonSecureHTTP denies any scheme other than https.
	BlockNonSecureHTTP bool `koanf:"block_non_secure_http"`
}

// DEFAULT_APP_CONFIG defines the default urlwarden configuration: heuristics
// off, non-secure schemes blocked, empty domain and pattern lists.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:                "prod",
	LogLevel:           "info",
	Engine:             "auto",
	CacheSize:          1024,
	UseHeuristicCheck:  false,
	EntropyThreshold:   domain.DefaultEntropyThreshold,
	BlockNonSecureHTTP: true,
}

// envLoader loads environment variables with the prefix "URLWARDEN_",
// lowercasing keys and splitting space- or comma-separated values into
// lists. Declared as a variable so tests can substitute it.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "URLWARDEN_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "URLWARDEN_"))
			value = strings.TrimSpace(value)

			if value == "" {
				return key, value
			}

			if strings.Contains(value, " ") || strings.Contains(value, ",") {
				parts := strings.FieldsFunc(value, func(r rune) bool {
					return r == ' ' || r == ','
				})
				return key, parts
			}

			return key, value
		},
	}), nil)
}

// defaultLoader loads default values using the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically. Pattern
// syntax is validated later by domain.Policy at plugin construction.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}

// Policy converts the loaded configuration into a validated domain.Policy.
func (c *AppConfig) Policy() (domain.Policy, error) {
	return domain.NewPolicy(domain.Policy{
		WhitelistDomains:   c.WhitelistDomains,
		AllowedPatterns:    c.AllowedPatterns,
		BlockedDomains:     c.BlockedDomains,
		BlockedPatterns:    c.BlockedPatterns,
		UseHeuristicCheck:  c.UseHeuristicCheck,
		EntropyThreshold:   c.EntropyThreshold,
		BlockNonSecureHTTP: c.BlockNonSecureHTTP,
	})
}
