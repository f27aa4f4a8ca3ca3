package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/terraincognita07/duet/internal/fertility"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "duet.yaml"
	minSecretKeyBytes = 32
)

var (
	ErrSecretKeyMissing     = errors.New("SECRET_KEY is required")
	ErrSecretKeyPlaceholder = errors.New("SECRET_KEY uses a placeholder value")
	ErrSecretKeyTooShort    = errors.New("SECRET_KEY must be at least 32 characters")
	ErrInvalidPort          = errors.New("PORT must be an integer between 1 and 65535")
	ErrInvalidHorizon       = errors.New("fertility.horizon_cycles must be at least 1")
	ErrInvalidCycleBounds   = errors.New("cycle bounds are inconsistent")
)

var insecureSecretKeys = []string{
	"change_me_in_production",
	"replace_with_at_least_32_random_characters",
	"changeme",
	"change-me",
	"secret",
}

type FertilityConfig struct {
	LutealPhaseDays   int `yaml:"luteal_phase_days"`
	FertileDaysBefore int `yaml:"fertile_days_before"`
	FertileDaysAfter  int `yaml:"fertile_days_after"`
	HorizonCycles     int `yaml:"horizon_cycles"`
}

// CycleBounds are the inclusive ranges accepted when a profile is saved.
// MaxLastPeriodAgeDays bounds how far back a period start may lie.
type CycleBounds struct {
	MinCycleLength       int `yaml:"min_cycle_length"`
	MaxCycleLength       int `yaml:"max_cycle_length"`
	MinPeriodLength      int `yaml:"min_period_length"`
	MaxPeriodLength      int `yaml:"max_period_length"`
	MaxLastPeriodAgeDays int `yaml:"max_last_period_age_days"`
}

type Config struct {
	Port            string          `yaml:"port"`
	DBPath          string          `yaml:"db_path"`
	Timezone        string          `yaml:"timezone"`
	SecretKey       string          `yaml:"secret_key"`
	DefaultLanguage string          `yaml:"default_language"`
	Fertility       FertilityConfig `yaml:"fertility"`
	Cycle           CycleBounds     `yaml:"cycle"`
}

func Default() Config {
	params := fertility.DefaultParams()
	return Config{
		Port:            "8080",
		DBPath:          filepath.Join("data", "duet.db"),
		Timezone:        "UTC",
		DefaultLanguage: "en",
		Fertility: FertilityConfig{
			LutealPhaseDays:   params.LutealPhaseDays,
			FertileDaysBefore: params.FertileDaysBefore,
			FertileDaysAfter:  params.FertileDaysAfter,
			HorizonCycles:     6,
		},
		Cycle: CycleBounds{
			MinCycleLength:       21,
			MaxCycleLength:       35,
			MinPeriodLength:      3,
			MaxPeriodLength:      7,
			MaxLastPeriodAgeDays: 365,
		},
	}
}

// Path returns the config file location from DUET_CONFIG, or the default.
func Path() string {
	if raw := strings.TrimSpace(os.Getenv("DUET_CONFIG")); raw != "" {
		return raw
	}
	return DefaultConfigPath
}

// Load layers defaults, the YAML file at path (if it exists) and the
// environment, then validates the result. The secret key is not checked
// here; servers call RequireSecretKey.
func Load(path string) (Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) applyEnv() error {
	overrideString(&cfg.Port, "PORT")
	overrideString(&cfg.DBPath, "DB_PATH")
	overrideString(&cfg.Timezone, "TZ")
	overrideString(&cfg.SecretKey, "SECRET_KEY")
	overrideString(&cfg.DefaultLanguage, "DEFAULT_LANGUAGE")

	if raw := strings.TrimSpace(os.Getenv("DUET_HORIZON_CYCLES")); raw != "" {
		horizon, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("parse DUET_HORIZON_CYCLES: %w", err)
		}
		cfg.Fertility.HorizonCycles = horizon
	}
	return nil
}

func overrideString(target *string, key string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*target = value
	}
}

func (cfg Config) Validate() error {
	port, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || port < 1 || port > 65535 {
		return ErrInvalidPort
	}
	if err := cfg.FertilityParams().Validate(); err != nil {
		return err
	}
	if cfg.Fertility.HorizonCycles < 1 {
		return ErrInvalidHorizon
	}

	bounds := cfg.Cycle
	if bounds.MinCycleLength <= 0 || bounds.MinCycleLength > bounds.MaxCycleLength ||
		bounds.MinPeriodLength <= 0 || bounds.MinPeriodLength > bounds.MaxPeriodLength ||
		bounds.MaxLastPeriodAgeDays < 1 {
		return ErrInvalidCycleBounds
	}
	if bounds.MaxPeriodLength >= bounds.MinCycleLength {
		return fmt.Errorf("%w: max_period_length must be below min_cycle_length", ErrInvalidCycleBounds)
	}
	if bounds.MinCycleLength <= cfg.Fertility.LutealPhaseDays {
		return fmt.Errorf("%w: min_cycle_length must exceed luteal_phase_days", ErrInvalidCycleBounds)
	}
	return nil
}

func (cfg Config) FertilityParams() fertility.Params {
	return fertility.Params{
		LutealPhaseDays:   cfg.Fertility.LutealPhaseDays,
		FertileDaysBefore: cfg.Fertility.FertileDaysBefore,
		FertileDaysAfter:  cfg.Fertility.FertileDaysAfter,
	}
}

// Location resolves Timezone, falling back to UTC for unknown names.
func (cfg Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(cfg.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	location, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return location, nil
}

// RequireSecretKey returns the signing secret or an error when it is
// missing, a known placeholder, or too short.
func (cfg Config) RequireSecretKey() (string, error) {
	secret := strings.TrimSpace(cfg.SecretKey)
	if secret == "" {
		return "", ErrSecretKeyMissing
	}
	for _, placeholder := range insecureSecretKeys {
		if strings.EqualFold(secret, placeholder) {
			return "", ErrSecretKeyPlaceholder
		}
	}
	if len(secret) < minSecretKeyBytes {
		return "", ErrSecretKeyTooShort
	}
	return secret, nil
}
