// Package config reads the settings of the backend from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	ErrAPIURLMissing = errors.New("environment variable API_URL must be set")
	ErrDriver        = errors.New("DB_DRIVER must be one of sqlite, postgres")
	ErrTolerance     = errors.New("ALLOTMENT_VALUE_TOLERANCE must be a non-negative number")
)

// Config holds all settings of the backend.
type Config struct {
	APIURL    *url.URL
	GinMode   string
	LogFormat string
	Port      string
	Database  DatabaseConfig
	Allotment AllotmentConfig
	Audit     AuditConfig
}

// DatabaseConfig selects the database.
type DatabaseConfig struct {
	Driver string
	DSN    string
}

// AllotmentConfig holds the settings of the allotment engine.
type AllotmentConfig struct {
	ValueTolerance decimal.Decimal
}

// AuditConfig holds the settings of the scheduled balance audit.
type AuditConfig struct {
	Schedule string // cron spec, empty disables the audit
	Timezone string
}

func defaults(v *viper.Viper) {
	v.SetDefault("gin_mode", "release")
	v.SetDefault("port", "8080")
	v.SetDefault("db_driver", DriverSQLite)
	v.SetDefault("db_dsn", "data/ledger.db")
	v.SetDefault("allotment_value_tolerance", "3")
	v.SetDefault("audit_schedule", "@every 1h")
	v.SetDefault("audit_timezone", "Asia/Kolkata")
}

// Load reads the configuration.
//
// Environment variables take precedence over a .env file in the working
// directory, which takes precedence over the built-in defaults.
func Load() (*Config, error) {
	// A missing .env file is fine
	_ = godotenv.Load()

	v := viper.New()
	defaults(v)
	v.AutomaticEnv()

	// AUDIT_SCHEDULE="" disables the audit, so it needs to be
	// distinguishable from an unset variable
	v.AllowEmptyEnv(true)

	rawURL := v.GetString("api_url")
	if rawURL == "" {
		return nil, ErrAPIURLMissing
	}

	apiURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("environment variable API_URL must be a valid URL: %w", err)
	}

	driver := strings.ToLower(v.GetString("db_driver"))
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("%w, got %q", ErrDriver, driver)
	}

	tolerance, err := decimal.NewFromString(v.GetString("allotment_value_tolerance"))
	if err != nil || tolerance.IsNegative() {
		return nil, fmt.Errorf("%w, got %q", ErrTolerance, v.GetString("allotment_value_tolerance"))
	}

	return &Config{
		APIURL:    apiURL,
		GinMode:   v.GetString("gin_mode"),
		LogFormat: v.GetString("log_format"),
		Port:      v.GetString("port"),
		Database: DatabaseConfig{
			Driver: driver,
			DSN:    v.GetString("db_dsn"),
		},
		Allotment: AllotmentConfig{
			ValueTolerance: tolerance,
		},
		Audit: AuditConfig{
			Schedule: strings.TrimSpace(v.GetString("audit_schedule")),
			Timezone: v.GetString("audit_timezone"),
		},
	}, nil
}
