package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Billing profile source values
const (
	// ProfileSourceShipping copies the order's shipping address into
	// the billing profile
	ProfileSourceShipping = "shipping_information"
	// ProfileSourceCustom fills the billing profile from the
	// configured custom address
	ProfileSourceCustom = "custom"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Log      LogConfig
	Amws     AmwsConfig
	Cron     CronConfig
	Purge    PurgeConfig
	Profile  ProfileConfig
	Tracing  TracingConfig
	General  GeneralConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AmwsConfig holds marketplace API client settings
type AmwsConfig struct {
	Endpoint        string        // API base URL
	Timeout         time.Duration // per-request timeout
	MaxResponseSize int64         // in bytes
}

// CronConfig controls the periodic order import
type CronConfig struct {
	Status   bool   // whether the job runs at all
	Schedule string // cron expression, supports @every and descriptors
	Limit    int    // max orders handled per run, 0 = unlimited
}

// PurgeConfig controls order retention
type PurgeConfig struct {
	Status   bool       // whether purging is allowed
	Interval int        // minimum order age in seconds before purge
	Cron     CronConfig // periodic purge settings
}

// ProfileConfig controls billing profile creation on imported orders
type ProfileConfig struct {
	Status        bool
	Source        string // shipping_information or custom
	CustomAddress CustomAddressConfig
}

// CustomAddressConfig is the address used when the billing profile
// source is custom
type CustomAddressConfig struct {
	CountryCode        string
	AdministrativeArea string
	Locality           string
	PostalCode         string
	AddressLine1       string
	AddressLine2       string
}

// IsEmpty reports whether no custom address was configured
func (a CustomAddressConfig) IsEmpty() bool {
	return a.CountryCode == "" && a.AdministrativeArea == "" &&
		a.Locality == "" && a.PostalCode == "" &&
		a.AddressLine1 == "" && a.AddressLine2 == ""
}

// TracingConfig controls OpenTelemetry instrumentation of the
// database connection
type TracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // include query parameters in spans
	SlowQueryThresh time.Duration // queries slower than this are flagged
	DBSystem        string        // database system name reported on spans
}

// GeneralConfig holds settings that cut across subsystems
type GeneralConfig struct {
	// AddressConvertStates enables converting full US state names in
	// remote addresses to their two-letter codes
	AddressConvertStates bool
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with AMWS_ prefix (e.g., AMWS_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/amws")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("AMWS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Amws: AmwsConfig{
			Endpoint:        v.GetString("amws.endpoint"),
			Timeout:         v.GetDuration("amws.timeout"),
			MaxResponseSize: v.GetInt64("amws.max_response_size"),
		},
		Cron: CronConfig{
			Status:   v.GetBool("cron.status"),
			Schedule: v.GetString("cron.schedule"),
			Limit:    v.GetInt("cron.limit"),
		},
		Purge: PurgeConfig{
			Status:   v.GetBool("purge.status"),
			Interval: v.GetInt("purge.interval"),
			Cron: CronConfig{
				Status:   v.GetBool("purge.cron.status"),
				Schedule: v.GetString("purge.cron.schedule"),
				Limit:    v.GetInt("purge.cron.limit"),
			},
		},
		Profile: ProfileConfig{
			Status: v.GetBool("billing_profile.status"),
			Source: v.GetString("billing_profile.source"),
			CustomAddress: CustomAddressConfig{
				CountryCode:        v.GetString("billing_profile.custom_address.country_code"),
				AdministrativeArea: v.GetString("billing_profile.custom_address.administrative_area"),
				Locality:           v.GetString("billing_profile.custom_address.locality"),
				PostalCode:         v.GetString("billing_profile.custom_address.postal_code"),
				AddressLine1:       v.GetString("billing_profile.custom_address.address_line1"),
				AddressLine2:       v.GetString("billing_profile.custom_address.address_line2"),
			},
		},
		Tracing: TracingConfig{
			Enabled:         v.GetBool("tracing.enabled"),
			LogFullSQL:      v.GetBool("tracing.log_full_sql"),
			SlowQueryThresh: v.GetDuration("tracing.slow_query_threshold"),
			DBSystem:        v.GetString("tracing.db_system"),
		},
		General: GeneralConfig{
			AddressConvertStates: v.GetBool("general.address_convert_states"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "amws"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 10
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Amws.Endpoint == "" {
		cfg.Amws.Endpoint = "https://mws.amazonservices.com"
	}
	if cfg.Amws.Timeout == 0 {
		cfg.Amws.Timeout = 30 * time.Second
	}
	if cfg.Amws.MaxResponseSize == 0 {
		cfg.Amws.MaxResponseSize = 8 << 20
	}
	if cfg.Cron.Schedule == "" {
		cfg.Cron.Schedule = "@every 15m"
	}
	if cfg.Purge.Cron.Schedule == "" {
		cfg.Purge.Cron.Schedule = "@daily"
	}
	if cfg.Profile.Source == "" {
		cfg.Profile.Source = ProfileSourceShipping
	}
	if cfg.Tracing.SlowQueryThresh == 0 {
		cfg.Tracing.SlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Tracing.DBSystem == "" {
		cfg.Tracing.DBSystem = "postgresql"
	}
}

func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}

	if c.Amws.Timeout <= 0 {
		return fmt.Errorf("amws.timeout must be positive")
	}
	if c.Amws.MaxResponseSize <= 0 {
		return fmt.Errorf("amws.max_response_size must be positive")
	}

	if c.Cron.Limit < 0 {
		return fmt.Errorf("cron.limit cannot be negative")
	}
	if c.Purge.Interval < 0 {
		return fmt.Errorf("purge.interval cannot be negative")
	}
	if c.Purge.Cron.Limit < 0 {
		return fmt.Errorf("purge.cron.limit cannot be negative")
	}
	if c.Tracing.SlowQueryThresh < 0 {
		return fmt.Errorf("tracing.slow_query_threshold cannot be negative")
	}

	switch c.Profile.Source {
	case ProfileSourceShipping, ProfileSourceCustom:
	default:
		return fmt.Errorf("billing_profile.source must be %q or %q, got %q",
			ProfileSourceShipping, ProfileSourceCustom, c.Profile.Source)
	}

	return nil
}

// DSN returns the postgres connection string for the configured
// database
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
