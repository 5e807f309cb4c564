package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Exchange  ExchangeConfig
	Auction   AuctionConfig
	Catalog   CatalogConfig
	Location  LocationConfig
	Sync      SyncConfig
	Reconcile ReconcileConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings. The sqlite driver
// covers single-operator deployments; postgres covers everything else.
type DatabaseConfig struct {
	Driver          string // sqlite, postgres
	Path            string // sqlite file path
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	TrustedProxies []string
}

// ExchangeConfig holds source exchange API settings
type ExchangeConfig struct {
	BaseURL  string
	Token    string
	Timeout  time.Duration
	RetryMax int
}

// AuctionConfig holds destination auction marketplace API settings
type AuctionConfig struct {
	BaseURL             string
	Token               string
	MerchantLocationKey string
	PaymentPolicyID     string
	ReturnPolicyID      string
	FulfillmentPolicyID string
	Currency            string
	DefaultCategoryID   string
	Timeout             time.Duration
	RetryMax            int
}

// CatalogConfig holds the product catalog enrichment API settings
type CatalogConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// LocationConfig holds the address used when the seller account has no
// fulfillment location yet
type LocationConfig struct {
	Name            string
	AddressLine1    string
	City            string
	StateOrProvince string
	PostalCode      string
	Country         string
}

// SyncConfig holds listing pipeline settings
type SyncConfig struct {
	// MaxInFlight bounds concurrent per-item pipelines within a batch
	MaxInFlight int
	// RequiredAspects gate publishing; items missing any stay drafts
	RequiredAspects []string
}

// ReconcileConfig holds the periodic reconciliation job settings
type ReconcileConfig struct {
	Enabled       bool
	Interval      time.Duration
	JobTimeout    time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	HistoryLimit  int
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with FLIPLEDGER_ prefix (e.g., FLIPLEDGER_AUCTION_TOKEN)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("FLIPLEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Booleans defaulting to true cannot go through applyDefaults
	v.SetDefault("reconcile.enabled", true)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Path:            v.GetString("database.path"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Exchange: ExchangeConfig{
			BaseURL:  v.GetString("exchange.base_url"),
			Token:    v.GetString("exchange.token"),
			Timeout:  v.GetDuration("exchange.timeout"),
			RetryMax: v.GetInt("exchange.retry_max"),
		},
		Auction: AuctionConfig{
			BaseURL:             v.GetString("auction.base_url"),
			Token:               v.GetString("auction.token"),
			MerchantLocationKey: v.GetString("auction.merchant_location_key"),
			PaymentPolicyID:     v.GetString("auction.payment_policy_id"),
			ReturnPolicyID:      v.GetString("auction.return_policy_id"),
			FulfillmentPolicyID: v.GetString("auction.fulfillment_policy_id"),
			Currency:            v.GetString("auction.currency"),
			DefaultCategoryID:   v.GetString("auction.default_category_id"),
			Timeout:             v.GetDuration("auction.timeout"),
			RetryMax:            v.GetInt("auction.retry_max"),
		},
		Catalog: CatalogConfig{
			BaseURL: v.GetString("catalog.base_url"),
			Token:   v.GetString("catalog.token"),
			Timeout: v.GetDuration("catalog.timeout"),
		},
		Location: LocationConfig{
			Name:            v.GetString("location.name"),
			AddressLine1:    v.GetString("location.address_line1"),
			City:            v.GetString("location.city"),
			StateOrProvince: v.GetString("location.state_or_province"),
			PostalCode:      v.GetString("location.postal_code"),
			Country:         v.GetString("location.country"),
		},
		Sync: SyncConfig{
			MaxInFlight:     v.GetInt("sync.max_in_flight"),
			RequiredAspects: v.GetStringSlice("sync.required_aspects"),
		},
		Reconcile: ReconcileConfig{
			Enabled:       v.GetBool("reconcile.enabled"),
			Interval:      v.GetDuration("reconcile.interval"),
			JobTimeout:    v.GetDuration("reconcile.job_timeout"),
			RetryAttempts: v.GetInt("reconcile.retry_attempts"),
			RetryDelay:    v.GetDuration("reconcile.retry_delay"),
			HistoryLimit:  v.GetInt("reconcile.history_limit"),
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
	if cfg.App.Name == "" {
		cfg.App.Name = "flipledger-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "flipledger.db"
	}
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
		cfg.Database.DBName = "flipledger"
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
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.Exchange.Timeout == 0 {
		cfg.Exchange.Timeout = 30 * time.Second
	}
	if cfg.Exchange.RetryMax == 0 {
		cfg.Exchange.RetryMax = 3
	}
	if cfg.Auction.MerchantLocationKey == "" {
		cfg.Auction.MerchantLocationKey = "DEFAULT-WAREHOUSE"
	}
	if cfg.Auction.Currency == "" {
		cfg.Auction.Currency = "USD"
	}
	if cfg.Auction.Timeout == 0 {
		cfg.Auction.Timeout = 30 * time.Second
	}
	if cfg.Auction.RetryMax == 0 {
		cfg.Auction.RetryMax = 3
	}
	if cfg.Catalog.Timeout == 0 {
		cfg.Catalog.Timeout = 10 * time.Second
	}
	if cfg.Location.Name == "" {
		cfg.Location.Name = "Default warehouse"
	}
	if cfg.Location.Country == "" {
		cfg.Location.Country = "US"
	}
	if cfg.Sync.MaxInFlight == 0 {
		cfg.Sync.MaxInFlight = 2
	}
	if len(cfg.Sync.RequiredAspects) == 0 {
		cfg.Sync.RequiredAspects = []string{"Color", "US Shoe Size", "Brand"}
	}
	if cfg.Reconcile.Interval == 0 {
		cfg.Reconcile.Interval = 15 * time.Minute
	}
	if cfg.Reconcile.JobTimeout == 0 {
		cfg.Reconcile.JobTimeout = 10 * time.Minute
	}
	if cfg.Reconcile.RetryAttempts == 0 {
		cfg.Reconcile.RetryAttempts = 3
	}
	if cfg.Reconcile.RetryDelay == 0 {
		cfg.Reconcile.RetryDelay = 30 * time.Second
	}
	if cfg.Reconcile.HistoryLimit == 0 {
		cfg.Reconcile.HistoryLimit = 50
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("database.driver must be 'sqlite' or 'postgres', got %q", c.Database.Driver)
	}
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
	if c.Sync.MaxInFlight < 1 || c.Sync.MaxInFlight > 4 {
		return fmt.Errorf("sync.max_in_flight must be between 1 and 4, got %d", c.Sync.MaxInFlight)
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Exchange.Token == "" {
			return fmt.Errorf("exchange.token is required in production")
		}
		if c.Auction.Token == "" {
			return fmt.Errorf("auction.token is required in production")
		}
		if c.Database.Driver == "postgres" {
			if c.Database.Password == "" {
				return fmt.Errorf("database.password is required in production")
			}
			if c.Database.SSLMode == "disable" {
				return fmt.Errorf("database.sslmode cannot be 'disable' in production")
			}
		}
	}

	return nil
}

// PostgresDSN returns the postgres connection string with properly
// escaped values
func (d *DatabaseConfig) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}
