package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Numbering NumberingConfig `yaml:"numbering"`
	QR        QRConfig        `yaml:"qr"`
	Security  SecurityConfig  `yaml:"security"`
	Storage   StorageConfig   `yaml:"storage"`
	Report    ReportConfig    `yaml:"report"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// NumberingConfig holds the prefixes of human-readable numbers.
type NumberingConfig struct {
	InventoryPrefix string `yaml:"inventory_prefix"`
	CustomerPrefix  string `yaml:"customer_prefix"`
	RentalPrefix    string `yaml:"rental_prefix"`
}

type QRConfig struct {
	Scheme string `yaml:"scheme"`
}

// SecurityConfig contains app lock settings
type SecurityConfig struct {
	Secret          string `yaml:"secret"`
	AutoLockMinutes int    `yaml:"auto_lock_minutes"`
	MaxAttempts     int    `yaml:"max_attempts"`
	LockoutMinutes  int    `yaml:"lockout_minutes"`
	// SessionFile is where rentalctl keeps the unlock token between invocations.
	SessionFile string `yaml:"session_file"`
}

// StorageConfig contains signature image storage settings
type StorageConfig struct {
	SignatureDir  string   `yaml:"signature_dir"`
	MaxFileSizeKB int64    `yaml:"max_file_size_kb"`
	AllowedTypes  []string `yaml:"allowed_types"`
}

// ReportConfig controls how amounts are rendered in reports
type ReportConfig struct {
	Locale   string `yaml:"locale"`
	Currency string `yaml:"currency"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	ReportOverdueRentals           string `yaml:"report_overdue_rentals"`
	ReconcileEquipmentAvailability string `yaml:"reconcile_equipment_availability"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies environment overrides and validates
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Security
	if val := os.Getenv("APP_LOCK_SECRET"); val != "" {
		c.Security.Secret = val
	}

	// Storage
	if val := os.Getenv("SIGNATURE_DIR"); val != "" {
		c.Storage.SignatureDir = val
	}
}

// Validate checks the configuration and fills in defaults
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.Port < 0 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	// Numbering defaults
	if c.Numbering.InventoryPrefix == "" {
		c.Numbering.InventoryPrefix = "INV"
	}
	if c.Numbering.CustomerPrefix == "" {
		c.Numbering.CustomerPrefix = "CUS"
	}
	if c.Numbering.RentalPrefix == "" {
		c.Numbering.RentalPrefix = "RNT"
	}
	for _, p := range []string{c.Numbering.InventoryPrefix, c.Numbering.CustomerPrefix, c.Numbering.RentalPrefix} {
		if strings.ContainsAny(p, " -/") {
			return fmt.Errorf("numbering prefix %q must not contain spaces, dashes or slashes", p)
		}
	}

	if c.QR.Scheme == "" {
		c.QR.Scheme = "mediarent"
	}

	// Security
	if c.Security.Secret == "" {
		return fmt.Errorf("app lock secret is required")
	}
	if len(c.Security.Secret) < 32 {
		return fmt.Errorf("app lock secret must be at least 32 characters")
	}
	if c.Security.AutoLockMinutes <= 0 {
		c.Security.AutoLockMinutes = 15
	}
	if c.Security.MaxAttempts <= 0 {
		c.Security.MaxAttempts = 5
	}
	if c.Security.LockoutMinutes <= 0 {
		c.Security.LockoutMinutes = 5
	}
	if c.Security.SessionFile == "" {
		c.Security.SessionFile = ".mediarent-session"
	}

	// Storage
	if c.Storage.SignatureDir == "" {
		return fmt.Errorf("signature directory is required")
	}
	if c.Storage.MaxFileSizeKB <= 0 {
		c.Storage.MaxFileSizeKB = 512
	}
	if len(c.Storage.AllowedTypes) == 0 {
		c.Storage.AllowedTypes = []string{"image/png", "image/jpeg"}
	}

	if c.Report.Locale == "" {
		c.Report.Locale = "de-DE"
	}
	if c.Report.Currency == "" {
		c.Report.Currency = "EUR"
	}

	// Scheduler defaults
	if c.Scheduler.ReportOverdueRentals == "" {
		c.Scheduler.ReportOverdueRentals = "0 0 7 * * *" // 7 AM UTC
	}
	if c.Scheduler.ReconcileEquipmentAvailability == "" {
		c.Scheduler.ReconcileEquipmentAvailability = "0 30 2 * * *" // 2:30 AM UTC
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}
