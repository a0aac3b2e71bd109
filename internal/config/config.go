package config

import (
	"github.com/spf13/viper"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	// Server
	Port           int    `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"` // development | production
	WorkerPoolSize int    `mapstructure:"WORKER_POOL_SIZE"`

	// Database: postgres:// URL or a SQLite file path
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Redis: empty disables the job queue and the cross-replica change bridge
	RedisURL string `mapstructure:"REDIS_URL"`

	// Auth
	JWTSecret          string `mapstructure:"JWT_SECRET"`
	JWTExpirationHours int    `mapstructure:"JWT_EXPIRATION_HOURS"`
	JWTRefreshHours    int    `mapstructure:"JWT_REFRESH_HOURS"`

	// Ledger write retries
	LedgerMaxAttempts    int `mapstructure:"LEDGER_MAX_ATTEMPTS"`
	LedgerRetryBackoffMS int `mapstructure:"LEDGER_RETRY_BACKOFF_MS"`

	// SMTP
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	AlertEmail   string `mapstructure:"ALERT_EMAIL"`

	PDFStoragePath string `mapstructure:"PDF_STORAGE_PATH"`

	// Seed accounts (cmd/seeduser)
	SeedAdminPassword   string `mapstructure:"SEED_ADMIN_PASSWORD"`
	SeedWizardPassword  string `mapstructure:"SEED_WIZARD_PASSWORD"`
	SeedWizKidsPassword string `mapstructure:"SEED_WIZKIDS_PASSWORD"`
}

// Load reads configuration from environment variables (and optional .env file).
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	// Sensible defaults for development
	v.SetDefault("PORT", 8000)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("WORKER_POOL_SIZE", 3)
	v.SetDefault("DATABASE_URL", "cantina.db")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_EXPIRATION_HOURS", 8)
	v.SetDefault("JWT_REFRESH_HOURS", 24)
	v.SetDefault("LEDGER_MAX_ATTEMPTS", 3)
	v.SetDefault("LEDGER_RETRY_BACKOFF_MS", 20)
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("ALERT_EMAIL", "")
	v.SetDefault("PDF_STORAGE_PATH", "/tmp/cantina/pdfs")
	v.SetDefault("SEED_ADMIN_PASSWORD", "")
	v.SetDefault("SEED_WIZARD_PASSWORD", "")
	v.SetDefault("SEED_WIZKIDS_PASSWORD", "")

	// Optional .env file for local development; does not fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool { return c.Env == "production" }
