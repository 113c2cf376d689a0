package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	Redis    RedisConfig
	WhatsApp WhatsAppConfig
	Sheets   SheetsConfig
	Jobs     JobsConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port     string
	LogLevel string
}

// MongoDBConfig holds settings for MongoDB. Transactions need a replica set.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// RedisConfig configures the dashboard cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// WhatsAppConfig contains credentials for the Meta WhatsApp Cloud API used
// by stock alerts.
type WhatsAppConfig struct {
	AccessToken    string
	PhoneNumberID  string
	BaseURL        string
	APIVersion     string
	AlertRecipient string
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	ValuationRange  string
}

// JobsConfig holds scheduler-related settings.
type JobsConfig struct {
	LowStockSchedule  string
	ValuationSchedule string
	Timezone          string
}

// Enabled reports whether alerts can be sent.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != "" && c.AlertRecipient != ""
}

// Enabled reports whether valuation snapshots can be written.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// Enabled reports whether the cache is configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	redisDB, err := strconv.Atoi(getenvWithDefault("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("REDIS_DB must be an integer: %w", err)
	}
	ttl, err := time.ParseDuration(getenvWithDefault("CACHE_TTL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("CACHE_TTL must be a duration: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:     getenvWithDefault("APP_PORT", "8080"),
			LogLevel: os.Getenv("LOG_LEVEL"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "farmerp"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
			TTL:      ttl,
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:    os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID:  os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:        getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:     getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			AlertRecipient: os.Getenv("ALERT_RECIPIENT"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			ValuationRange:  getenvWithDefault("GOOGLE_SHEET_VALUATION_RANGE", "Valuation!A:H"),
		},
		Jobs: JobsConfig{
			LowStockSchedule:  getenvWithDefault("LOW_STOCK_CRON_SCHEDULE", "0 7 * * *"),
			ValuationSchedule: getenvWithDefault("VALUATION_CRON_SCHEDULE", "0 20 * * 5"),
			Timezone:          getenvWithDefault("TIMEZONE", "Africa/Conakry"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated and that
// optional integrations are either fully configured or left out.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.MongoDB.URI == "":
		return errors.New("MONGODB_URI must be provided")
	case c.MongoDB.DBName == "":
		return errors.New("MONGODB_DB_NAME must not be empty")
	}

	if c.Redis.Enabled() && c.Redis.TTL <= 0 {
		return errors.New("CACHE_TTL must be positive when REDIS_ADDR is set")
	}

	wa := c.WhatsApp
	if (wa.AccessToken != "" || wa.PhoneNumberID != "" || wa.AlertRecipient != "") && !wa.Enabled() {
		return errors.New("WHATSAPP_TOKEN, WHATSAPP_PHONE_NUMBER_ID and ALERT_RECIPIENT must be provided together")
	}
	if wa.Enabled() && (wa.BaseURL == "" || wa.APIVersion == "") {
		return errors.New("WHATSAPP_BASE_URL and WHATSAPP_API_VERSION must not be empty")
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be provided together")
	}

	if c.Jobs.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}
	if _, err := time.LoadLocation(c.Jobs.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Jobs.Timezone, err)
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
