package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server:  ServerConfig{Port: "8080"},
		MongoDB: MongoDBConfig{URI: "mongodb://localhost:27017/?replicaSet=rs0", DBName: "farmerp"},
		Redis:   RedisConfig{TTL: 30 * time.Second},
		WhatsApp: WhatsAppConfig{
			BaseURL:    "https://graph.facebook.com",
			APIVersion: "v20.0",
		},
		Jobs: JobsConfig{Timezone: "UTC"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"minimal", func(*Config) {}, ""},
		{"missing mongo uri", func(c *Config) { c.MongoDB.URI = "" }, "MONGODB_URI"},
		{"partial whatsapp", func(c *Config) { c.WhatsApp.AccessToken = "token" }, "WHATSAPP_TOKEN"},
		{"full whatsapp", func(c *Config) {
			c.WhatsApp.AccessToken, c.WhatsApp.PhoneNumberID, c.WhatsApp.AlertRecipient = "token", "123", "224600000000"
		}, ""},
		{"partial sheets", func(c *Config) { c.Sheets.SpreadsheetID = "sheet" }, "GOOGLE_SHEETS_CREDENTIALS_PATH"},
		{"redis without ttl", func(c *Config) { c.Redis.Addr, c.Redis.TTL = "localhost:6379", 0 }, "CACHE_TTL"},
		{"bad timezone", func(c *Config) { c.Jobs.Timezone = "Mars/Olympus" }, "TIMEZONE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("CACHE_TTL", "1m")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load("does-not-exist.env")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Redis.TTL != time.Minute || cfg.Redis.DB != 2 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Jobs.LowStockSchedule == "" || cfg.MongoDB.DBName != "farmerp" {
		t.Errorf("defaults not applied: %+v", cfg.Jobs)
	}
}
