package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Storage   StorageConfig   `mapstructure:"storage"`
	Generator GeneratorConfig `mapstructure:"generator"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// StorageConfig selects and configures the backing store
type StorageConfig struct {
	Driver    string `mapstructure:"driver"`  // sqlite, gorm-sqlite or postgres
	DBPath    string `mapstructure:"db_path"` // sqlite and gorm-sqlite
	DSN       string `mapstructure:"dsn"`     // postgres
	BatchSize int    `mapstructure:"batch_size"`
}

// GeneratorConfig holds synthetic dataset generation settings
type GeneratorConfig struct {
	Seed    uint64 `mapstructure:"seed"` // 0 = derive from clock
	Days    int    `mapstructure:"days"`
	EndDate string `mapstructure:"end_date"` // YYYY-MM-DD, empty = today
}

// HTTPConfig holds the JSON API configuration
type HTTPConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Addr            string        `mapstructure:"addr"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
// A .env file in the working directory, if present, is loaded into the
// environment first.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	// Set config file
	v.SetConfigFile(path)

	// Set defaults
	setDefaults(v)

	// Enable environment variable override, e.g. COVIDSYNTH_STORAGE_DRIVER
	v.SetEnvPrefix("COVIDSYNTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Storage defaults
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.db_path", "./data/covid_data.db")
	v.SetDefault("storage.batch_size", 1000)

	// Generator defaults
	v.SetDefault("generator.seed", 0)
	v.SetDefault("generator.days", 365)
	v.SetDefault("generator.end_date", "")

	// HTTP defaults
	v.SetDefault("http.enabled", false)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", "10s")

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Storage config
	switch c.Storage.Driver {
	case "sqlite", "gorm-sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("storage.db_path is required for driver %s", c.Storage.Driver)
		}
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for driver postgres")
		}
	default:
		return fmt.Errorf("storage.driver must be one of: sqlite, gorm-sqlite, postgres")
	}
	if c.Storage.BatchSize < 1 {
		return fmt.Errorf("storage.batch_size must be at least 1")
	}

	// Validate Generator config
	if c.Generator.Days < 1 {
		return fmt.Errorf("generator.days must be at least 1")
	}
	if _, err := c.Generator.End(); err != nil {
		return err
	}

	// Validate HTTP config
	if c.HTTP.Enabled && c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required when http is enabled")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// End returns the configured last day of the generation window, or the zero
// time when the window should end today.
func (g GeneratorConfig) End() (time.Time, error) {
	if g.EndDate == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", g.EndDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("generator.end_date must be YYYY-MM-DD: %w", err)
	}
	return t, nil
}
