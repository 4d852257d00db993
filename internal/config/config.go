package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server   Server   `mapstructure:"server"`
	Logger   Logger   `mapstructure:"logger"`
	Storage  Storage  `mapstructure:"storage"`
	Ingest   Ingest   `mapstructure:"ingest"`
	Uploader Uploader `mapstructure:"uploader"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Storage holds the configuration for the document store.
type Storage struct {
	Driver         string `mapstructure:"driver"`
	DSN            string `mapstructure:"dsn"`
	Redis          Redis  `mapstructure:"redis"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// Redis holds the connection settings for the redis storage driver.
type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Ingest holds the configuration for trade ingestion.
type Ingest struct {
	Collection string `mapstructure:"collection"`
}

// Uploader holds the configuration for the push client that uploads trades
// to the dashboard.
type Uploader struct {
	Endpoint       string  `mapstructure:"endpoint"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
	BatchSize      int     `mapstructure:"batch_size"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("server.port", 10000)
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("storage.driver", "sqlite")
	viper.SetDefault("storage.dsn", "trades.db")
	viper.SetDefault("storage.redis.addr", "localhost:6379")
	viper.SetDefault("storage.timeout_seconds", 5)
	viper.SetDefault("ingest.collection", "trades")
	viper.SetDefault("uploader.rate_limit", 5)       // requests per second
	viper.SetDefault("uploader.rate_limit_burst", 2) // burst size
	viper.SetDefault("uploader.batch_size", 100)

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
