package config

import (
	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the service.
type Config struct {
	AppPort      string
	Env          string
	MongoURI     string
	MongoDB      string
	RabbitMQURL  string
	RateLimitMax int
}

// Load reads configuration from environment variables, applying defaults
// for local development.
func Load() *Config {
	viper.SetDefault("APP_PORT", ":3000")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DB", "product_catalog")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("RATE_LIMIT_MAX", 100)
	viper.AutomaticEnv()

	return &Config{
		AppPort:      viper.GetString("APP_PORT"),
		Env:          viper.GetString("APP_ENV"),
		MongoURI:     viper.GetString("MONGO_URI"),
		MongoDB:      viper.GetString("MONGO_DB"),
		RabbitMQURL:  viper.GetString("RABBITMQ_URL"),
		RateLimitMax: viper.GetInt("RATE_LIMIT_MAX"),
	}
}

// IsDevelopment reports whether the service runs in development mode.
// Error responses include full diagnostic detail only in this mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
