package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Port          string        `mapstructure:"PORT"`
	MongoURI      string        `mapstructure:"MONGODB_URI"`
	MongoDB       string        `mapstructure:"MONGODB_DB"`
	JWTSecret     string        `mapstructure:"JWT_SECRET"`
	NatsURL       string        `mapstructure:"NATS_URL"`
	CorsOrigins   string        `mapstructure:"CORS_ORIGINS"`
	SweepInterval time.Duration `mapstructure:"SWEEP_INTERVAL"`
}

// Load reads configuration from a .env file and environment variables.
func Load() (*Config, error) {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.SetDefault("PORT", "3000")
	viper.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGODB_DB", "skillswap")
	viper.SetDefault("JWT_SECRET", "fallback-secret-key")
	viper.SetDefault("NATS_URL", "")
	viper.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	viper.SetDefault("SWEEP_INTERVAL", "10m")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("Warning: .env file not found, loading from environment variables")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
