// Package config loads service settings from the environment and an optional
// .env file.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/unclebandit/hoperise-backend/internal/model"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config holds all the configuration variables shared by the server, worker
// and seeder.
type Config struct {
	AppEnv              string `mapstructure:"APP_ENV"`
	ServerPort          string `mapstructure:"SERVER_PORT"`
	StoreDriver         string `mapstructure:"STORE_DRIVER"`
	DatabaseURL         string `mapstructure:"DATABASE_URL"`
	RabbitMQURL         string `mapstructure:"RABBITMQ_URL"`
	EscrowEventExchange string `mapstructure:"ESCROW_EVENT_EXCHANGE"`
	EscrowEventQueue    string `mapstructure:"ESCROW_EVENT_QUEUE"`
	RedisURL            string `mapstructure:"REDIS_URL"`
	ActivityFeedPrefix  string `mapstructure:"ACTIVITY_FEED_PREFIX"`
	ActivityFeedLimit   int    `mapstructure:"ACTIVITY_FEED_LIMIT"`
	JWTSecret           string `mapstructure:"JWT_SECRET"`
	USDCMint            string `mapstructure:"USDC_MINT"`
	ProgramAuthority    string `mapstructure:"PROGRAM_AUTHORITY"`
	ReconcileSchedule   string `mapstructure:"RECONCILE_SCHEDULE"`
	CORSAllowedOrigins  string `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

var keys = []string{
	"APP_ENV", "SERVER_PORT", "STORE_DRIVER", "DATABASE_URL", "RABBITMQ_URL",
	"ESCROW_EVENT_EXCHANGE", "ESCROW_EVENT_QUEUE", "REDIS_URL",
	"ACTIVITY_FEED_PREFIX", "ACTIVITY_FEED_LIMIT", "JWT_SECRET", "USDC_MINT",
	"PROGRAM_AUTHORITY", "RECONCILE_SCHEDULE", "CORS_ALLOWED_ORIGINS",
}

// LoadConfig reads the .env file in path, if any, then the environment.
// Environment variables win over the file.
func LoadConfig(path string) (config Config, err error) {
	// A missing .env is fine; the OS environment is enough.
	_ = godotenv.Load(filepath.Join(path, ".env"))

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("STORE_DRIVER", StoreMemory)
	viper.SetDefault("ESCROW_EVENT_EXCHANGE", "hoperise.events")
	viper.SetDefault("ESCROW_EVENT_QUEUE", "hoperise.activity")
	viper.SetDefault("ACTIVITY_FEED_PREFIX", "hoperise:activity")
	viper.SetDefault("ACTIVITY_FEED_LIMIT", 50)
	viper.SetDefault("USDC_MINT", model.DevnetUSDCMint)
	viper.SetDefault("PROGRAM_AUTHORITY", "hoperise-program")
	viper.SetDefault("RECONCILE_SCHEDULE", "@every 5m")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	// Bind explicitly so keys without a default still reach Unmarshal.
	for _, k := range keys {
		_ = viper.BindEnv(k)
	}

	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	config.StoreDriver = strings.ToLower(strings.TrimSpace(config.StoreDriver))
	config.USDCMint = strings.TrimSpace(config.USDCMint)
	if config.ActivityFeedLimit <= 0 {
		config.ActivityFeedLimit = 50
	}

	err = config.Validate()
	return
}

// Validate rejects settings no binary can start with.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=%s", StorePostgres)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.USDCMint == "" {
		return fmt.Errorf("USDC_MINT must not be empty")
	}
	return nil
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c Config) AllowedOrigins() []string {
	out := []string{}
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.ServerPort
}
