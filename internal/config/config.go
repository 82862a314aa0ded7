package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env         string
	Port        string
	DatabaseURL string
	RedisURL    string

	// Object storage for document uploads. Empty endpoint falls back to the
	// in-memory stub (dev/tests).
	StorageEndpoint  string
	StorageAccessKey string
	StorageSecretKey string
	StorageBucket    string
	StorageUseSSL    bool

	TokenTTLHours int

	// Origins ending with this suffix pass CORS in addition to localhost.
	CORSAllowedSuffix string
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	redisURL := viper.GetString("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	ttl := viper.GetInt("TOKEN_TTL_HOURS")
	if ttl <= 0 {
		ttl = 24
	}

	bucket := viper.GetString("STORAGE_BUCKET")
	if bucket == "" {
		bucket = "escrow-documents"
	}

	return &Config{
		Env:               env,
		Port:              port,
		DatabaseURL:       viper.GetString("DATABASE_URL"),
		RedisURL:          redisURL,
		StorageEndpoint:   viper.GetString("STORAGE_ENDPOINT"),
		StorageAccessKey:  viper.GetString("STORAGE_ACCESS_KEY"),
		StorageSecretKey:  viper.GetString("STORAGE_SECRET_KEY"),
		StorageBucket:     bucket,
		StorageUseSSL:     viper.GetBool("STORAGE_USE_SSL"),
		TokenTTLHours:     ttl,
		CORSAllowedSuffix: viper.GetString("CORS_ALLOWED_SUFFIX"),
	}, nil
}
