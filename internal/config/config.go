/**
 * @description
 * This package handles the configuration management for the registry service. It uses the
 * Viper library to read configuration from environment variables (and an optional .env file),
 * providing a centralized place for every tunable of the service.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the registry service.
type Config struct {
	AppEnv                  string `mapstructure:"APP_ENV"`
	ServerPort              string `mapstructure:"SERVER_PORT"`
	DatabaseURL             string `mapstructure:"DATABASE_URL"`
	RedisURL                string `mapstructure:"REDIS_URL"`
	RedisKeyPrefix          string `mapstructure:"REDIS_KEY_PREFIX"`
	RabbitMQURL             string `mapstructure:"RABBITMQ_URL"`
	ChangeExchange          string `mapstructure:"CHANGE_EXCHANGE"`
	AdminEmail              string `mapstructure:"ADMIN_EMAIL"`
	AdminPasswordHash       string `mapstructure:"ADMIN_PASSWORD_HASH"`
	SessionSecret           string `mapstructure:"SESSION_SECRET"`
	SessionTTLMinutes       int    `mapstructure:"SESSION_TTL_MINUTES"`
	PublicBaseURL           string `mapstructure:"PUBLIC_BASE_URL"`
	StorageDriver           string `mapstructure:"STORAGE_DRIVER"`
	LocalUploadDir          string `mapstructure:"LOCAL_UPLOAD_DIR"`
	LocalUploadURLPrefix    string `mapstructure:"LOCAL_UPLOAD_URL_PREFIX"`
	S3Region                string `mapstructure:"S3_REGION"`
	S3Bucket                string `mapstructure:"S3_BUCKET"`
	S3PublicBaseURL         string `mapstructure:"S3_PUBLIC_BASE_URL"`
	ProofPrefix             string `mapstructure:"PROOF_PREFIX"`
	GiftImagePrefix         string `mapstructure:"GIFT_IMAGE_PREFIX"`
	GiftsCollection         string `mapstructure:"GIFTS_COLLECTION"`
	ContributionsCollection string `mapstructure:"CONTRIBUTIONS_COLLECTION"`
	PaymentMethodsRaw       string `mapstructure:"PAYMENT_METHODS"`
	MaxProofBytes           int64  `mapstructure:"MAX_PROOF_BYTES"`
	PlaceholderImageURL     string `mapstructure:"PLACEHOLDER_IMAGE_URL"`
	DisplayLocale           string `mapstructure:"DISPLAY_LOCALE"`
	DisplayCurrency         string `mapstructure:"DISPLAY_CURRENCY"`
	IntakeRateLimitPerMin   int    `mapstructure:"INTAKE_RATE_LIMIT_PER_MINUTE"`
	OrphanSweepSchedule     string `mapstructure:"ORPHAN_SWEEP_SCHEDULE"`
	OrphanSweepGraceMinutes int    `mapstructure:"ORPHAN_SWEEP_GRACE_MINUTES"`

	// PaymentMethods is derived from PaymentMethodsRaw.
	PaymentMethods []string `mapstructure:"-"`
}

const (
	defaultPaymentMethods   = "Yape Sofía,Yape Luis,Interbank"
	defaultMaxProofBytes    = 10 << 20
	defaultSessionTTL       = 12 * 60
	defaultIntakeRateLimit  = 10
	defaultOrphanSweepGrace = 60
	defaultPlaceholderImage = "https://images.unsplash.com/photo-1519225421980-715cb0215aed?w=800&q=80"
)

// LoadConfig reads configuration from environment variables and an optional .env file in path.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_KEY_PREFIX", "registry")
	viper.SetDefault("CHANGE_EXCHANGE", "registry.changes")
	viper.SetDefault("SESSION_TTL_MINUTES", defaultSessionTTL)
	viper.SetDefault("STORAGE_DRIVER", "local")
	viper.SetDefault("LOCAL_UPLOAD_DIR", "./storage/uploads")
	viper.SetDefault("LOCAL_UPLOAD_URL_PREFIX", "/uploads")
	viper.SetDefault("PROOF_PREFIX", "wedding_proofs")
	viper.SetDefault("GIFT_IMAGE_PREFIX", "wedding_gifts")
	viper.SetDefault("GIFTS_COLLECTION", "wedding_gifts")
	viper.SetDefault("CONTRIBUTIONS_COLLECTION", "wedding_contributions")
	viper.SetDefault("PAYMENT_METHODS", defaultPaymentMethods)
	viper.SetDefault("MAX_PROOF_BYTES", defaultMaxProofBytes)
	viper.SetDefault("PLACEHOLDER_IMAGE_URL", defaultPlaceholderImage)
	viper.SetDefault("DISPLAY_LOCALE", "es-PE")
	viper.SetDefault("DISPLAY_CURRENCY", "PEN")
	viper.SetDefault("INTAKE_RATE_LIMIT_PER_MINUTE", defaultIntakeRateLimit)
	viper.SetDefault("ORPHAN_SWEEP_GRACE_MINUTES", defaultOrphanSweepGrace)

	// Bind environment variables explicitly so they appear in Unmarshal.
	for _, key := range []string{
		"APP_ENV", "SERVER_PORT", "PORT", "DATABASE_URL", "REDIS_KEY_PREFIX", "RABBITMQ_URL",
		"CHANGE_EXCHANGE", "ADMIN_EMAIL", "ADMIN_PASSWORD_HASH", "SESSION_SECRET", "SESSION_TTL_MINUTES",
		"PUBLIC_BASE_URL", "STORAGE_DRIVER", "LOCAL_UPLOAD_DIR", "LOCAL_UPLOAD_URL_PREFIX", "S3_REGION",
		"S3_BUCKET", "S3_PUBLIC_BASE_URL", "PROOF_PREFIX", "GIFT_IMAGE_PREFIX", "GIFTS_COLLECTION",
		"CONTRIBUTIONS_COLLECTION", "PAYMENT_METHODS", "MAX_PROOF_BYTES", "PLACEHOLDER_IMAGE_URL",
		"DISPLAY_LOCALE", "DISPLAY_CURRENCY", "INTAKE_RATE_LIMIT_PER_MINUTE", "ORPHAN_SWEEP_SCHEDULE",
		"ORPHAN_SWEEP_GRACE_MINUTES",
	} {
		_ = viper.BindEnv(key)
	}
	_ = viper.BindEnv("REDIS_URL", "REDIS_URL", "REGISTRY_REDIS_URL")

	// The .env file is optional; a present but unreadable one is an error.
	if readErr := viper.ReadInConfig(); readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return config, fmt.Errorf("read config file: %w", readErr)
		}
	}

	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.normalize()

	if config.DatabaseURL == "" {
		return config, errors.New("DATABASE_URL is required")
	}
	if config.SessionSecret == "" {
		return config, errors.New("SESSION_SECRET is required")
	}
	return config, nil
}

func (c *Config) normalize() {
	c.AppEnv = strings.ToLower(strings.TrimSpace(c.AppEnv))
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)
	c.RedisURL = strings.TrimSpace(c.RedisURL)
	c.RedisKeyPrefix = strings.TrimSuffix(strings.TrimSpace(c.RedisKeyPrefix), ":")
	if c.RedisKeyPrefix == "" {
		c.RedisKeyPrefix = "registry"
	}
	c.RabbitMQURL = strings.TrimSpace(c.RabbitMQURL)
	c.AdminEmail = strings.ToLower(strings.TrimSpace(c.AdminEmail))
	c.AdminPasswordHash = strings.TrimSpace(c.AdminPasswordHash)
	c.SessionSecret = strings.TrimSpace(c.SessionSecret)
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	c.ProofPrefix = strings.Trim(strings.TrimSpace(c.ProofPrefix), "/")
	c.GiftImagePrefix = strings.Trim(strings.TrimSpace(c.GiftImagePrefix), "/")
	c.OrphanSweepSchedule = strings.TrimSpace(c.OrphanSweepSchedule)

	c.PaymentMethods = splitList(c.PaymentMethodsRaw)
	if len(c.PaymentMethods) == 0 {
		c.PaymentMethods = splitList(defaultPaymentMethods)
	}

	if c.SessionTTLMinutes <= 0 {
		c.SessionTTLMinutes = defaultSessionTTL
	}
	if c.MaxProofBytes <= 0 {
		c.MaxProofBytes = defaultMaxProofBytes
	}
	if c.IntakeRateLimitPerMin < 0 {
		c.IntakeRateLimitPerMin = 0
	}
	if c.OrphanSweepGraceMinutes <= 0 {
		c.OrphanSweepGraceMinutes = defaultOrphanSweepGrace
	}
}

// IsDevelopment reports whether the service runs in a local development environment.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development" || c.AppEnv == "dev" || c.AppEnv == "local"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
