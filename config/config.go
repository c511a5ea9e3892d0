package config

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Port               string         `mapstructure:"PORT" validate:"required"`
	InternalAuthHeader string         `mapstructure:"INTERNAL_AUTH_HEADER" validate:"required"`
	InventoryApiUrl    string         `mapstructure:"INVENTORY_API_URL"`
	Db                 DbConfig       `mapstructure:",squash"`
	Jwt                JwtConfig      `mapstructure:",squash"`
	Nats               NatsConfig     `mapstructure:",squash"`
	Consumer           ConsumerConfig `mapstructure:",squash"`
}

type DbConfig struct {
	Host     string `mapstructure:"DB_HOST" validate:"required"`
	Port     string `mapstructure:"DB_PORT" validate:"required"`
	Username string `mapstructure:"DB_USERNAME" validate:"required"`
	Password string `mapstructure:"DB_PASSWORD" validate:"required"`
	DbName   string `mapstructure:"DB_DBNAME" validate:"required"`
	SSLMode  string `mapstructure:"DB_SSLMODE"`
}

type JwtConfig struct {
	SecretKey string `mapstructure:"JWT_SECRETKEY" validate:"required"`
	Expire    int64  `mapstructure:"JWT_EXPIRE" validate:"required"`
}

type NatsConfig struct {
	Url        string `mapstructure:"NATS_URL" validate:"required"`
	StreamName string `mapstructure:"NATS_STREAM_NAME" validate:"required"`
}

type ConsumerConfig struct {
	MaxDeliver          int   `mapstructure:"CONSUMER_MAX_DELIVER" validate:"gte=1"`
	AckWaitSeconds      int64 `mapstructure:"CONSUMER_ACK_WAIT_SECONDS" validate:"gte=1"`
	DedupRetentionHours int64 `mapstructure:"CONSUMER_DEDUP_RETENTION_HOURS" validate:"gte=1"`
}

func InitConfig(ctx context.Context) (*Config, error) {
	var cfg Config

	// Reset viper to avoid any previous configuration
	viper.Reset()

	// Make viper case insensitive for environment variables
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set the configuration type
	viper.SetConfigType("env")

	// Try to load from .env file if it exists
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}

	_, err := os.Stat(envFile)
	if !os.IsNotExist(err) {
		viper.SetConfigFile(envFile)

		if err := viper.ReadInConfig(); err != nil {
			slog.WarnContext(ctx, "[InitConfig] ReadInConfig warning, continuing with env vars only", "error", err)
		} else {
			slog.InfoContext(ctx, "[InitConfig] Successfully loaded config file", "file", envFile)
		}
	} else {
		slog.InfoContext(ctx, "[InitConfig] No config file found, using environment variables")
	}

	// Load environment variables
	viper.AutomaticEnv()

	viper.SetDefault("NATS_STREAM_NAME", "stock")
	viper.SetDefault("CONSUMER_MAX_DELIVER", 5)
	viper.SetDefault("CONSUMER_ACK_WAIT_SECONDS", 30)
	viper.SetDefault("CONSUMER_DEDUP_RETENTION_HOURS", 72)

	envVars := []string{
		"PORT",
		"INTERNAL_AUTH_HEADER",
		"INVENTORY_API_URL",
		"DB_HOST",
		"DB_PORT",
		"DB_USERNAME",
		"DB_PASSWORD",
		"DB_DBNAME",
		"DB_SSLMODE",
		"JWT_SECRETKEY",
		"JWT_EXPIRE",
		"NATS_URL",
		"NATS_STREAM_NAME",
		"CONSUMER_MAX_DELIVER",
		"CONSUMER_ACK_WAIT_SECONDS",
		"CONSUMER_DEDUP_RETENTION_HOURS",
	}

	// Bind environment variables explicitly to ensure they're mapped correctly
	for _, key := range envVars {
		viper.BindEnv(key)
	}

	// Unmarshal configuration
	if err := viper.Unmarshal(&cfg); err != nil {
		slog.ErrorContext(ctx, "[InitConfig] Unmarshal", "failed bind config", err)
		return nil, err
	}

	slog.InfoContext(ctx, "[InitConfig] Configuration after binding",
		"PORT", cfg.Port,
		"DB_HOST", cfg.Db.Host,
		"DB_PORT", cfg.Db.Port,
		"DB_DBNAME", cfg.Db.DbName,
		"NATS_URL", cfg.Nats.Url,
		"NATS_STREAM_NAME", cfg.Nats.StreamName,
		"CONSUMER_MAX_DELIVER", cfg.Consumer.MaxDeliver)

	// Validate configuration
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		validationErrs, ok := err.(validator.ValidationErrors)
		if ok {
			for _, validationErr := range validationErrs {
				slog.ErrorContext(ctx, "[InitConfig] Validation error",
					"field", validationErr.Field(),
					"namespace", validationErr.Namespace(),
					"tag", validationErr.Tag(),
					"value", validationErr.Value())
			}
		} else {
			slog.ErrorContext(ctx, "[InitConfig] Validation", "error", err)
		}
		return nil, err
	}

	slog.InfoContext(ctx, "[InitConfig] Config loaded successfully")
	return &cfg, nil
}
