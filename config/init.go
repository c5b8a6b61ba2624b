package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/customeros/mailgate/internal/logger"
	"github.com/customeros/mailgate/internal/tracing"
)

type Config struct {
	AppConfig      *AppConfig
	Logger         *logger.Config
	Tracing        *tracing.JaegerConfig
	IngestConfig   *IngestConfig
	DatabaseConfig *DatabaseConfig
	StorageConfig  *StorageConfig
	DeliveryConfig *DeliveryConfig
	AuditConfig    *AuditConfig
}

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:      &AppConfig{},
		Logger:         &logger.Config{},
		Tracing:        &tracing.JaegerConfig{},
		IngestConfig:   &IngestConfig{},
		DatabaseConfig: &DatabaseConfig{},
		StorageConfig:  &StorageConfig{},
		DeliveryConfig: &DeliveryConfig{},
		AuditConfig:    &AuditConfig{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		return nil, errors.Wrap(err, "error loading mailgate config")
	}

	if err := config.IngestConfig.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects a deployment that demands signed submissions without a secret to check them against.
func (c *IngestConfig) Validate() error {
	if c.RequireSignature && c.WebhookSecret == "" {
		return errors.New("INBOUND_REQUIRE_SIGNATURE is set but INBOUND_WEBHOOK_SECRET is empty")
	}
	if c.MaxBodyBytes <= 0 {
		return errors.New("INBOUND_MAX_BODY_BYTES must be positive")
	}
	switch c.MimeParser {
	case "enmime", "basic":
	default:
		return errors.Errorf("unknown INBOUND_MIME_PARSER %q", c.MimeParser)
	}
	return nil
}

// SignatureEnforced reports whether submissions are checked against a shared secret.
func (c *IngestConfig) SignatureEnforced() bool {
	return c.WebhookSecret != ""
}
