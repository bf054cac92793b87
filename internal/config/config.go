package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvPort         = "PORT"
	EnvPostgresURL  = "POSTGRES_URL"
	EnvJWTSecret    = "JWT_SECRET"
	EnvKafkaBrokers = "KAFKA_BROKERS"
	EnvKafkaTopic   = "KAFKA_TOPIC"
	EnvMailerURL    = "MAILER_URL"
	EnvOTLPEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvOTelEnabled  = "OTEL_ENABLED"
	EnvLogLevel     = "LOG_LEVEL"
	EnvVersion      = "SERVICE_VERSION"
	EnvMigrations   = "MIGRATIONS_PATH"

	DefaultKafkaTopic     = "marketplace.events"
	DefaultOTLPEndpoint   = "localhost:4317"
	DefaultMigrationsPath = "file://migrations"
)

type Config struct {
	Port           string
	PostgresURL    string
	JWTSecret      []byte
	KafkaBrokers   []string
	KafkaTopic     string
	MailerURL      string
	OTLPEndpoint   string
	OTelEnabled    bool
	LogLevel       string
	ServiceVersion string
	MigrationsPath string
}

// Load reads configuration from the environment, after loading a .env file
// from the working directory when one exists. defaultPort applies when PORT
// is unset.
func Load(defaultPort string) Config {
	_ = godotenv.Load()

	return Config{
		Port:           getenv(EnvPort, defaultPort),
		PostgresURL:    os.Getenv(EnvPostgresURL),
		JWTSecret:      []byte(os.Getenv(EnvJWTSecret)),
		KafkaBrokers:   splitList(os.Getenv(EnvKafkaBrokers)),
		KafkaTopic:     getenv(EnvKafkaTopic, DefaultKafkaTopic),
		MailerURL:      strings.TrimRight(os.Getenv(EnvMailerURL), "/"),
		OTLPEndpoint:   getenv(EnvOTLPEndpoint, DefaultOTLPEndpoint),
		OTelEnabled:    getenv(EnvOTelEnabled, "true") != "false",
		LogLevel:       getenv(EnvLogLevel, "info"),
		ServiceVersion: getenv(EnvVersion, "0.1.0"),
		MigrationsPath: getenv(EnvMigrations, DefaultMigrationsPath),
	}
}

// Require reports every listed variable that is empty in c.
func (c Config) Require(names ...string) error {
	var errs []error
	for _, name := range names {
		if c.isEmpty(name) {
			errs = append(errs, fmt.Errorf("%s environment variable is required", name))
		}
	}
	return errors.Join(errs...)
}

func (c Config) isEmpty(name string) bool {
	switch name {
	case EnvPostgresURL:
		return c.PostgresURL == ""
	case EnvJWTSecret:
		return len(c.JWTSecret) == 0
	case EnvKafkaBrokers:
		return len(c.KafkaBrokers) == 0
	case EnvMailerURL:
		return c.MailerURL == ""
	default:
		return os.Getenv(name) == ""
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
