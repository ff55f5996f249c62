package config

import (
	"errors"
	"os"
	"strings"

	"example/waxroom/internal/logger"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

// Config holds every environment-level setting the service recognizes.
type Config struct {
	Env  string
	Port string

	DBDriver    string
	DatabaseURL string
	SeedFile    string

	JWTSecret string

	StripeSecretKey      string
	StripePublishableKey string

	ResendAPIKey string
	FromEmail    string

	KafkaBrokers string
	KafkaTopic   string

	RedisAddr string

	OTLPEndpoint string
	OTELStdout   bool
}

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Log.Debugw("No .env file found, using existing environment variables", "error", err)
	}

	cfg := Config{
		Env:                  getenv("APP_ENV", "development"),
		Port:                 getenv("PORT", "4000"),
		DBDriver:             strings.ToLower(getenv("DB_DRIVER", "mysql")),
		DatabaseURL:          strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SeedFile:             os.Getenv("SEED_FILE"),
		JWTSecret:            getenv("JWT_SECRET", "devjwtsecret"),
		StripeSecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
		StripePublishableKey: os.Getenv("STRIPE_PUBLISHABLE_KEY"),
		ResendAPIKey:         os.Getenv("RESEND_API_KEY"),
		FromEmail:            getenv("FROM_EMAIL", "orders@waxroom.store"),
		KafkaBrokers:         os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:           getenv("KAFKA_TOPIC", "waxroom.orders"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		OTLPEndpoint:         os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTELStdout:           isTrue(os.Getenv("OTEL_STDOUT")),
	}

	if cfg.DatabaseURL == "" && cfg.DBDriver == "mysql" {
		cfg.DatabaseURL = mysqlDSNFromParts()
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	return cfg, nil
}

// PaymentsEnabled reports whether a payment gateway secret is configured.
func (c Config) PaymentsEnabled() bool { return c.StripeSecretKey != "" }

// EmailEnabled reports whether a transactional email key is configured.
func (c Config) EmailEnabled() bool { return c.ResendAPIKey != "" }

// mysqlDSNFromParts builds a DSN from the DBUSER/DBPASS/DBHOST/DBNAME variables.
func mysqlDSNFromParts() string {
	user := os.Getenv("DBUSER")
	if user == "" {
		return ""
	}
	cfg := mysql.NewConfig()
	cfg.User = user
	cfg.Passwd = os.Getenv("DBPASS")
	cfg.Net = "tcp"
	cfg.Addr = getenv("DBHOST", "127.0.0.1:3306")
	cfg.DBName = getenv("DBNAME", "waxroom")
	return cfg.FormatDSN()
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func isTrue(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "1" || v == "true" || v == "yes"
}
