package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
	StoreDriverMemory   = "memory"
)

// Code store backends.
const (
	CodeStorePrimary = "primary"
	CodeStoreRedis   = "redis"
)

// Mail drivers.
const (
	MailDriverSMTP = "smtp"
	MailDriverHTTP = "http"
	MailDriverLog  = "log"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Store    StoreConfig
	Postgres PostgresConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	OTP      OTPConfig
	Mail     MailConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// StoreConfig selects persistence backends.
type StoreConfig struct {
	Driver    string
	CodeStore string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// MongoConfig holds document store connection values.
type MongoConfig struct {
	URI      string
	Database string
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig configures the optional account event sink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Enabled reports whether events should be shipped to Kafka.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.Topic != ""
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret                 string
	TokenTTL                  time.Duration
	BcryptCost                int
	ResetRequiresVerifiedCode bool
	ResetTicketTTL            time.Duration
}

// OTPConfig defines one-time code parameters.
type OTPConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// MailConfig configures the notification gateway.
type MailConfig struct {
	Driver             string
	From               string
	SMTPHost           string
	SMTPPort           int
	SMTPUsername       string
	SMTPPassword       string
	APIURL             string
	APIKey             string
	Timeout            time.Duration
	BreakerMaxFailures uint32
	BreakerTimeout     time.Duration
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "account-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Store: StoreConfig{
			Driver:    strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
			CodeStore: strings.ToLower(getEnv("CODE_STORE", CodeStorePrimary)),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Mongo: MongoConfig{
			URI:      os.Getenv("MONGO_URI"),
			Database: getEnv("MONGO_DATABASE", "accounts"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Kafka: KafkaConfig{
			Brokers: getEnvAsList("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_ACCOUNT_EVENTS_TOPIC", "account-events"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:                 os.Getenv("AUTH_JWT_SECRET"),
			TokenTTL:                  getEnvAsDuration("AUTH_TOKEN_TTL", 24*time.Hour),
			BcryptCost:                getEnvAsInt("AUTH_BCRYPT_COST", 10),
			ResetRequiresVerifiedCode: getEnvAsBool("AUTH_RESET_REQUIRES_VERIFIED_CODE", true),
			ResetTicketTTL:            getEnvAsDuration("AUTH_RESET_TICKET_TTL", 15*time.Minute),
		},
		OTP: OTPConfig{
			TTL:           getEnvAsDuration("OTP_TTL", 10*time.Minute),
			SweepInterval: getEnvAsDuration("OTP_SWEEP_INTERVAL", 5*time.Minute),
		},
		Mail: MailConfig{
			Driver:             strings.ToLower(getEnv("MAIL_DRIVER", MailDriverLog)),
			From:               getEnv("MAIL_FROM", "noreply@example.com"),
			SMTPHost:           getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:           getEnvAsInt("SMTP_PORT", 587),
			SMTPUsername:       os.Getenv("SMTP_USERNAME"),
			SMTPPassword:       os.Getenv("SMTP_PASSWORD"),
			APIURL:             getEnv("MAIL_API_URL", "https://api.sendgrid.com/v3/mail/send"),
			APIKey:             os.Getenv("MAIL_API_KEY"),
			Timeout:            getEnvAsDuration("MAIL_TIMEOUT", 10*time.Second),
			BreakerMaxFailures: uint32(getEnvAsInt("MAIL_BREAKER_MAX_FAILURES", 5)),
			BreakerTimeout:     getEnvAsDuration("MAIL_BREAKER_TIMEOUT", 30*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		if !c.App.IsDevelopment() {
			return errors.New("AUTH_JWT_SECRET is required")
		}
		c.Auth.JWTSecret = "dev-secret"
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("AUTH_BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	switch c.Store.Driver {
	case StoreDriverPostgres, StoreDriverMongo, StoreDriverMemory:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.Store.Driver)
	}
	switch c.Store.CodeStore {
	case CodeStorePrimary, CodeStoreRedis:
	default:
		return fmt.Errorf("unsupported CODE_STORE %q", c.Store.CodeStore)
	}
	switch c.Mail.Driver {
	case MailDriverSMTP, MailDriverHTTP, MailDriverLog:
	default:
		return fmt.Errorf("unsupported MAIL_DRIVER %q", c.Mail.Driver)
	}
	if c.OTP.TTL <= 0 {
		return errors.New("OTP_TTL must be positive")
	}
	return nil
}

// IsDevelopment reports whether the service runs in a development environment.
func (a AppConfig) IsDevelopment() bool {
	return a.Env == "development" || a.Env == "test"
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
