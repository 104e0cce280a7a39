package configs

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"listing-service/internal/constants"

	"github.com/joho/godotenv"
)

type RESTConfig struct {
	Port               string
	CORSAllowedOrigins []string
}

type PostgresConfig struct {
	URL      string
	MaxConns int
}

type RabbitMQConfig struct {
	URL string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type AuthConfig struct {
	JWTSigningKey string
}

type SearchConfig struct {
	DefaultPageSize int
}

type NotificationsConfig struct {
	PollInterval time.Duration
}

type StdoutLogConfig struct {
	Level    string
	UseColor bool
}

type FluentBitConfig struct {
	Enabled bool
	Host    string
	Port    int
	Level   string
}

// AppConfig - вся конфигурация сервиса
type AppConfig struct {
	AppName       string
	Rest          RESTConfig
	Postgres      PostgresConfig
	RabbitMQ      RabbitMQConfig
	Redis         RedisConfig
	Auth          AuthConfig
	Search        SearchConfig
	Notifications NotificationsConfig
	StdoutLogger  StdoutLogConfig
	FluentBit     FluentBitConfig
}

// LoadConfig читает .env (если есть) и переменные окружения.
// Отсутствие .env не ошибка: в контейнере переменные приходят из окружения.
func LoadConfig(envPath ...string) (*AppConfig, error) {
	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath...)
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		log.Printf("Info: .env file not loaded (path: %v): %v", envPath, err)
	}

	cfg := &AppConfig{}
	cfg.AppName = getEnvAsString("APP_NAME", "listing-service")

	cfg.Rest.Port = getEnvAsString("PORT", "8080")
	cfg.Rest.CORSAllowedOrigins = getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"})

	cfg.Postgres.URL = os.Getenv("DATABASE_URL")
	if cfg.Postgres.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	cfg.Postgres.MaxConns = getEnvAsInt("DATABASE_MAX_CONNS", 10)

	cfg.RabbitMQ.URL = os.Getenv("RABBITMQ_URL")
	if cfg.RabbitMQ.URL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL environment variable is required")
	}

	cfg.Redis.Addr = getEnvAsString("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvAsString("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", 0)
	cfg.Redis.TTL = getEnvAsDuration("LISTINGS_CACHE_TTL", constants.DefaultListingsCacheTTL)

	cfg.Auth.JWTSigningKey = os.Getenv("JWT_SIGNING_KEY")
	if cfg.Auth.JWTSigningKey == "" {
		return nil, fmt.Errorf("JWT_SIGNING_KEY environment variable is required")
	}

	cfg.Search.DefaultPageSize = getEnvAsInt("DEFAULT_PAGE_SIZE", constants.DefaultPageSize)
	if cfg.Search.DefaultPageSize <= 0 || cfg.Search.DefaultPageSize > constants.MaxPageSize {
		log.Printf("Warning: DEFAULT_PAGE_SIZE=%d is out of range, using %d", cfg.Search.DefaultPageSize, constants.DefaultPageSize)
		cfg.Search.DefaultPageSize = constants.DefaultPageSize
	}

	cfg.Notifications.PollInterval = getEnvAsDuration("NOTIFICATIONS_POLL_INTERVAL", constants.DefaultNotificationsPollInt)
	if cfg.Notifications.PollInterval <= 0 {
		cfg.Notifications.PollInterval = constants.DefaultNotificationsPollInt
	}

	cfg.StdoutLogger.Level = getEnvAsString("STDOUT_LOG_LEVEL", "debug")
	cfg.StdoutLogger.UseColor = getEnvAsBool("STDOUT_LOG_COLOR", true)

	cfg.FluentBit.Enabled = getEnvAsBool("FLUENTBIT_ENABLED", false)
	if cfg.FluentBit.Enabled {
		cfg.FluentBit.Host = os.Getenv("FLUENTBIT_HOST")
		if cfg.FluentBit.Host == "" {
			log.Println("WARNING: FLUENTBIT_ENABLED is true, but FLUENTBIT_HOST is not set. Disabling Fluent Bit.")
			cfg.FluentBit.Enabled = false
		}
		cfg.FluentBit.Port = getEnvAsInt("FLUENTBIT_PORT", 24224)
		cfg.FluentBit.Level = getEnvAsString("FLUENTBIT_LOG_LEVEL", "info")
	}

	return cfg, nil
}

func getEnvAsString(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

// getEnvAsInt: непарсящееся значение логируется и заменяется значением по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		log.Printf("Warning: %s=%q is not an int: %v. Using default %d", key, raw, err, defaultValue)
		return defaultValue
	}
	return v
}

func getEnvAsBool(key string, defaultValue bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		log.Printf("Warning: %s=%q is not a bool: %v. Using default %t", key, raw, err, defaultValue)
		return defaultValue
	}
	return v
}

// getEnvAsDuration принимает "30s", "5m" и т.п.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	v, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		log.Printf("Warning: %s=%q is not a duration: %v. Using default %s", key, raw, err, defaultValue)
		return defaultValue
	}
	return v
}

// getEnvAsList - список через запятую, пустые элементы отбрасываются
func getEnvAsList(key string, defaultValue []string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
