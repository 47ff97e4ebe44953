package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	GoEnv    string
	Port     string
	LogLevel string

	DBUser        string
	DBPassword    string
	DBHost        string
	DBPort        string
	DBName        string
	DBAutoMigrate bool

	JWTSecret string
	JWTTTL    time.Duration

	RabbitMQURL     string
	OrderExchange   string
	OrderQueue      string
	DeadLetterQueue string
	MaxPriority     int

	RedisURL          string
	DashboardCacheTTL time.Duration

	AdminNotifyUserID int64
	DeliveryFee       decimal.Decimal
	CORSAllowOrigins  []string
}

// LoadConfig reads .env.<GO_ENV> (falling back to .env) and then the process
// environment. Missing env files are not an error.
func LoadConfig() *Config {
	env := getEnv("GO_ENV", "development")
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		if err := godotenv.Load(); err != nil {
			slog.Debug("No .env file found, using system environment variables")
		}
	} else {
		slog.Debug("Loaded configuration", "file", envFile)
	}

	return &Config{
		GoEnv:    getEnv("GO_ENV", "development"),
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBUser:        getEnv("DB_USER", "root"),
		DBPassword:    getEnvFromFile("DB_PASSWORD_FILE", "DB_PASSWORD", ""),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "3306"),
		DBName:        getEnv("DB_NAME", "hiryoorg"),
		DBAutoMigrate: getEnvBool("DB_AUTO_MIGRATE", false),

		JWTSecret: getEnvFromFile("JWT_SECRET_FILE", "JWT_SECRET", ""),
		JWTTTL:    getEnvDuration("JWT_TTL", 12*time.Hour),

		RabbitMQURL:     getEnv("RABBITMQ_URL", ""),
		OrderExchange:   getEnv("ORDER_EXCHANGE", "hiryo_orders_exchange"),
		OrderQueue:      getEnv("ORDER_QUEUE", "hiryo_orders_queue"),
		DeadLetterQueue: getEnv("DEAD_LETTER_QUEUE", "hiryo_dead_letter_queue"),
		MaxPriority:     10,

		RedisURL:          getEnv("REDIS_URL", ""),
		DashboardCacheTTL: getEnvDuration("DASHBOARD_CACHE_TTL", 5*time.Minute),

		AdminNotifyUserID: getEnvInt64("ADMIN_NOTIFY_USER_ID", 1),
		DeliveryFee:       getEnvDecimal("DELIVERY_FEE", decimal.RequireFromString("115.00")),
		CORSAllowOrigins:  splitList(getEnv("CORS_ALLOW_ORIGINS", "*")),
	}
}

// Validate checks the values the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.DBHost == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DBName == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("PORT must be numeric, got %q", c.Port))
	}
	if c.IsProduction() && c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFromFile(fileKey, envKey, defaultValue string) string {
	if filePath := os.Getenv(fileKey); filePath != "" {
		if content, err := os.ReadFile(filePath); err == nil {
			return strings.TrimSpace(string(content))
		}
		slog.Warn("Could not read secret file, falling back to environment", "key", fileKey)
	}
	return getEnv(envKey, defaultValue)
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if v, err := strconv.ParseInt(os.Getenv(key), 10, 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if v, err := decimal.NewFromString(os.Getenv(key)); err == nil && !v.IsNegative() {
		return v
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
