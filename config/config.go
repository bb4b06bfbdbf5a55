package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/yeremiapane/restaurant-floor/utils"
)

type Config struct {
	Port    string
	GinMode string

	DBDriver          string
	DBSource          string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	TxTimeout         time.Duration
	TxRetries         int

	JWTSecret string
	JWTTTL    time.Duration

	PublicBaseURL string
	UploadDir     string
	QRFolder      string

	CORSOrigins []string

	RabbitMQURL      string
	RabbitMQExchange string

	LogLevel  string
	LogFormat string

	AdminEmail    string
	AdminPassword string

	ScanRatePerMinute int
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Debug("no .env file loaded, using process environment")
	}

	return &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		DBDriver:          strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBSource:          getEnv("DB_SOURCE", "restaurant.db"),
		DBMaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		TxTimeout:         getEnvDuration("DB_TX_TIMEOUT", 5*time.Second),
		TxRetries:         getEnvInt("DB_TX_RETRIES", 3),

		JWTSecret: getEnv("JWT_SECRET", "changeme"),
		JWTTTL:    getEnvDuration("JWT_TTL", 24*time.Hour),

		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		UploadDir:     getEnv("UPLOAD_DIR", "public/uploads"),
		QRFolder:      getEnv("QR_FOLDER", "qrs"),

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),

		RabbitMQURL:      os.Getenv("RABBITMQ_URL"),
		RabbitMQExchange: getEnv("RABBITMQ_EXCHANGE", "floor.events"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		ScanRatePerMinute: getEnvInt("SCAN_RATE_PER_MINUTE", 30),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		utils.ErrorLogger.Warnf("invalid integer for %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		utils.ErrorLogger.Warnf("invalid duration for %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
