package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Supported values for DB_DRIVER
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port        string
	Environment string // development | production | test
	DBDriver    string `validate:"oneof=mongo postgres memory"`

	MongoURI      string `validate:"required_if=DBDriver mongo"`
	MongoDatabase string
	DatabaseURL   string `validate:"required_if=DBDriver postgres"` // PostgreSQL connection string
	RedisURL      string

	JWTSecret     string `validate:"required,min=8"` // Secret key for JWT token signing
	JWTTTL        int    `validate:"gt=0"`           // JWT token expiration time in hours
	SessionSecret string `validate:"required"`       // Signs the OAuth state cookie

	FrontendURL          string `validate:"required,url"` // OAuth redirects land here
	OAuthCallbackBaseURL string // Public base URL of this API, used to build OAuth callback URLs
	CORSAllowedOrigins   []string
	GoogleClientID       string
	GoogleClientSecret   string
	FacebookAppID        string
	FacebookAppSecret    string

	Timezone string // Month windows are computed in this location

	RateLimitRPS       float64 // Rate limit for general API endpoints (requests per second)
	RateLimitBurst     int     // Burst size for rate limiting
	RateLimitAuthRPS   float64 // Rate limit for register/login (stricter)
	RateLimitAuthBurst int     // Burst size for auth endpoints

	LogLevel string
	LogFile  string // Rotated JSON log file, empty disables file output

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	ShutdownTimeout time.Duration
}

func Load() *Config {
	// Try to load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or defaults")
	}

	frontendURL := getEnv("FRONTEND_URL", "http://localhost:5173")

	return &Config{
		Port:                 getEnv("PORT", "5000"),
		Environment:          getEnv("APP_ENV", "development"),
		DBDriver:             strings.ToLower(getEnv("DB_DRIVER", DriverMongo)),
		MongoURI:             getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:        getEnv("MONGODB_DATABASE", "walletfy"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		RedisURL:             getEnv("REDIS_URL", ""),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		JWTTTL:               getEnvInt("JWT_TTL_HOURS", 30*24), // 30 days
		SessionSecret:        getEnv("SESSION_SECRET", ""),
		FrontendURL:          frontendURL,
		OAuthCallbackBaseURL: getEnv("OAUTH_CALLBACK_BASE_URL", "http://localhost:5000"),
		CORSAllowedOrigins:   getEnvList("CORS_ALLOWED_ORIGINS", []string{frontendURL}),
		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		FacebookAppID:        getEnv("FACEBOOK_APP_ID", ""),
		FacebookAppSecret:    getEnv("FACEBOOK_APP_SECRET", ""),
		Timezone:             getEnv("TIMEZONE", "Local"),
		RateLimitRPS:         getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:       getEnvInt("RATE_LIMIT_BURST", 20),
		RateLimitAuthRPS:     getEnvFloat("RATE_LIMIT_AUTH_RPS", 1),
		RateLimitAuthBurst:   getEnvInt("RATE_LIMIT_AUTH_BURST", 5),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFile:              getEnv("LOG_FILE", ""),
		MinioEndpoint:        getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey:       getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:       getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:          getEnv("MINIO_BUCKET", "walletfy-attachments"),
		MinioUseSSL:          getEnvBool("MINIO_USE_SSL", false),
		ShutdownTimeout:      time.Duration(getEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 10)) * time.Second,
	}
}

// Validate reports missing or malformed settings that would keep the server from starting.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid configuration: TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// Location resolves TIMEZONE, where "Local" means the process time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func (c *Config) FacebookEnabled() bool {
	return c.FacebookAppID != "" && c.FacebookAppSecret != ""
}

func (c *Config) StorageEnabled() bool {
	return c.MinioEndpoint != "" && c.MinioAccessKey != "" && c.MinioSecretKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping empty entries
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
