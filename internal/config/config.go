package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort     string
	DatabaseType   string
	DatabasePath   string
	DatabaseURL    string
	MigrationsPath string
	DBMaxOpenConns int
	DBMaxIdleConns int

	// RoundTimeout cancels rounds still pending after this long
	RoundTimeout time.Duration
	// AdvisoryWait is shown to initiators as the suggested wait before
	// choosing a tea-maker. The engine does not enforce it.
	AdvisoryWait  time.Duration
	SweepInterval time.Duration

	JWTSecret string

	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	AppBaseURL   string

	RateLimit  int
	RateWindow time.Duration

	Debug bool
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	return &Config{
		ServerPort:     getEnv("PORT", "8080"),
		DatabaseType:   getEnv("DB_TYPE", "sqlite"),
		DatabasePath:   getEnv("DB_PATH", "./tearound.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
		RoundTimeout:   getEnvDuration("ROUND_TIMEOUT", 25*time.Minute),
		AdvisoryWait:   getEnvDuration("ADVISORY_WAIT", 15*time.Minute),
		SweepInterval:  getEnvDuration("SWEEP_INTERVAL", time.Minute),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail:   getEnv("SES_FROM_EMAIL", ""),
		SESFromName:    getEnv("SES_FROM_NAME", "Tea Round"),
		AppBaseURL:     getEnv("APP_BASE_URL", "http://localhost:8080"),
		RateLimit:      getEnvInt("RATE_LIMIT", 30),
		RateWindow:     getEnvDuration("RATE_WINDOW", time.Minute),
		Debug:          getEnvBool("DEBUG", false),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid duration for %s (%q), using default %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s (%q), using default %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
