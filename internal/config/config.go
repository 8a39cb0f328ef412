package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	JWTSecret  string

	RateLimitWindow  time.Duration
	ChannelRateLimit int
	TopicRateLimit   int
	MessageRateLimit int
}

func Load() *Config {
	// .env za lokalni razvoj; u produkciji env dolazi izvana
	_ = godotenv.Load()

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "beefactory"),
		DBPassword: getEnv("DB_PASSWORD", "beefactory_dev_password"),
		DBName:     getEnv("DB_NAME", "beefactory"),
		JWTSecret:  getEnv("JWT_SECRET", "dev-secret-change-me"),

		RateLimitWindow:  getEnvDuration("RATE_LIMIT_WINDOW", time.Hour),
		ChannelRateLimit: getEnvInt("CHANNEL_RATE_LIMIT", 10),
		TopicRateLimit:   getEnvInt("TOPIC_RATE_LIMIT", 20),
		MessageRateLimit: getEnvInt("MESSAGE_RATE_LIMIT", 120),
	}
}

func getEnv(key, fallback string) string {
	val, exists := os.LookupEnv(key)

	if exists {
		return val
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
