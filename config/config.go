package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration
	Environment string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Queue configuration
	AvgServiceMinutes int
	NotifyTopN        int
	NotifyInterval    time.Duration
	PositionTTL       time.Duration

	// Verification tokens
	TokenSecret string
	TokenTTL    time.Duration

	// AI gateway
	AIGatewayURL string
	AIAPIKey     string
	AIModel      string
	AITimeout    time.Duration
	AICacheTTL   time.Duration

	// Security
	RegisterRateLimit int

	// Monitoring
	EnableMetrics bool
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		// Queue
		AvgServiceMinutes: getEnvAsInt("AVG_SERVICE_MINUTES", 5),
		NotifyTopN:        getEnvAsInt("NOTIFY_TOP_N", 3),
		NotifyInterval:    getEnvAsDuration("NOTIFY_INTERVAL", "10s"),
		PositionTTL:       getEnvAsDuration("POSITION_TTL", "15s"),

		// Verification tokens
		TokenSecret: getEnv("TOKEN_SECRET", ""),
		TokenTTL:    getEnvAsDuration("TOKEN_TTL", "24h"),

		// AI gateway
		AIGatewayURL: getEnv("AI_GATEWAY_URL", ""),
		AIAPIKey:     getEnv("AI_API_KEY", ""),
		AIModel:      getEnv("AI_MODEL", "google/gemini-2.5-flash"),
		AITimeout:    getEnvAsDuration("AI_TIMEOUT", "20s"),
		AICacheTTL:   getEnvAsDuration("AI_CACHE_TTL", "60s"),

		// Security
		RegisterRateLimit: getEnvAsInt("REGISTER_RATE_LIMIT", 10),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
