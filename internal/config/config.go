package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Postgres struct {
	User     string
	Password string
	DBName   string
	Host     string
	Port     string
	SSLMode  string
}

type Config struct {
	Port          string
	BaseURL       string
	MQTTBrokerURL string
	RedisAddr     string
	RedisPassword string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	HistoryEnabled   bool
	HistoryRetention time.Duration

	DiscoveryPrefix string

	Postgres Postgres
}

func env(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func Load() Config {
	return Config{
		Port:          env("ZEPP_BRIDGE_PORT", "8096"),
		BaseURL:       env("ZEPP_BRIDGE_BASE_URL", "http://localhost:8096"),
		MQTTBrokerURL: env("MQTT_BROKER_URL", ""),
		RedisAddr:     env("REDIS_ADDR", ""),
		RedisPassword: env("REDIS_PASSWORD", ""),

		RateLimitRequests: envInt("ZEPP_BRIDGE_RATE_LIMIT_REQUESTS", 30),
		RateLimitWindow:   envDuration("ZEPP_BRIDGE_RATE_LIMIT_WINDOW", 60*time.Second),

		HistoryEnabled:   strings.TrimSpace(strings.ToLower(os.Getenv("ZEPP_BRIDGE_HISTORY"))) != "false",
		HistoryRetention: envDuration("ZEPP_BRIDGE_HISTORY_RETENTION", 30*24*time.Hour),

		DiscoveryPrefix: env("ZEPP_BRIDGE_DISCOVERY_PREFIX", "homeassistant"),

		Postgres: Postgres{
			User:     env("POSTGRES_USER", "postgres"),
			Password: env("POSTGRES_PASSWORD", "postgres"),
			DBName:   env("POSTGRES_DB", "zeppbridge"),
			Host:     env("POSTGRES_HOST", "postgres"),
			Port:     env("POSTGRES_PORT", "5432"),
			SSLMode:  env("POSTGRES_SSLMODE", "disable"),
		},
	}
}
