package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	Env         string
	LogLevel    string

	ServerPort int

	DatabaseURL string

	JWTAccessSecret     []byte
	JWTRefreshSecret    []byte
	JWTAccessExpiresIn  string
	JWTRefreshExpiresIn string

	CORSOrigins []string

	RedisURL string

	KafkaBrokers   []string
	KafkaUserTopic string

	ESURL        string
	ESUser       string
	ESPassword   string
	ESUsersIndex string

	SessionSweepInterval string
}

// Load reads the process environment. A .env file in the working directory is
// applied first when present; variables already set in the environment win.
func Load() Config {
	_ = godotenv.Load()

	access := EnvDefault("JWT_SECRET", defaultJWTSecret)

	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "discord_alt"),
		Env:         EnvDefault("APP_ENV", "development"),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		ServerPort: EnvIntDefault("SERVER_PORT", 3001),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTAccessSecret:     []byte(access),
		JWTRefreshSecret:    []byte(EnvDefault("JWT_REFRESH_SECRET", access)),
		JWTAccessExpiresIn:  EnvDefault("JWT_ACCESS_EXPIRES_IN", "15m"),
		JWTRefreshExpiresIn: EnvDefault("JWT_REFRESH_EXPIRES_IN", "7d"),

		CORSOrigins: CSV(EnvDefault("CORS_ORIGIN", "http://localhost:3000")),

		RedisURL: os.Getenv("REDIS_URL"),

		KafkaBrokers:   CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaUserTopic: EnvDefault("KAFKA_USER_TOPIC", "user_events"),

		ESURL:        os.Getenv("ES_URL"),
		ESUser:       os.Getenv("ES_USER"),
		ESPassword:   os.Getenv("ES_PASSWORD"),
		ESUsersIndex: EnvDefault("ES_USERS_INDEX", "users"),

		SessionSweepInterval: EnvDefault("SESSION_SWEEP_INTERVAL", "1m"),
	}
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
