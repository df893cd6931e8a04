package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP
	Addr        string
	CORSOrigins string

	// Secrets
	MasterSecret string

	// Tokens
	TokenTTL time.Duration

	// Token reclaimer
	SweepInterval time.Duration

	// Optional Redis-backed fingerprint cache. Empty means in-memory.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	return Config{
		Addr:        getenv("ADDR", ":5117"),
		CORSOrigins: getenv("CORS_ORIGINS", ""),

		MasterSecret: getenv("MASTER_SECRET", "wizard-master-secret-CHANGE-IN-PRODUCTION"),

		TokenTTL:      getdur("TOKEN_TTL", 120*time.Second),
		SweepInterval: getdur("TOKEN_SWEEP_INTERVAL", time.Minute),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getint("REDIS_DB", 0),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		slog.Warn("invalid duration, using default", "key", k, "value", v, "default", def)
	}
	return def
}
