package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process configuration read from the environment.
type Config struct {
	AppPort int

	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string

	RedisHost     string
	RedisPort     int
	RedisPassword string

	CacheTTL           time.Duration
	CachePrefix        string
	LogFile            string
	AuditEnabled       bool
	OverdueSweepSpec   string
	DirectorAliases    []string
	ForwardConcurrency int
}

// LoadConfig reads an optional .env file and then the environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresUser:     getEnv("POSTGRES_USER", "taskflow"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresDB:       getEnv("POSTGRES_DB", "taskflow"),
		RedisHost:        getEnv("REDIS_HOST", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		CachePrefix:      getEnv("CACHE_PREFIX", "taskflow"),
		LogFile:          getEnv("LOG_FILE", "app.log"),
		OverdueSweepSpec: getEnv("OVERDUE_SWEEP_SPEC", "0 0 * * * *"),
		DirectorAliases:  splitList(os.Getenv("DIRECTOR_ALIASES")),
	}

	var err error
	if cfg.AppPort, err = getInt("APP_PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.PostgresPort, err = getInt("POSTGRES_PORT", 5432); err != nil {
		return nil, err
	}
	if cfg.RedisPort, err = getInt("REDIS_PORT", 6379); err != nil {
		return nil, err
	}
	if cfg.ForwardConcurrency, err = getInt("FORWARD_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = time.ParseDuration(getEnv("CACHE_TTL", "30m")); err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}
	if cfg.AuditEnabled, err = strconv.ParseBool(getEnv("AUDIT_ENABLED", "true")); err != nil {
		return nil, fmt.Errorf("invalid AUDIT_ENABLED: %w", err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
