// Package config assembles runtime configuration from the environment so main
// stays lean.
package config

import (
	"os"
	"strconv"
	"time"
)

// Store driver names accepted in LINKAGE_STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Server captures process-level configuration.
type Server struct {
	Addr            string
	StoreDriver     string
	PostgresURL     string
	Redis           RedisConfig
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	AuditBuffer     int
}

// RedisConfig carries connection settings for the Redis-backed store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr:            envOr("LINKAGE_ADDR", ":8080"),
		StoreDriver:     envOr("LINKAGE_STORE_DRIVER", DriverMemory),
		PostgresURL:     os.Getenv("LINKAGE_POSTGRES_URL"),
		RequestTimeout:  envDurationOr("LINKAGE_REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: envDurationOr("LINKAGE_SHUTDOWN_TIMEOUT", 10*time.Second),
		AuditBuffer:     envIntOr("LINKAGE_AUDIT_BUFFER", 256),
		Redis: RedisConfig{
			URL:          os.Getenv("LINKAGE_REDIS_URL"),
			PoolSize:     envIntOr("LINKAGE_REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("LINKAGE_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDurationOr("LINKAGE_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("LINKAGE_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("LINKAGE_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return fallback
}
