package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Env holds process-level settings read from ROUTER_* environment variables
type Env struct {
	Addr       string
	DBPath     string
	TimeLimit  time.Duration
	Workers    int
	SolveRPS   float64
	SolveBurst int
}

// FromEnv reads the environment, falling back to defaults for unset or invalid values.
// An empty DBPath means the default path under the app directory.
func FromEnv() Env {
	return Env{
		Addr:       GetEnv("ROUTER_ADDR", "127.0.0.1:8080"),
		DBPath:     GetEnv("ROUTER_DB_PATH", ""),
		TimeLimit:  getEnvDuration("ROUTER_TIME_LIMIT", 30*time.Second),
		Workers:    getEnvInt("ROUTER_WORKERS", 0),
		SolveRPS:   getEnvFloat("ROUTER_SOLVE_RPS", 2),
		SolveBurst: getEnvInt("ROUTER_SOLVE_BURST", 4),
	}
}

// GetEnv returns the value of key or defaultValue when unset
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		log.Printf("[CONFIG] Ignoring %s=%q: not a non-negative integer", key, v)
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		log.Printf("[CONFIG] Ignoring %s=%q: not a non-negative number", key, v)
		return defaultValue
	}
	return f
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[CONFIG] Ignoring %s=%q: %v", key, v, err)
		return defaultValue
	}
	return d
}
