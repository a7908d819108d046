package app

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	Env       string
	HTTPAddr  string
	CORSAllow []string

	PGURL     string // optional; empty disables the submission archive
	PGMaxConn int

	RedisAddr string // optional; empty disables cross-instance relay
	RedisDB   int

	RoomSweepInterval time.Duration // how often empty rooms are swept
	RoomEmptyGrace    time.Duration // how long a room may sit empty before reclaim
}

func LoadConfig() Config {
	cfg := Config{
		Env:       getEnv("APP_ENV", "dev"),
		HTTPAddr:  getEnv("HTTP_ADDR", ":8080"),
		PGURL:     getEnv("PG_URL", ""),
		RedisAddr: getEnv("REDIS_ADDR", ""),
	}
	cfg.PGMaxConn = getEnvInt("PG_MAX_CONN", 10)
	cfg.RedisDB = getEnvInt("REDIS_DB", 0)
	cfg.RoomSweepInterval = getEnvDuration("ROOM_SWEEP_INTERVAL", 30*time.Second)
	cfg.RoomEmptyGrace = getEnvDuration("ROOM_EMPTY_GRACE", 30*time.Second)
	// CORS allowlist
	allow := getEnv("CORS_ALLOW", "http://localhost:3000")
	cfg.CORSAllow = splitCSV(allow)
	return cfg
}

// getEnv returns the env var or a default
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getEnvInt parses an int env var with a fallback
func getEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		var i int
		_, _ = fmt.Sscanf(v, "%d", &i)
		if i > 0 {
			return i
		}
	}
	return def
}

// getEnvDuration parses a duration env var ("30s", "2m") with a fallback
func getEnvDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

// splitCSV trims and filters a comma-separated list
func splitCSV(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
