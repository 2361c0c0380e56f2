// ABOUTME: Runtime configuration for the SchoolTrack CLI
// ABOUTME: Loads .env then environment variables with typed getters and defaults

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults used when neither flag nor environment provides a value.
const (
	DefaultAPIURL    = "http://localhost:8080"
	DefaultCameraURL = "http://localhost:8090"
)

// Config holds every tunable the CLI reads at startup.
type Config struct {
	APIURL         string
	CameraURL      string
	RequestTimeout time.Duration
	CameraTimeout  time.Duration
	Debug          bool
}

// Load reads .env (if present) and the environment. Missing values fall
// back to defaults; a malformed duration or bool falls back too rather
// than failing startup.
func Load() *Config {
	// .env is a local development convenience; absence is normal.
	_ = godotenv.Load()

	return &Config{
		APIURL:         getEnv("SCHOOLTRACK_API_URL", DefaultAPIURL),
		CameraURL:      getEnv("SCHOOLTRACK_CAMERA_URL", DefaultCameraURL),
		RequestTimeout: durationEnv("SCHOOLTRACK_REQUEST_TIMEOUT", 30*time.Second),
		CameraTimeout:  durationEnv("SCHOOLTRACK_CAMERA_TIMEOUT", 10*time.Second),
		Debug:          boolEnv("SCHOOLTRACK_DEBUG", false),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func boolEnv(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
