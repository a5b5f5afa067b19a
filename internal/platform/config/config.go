package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file from the current working directory and sets
// environment variables. If .env does not exist, Load returns an error but
// callers can ignore it and use system env or defaults. Pass one or more paths
// to load from specific files; with no paths, ".env" is used.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// GetEnv returns the value of the environment variable named by key, or fallback
// if the variable is unset or empty.
func GetEnv(key, fallback string) string {
	if s := strings.TrimSpace(os.Getenv(key)); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of key, or fallback if the variable is
// unset, empty, or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if n, err := strconv.Atoi(GetEnv(key, "")); err == nil {
		return n
	}
	return fallback
}

// GetEnvBool accepts the forms understood by strconv.ParseBool.
func GetEnvBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(GetEnv(key, "")); err == nil {
		return b
	}
	return fallback
}

// GetEnvDuration parses values like "100ms" or "1s". A bare integer is read
// as milliseconds.
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	s := GetEnv(key, "")
	if s == "" {
		return fallback
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(s); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}

// GetEnvList splits a comma-separated value, dropping empty items.
func GetEnvList(key string, fallback []string) []string {
	s := GetEnv(key, "")
	if s == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

// Server holds the settings of cmd/server.
type Server struct {
	Port                string
	LogLevel            string
	LogFormat           string
	CatalogPath         string
	CatalogDB           string
	VolumeDebounce      time.Duration
	SkipCooldown        time.Duration
	SeekPreviewInterval time.Duration
	TickInterval        time.Duration
	MediaDuration       time.Duration
	CORSAllowedOrigins  []string
}

// LoadServer reads the server settings from the environment.
func LoadServer() Server {
	return Server{
		Port:                GetEnv("PORT", "8080"),
		LogLevel:            GetEnv("LOG_LEVEL", "info"),
		LogFormat:           GetEnv("LOG_FORMAT", "json"),
		CatalogPath:         GetEnv("CATALOG_PATH", ""),
		CatalogDB:           GetEnv("CATALOG_DB", ""),
		VolumeDebounce:      GetEnvDuration("VOLUME_DEBOUNCE", 100*time.Millisecond),
		SkipCooldown:        GetEnvDuration("SKIP_COOLDOWN", time.Second),
		SeekPreviewInterval: GetEnvDuration("SEEK_PREVIEW_INTERVAL", 0),
		TickInterval:        GetEnvDuration("TICK_INTERVAL", 250*time.Millisecond),
		MediaDuration:       GetEnvDuration("DEFAULT_MEDIA_DURATION", time.Hour),
		CORSAllowedOrigins:  GetEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}
}
