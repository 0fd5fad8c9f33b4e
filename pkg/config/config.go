package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// GetString returns the trimmed value of key, or fallback when it is unset or blank.
func GetString(key, fallback string) string {
	return parseEnv(key, fallback, func(v string) (string, error) { return v, nil })
}

// GetInt parses key as a base-10 integer.
func GetInt(key string, fallback int) int {
	return parseEnv(key, fallback, strconv.Atoi)
}

// GetBool parses key with strconv.ParseBool.
func GetBool(key string, fallback bool) bool {
	return parseEnv(key, fallback, strconv.ParseBool)
}

// GetSeconds reads key as a whole number of seconds.
func GetSeconds(key string, fallback time.Duration) time.Duration {
	return parseEnv(key, fallback, func(v string) (time.Duration, error) {
		n, err := strconv.Atoi(v)
		return time.Duration(n) * time.Second, err
	})
}

// parseEnv falls back when key is missing, blank or rejected by parse. Rejected
// values are logged so a typo does not go unnoticed.
func parseEnv[T any](key string, fallback T, parse func(string) (T, error)) T {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := parse(raw)
	if err != nil {
		slog.Warn("ignoring invalid config value", "key", key, "value", raw, "error", err)
		return fallback
	}
	return value
}
