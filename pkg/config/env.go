// Package config reads typed values from the environment.
//
// Every getter is fail-open: a missing or malformed value yields the
// supplied default, and malformed values are logged as warnings so a typo
// in a deployment never stops the process from starting.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// GetEnvString returns the variable's value, or defaultValue when unset or empty.
func GetEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt parses the variable as a base-10 int.
//
//	port := GetEnvInt("FILESERVER_PORT", 7777)
func GetEnvInt(key string, defaultValue int) int {
	return parseOr(key, defaultValue, strconv.Atoi)
}

// GetEnvInt64 parses the variable as a base-10 int64, for byte sizes.
func GetEnvInt64(key string, defaultValue int64) int64 {
	return parseOr(key, defaultValue, func(s string) (int64, error) {
		return strconv.ParseInt(s, 10, 64)
	})
}

// GetEnvFloat parses the variable as a float64, for rates and ratios.
func GetEnvFloat(key string, defaultValue float64) float64 {
	return parseOr(key, defaultValue, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// GetEnvBool parses the variable with strconv.ParseBool.
func GetEnvBool(key string, defaultValue bool) bool {
	return parseOr(key, defaultValue, strconv.ParseBool)
}

// GetEnvDuration parses the variable with time.ParseDuration ("30s", "1m").
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	return parseOr(key, defaultValue, time.ParseDuration)
}

// GetEnvStringList splits the variable on commas, trimming blanks.
// The result never aliases defaultValue.
//
//	origins := GetEnvStringList("CORS_ALLOWED_ORIGINS", []string{"*"})
func GetEnvStringList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	result := make([]string, 0, len(defaultValue))
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return append(result, defaultValue...)
	}
	return result
}

func parseOr[T any](key string, defaultValue T, parse func(string) (T, error)) T {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	value, err := parse(raw)
	if err != nil {
		slog.Warn("invalid value for environment variable, using default",
			slog.String("key", key),
			slog.String("value", raw),
			slog.Any("default", defaultValue),
			slog.String("error", err.Error()))
		return defaultValue
	}
	return value
}
