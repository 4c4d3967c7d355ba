// Package config provides fail-open configuration loaders.
//
// A loader never returns an error: a missing value yields the default
// silently, and a malformed or invalid value yields the default together
// with a warning the caller is expected to log and count.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadResult is the outcome of loading one configuration value.
type LoadResult[T any] struct {
	Value           T
	Warnings        []string
	FallbackApplied bool
}

// LoadEnvString returns the variable's value, or defaultValue when unset.
// No validation is performed.
//
//	schedule := LoadEnvString("SAMPLE_REFRESH_SCHEDULE", "")
func LoadEnvString(envKey, defaultValue string) string {
	if value := os.Getenv(envKey); value != "" {
		return value
	}
	return defaultValue
}

// LoadEnvWithFallback loads a string and validates it.
// The warning format is:
//
//	Invalid {envKey}='{value}': {error}, falling back to default '{default}'
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) LoadResult[string] {
	return load(envKey, defaultValue, func(s string) (string, error) { return s, nil }, validator)
}

// LoadEnvDuration loads a Go duration string ("30s", "5m").
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) LoadResult[time.Duration] {
	return load(envKey, defaultValue, time.ParseDuration, validator)
}

// LoadEnvInt loads a base-10 integer.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) LoadResult[int] {
	return load(envKey, defaultValue, func(s string) (int, error) {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("invalid integer format")
		}
		return v, nil
	}, validator)
}

// LoadEnvFloat loads a decimal number such as a rate limit.
func LoadEnvFloat(envKey string, defaultValue float64, validator func(float64) error) LoadResult[float64] {
	return load(envKey, defaultValue, func(s string) (float64, error) {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number format")
		}
		return v, nil
	}, validator)
}

// LoadEnvBool accepts the spellings understood by strconv.ParseBool.
func LoadEnvBool(envKey string, defaultValue bool) LoadResult[bool] {
	return load(envKey, defaultValue, func(s string) (bool, error) {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return false, fmt.Errorf("invalid boolean format, expected 'true' or 'false'")
		}
		return v, nil
	}, nil)
}

func load[T any](envKey string, defaultValue T, parse func(string) (T, error), validator func(T) error) LoadResult[T] {
	raw := strings.TrimSpace(os.Getenv(envKey))
	if raw == "" {
		return LoadResult[T]{Value: defaultValue}
	}

	value, err := parse(raw)
	if err == nil && validator != nil {
		err = validator(value)
	}
	if err != nil {
		return LoadResult[T]{
			Value: defaultValue,
			Warnings: []string{fmt.Sprintf(
				"Invalid %s='%s': %v, falling back to default '%v'",
				envKey, raw, err, defaultValue)},
			FallbackApplied: true,
		}
	}
	return LoadResult[T]{Value: value}
}
