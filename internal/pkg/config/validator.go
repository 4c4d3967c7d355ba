package config

import (
	"fmt"
	"net/url"

	"github.com/robfig/cron/v3"
)

// CronParser accepts standard five-field expressions and descriptors such as "@hourly".
var CronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateCronSchedule checks schedule with CronParser.
// Use https://crontab.guru/ to compose expressions.
func ValidateCronSchedule(schedule string) error {
	if schedule == "" {
		return fmt.Errorf("invalid cron schedule: cannot be empty")
	}
	if _, err := CronParser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", schedule, err)
	}
	return nil
}

// ValidateOptionalCronSchedule is ValidateCronSchedule where empty means disabled.
func ValidateOptionalCronSchedule(schedule string) error {
	if schedule == "" {
		return nil
	}
	return ValidateCronSchedule(schedule)
}

// ValidateIntRange checks lo <= value <= hi.
func ValidateIntRange(value, lo, hi int) error {
	if lo > hi {
		return fmt.Errorf("invalid range: min (%d) cannot be greater than max (%d)", lo, hi)
	}
	if value < lo {
		return fmt.Errorf("value %d is below minimum %d", value, lo)
	}
	if value > hi {
		return fmt.Errorf("value %d exceeds maximum %d", value, hi)
	}
	return nil
}

// ValidateNonNegativeInt rejects negative values; 0 usually means "unbounded".
func ValidateNonNegativeInt(value int) error {
	if value < 0 {
		return fmt.Errorf("value must be non-negative, got %d", value)
	}
	return nil
}

// ValidatePositiveFloat rejects zero and negative values.
func ValidatePositiveFloat(value float64) error {
	if value <= 0 {
		return fmt.Errorf("value must be positive, got %v", value)
	}
	return nil
}

// ValidateHTTPURL requires an absolute http or https URL with a host.
func ValidateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL '%s': %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL '%s': scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid URL '%s': host is required", raw)
	}
	return nil
}
