package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Validate checks Config for production-critical problems.
// It collects all errors into a single joined error.
func (c *Config) Validate() error {
	var errs []string

	if len(c.JWT.Secret) < 32 {
		errs = append(errs, "JWT_SECRET must be at least 32 characters")
	}

	if c.DB.Password == "" {
		errs = append(errs, "DB_PASSWORD is required")
	}

	// Port ranges
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT must be 1-65535, got %d", c.Server.Port))
	}
	if c.DB.Port < 1 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Sprintf("DB_PORT must be 1-65535, got %d", c.DB.Port))
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Sprintf("REDIS_PORT must be 1-65535, got %d", c.Redis.Port))
	}

	if c.Memory.SummaryHour < 0 || c.Memory.SummaryHour > 23 {
		errs = append(errs, fmt.Sprintf("MEMORY_SUMMARY_HOUR must be 0-23, got %d", c.Memory.SummaryHour))
	}
	if c.Memory.RelevantLimit < 1 || c.Memory.RelevantLimit > 12 {
		errs = append(errs, fmt.Sprintf("MEMORY_RELEVANT_LIMIT must be 1-12, got %d", c.Memory.RelevantLimit))
	}

	// Extraction without an API key silently degrades to heuristics only;
	// warn rather than fail so local setups keep working.
	if c.Memory.ExtractionEnabled && c.Completion.APIKey == "" {
		slog.Warn("MEMORY_EXTRACTION_ENABLED is set but COMPLETION_API_KEY is empty; model-assisted extraction will be skipped")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}
