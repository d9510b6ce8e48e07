package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		DB: DBConfig{
			Host: "localhost", Port: 5432, User: "coachmem",
			Password: "secret", Name: "coachmem", SSLMode: "disable", MaxConns: 25,
		},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		JWT: JWTConfig{
			Secret: "jwt-secret-that-is-at-least-32-chars!!",
		},
		Memory: MemoryConfig{
			RelevantLimit: 8,
			SummaryHour:   2,
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidate_JWTSecretTooShort(t *testing.T) {
	cfg := validConfig()
	cfg.JWT.Secret = "short"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected JWT_SECRET error, got: %v", err)
	}
}

func TestValidate_MissingDBPassword(t *testing.T) {
	cfg := validConfig()
	cfg.DB.Password = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "DB_PASSWORD") {
		t.Fatalf("expected DB_PASSWORD error, got: %v", err)
	}
}

func TestValidate_PortRanges(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Redis.Port = 99999
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for bad ports")
	}
	if !strings.Contains(err.Error(), "SERVER_PORT") || !strings.Contains(err.Error(), "REDIS_PORT") {
		t.Fatalf("expected SERVER_PORT and REDIS_PORT errors, got: %v", err)
	}
}

func TestValidate_SummaryHourRange(t *testing.T) {
	cfg := validConfig()
	cfg.Memory.SummaryHour = 24
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "MEMORY_SUMMARY_HOUR") {
		t.Fatalf("expected MEMORY_SUMMARY_HOUR error, got: %v", err)
	}
}

func TestValidate_RelevantLimitRange(t *testing.T) {
	cfg := validConfig()
	cfg.Memory.RelevantLimit = 13
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "MEMORY_RELEVANT_LIMIT") {
		t.Fatalf("expected MEMORY_RELEVANT_LIMIT error, got: %v", err)
	}
}

func TestValidate_CollectsMultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.JWT.Secret = ""
	cfg.DB.Password = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "JWT_SECRET") || !strings.Contains(err.Error(), "DB_PASSWORD") {
		t.Fatalf("expected both errors reported, got: %v", err)
	}
}
