package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server     ServerConfig
	DB         DBConfig
	Redis      RedisConfig
	NATS       NATSConfig
	JWT        JWTConfig
	Completion CompletionConfig
	Memory     MemoryConfig
	Log        LogConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	CORSOrigins []string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type NATSConfig struct {
	URL string
}

type JWTConfig struct {
	Secret string
}

// CompletionConfig configures the outbound text-completion service used by
// the model-assisted extraction tier and the daily summarizer.
type CompletionConfig struct {
	APIKey    string
	Model     string
	MaxTokens int64
	Timeout   time.Duration
}

// MemoryConfig holds the tunables of the coaching memory engine.
type MemoryConfig struct {
	ExtractionEnabled bool
	RelevantLimit     int
	TurnBufferMax     int
	TurnBufferTTL     time.Duration
	SummaryHour       int
	TurnRateMax       int
	TurnRateWindowSec int
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Load .env file if it exists (ignore error if missing)
	_ = k.Load(file.Provider(".env"), dotenv.Parser())

	// Load environment variables (override .env)
	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "_", "."))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:        k.String("server.host"),
			Port:        k.Int("server.port"),
			CORSOrigins: splitList(k.String("server.cors.origins")),
		},
		DB: DBConfig{
			Host:     k.String("db.host"),
			Port:     k.Int("db.port"),
			User:     k.String("db.user"),
			Password: k.String("db.password"),
			Name:     k.String("db.name"),
			SSLMode:  k.String("db.sslmode"),
			MaxConns: int32(k.Int("db.max.conns")),
		},
		Redis: RedisConfig{
			Host:     k.String("redis.host"),
			Port:     k.Int("redis.port"),
			Password: k.String("redis.password"),
			DB:       k.Int("redis.db"),
		},
		NATS: NATSConfig{
			URL: k.String("nats.url"),
		},
		JWT: JWTConfig{
			Secret: k.String("jwt.secret"),
		},
		Completion: CompletionConfig{
			APIKey:    k.String("completion.api.key"),
			Model:     k.String("completion.model"),
			MaxTokens: int64(k.Int("completion.max.tokens")),
		},
		Memory: MemoryConfig{
			ExtractionEnabled: k.Bool("memory.extraction.enabled"),
			RelevantLimit:     k.Int("memory.relevant.limit"),
			TurnBufferMax:     k.Int("memory.turn.buffer.max"),
			SummaryHour:       k.Int("memory.summary.hour"),
			TurnRateMax:       k.Int("memory.turn.rate.max"),
			TurnRateWindowSec: k.Int("memory.turn.rate.window.sec"),
		},
		Log: LogConfig{
			Level:  k.String("log.level"),
			Format: k.String("log.format"),
		},
	}

	// Apply defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.DB.Host == "" {
		cfg.DB.Host = "localhost"
	}
	if cfg.DB.Port == 0 {
		cfg.DB.Port = 5432
	}
	if cfg.DB.User == "" {
		cfg.DB.User = "coachmem"
	}
	if cfg.DB.Name == "" {
		cfg.DB.Name = "coachmem"
	}
	if cfg.DB.SSLMode == "" {
		cfg.DB.SSLMode = "disable"
	}
	if cfg.DB.MaxConns == 0 {
		cfg.DB.MaxConns = 25
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.NATS.URL == "" {
		cfg.NATS.URL = "nats://localhost:4222"
	}
	if cfg.Completion.Model == "" {
		cfg.Completion.Model = "claude-3-7-sonnet-latest"
	}
	if cfg.Completion.MaxTokens == 0 {
		cfg.Completion.MaxTokens = 1024
	}
	if cfg.Memory.RelevantLimit == 0 {
		cfg.Memory.RelevantLimit = 8
	}
	if cfg.Memory.TurnBufferMax == 0 {
		cfg.Memory.TurnBufferMax = 200
	}
	if cfg.Memory.SummaryHour == 0 {
		cfg.Memory.SummaryHour = 2
	}
	if cfg.Memory.TurnRateMax == 0 {
		cfg.Memory.TurnRateMax = 30
	}
	if cfg.Memory.TurnRateWindowSec == 0 {
		cfg.Memory.TurnRateWindowSec = 60
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "debug"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	// Parse durations
	completionTimeoutStr := k.String("completion.timeout")
	if completionTimeoutStr == "" {
		completionTimeoutStr = "20s"
	}
	cfg.Completion.Timeout, err = time.ParseDuration(completionTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("parsing completion timeout: %w", err)
	}

	turnTTLStr := k.String("memory.turn.buffer.ttl")
	if turnTTLStr == "" {
		turnTTLStr = "48h"
	}
	cfg.Memory.TurnBufferTTL, err = time.ParseDuration(turnTTLStr)
	if err != nil {
		return nil, fmt.Errorf("parsing turn buffer ttl: %w", err)
	}

	return cfg, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
