package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	LLM      LLMConfig
	Storage  StorageConfig
	Sam      SamConfig
	Mail     MailConfig
	Workflow WorkflowConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret    string
	APIKeyHeader string
	APIKeys      []string
}

type LLMConfig struct {
	OpenAIKey        string
	AnthropicKey     string
	DefaultProvider  string
	DefaultModel     string
	FallbackProvider string
	FallbackModel    string
	MaxRetries       int
}

type StorageConfig struct {
	BaseURL string
	APIKey  string
	Bucket  string
}

type SamConfig struct {
	BaseURL        string
	APIKey         string
	RequestDelay   time.Duration
	DescriptionMax int64
}

type MailConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	Mailbox      string
	PollMax      int
}

type WorkflowConfig struct {
	LostAfter time.Duration
}

func Load() (*Config, error) {
	// .env is optional; deployments set the environment directly.
	_ = godotenv.Load()

	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxRetries, err := getEnvInt("LLM_MAX_RETRIES", 3)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_MAX_RETRIES: %w", err)
	}

	samDelayMs, err := getEnvInt("SAM_REQUEST_DELAY_MS", 1200)
	if err != nil {
		return nil, fmt.Errorf("invalid SAM_REQUEST_DELAY_MS: %w", err)
	}

	lostAfterDays, err := getEnvInt("WORKFLOW_LOST_AFTER_DAYS", 30)
	if err != nil {
		return nil, fmt.Errorf("invalid WORKFLOW_LOST_AFTER_DAYS: %w", err)
	}

	pollMax, err := getEnvInt("MAIL_POLL_MAX", 25)
	if err != nil {
		return nil, fmt.Errorf("invalid MAIL_POLL_MAX: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret:    getEnv("JWT_SECRET", ""),
			APIKeyHeader: getEnv("API_KEY_HEADER", "X-API-Key"),
			APIKeys:      getEnvList("API_KEYS"),
		},
		LLM: LLMConfig{
			OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
			AnthropicKey:     getEnv("ANTHROPIC_API_KEY", ""),
			DefaultProvider:  getEnv("LLM_DEFAULT_PROVIDER", "openai"),
			DefaultModel:     getEnv("LLM_DEFAULT_MODEL", "gpt-4o-mini"),
			FallbackProvider: getEnv("LLM_FALLBACK_PROVIDER", "anthropic"),
			FallbackModel:    getEnv("LLM_FALLBACK_MODEL", "claude-3-haiku-20240307"),
			MaxRetries:       maxRetries,
		},
		Storage: StorageConfig{
			BaseURL: getEnv("STORAGE_URL", ""),
			APIKey:  getEnv("STORAGE_SERVICE_KEY", ""),
			Bucket:  getEnv("STORAGE_BUCKET", "rfq-documents"),
		},
		Sam: SamConfig{
			BaseURL:        getEnv("SAM_API_URL", "https://api.sam.gov/opportunities/v2"),
			APIKey:         getEnv("SAM_API_KEY", ""),
			RequestDelay:   time.Duration(samDelayMs) * time.Millisecond,
			DescriptionMax: 256 * 1024,
		},
		Mail: MailConfig{
			TenantID:     getEnv("GRAPH_TENANT_ID", ""),
			ClientID:     getEnv("GRAPH_CLIENT_ID", ""),
			ClientSecret: getEnv("GRAPH_CLIENT_SECRET", ""),
			Mailbox:      getEnv("GRAPH_MAILBOX", ""),
			PollMax:      pollMax,
		},
		Workflow: WorkflowConfig{
			LostAfter: time.Duration(lostAfterDays) * 24 * time.Hour,
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
