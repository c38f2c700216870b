package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vladimiradmaev/mediplus/internal/logger"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// AI providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

const (
	DefaultAIBaseURL = "https://api.sea-lion.ai/v1"
	DefaultAIModel   = "aisingapore/Llama-SEA-LION-v3-70B-IT"
)

type Config struct {
	HTTPAddr      string
	StoreBackend  string
	SeedOnStart   bool
	TelegramToken string
	Redis         RedisConfig
	DB            DBConfig
	AI            AIConfig
	Logger        LoggerConfig
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns the libpq-style connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type AIConfig struct {
	Provider     string
	BaseURL      string
	APIKey       string
	Model        string
	GeminiAPIKey string
	GeminiModel  string
	Timeout      time.Duration
}

type LoggerConfig struct {
	Level      logger.LogLevel
	OutputPath string
	Format     string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnvOrDefault(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnvOrDefault(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnvOrDefault(key, defaultValue.String()))
	if err != nil {
		return defaultValue
	}
	return v
}

func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:      getEnvOrDefault("HTTP_ADDR", ":8080"),
		StoreBackend:  strings.ToLower(getEnvOrDefault("STORE_BACKEND", StoreMemory)),
		SeedOnStart:   getEnvBool("SEED_ON_START", true),
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		Redis: RedisConfig{
			Host:     getEnvOrDefault("REDIS_HOST", "localhost"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		DB: DBConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getEnvOrDefault("DB_PORT", "5432"),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrDefault("DB_NAME", "mediplus"),
			SSLMode:  getEnvOrDefault("DB_SSLMODE", "disable"),
		},
		AI: AIConfig{
			Provider:     strings.ToLower(getEnvOrDefault("AI_PROVIDER", ProviderOpenAI)),
			BaseURL:      getEnvOrDefault("AI_BASE_URL", DefaultAIBaseURL),
			APIKey:       os.Getenv("AI_API_KEY"),
			Model:        getEnvOrDefault("AI_MODEL", DefaultAIModel),
			GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
			GeminiModel:  getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
			Timeout:      getEnvDuration("AI_TIMEOUT", 60*time.Second),
		},
		Logger: LoggerConfig{
			Level:      logger.ParseLevel(getEnvOrDefault("LOG_LEVEL", "info")),
			OutputPath: getEnvOrDefault("LOG_OUTPUT", "stdout"),
			Format:     getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}
	return cfg, cfg.Validate()
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var problems []string

	switch c.StoreBackend {
	case StoreMemory, StoreRedis, StorePostgres:
	default:
		problems = append(problems, fmt.Sprintf("STORE_BACKEND must be one of memory, redis, postgres (got %q)", c.StoreBackend))
	}

	switch c.AI.Provider {
	case ProviderOpenAI:
		if c.AI.APIKey == "" {
			problems = append(problems, "AI_API_KEY is required for the openai provider")
		}
		if c.AI.BaseURL == "" {
			problems = append(problems, "AI_BASE_URL must not be empty")
		}
	case ProviderGemini:
		if c.AI.GeminiAPIKey == "" {
			problems = append(problems, "GEMINI_API_KEY is required for the gemini provider")
		}
	default:
		problems = append(problems, fmt.Sprintf("AI_PROVIDER must be openai or gemini (got %q)", c.AI.Provider))
	}

	if c.AI.Timeout <= 0 {
		problems = append(problems, "AI_TIMEOUT must be positive")
	}
	if c.Logger.Format != "json" && c.Logger.Format != "text" {
		problems = append(problems, fmt.Sprintf("LOG_FORMAT must be json or text (got %q)", c.Logger.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}
