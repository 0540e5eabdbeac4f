package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	LLM      LLMConfig      `yaml:"llm"`
	Jobs     JobsConfig     `yaml:"jobs"`
	Cache    CacheConfig    `yaml:"cache"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string        `yaml:"driver"` // "pgx" or "sqlite"
	DSN              string        `yaml:"dsn"`
	MaxConns         int32         `yaml:"max_conns"`
	MinConns         int32         `yaml:"min_conns"`
	MaxConnLifetime  time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `yaml:"max_conn_idle_time"`
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	StatementTimeout time.Duration `yaml:"statement_timeout"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr    string `yaml:"http_addr"`
	GRPCAddr    string `yaml:"grpc_addr"` // health only; empty disables
	CORSOrigins string `yaml:"cors_origins"`
}

// StorageConfig holds where uploaded documents are written.
type StorageConfig struct {
	DocumentDir string `yaml:"document_dir"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
	// WatchDir is an optional drop folder; new files in it are ingested and parsed
	// under WatchCompanyID/WatchSiteID.
	WatchDir       string `yaml:"watch_dir"`
	WatchCompanyID string `yaml:"watch_company_id"`
	WatchSiteID    string `yaml:"watch_site_id"`
}

// LLMConfig holds enrichment-service configuration. An empty APIKey disables enrichment.
type LLMConfig struct {
	BaseURL        string        `yaml:"base_url"`
	Model          string        `yaml:"model"`
	APIKey         string        `yaml:"api_key"`
	Temperature    float32       `yaml:"temperature"`
	Timeout        time.Duration `yaml:"timeout"`
	ChunkChars     int           `yaml:"chunk_chars"`
	MaxConcurrency int           `yaml:"max_concurrency"`
}

// JobsConfig holds extraction worker configuration.
type JobsConfig struct {
	Workers        int           `yaml:"workers"`
	QueueSize      int           `yaml:"queue_size"`
	ProcessTimeout time.Duration `yaml:"process_timeout"`
	MinTextChars   int           `yaml:"min_text_chars"`
}

// CacheConfig selects the job-status cache.
type CacheConfig struct {
	Backend   string        `yaml:"backend"` // "memory" or "redis"
	RedisAddr string        `yaml:"redis_addr"`
	RedisDB   int           `yaml:"redis_db"`
	TTL       time.Duration `yaml:"ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          "pgx",
			MaxConns:        20,
			MinConns:        5,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Server: ServerConfig{
			HTTPAddr: ":8080",
			GRPCAddr: ":9090",
		},
		Storage: StorageConfig{
			DocumentDir: "./data/documents",
			MaxUploadMB: 50,
		},
		LLM: LLMConfig{
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-4o-mini",
			Timeout:        60 * time.Second,
			ChunkChars:     12000,
			MaxConcurrency: 4,
		},
		Jobs: JobsConfig{
			Workers:        4,
			QueueSize:      256,
			ProcessTimeout: 10 * time.Minute,
			MinTextChars:   40,
		},
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration: defaults, then an optional YAML file
// (CONFIG_FILE), then environment variables (including a local .env file).
func LoadConfig() (*Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.DSN = getEnv("DB_URL", c.Database.DSN)
	c.Database.MaxConns = getEnvAsInt32("DB_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = getEnvAsInt32("DB_MIN_CONNS", c.Database.MinConns)
	c.Database.MaxConnLifetime = getEnvAsDuration("DB_MAX_CONN_LIFETIME", c.Database.MaxConnLifetime)
	c.Database.MaxConnIdleTime = getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", c.Database.MaxConnIdleTime)
	c.Database.DialTimeout = getEnvAsDuration("DB_DIAL_TIMEOUT", c.Database.DialTimeout)
	c.Database.StatementTimeout = getEnvAsDuration("DB_STATEMENT_TIMEOUT", c.Database.StatementTimeout)

	c.Server.HTTPAddr = getEnv("HTTP_ADDR", c.Server.HTTPAddr)
	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)
	c.Server.CORSOrigins = getEnv("CORS_ORIGINS", c.Server.CORSOrigins)

	c.Storage.DocumentDir = getEnv("DOCUMENT_DIR", c.Storage.DocumentDir)
	c.Storage.MaxUploadMB = getEnvAsInt("MAX_UPLOAD_MB", c.Storage.MaxUploadMB)
	c.Storage.WatchDir = getEnv("WATCH_DIR", c.Storage.WatchDir)
	c.Storage.WatchCompanyID = getEnv("WATCH_COMPANY_ID", c.Storage.WatchCompanyID)
	c.Storage.WatchSiteID = getEnv("WATCH_SITE_ID", c.Storage.WatchSiteID)

	c.LLM.BaseURL = getEnv("OPENAI_BASE_URL", c.LLM.BaseURL)
	c.LLM.Model = getEnv("OPENAI_MODEL", c.LLM.Model)
	c.LLM.APIKey = getEnv("OPENAI_API_KEY", c.LLM.APIKey)
	c.LLM.Temperature = getEnvAsFloat32("OPENAI_TEMPERATURE", c.LLM.Temperature)
	c.LLM.Timeout = getEnvAsDuration("OPENAI_TIMEOUT", c.LLM.Timeout)
	c.LLM.ChunkChars = getEnvAsInt("ENRICH_CHUNK_CHARS", c.LLM.ChunkChars)
	c.LLM.MaxConcurrency = getEnvAsInt("ENRICH_MAX_CONCURRENCY", c.LLM.MaxConcurrency)

	c.Jobs.Workers = getEnvAsInt("JOB_WORKERS", c.Jobs.Workers)
	c.Jobs.QueueSize = getEnvAsInt("JOB_QUEUE_SIZE", c.Jobs.QueueSize)
	c.Jobs.ProcessTimeout = getEnvAsDuration("JOB_PROCESS_TIMEOUT", c.Jobs.ProcessTimeout)
	c.Jobs.MinTextChars = getEnvAsInt("JOB_MIN_TEXT_CHARS", c.Jobs.MinTextChars)

	c.Cache.Backend = getEnv("CACHE_BACKEND", c.Cache.Backend)
	c.Cache.RedisAddr = getEnv("REDIS_ADDR", c.Cache.RedisAddr)
	c.Cache.RedisDB = getEnvAsInt("REDIS_DB", c.Cache.RedisDB)
	c.Cache.TTL = getEnvAsDuration("CACHE_TTL", c.Cache.TTL)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

// EnrichmentEnabled is false when no API key is configured.
func (c *Config) EnrichmentEnabled() bool {
	return c.LLM.APIKey != ""
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Database.Driver != "pgx" && c.Database.Driver != "sqlite" {
		return NewAppError("CONFIG_ERROR", "DB_DRIVER must be pgx or sqlite", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisAddr == "" {
		return NewAppError("CONFIG_ERROR", "REDIS_ADDR is required for the redis cache", ErrInvalidInput)
	}
	if c.Jobs.MinTextChars < 0 {
		return NewAppError("CONFIG_ERROR", "JOB_MIN_TEXT_CHARS must be >= 0", ErrInvalidInput)
	}
	return nil
}
