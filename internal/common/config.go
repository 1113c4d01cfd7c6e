package common

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig   `toml:"database"`
	Server     ServerConfig     `toml:"server"`
	Extraction ExtractionConfig `toml:"extraction"`
	Storage    StorageConfig    `toml:"storage"`
	Log        LogConfig        `toml:"log"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string   `toml:"driver"` // "postgres" | "sqlite"
	DSN              string   `toml:"dsn"`
	MaxConns         int32    `toml:"max_conns"`
	MinConns         int32    `toml:"min_conns"`
	MaxConnLifetime  Duration `toml:"max_conn_lifetime"`
	MaxConnIdleTime  Duration `toml:"max_conn_idle_time"`
	DialTimeout      Duration `toml:"dial_timeout"`
	StatementTimeout Duration `toml:"statement_timeout"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr string `toml:"http_addr"`
	GRPCAddr string `toml:"grpc_addr"`
}

// ExtractionConfig holds PDF extraction configuration
type ExtractionConfig struct {
	Pdftotext      string   `toml:"pdftotext"`
	Timeout        Duration `toml:"timeout"`
	DevPlaceholder bool     `toml:"dev_placeholder"`
	Workers        int      `toml:"workers"`
	QueueSize      int      `toml:"queue_size"`
}

// StorageConfig holds upload storage configuration
type StorageConfig struct {
	UploadDir string `toml:"upload_dir"`
	WatchDir  string `toml:"watch_dir"`
}

// LogConfig selects handler and level for slog.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "text" | "json"
}

// Duration lets TOML files spell durations as "30s", "5m".
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          "postgres",
			MaxConns:        20,
			MinConns:        5,
			MaxConnLifetime: Duration(30 * time.Minute),
			MaxConnIdleTime: Duration(5 * time.Minute),
			DialTimeout:     Duration(3 * time.Second),
		},
		Server: ServerConfig{
			HTTPAddr: ":8081",
			GRPCAddr: ":8080",
		},
		Extraction: ExtractionConfig{
			Pdftotext: "pdftotext",
			Timeout:   Duration(30 * time.Second),
			Workers:   4,
			QueueSize: 256,
		},
		Storage: StorageConfig{
			UploadDir: "./data/uploads",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads defaults, overlays the TOML file named by PAYSLIP_CONFIG
// (if any), then applies environment variables.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()
	if path := os.Getenv("PAYSLIP_CONFIG"); path != "" {
		if err := LoadConfigFile(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

// LoadConfigFile overlays the TOML file at path onto cfg. A missing file is not an error.
func LoadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return NewAppError(CodeConfig, fmt.Sprintf("read %s", path), err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return NewAppError(CodeConfig, fmt.Sprintf("parse %s", path), err)
	}
	return nil
}

func applyEnv(c *Config) {
	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.DSN = getEnv("DB_URL", c.Database.DSN)
	c.Database.MaxConns = getEnvAsInt32("DB_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = getEnvAsInt32("DB_MIN_CONNS", c.Database.MinConns)
	c.Database.MaxConnLifetime = Duration(getEnvAsDuration("DB_MAX_CONN_LIFETIME", c.Database.MaxConnLifetime.Std()))
	c.Database.MaxConnIdleTime = Duration(getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", c.Database.MaxConnIdleTime.Std()))
	c.Database.DialTimeout = Duration(getEnvAsDuration("DB_DIAL_TIMEOUT", c.Database.DialTimeout.Std()))
	c.Database.StatementTimeout = Duration(getEnvAsDuration("DB_STATEMENT_TIMEOUT", c.Database.StatementTimeout.Std()))

	c.Server.HTTPAddr = getEnv("HTTP_ADDR", c.Server.HTTPAddr)
	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)

	c.Extraction.Pdftotext = getEnv("PDFTOTEXT_BIN", c.Extraction.Pdftotext)
	c.Extraction.Timeout = Duration(getEnvAsDuration("EXTRACT_TIMEOUT", c.Extraction.Timeout.Std()))
	c.Extraction.DevPlaceholder = getEnvAsBool("PAYSLIP_DEV_PLACEHOLDER", c.Extraction.DevPlaceholder)
	c.Extraction.Workers = getEnvAsInt("EXTRACT_WORKERS", c.Extraction.Workers)
	c.Extraction.QueueSize = getEnvAsInt("EXTRACT_QUEUE_SIZE", c.Extraction.QueueSize)

	c.Storage.UploadDir = getEnv("UPLOAD_DIR", c.Storage.UploadDir)
	c.Storage.WatchDir = getEnv("WATCH_DIR", c.Storage.WatchDir)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("DB_DRIVER %q is not supported", c.Database.Driver), ErrInvalidInput)
	}
	if c.Database.DSN == "" {
		return NewAppError(CodeConfig, "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError(CodeConfig, "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError(CodeConfig, "GRPC_ADDR is required", ErrInvalidInput)
	}
	if c.Storage.UploadDir == "" {
		return NewAppError(CodeConfig, "UPLOAD_DIR is required", ErrInvalidInput)
	}
	return nil
}
