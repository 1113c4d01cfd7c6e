package common

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PAYSLIP_CONFIG", "DB_DRIVER", "DB_URL", "HTTP_ADDR", "GRPC_ADDR",
		"EXTRACT_TIMEOUT", "EXTRACT_WORKERS", "PAYSLIP_DEV_PLACEHOLDER", "UPLOAD_DIR", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_URL", "file:slips.db")
	t.Setenv("EXTRACT_WORKERS", "8")
	t.Setenv("EXTRACT_TIMEOUT", "10s")
	t.Setenv("PAYSLIP_DEV_PLACEHOLDER", "true")
	t.Setenv("DB_MAX_CONNS", "not-a-number")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.DSN != "file:slips.db" {
		t.Fatalf("database mismatch: %+v", cfg.Database)
	}
	if cfg.Extraction.Workers != 8 || cfg.Extraction.Timeout.Std() != 10*time.Second || !cfg.Extraction.DevPlaceholder {
		t.Fatalf("extraction mismatch: %+v", cfg.Extraction)
	}
	// unparsable values keep the default
	if cfg.Database.MaxConns != 20 {
		t.Fatalf("want=20 got=%d", cfg.Database.MaxConns)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "payslip.toml")
	body := `
[database]
driver = "sqlite"
dsn = "slips.db"

[extraction]
timeout = "45s"
workers = 2

[storage]
upload_dir = "/var/lib/payslip"
watch_dir = "/srv/inbox"

[log]
format = "json"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("PAYSLIP_CONFIG", path)
	t.Setenv("HTTP_ADDR", ":9999")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.DSN != "slips.db" || cfg.Extraction.Timeout.Std() != 45*time.Second || cfg.Extraction.Workers != 2 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Storage.WatchDir != "/srv/inbox" || cfg.Log.Format != "json" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Server.HTTPAddr != ":9999" || cfg.Server.GRPCAddr != ":8080" {
		t.Fatalf("server mismatch: %+v", cfg.Server)
	}
	// untouched defaults survive the overlay
	if cfg.Extraction.QueueSize != 256 {
		t.Fatalf("want=256 got=%d", cfg.Extraction.QueueSize)
	}
}

func TestLoadConfigFileErrors(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.toml"), cfg); err != nil {
		t.Fatalf("missing file should be ignored, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[extraction]\ntimeout = \"soon\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	err := LoadConfigFile(path, cfg)
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Code != CodeConfig {
		t.Fatalf("want CONFIG_ERROR got %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(c *Config) { c.Database.DSN = "postgres://x" }, true},
		{"missing dsn", func(c *Config) {}, false},
		{"unknown driver", func(c *Config) { c.Database.DSN = "x"; c.Database.Driver = "mysql" }, false},
		{"no upload dir", func(c *Config) { c.Database.DSN = "x"; c.Storage.UploadDir = "" }, false},
	}
	for _, c := range cases {
		cfg := DefaultConfig()
		c.mutate(cfg)
		err := cfg.Validate()
		if c.ok != (err == nil) {
			t.Fatalf("%s: ok=%v err=%v", c.name, c.ok, err)
		}
		if err != nil && !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: want ErrInvalidInput got %v", c.name, err)
		}
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, LogConfig{Level: "warn", Format: "json"})
	logger.Info("dropped")
	logger.Warn("kept", "file_id", "abc")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("want a single json line, got %q: %v", buf.String(), err)
	}
	if line["msg"] != "kept" || line["file_id"] != "abc" {
		t.Fatalf("unexpected record: %v", line)
	}

	levels := map[string]slog.Level{"debug": slog.LevelDebug, "ERROR": slog.LevelError, "": slog.LevelInfo, "loud": slog.LevelInfo}
	for in, want := range levels {
		if got := ParseLevel(in); got != want {
			t.Fatalf("%q: want=%v got=%v", in, want, got)
		}
	}
}
