// Package config loads scenecast configuration from a TOML file with
// environment variable overrides for the common knobs.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Server contains HTTP listener configuration.
type Server struct {
	Bind               string   `toml:"bind"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
}

// Paths contains workspace directory configuration. WorkDir is the
// scratch root: job scripts are written there and the renderer runs
// with it as its working directory, producing its media tree inside
// it. OutputDir holds finished artifacts and lives outside the part
// of the tree that per-job cleanup removes.
type Paths struct {
	WorkDir   string `toml:"work_dir"`
	OutputDir string `toml:"output_dir"`
	LockFile  string `toml:"lock_file"`
}

// Render contains configuration for the external renderer.
type Render struct {
	// Binary is the renderer executable. It is resolved through PATH,
	// after ExtraPath entries have been prepended.
	Binary string `toml:"binary"`
	// ExtraPath lists directories prepended to PATH for the child
	// process, so non-globally-installed renderer binaries resolve.
	ExtraPath []string `toml:"extra_path"`
	// TimeoutSeconds bounds a single render's wall clock.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Worker contains configuration for the background execution pool.
type Worker struct {
	Count     int `toml:"count"`
	QueueSize int `toml:"queue_size"`
}

// Log contains logging configuration.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the root configuration for the service.
type Config struct {
	Server Server `toml:"server"`
	Paths  Paths  `toml:"paths"`
	Render Render `toml:"render"`
	Worker Worker `toml:"worker"`
	Log    Log    `toml:"log"`
}

// Load reads configuration from path (optional), layering file values
// over defaults and environment overrides over both.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file not found: %s", path)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	normalize(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := env("SCENECAST_BIND"); v != "" {
		cfg.Server.Bind = v
	}
	if v := env("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.CORSAllowedOrigins = splitCSV(v)
	}
	if v := env("SCENECAST_WORK_DIR"); v != "" {
		cfg.Paths.WorkDir = v
	}
	if v := env("SCENECAST_OUTPUT_DIR"); v != "" {
		cfg.Paths.OutputDir = v
	}
	if v := env("SCENECAST_RENDERER"); v != "" {
		cfg.Render.Binary = v
	}
	if v := env("SCENECAST_RENDERER_PATH"); v != "" {
		cfg.Render.ExtraPath = splitList(v)
	}
	if v := env("SCENECAST_RENDER_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Render.TimeoutSeconds = n
		}
	}
	if v := env("SCENECAST_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Worker.Count = n
		}
	}
	if v := env("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := env("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

func normalize(cfg *Config) {
	cfg.Paths.WorkDir = filepath.Clean(cfg.Paths.WorkDir)
	if cfg.Paths.OutputDir == "" {
		cfg.Paths.OutputDir = filepath.Join(cfg.Paths.WorkDir, "videos")
	}
	cfg.Paths.OutputDir = filepath.Clean(cfg.Paths.OutputDir)
	if cfg.Paths.LockFile == "" {
		cfg.Paths.LockFile = filepath.Join(cfg.Paths.WorkDir, "scenecast.lock")
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Bind) == "" {
		return fmt.Errorf("config: server.bind is required")
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		return fmt.Errorf("config: paths.work_dir is required")
	}
	if strings.TrimSpace(c.Render.Binary) == "" {
		return fmt.Errorf("config: render.binary is required")
	}
	if c.Render.TimeoutSeconds <= 0 {
		return fmt.Errorf("config: render.timeout_seconds must be positive")
	}
	if c.Worker.Count <= 0 {
		return fmt.Errorf("config: worker.count must be positive")
	}
	if c.Worker.QueueSize <= 0 {
		return fmt.Errorf("config: worker.queue_size must be positive")
	}
	return nil
}

// EnsureDirs creates the workspace directories.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure dir %s: %w", dir, err)
		}
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitList(raw string) []string {
	parts := strings.Split(raw, string(os.PathListSeparator))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
