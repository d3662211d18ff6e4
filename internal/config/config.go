// Package config loads gscnav.toml and environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// FileName is the configuration file looked up from the workspace upwards.
const FileName = "gscnav.toml"

const defaultMaxFileSize = 1_000_000 // 1 MB

// Config is the resolved gscnav configuration.
type Config struct {
	// Path is the file the configuration was read from, or "" for defaults.
	Path      string          `toml:"-"`
	Workspace WorkspaceConfig `toml:"workspace"`
	Resolve   ResolveConfig   `toml:"resolve"`
	Log       LogConfig       `toml:"log"`
}

type WorkspaceConfig struct {
	Roots            []string `toml:"roots"`
	Extension        string   `toml:"extension"`
	Exclude          []string `toml:"exclude"`
	MaxFileSize      int64    `toml:"max_file_size"`
	RespectGitignore bool     `toml:"respect_gitignore"`
}

type ResolveConfig struct {
	Workers int `toml:"workers"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file is found, rooted at dir.
func Default(dir string) *Config {
	return &Config{
		Workspace: WorkspaceConfig{
			Roots:            []string{dir},
			Extension:        ".gsc",
			MaxFileSize:      defaultMaxFileSize,
			RespectGitignore: true,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Find walks up from startDir looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("resolving start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load resolves the configuration for a workspace directory. If path is
// empty, gscnav.toml is searched for from dir upwards; when none exists the
// defaults apply with dir as the only root. A .env file in the working
// directory and GSCNAV_* variables override file values.
func Load(dir, path string) (*Config, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace: %w", err)
	}

	if path == "" {
		found, ok, err := Find(absDir)
		if err != nil {
			return nil, err
		}
		if ok {
			path = found
		}
	}

	var cfg *Config
	if path == "" {
		cfg = Default(absDir)
	} else {
		cfg, err = LoadFile(path)
		if err != nil {
			return nil, err
		}
	}

	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile decodes a configuration file. Unset keys keep their defaults and
// relative roots are resolved against the file's directory.
func LoadFile(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}
	base := filepath.Dir(abs)
	cfg := Default(base)
	cfg.Workspace.Roots = nil

	meta, err := toml.DecodeFile(abs, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", abs, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", abs, undecoded[0].String())
	}
	cfg.Path = abs

	if !meta.IsDefined("workspace", "roots") || len(cfg.Workspace.Roots) == 0 {
		cfg.Workspace.Roots = []string{"."}
	}
	for i, root := range cfg.Workspace.Roots {
		if !filepath.IsAbs(root) {
			cfg.Workspace.Roots[i] = filepath.Join(base, filepath.FromSlash(root))
		}
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if ext := os.Getenv("GSCNAV_EXTENSION"); ext != "" {
		c.Workspace.Extension = ext
	}
	if w := os.Getenv("GSCNAV_WORKERS"); w != "" {
		n, err := strconv.Atoi(w)
		if err != nil {
			return fmt.Errorf("GSCNAV_WORKERS: %w", err)
		}
		c.Resolve.Workers = n
	}
	if level := os.Getenv("GSCNAV_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Workspace.Extension, ".") || len(c.Workspace.Extension) < 2 {
		return fmt.Errorf("workspace.extension %q must start with a dot", c.Workspace.Extension)
	}
	if c.Resolve.Workers < 0 {
		return fmt.Errorf("resolve.workers must be >= 0, got %d", c.Resolve.Workers)
	}
	if c.Workspace.MaxFileSize < 0 {
		return fmt.Errorf("workspace.max_file_size must be >= 0, got %d", c.Workspace.MaxFileSize)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
