package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"
	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Cache   CacheConfig   `toml:"cache"`
	Logging LoggingConfig `toml:"logging"`
	Board   BoardConfig   `toml:"board"`
}

type ServerConfig struct {
	BaseURL   string `toml:"base_url"`
	BoardPath string `toml:"board_path"`
	UserAgent string `toml:"user_agent"`
	// Timeout is a Go duration string. Empty means no client timeout.
	Timeout string `toml:"timeout"`
}

type CacheConfig struct {
	Path    string `toml:"path"`
	Enabled bool   `toml:"enabled"`
}

type LoggingConfig struct {
	Level   string           `toml:"level"`
	DevFile DevFileLogConfig `toml:"dev_file"`
}

type DevFileLogConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type BoardConfig struct {
	ShowDetail   bool `toml:"show_detail"`
	DimCompleted bool `toml:"dim_completed"`
}

const DefaultBaseURL = "http://localhost:8000"

func Default(cachePath string) Config {
	return Config{
		Server: ServerConfig{
			BaseURL:   DefaultBaseURL,
			BoardPath: "/",
			UserAgent: "fomo-tui",
		},
		Cache: CacheConfig{
			Path:    cachePath,
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileLogConfig{
				Enabled: true,
				Dir:     ".fomo/log",
			},
		},
		Board: BoardConfig{
			ShowDetail:   true,
			DimCompleted: true,
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	base := strings.TrimSpace(c.Server.BaseURL)
	if base == "" {
		return errors.New("server.base_url is required")
	}
	u, err := url.Parse(base)
	if err != nil {
		return fmt.Errorf("invalid server.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid server.base_url scheme: %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("server.base_url is missing a host: %q", base)
	}
	if p := strings.TrimSpace(c.Server.BoardPath); p != "" && !strings.HasPrefix(p, "/") {
		return fmt.Errorf("server.board_path must start with /: %q", c.Server.BoardPath)
	}
	if _, err := c.ServerTimeout(); err != nil {
		return err
	}

	if c.Cache.Enabled && strings.TrimSpace(c.Cache.Path) == "" {
		return errors.New("cache.path is required when the cache is enabled")
	}

	if _, err := charmLog.ParseLevel(strings.TrimSpace(c.Logging.Level)); err != nil {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	if c.Logging.DevFile.Enabled && strings.TrimSpace(c.Logging.DevFile.Dir) == "" {
		return errors.New("logging.dev_file.dir is required when dev file logging is enabled")
	}

	return nil
}

// ServerTimeout parses server.timeout. Zero means none.
func (c Config) ServerTimeout() (time.Duration, error) {
	raw := strings.TrimSpace(c.Server.Timeout)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid server.timeout %q: %w", c.Server.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("server.timeout must be >= 0: %q", c.Server.Timeout)
	}
	return d, nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
