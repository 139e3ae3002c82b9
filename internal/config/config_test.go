package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default("/tmp/fomo.db")
	if cfg.Cache.Path != "/tmp/fomo.db" || !cfg.Cache.Enabled {
		t.Fatalf("unexpected cache config %#v", cfg.Cache)
	}
	if cfg.Server.BaseURL != DefaultBaseURL || cfg.Server.BoardPath != "/" {
		t.Fatalf("unexpected server config %#v", cfg.Server)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("unexpected log level %q", cfg.Logging.Level)
	}
	if !cfg.Board.ShowDetail || !cfg.Board.DimCompleted {
		t.Fatal("expected detail rows and completed dimming enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	timeout, err := cfg.ServerTimeout()
	if err != nil || timeout != 0 {
		t.Fatalf("expected no default timeout, got %v err=%v", timeout, err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	defaults := Default("/tmp/fomo.db")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), defaults)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Cache.Path != defaults.Cache.Path {
		t.Fatalf("expected default cache path, got %q", cfg.Cache.Path)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[server]
base_url = "https://todo.example.com"
board_path = "/dashboard/"
timeout = "15s"

[cache]
path = "/custom/fomo.db"

[logging]
level = "debug"

[logging.dev_file]
enabled = false

[board]
show_detail = false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path, Default("/tmp/default.db"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.BaseURL != "https://todo.example.com" || cfg.Server.BoardPath != "/dashboard/" {
		t.Fatalf("unexpected server config %#v", cfg.Server)
	}
	if cfg.Server.UserAgent != "fomo-tui" {
		t.Fatalf("expected untouched keys to keep defaults, got %q", cfg.Server.UserAgent)
	}
	if cfg.Cache.Path != "/custom/fomo.db" || !cfg.Cache.Enabled {
		t.Fatalf("unexpected cache config %#v", cfg.Cache)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.DevFile.Enabled {
		t.Fatalf("unexpected logging config %#v", cfg.Logging)
	}
	if cfg.Board.ShowDetail || !cfg.Board.DimCompleted {
		t.Fatalf("unexpected board config %#v", cfg.Board)
	}
	timeout, err := cfg.ServerTimeout()
	if err != nil || timeout != 15*time.Second {
		t.Fatalf("unexpected timeout %v err=%v", timeout, err)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{name: "scheme", content: "[server]\nbase_url = \"ftp://x\"\n", want: "scheme"},
		{name: "host", content: "[server]\nbase_url = \"http://\"\n", want: "missing a host"},
		{name: "board path", content: "[server]\nboard_path = \"dashboard\"\n", want: "board_path"},
		{name: "timeout", content: "[server]\ntimeout = \"soon\"\n", want: "server.timeout"},
		{name: "negative timeout", content: "[server]\ntimeout = \"-1s\"\n", want: "server.timeout"},
		{name: "cache path", content: "[cache]\npath = \" \"\n", want: "cache.path"},
		{name: "level", content: "[logging]\nlevel = \"loud\"\n", want: "logging.level"},
		{name: "dev dir", content: "[logging.dev_file]\nenabled = true\ndir = \"\"\n", want: "logging.dev_file.dir"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
			_, err := Load(path, Default("/tmp/default.db"))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Load() error = %v, want %q", err, tc.want)
			}
		})
	}
}

func TestDisabledCacheNeedsNoPath(t *testing.T) {
	cfg := Default("")
	cfg.Cache.Enabled = false
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected disabled cache without path to validate, got %v", err)
	}
}

func TestEnsureConfigDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "config.toml")
	if err := EnsureConfigDir(target); err != nil {
		t.Fatalf("EnsureConfigDir() error = %v", err)
	}
	if _, err := os.Stat(filepath.Dir(target)); err != nil {
		t.Fatalf("expected dir to exist, stat error %v", err)
	}
}
