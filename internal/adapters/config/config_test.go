package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Broker != "" || cfg.Aliases == nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadFromXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if err := os.MkdirAll(filepath.Join(dir, "songtag"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	data := `broker = "mqtt://localhost:1883"
identity = "desk"
providers = ["kuwo", "netease"]
limit = 5
timeout_ms = 3000

[aliases]
den = "songtag:lookup:den"

[cache]
size_bytes = 1048576
compress = true
`
	if err := os.WriteFile(filepath.Join(dir, "songtag", "config.toml"), []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Broker != "mqtt://localhost:1883" || cfg.Identity != "desk" || cfg.Limit != 5 || cfg.TimeoutMS != 3000 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.Providers) != 2 || cfg.Providers[0] != "kuwo" {
		t.Fatalf("unexpected providers: %v", cfg.Providers)
	}
	if cfg.Aliases["den"] != "songtag:lookup:den" {
		t.Fatalf("unexpected aliases: %v", cfg.Aliases)
	}
	if cfg.Cache.SizeBytes != 1048576 || !cfg.Cache.Compress {
		t.Fatalf("unexpected cache config: %+v", cfg.Cache)
	}
}

func TestLoadDirectoryFails(t *testing.T) {
	if _, err := LoadFile(t.TempDir()); err == nil {
		t.Fatalf("expected error for directory")
	}
}
