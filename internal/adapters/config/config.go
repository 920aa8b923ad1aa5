package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds CLI configuration from config.toml.
type Config struct {
	Broker    string            `toml:"broker"`
	Identity  string            `toml:"identity"`
	TopicBase string            `toml:"topic_base"`
	Node      string            `toml:"node"`
	Providers []string          `toml:"providers"`
	Limit     int               `toml:"limit"`
	TimeoutMS int64             `toml:"timeout_ms"`
	Aliases   map[string]string `toml:"aliases"`
	Cache     Cache             `toml:"cache"`
	MQTT      MQTT              `toml:"mqtt"`
}

// Cache configures the in-process payload cache.
type Cache struct {
	SizeBytes int   `toml:"size_bytes"`
	TTLMS     int64 `toml:"ttl_ms"`
	Compress  bool  `toml:"compress"`
}

// MQTT holds broker credentials for remote lookups.
type MQTT struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
	TLSCA    string `toml:"tls_ca"`
	TLSCert  string `toml:"tls_cert"`
	TLSKey   string `toml:"tls_key"`
}

// Load loads config.toml if present. Missing file returns an empty config.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Config{}, err
	}
	return LoadFile(path)
}

// LoadFile loads the config at path. Missing file returns an empty config.
func LoadFile(path string) (Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{Aliases: map[string]string{}}, nil
		}
		return Config{}, err
	}
	if info.IsDir() {
		return Config{}, errors.New("config path is a directory")
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	if cfg.Aliases == nil {
		cfg.Aliases = map[string]string{}
	}
	return cfg, nil
}

// Path returns the XDG location of config.toml.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "songtag", "config.toml"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "songtag", "config.toml"), nil
}
