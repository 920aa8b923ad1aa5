package songtagd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/mikey-austin/songtag/pkg/songtag"
)

// Config is the top-level configuration for songtagd.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Modules ModulesConfig `toml:"modules"`
}

// ServerConfig defines shared server settings.
type ServerConfig struct {
	Broker    string     `toml:"broker"`
	Identity  string     `toml:"identity"`
	TopicBase string     `toml:"topic_base"`
	LogLevel  string     `toml:"log_level"`
	LogFormat string     `toml:"log_format"`
	LogOutput string     `toml:"log_output"`
	LogUTC    bool       `toml:"log_utc"`
	MQTTDebug bool       `toml:"mqtt_debug"`
	TLS       TLSConfig  `toml:"tls"`
	Auth      AuthConfig `toml:"auth"`
}

// TLSConfig holds TLS paths for MQTT.
type TLSConfig struct {
	CA   string `toml:"ca"`
	Cert string `toml:"cert"`
	Key  string `toml:"key"`
}

// AuthConfig holds MQTT auth credentials.
type AuthConfig struct {
	User string `toml:"user"`
	Pass string `toml:"pass"`
}

// ModulesConfig holds module configurations.
type ModulesConfig struct {
	TagLookup    TagLookupConfig    `toml:"tag_lookup"`
	EmbeddedMQTT EmbeddedMQTTConfig `toml:"embedded_mqtt"`
}

// TagLookupConfig configures the tag lookup module and its fetcher.
type TagLookupConfig struct {
	Enabled       bool     `toml:"enabled"`
	NodeID        string   `toml:"node_id"`
	Name          string   `toml:"name"`
	Providers     []string `toml:"providers"`
	Limit         int      `toml:"limit"`
	TimeoutMS     int64    `toml:"timeout_ms"`
	MaxInflight   int64    `toml:"max_inflight"`
	UserAgent     string   `toml:"user_agent"`
	CacheSize     int      `toml:"cache_size"`
	CacheTTLMS    int64    `toml:"cache_ttl_ms"`
	CacheCompress bool     `toml:"cache_compress"`
}

// Timeout returns the per-command timeout.
func (c TagLookupConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// CacheTTL returns the cache entry lifetime.
func (c TagLookupConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMS) * time.Millisecond
}

// EmbeddedMQTTConfig configures the embedded MQTT broker.
type EmbeddedMQTTConfig struct {
	Enabled        bool   `toml:"enabled"`
	Listen         string `toml:"listen"`
	AllowAnonymous bool   `toml:"allow_anonymous"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	TLSCA          string `toml:"tls_ca"`
	TLSCert        string `toml:"tls_cert"`
	TLSKey         string `toml:"tls_key"`
}

// LoadConfig loads a config file from path.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path required")
	}
	info, err := os.Stat(path)
	if err != nil {
		return Config{}, err
	}
	if info.IsDir() {
		return Config{}, errors.New("config path is a directory")
	}

	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("unknown config key %s", undecoded[0])
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that cannot be corrected with defaults.
func (c Config) Validate() error {
	if _, err := songtag.ParseProviders(c.Modules.TagLookup.Providers); err != nil {
		return fmt.Errorf("modules.tag_lookup.providers: %w", err)
	}
	if c.Modules.TagLookup.Limit < 0 {
		return errors.New("modules.tag_lookup.limit must not be negative")
	}
	if c.Modules.TagLookup.TimeoutMS < 0 || c.Modules.TagLookup.CacheTTLMS < 0 {
		return errors.New("modules.tag_lookup durations must not be negative")
	}
	return nil
}

// DefaultConfigPath returns the default config location.
func DefaultConfigPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "songtag", "songtagd.toml"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "songtag", "songtagd.toml"), nil
}
