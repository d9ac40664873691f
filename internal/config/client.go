package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// ClientConfig holds the sync client's settings
type ClientConfig struct {
	ServerURL string   `toml:"server_url"`
	Ledger    string   `toml:"ledger"`
	Timeout   Duration `toml:"timeout"`
}

// Duration lets TOML files spell timeouts as "10s"
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultClientConfig returns the default client configuration.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		ServerURL: "http://localhost:8080",
		Ledger:    "default",
		Timeout:   Duration{10 * time.Second},
	}
}

// ClientConfigDir returns the XDG-compliant config directory.
func ClientConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ledger")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "ledger")
}

// ClientConfigPath returns the full path to the client config file.
func ClientConfigPath() string {
	return filepath.Join(ClientConfigDir(), "config.toml")
}

// LoadClient reads the config file at path, returning defaults if it doesn't
// exist. An empty path means ClientConfigPath().
func LoadClient(path string) (ClientConfig, error) {
	cfg := DefaultClientConfig()
	if path == "" {
		path = ClientConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Timeout.Duration <= 0 {
		return cfg, fmt.Errorf("parsing config: timeout must be positive")
	}

	return cfg, nil
}

// SaveClient writes the config to path, creating its directory.
func SaveClient(path string, cfg ClientConfig) error {
	if path == "" {
		path = ClientConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
