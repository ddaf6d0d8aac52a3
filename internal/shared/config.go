package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Client   ClientConfig   `toml:"client"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
}

// ClientConfig contains settings for the controller API client and the list view.
type ClientConfig struct {
	BaseURL             string  `toml:"base_url"`
	PageSize            int     `toml:"page_size"`
	RefreshIntervalSecs int     `toml:"refresh_interval_secs"`
	RateLimit           float64 `toml:"rate_limit"`
	ShowUnplaced        bool    `toml:"show_unplaced"`
}

// RefreshInterval returns the periodic refresh interval; zero disables the refresh.
func (c ClientConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSecs) * time.Second
}

// DatabaseConfig contains database connection settings for the controller.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains controller HTTP server settings.
type ServerConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	ReaperTickSecs  int    `toml:"reaper_tick_secs"`
	SeedDemoRecords int    `toml:"seed_demo_records"`
}

// Addr returns the host:port pair the controller listens on.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ReaperTick returns the delay between deletion reaper passes.
func (c ServerConfig) ReaperTick() time.Duration {
	if c.ReaperTickSecs <= 0 {
		return time.Second
	}
	return time.Duration(c.ReaperTickSecs) * time.Second
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
