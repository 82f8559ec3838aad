// Package config handles application configuration
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed config.sample.yaml
var sampleConfig string

// GetSampleConfig returns the embedded sample configuration content
func GetSampleConfig() string {
	return sampleConfig
}

// APIConfig holds Bring service settings
type APIConfig struct {
	BaseURL string `yaml:"base_url"` // Override the API endpoint, mainly for testing
	Country string `yaml:"country"`  // Sent with every request (default: DE)
}

// CredentialsConfig holds account settings
type CredentialsConfig struct {
	Email      string `yaml:"email"`
	UseKeyring *bool  `yaml:"use_keyring"` // Look up the password in the system keyring (default: true)
}

// Config represents the application configuration
type Config struct {
	DefaultList   string            `yaml:"default_list"`
	NoPrompt      bool              `yaml:"no_prompt"`
	OutputFormat  string            `yaml:"output_format"`
	RecentlyShown *int              `yaml:"recently_shown"` // Entries shown in the recently-purchased section (default: 5)
	API           APIConfig         `yaml:"api"`
	Credentials   CredentialsConfig `yaml:"credentials"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		OutputFormat: "text",
		API: APIConfig{
			Country: "DE",
		},
	}
}

// Load loads configuration from the specified path or default location.
// If the config file does not exist, it is created with default values.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = filepath.Join(GetConfigDir(), "config.yaml")
	}

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Create default config
		cfg := DefaultConfig()
		if err := cfg.save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	// Read existing config
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply defaults for missing values
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "text"
	}

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path without creating defaults
func LoadFromPath(configPath string) (*Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("config path is required")
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // File doesn't exist, return nil config
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in config file: %w", err)
	}

	return cfg, nil
}

// save writes the config to the specified path
func (c *Config) save(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Use the embedded sample config which includes all documentation and comments
	content := sampleConfig

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	// Validate output format
	if c.OutputFormat != "" && c.OutputFormat != "text" && c.OutputFormat != "json" {
		return fmt.Errorf("invalid output_format %q (must be 'text' or 'json')", c.OutputFormat)
	}

	// Validate recently_shown
	if c.RecentlyShown != nil && *c.RecentlyShown < 0 {
		return fmt.Errorf("invalid recently_shown %d (must be >= 0)", *c.RecentlyShown)
	}

	return nil
}

// ApplyFlags applies command-line flag overrides to the config
func (c *Config) ApplyFlags(noPrompt bool, outputFormat string) {
	if noPrompt {
		c.NoPrompt = true
	}
	if outputFormat != "" {
		c.OutputFormat = outputFormat
	}
}

// GetRecentlyShown returns how many recently-purchased entries to display.
// Zero hides the section entirely.
func (c *Config) GetRecentlyShown() int {
	if c.RecentlyShown == nil {
		return 5
	}
	return *c.RecentlyShown
}

// GetCountry returns the country sent with API requests
func (c *Config) GetCountry() string {
	if c.API.Country == "" {
		return "DE"
	}
	return c.API.Country
}

// IsKeyringEnabled reports whether the system keyring should be consulted
// for the account password
func (c *Config) IsKeyringEnabled() bool {
	if c.Credentials.UseKeyring == nil {
		return true
	}
	return *c.Credentials.UseKeyring
}

// GetConfigDir returns the XDG config directory for the application
func GetConfigDir() string {
	return getXDGDir("XDG_CONFIG_HOME", ".config")
}

// getXDGDir returns an XDG directory path
func getXDGDir(envVar, fallbackPath string) string {
	xdgDir := os.Getenv(envVar)
	if xdgDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		xdgDir = filepath.Join(home, fallbackPath)
	}
	return filepath.Join(xdgDir, "bring")
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	// Expand ~ to home directory
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	// Expand environment variables
	path = os.ExpandEnv(path)

	return path
}
