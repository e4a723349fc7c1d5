package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ssargent/fixedrec/pkg/logging"
	"github.com/ssargent/fixedrec/pkg/store"
	"gopkg.in/yaml.v3"
)

// Config represents the fixedrec configuration
type Config struct {
	DataDir  string   `yaml:"data_dir"`
	Port     int      `yaml:"port"`
	Bind     string   `yaml:"bind"`
	Store    Store    `yaml:"store"`
	Security Security `yaml:"security"`
	Logging  Logging  `yaml:"logging"`
}

// Store contains slab and index settings
type Store struct {
	Capacity   int  `yaml:"capacity"`
	Mmap       bool `yaml:"mmap"`
	BTreeOrder int  `yaml:"btree_order"`
}

// Security contains security-related configuration
type Security struct {
	APIKey string `yaml:"api_key"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Port:    8080,
		Bind:    "127.0.0.1",
		Store: Store{
			Capacity:   store.DefaultCapacity,
			Mmap:       true,
			BTreeOrder: 32,
		},
		Security: Security{
			APIKey: "",
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the configuration for values the store and server cannot use
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Store.Capacity < 0 {
		return fmt.Errorf("invalid store capacity %d", c.Store.Capacity)
	}
	if c.Store.Mmap && c.DataDir == "" {
		return fmt.Errorf("store.mmap requires data_dir")
	}
	if c.Store.BTreeOrder != 0 && c.Store.BTreeOrder < 3 {
		return fmt.Errorf("btree_order must be at least 3, got %d", c.Store.BTreeOrder)
	}
	if _, err := logging.New(os.Stderr, c.Logging.Level, c.Logging.Format); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}
	return nil
}

// StoreConfig converts the configuration into store settings
func (c *Config) StoreConfig(logger *logging.Logger) store.Config {
	return store.Config{
		DataDir:    c.DataDir,
		Capacity:   c.Store.Capacity,
		Mmap:       c.Store.Mmap,
		BTreeOrder: c.Store.BTreeOrder,
		Logger:     logger,
	}
}

// LoadConfig loads configuration from the specified path. Missing values
// keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write with secure permissions (0600)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig writes a default configuration with a generated API key
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	apiKey, err := GenerateSecureKey(32) // 256 bits
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	config.Security.APIKey = apiKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./fixedrec.yaml"
	}

	// For Linux/macOS, use ~/.config/fixedrec/config.yaml
	return filepath.Join(homeDir, ".config", "fixedrec", "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
