// config.go - Configuration management for the phoenixd demo binary.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the demo binary's own CLI configuration. It does not
// embed the core package's phoenix.Config; it repeats that type's key
// material paths and log level as its own fields.
type Config struct {
	// Key material
	ProvingKeyPath   string `json:"proving_key_path"`
	VerifyingKeyPath string `json:"verifying_key_path"`

	// File paths
	StateDir string `json:"state_dir"`
	KeyDir   string `json:"key_dir"`

	// Logging
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`

	// Performance
	TimeoutSeconds int `json:"timeout_seconds"`

	// Security
	EnableAudit  bool   `json:"enable_audit"`
	AuditLogPath string `json:"audit_log_path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ProvingKeyPath:   "phoenix.pk",
		VerifyingKeyPath: "phoenix.vk",
		StateDir:         "state",
		KeyDir:           "keys",
		LogLevel:         "info",
		LogFile:          "phoenixd.log",
		TimeoutSeconds:   30,
		EnableAudit:      true,
		AuditLogPath:     "audit.log",
	}
}

// LoadConfig loads configuration from file or creates a default one.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()

		var config Config
		if err := json.NewDecoder(file).Decode(&config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}

		return &config, nil
	}

	config := DefaultConfig()
	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save default config: %w", err)
	}

	return config, nil
}

// SaveConfig saves configuration to file.
func SaveConfig(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// Validate checks the configuration for obviously broken values.
func (c *Config) Validate() error {
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive")
	}
	if c.ProvingKeyPath == "" || c.VerifyingKeyPath == "" {
		return fmt.Errorf("proving_key_path and verifying_key_path must be set")
	}
	return nil
}
