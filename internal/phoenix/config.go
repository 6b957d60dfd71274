// config.go - Runtime configuration for the proving/verifying pipeline.
//
// Unlike the circuit itself, which is fixed at compile time, the location
// of the key material and the verbosity of gnark's own logger are
// deployment choices. Config is deliberately small: everything the circuit
// needs structurally (MaxInput, MaxOutput, TreeHeight) is a constant, not a
// config field, since changing any of them changes the circuit's proving
// and verifying keys anyway.

package phoenix

import (
	"encoding/json"
	"os"
)

// Config holds the file paths and logging level the Setup/Prove/Verify
// pipeline needs at runtime.
type Config struct {
	ProvingKeyPath   string `json:"proving_key_path"`
	VerifyingKeyPath string `json:"verifying_key_path"`
	LogLevel         string `json:"log_level"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		ProvingKeyPath:   "phoenix.pk",
		VerifyingKeyPath: "phoenix.vk",
		LogLevel:         "info",
	}
}

// LoadConfig reads a JSON-encoded Config from path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as indented JSON.
func SaveConfig(cfg Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
