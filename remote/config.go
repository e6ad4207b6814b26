// config.go - Configuration for the remote state and prover clients.

package remote

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the endpoints and client settings for networked deployments.
type Config struct {
	// Service endpoints
	StateURL  string `json:"state_url"`
	ProverURL string `json:"prover_url"`

	// Performance
	TimeoutSeconds int `json:"timeout_seconds"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		StateURL:       "http://localhost:8585",
		ProverURL:      "http://localhost:8686",
		TimeoutSeconds: 30,
	}
}

// LoadConfig loads configuration from file, creating the default file if it
// does not exist.
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

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.StateURL == "" {
		return fmt.Errorf("state_url must be set")
	}
	if c.ProverURL == "" {
		return fmt.Errorf("prover_url must be set")
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive")
	}
	return nil
}
