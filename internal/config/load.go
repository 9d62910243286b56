package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFilename is the default configuration filename.
const DefaultConfigFilename = "fleetstack.yaml"

// LoadFile reads, defaults and validates a configuration file.
func LoadFile(path string) (*Config, error) {
	cfg, err := LoadFileWithoutValidation(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadFileWithoutValidation reads and defaults a configuration file.
// A relative payload_file is resolved against the config file's directory.
func LoadFileWithoutValidation(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}

	if cfg.Fleet.Payload == "" && cfg.Fleet.PayloadFile != "" {
		payloadPath := cfg.Fleet.PayloadFile
		if !filepath.IsAbs(payloadPath) {
			payloadPath = filepath.Join(filepath.Dir(path), payloadPath)
		}
		// #nosec G304
		payload, err := os.ReadFile(payloadPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read payload file: %w", err)
		}
		cfg.Fleet.Payload = string(payload)
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

// LoadBytes parses, defaults and validates configuration from bytes.
func LoadBytes(data []byte) (*Config, error) {
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &cfg, nil
}

// FindConfigFile searches the working directory and its parents for
// fleetstack.yaml.
func FindConfigFile() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	dir := cwd
	for {
		path := filepath.Join(dir, DefaultConfigFilename)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("config file %s not found", DefaultConfigFilename)
}

// Save writes a configuration to a file.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
