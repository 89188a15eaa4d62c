package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/giantswarm/registrar/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/registrar"
	configFileName = "config.yaml"
)

// GetDefaultConfigPathOrPanic returns ~/.config/registrar.
func GetDefaultConfigPathOrPanic() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}

	return filepath.Join(homeDir, userConfigDir)
}

// ConfigFilePath returns the path of config.yaml inside configPath.
func ConfigFilePath(configPath string) string {
	return filepath.Join(configPath, configFileName)
}

// LoadConfig loads config.yaml from the given directory on top of
// DefaultConfig. A missing file is not an error.
func LoadConfig(configPath string) (Config, error) {
	configFilePath := ConfigFilePath(configPath)
	config := DefaultConfig()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("Config", "No config.yaml found at %s, using defaults", configFilePath)
			return config, nil
		}
		return Config{}, NewConfigurationError(configFilePath, ErrorTypeIO, "cannot read configuration file", err)
	}

	config, err = Parse(data)
	if err != nil {
		var ce *ConfigurationError
		if errors.As(err, &ce) {
			ce.FilePath = configFilePath
			ce.FileName = configFileName
		}
		return Config{}, err
	}

	logging.Info("Config", "Loaded configuration from %s", configFilePath)
	return config, nil
}

// Parse decodes YAML on top of DefaultConfig and validates the result.
// Unknown fields are rejected.
func Parse(data []byte) (Config, error) {
	config := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		ce := NewConfigurationError(configFileName, ErrorTypeParse, "malformed YAML", err)
		ce.Details = err.Error()
		return Config{}, ce
	}

	if err := Validate(config); err != nil {
		ce := NewConfigurationError(configFileName, ErrorTypeValidation, "invalid configuration", err)
		ce.Details = err.Error()
		ce.Suggestions = []string{"run 'registrar shell --help' to see the accepted values"}
		return Config{}, ce
	}
	return config, nil
}

// Save writes cfg to config.yaml in configPath, creating the directory.
func Save(configPath string, cfg Config) error {
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", configPath, err)
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	return os.WriteFile(ConfigFilePath(configPath), data, 0644)
}
