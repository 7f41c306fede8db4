package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// LoadFile overlays the YAML file at path onto cfg.
// Keys absent from the file keep the values already in cfg; unknown keys are rejected.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &ConfigError{Field: "CONFIG_FILE", Message: fmt.Sprintf("cannot read %s: %v", path, err)}
	}

	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return &ConfigError{Field: "CONFIG_FILE", Message: fmt.Sprintf("invalid YAML in %s: %v", path, err)}
	}
	return nil
}
