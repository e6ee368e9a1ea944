package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// loadFile overlays the YAML document at path onto cfg. Keys absent from
// the file keep their current values.
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}
