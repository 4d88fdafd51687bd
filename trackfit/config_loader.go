package trackfit

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads the configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Fields absent from the file keep their defaults.
	config := Config{Field: DefaultBuilderConfig().Field}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	// Validate required fields
	if config.SeedCollection == "" {
		return nil, fmt.Errorf("seedCollection is required")
	}
	if _, err := ParseSeedSource(config.SeedCollection); err != nil {
		return nil, fmt.Errorf("seedCollection: %w", err)
	}
	if w := config.CosmicFitLayers; w != nil && w.End <= w.Start {
		return nil, fmt.Errorf("cosmicFitLayers: end %d must be greater than start %d", w.End, w.Start)
	}
	if config.Workers < 0 {
		return nil, fmt.Errorf("workers must not be negative")
	}

	return &config, nil
}

// ValidateService checks the settings only the long-running service needs.
func (c *Config) ValidateService() error {
	if c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required")
	}
	if c.MQTT.EventTopic == "" {
		return fmt.Errorf("mqtt.eventTopic is required")
	}
	return nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
