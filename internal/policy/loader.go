package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadPolicy reads and parses the policy file at path.
func LoadPolicy(path string) (*PolicyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a policy document. Unknown top-level keys are rejected so a
// misspelled section does not silently disable enforcement.
func Parse(data []byte) (*PolicyConfig, error) {
	var cfg PolicyConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	for key := range raw {
		if !knownSections[key] {
			return nil, fmt.Errorf("unknown section %q", key)
		}
	}

	if cfg.Version != 1 {
		return nil, fmt.Errorf("unsupported policy version %d", cfg.Version)
	}

	if cfg.Policies == nil {
		cfg.Policies = make(map[string]PolicyOverride)
	}

	return &cfg, nil
}

var knownSections = map[string]bool{
	"version":         true,
	"pack":            true,
	"selection":       true,
	"policies":        true,
	"enforcement":     true,
	"custom_policies": true,
}
