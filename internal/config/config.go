// Package config loads the pcat application configuration: defaults for
// flags that would otherwise be repeated on every invocation.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
// It is loaded from ~/.config/pcat/config.yaml.
type Config struct {
	Log        LogConfig        `yaml:"log"        json:"log"`
	Output     OutputConfig     `yaml:"output"     json:"output"`
	Policy     PolicyConfig     `yaml:"policy"     json:"policy"`
	AWS        AWSConfig        `yaml:"aws"        json:"aws"`
	Kubernetes KubernetesConfig `yaml:"kubernetes" json:"kubernetes"`
	Metrics    MetricsConfig    `yaml:"metrics"    json:"metrics"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	// Level is a zerolog level name. Defaults to "warn".
	Level string `yaml:"level" json:"level"`

	// Format is "text" or "json". Defaults to "text".
	Format string `yaml:"format" json:"format"`
}

// OutputConfig sets report rendering defaults.
type OutputConfig struct {
	// Format is "table" or "json".
	Format string `yaml:"format" json:"format"`

	// Color enables ANSI severity colours in tables.
	Color bool `yaml:"color" json:"color"`
}

// PolicyConfig points at the deployer policy file used when --policy-file
// is not given.
type PolicyConfig struct {
	File string `yaml:"file" json:"file"`
}

// AWSConfig holds AWS-specific defaults used when flags are not provided.
type AWSConfig struct {
	// DefaultRegion is used when no region flag or profile region is set.
	DefaultRegion string `yaml:"default_region" json:"default_region"`

	// DefaultProfile is used when no --profile flag is provided.
	DefaultProfile string `yaml:"default_profile" json:"default_profile"`
}

// KubernetesConfig holds cluster access defaults.
type KubernetesConfig struct {
	Kubeconfig string `yaml:"kubeconfig" json:"kubeconfig"`
	Context    string `yaml:"context"    json:"context"`
}

// MetricsConfig enables the Prometheus textfile written after each run.
type MetricsConfig struct {
	Textfile string `yaml:"textfile" json:"textfile"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Log:    LogConfig{Level: "warn", Format: "text"},
		Output: OutputConfig{Format: "table"},
	}
}

// Loader is the interface for reading Config from disk.
type Loader interface {
	// Load reads and parses the configuration file.
	Load() (*Config, error)

	// ConfigPath returns the absolute path to the configuration file.
	ConfigPath() string
}

// FileLoader reads Config from a YAML file. A missing file yields Default().
type FileLoader struct {
	path string
}

// NewFileLoader returns a loader for path, or for DefaultPath when path is empty.
func NewFileLoader(path string) *FileLoader {
	if path == "" {
		path = DefaultPath()
	}
	return &FileLoader{path: path}
}

// DefaultPath returns ~/.config/pcat/config.yaml, honouring XDG_CONFIG_HOME.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".config", "pcat", "config.yaml")
	}
	return filepath.Join(dir, "pcat", "config.yaml")
}

// ConfigPath implements Loader.
func (l *FileLoader) ConfigPath() string { return l.path }

// Load implements Loader. Values present in the file replace defaults;
// unknown keys are rejected.
func (l *FileLoader) Load() (*Config, error) {
	cfg := Default()
	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", l.path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", l.path, err)
	}
	return cfg, nil
}
