package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewFileLoader(filepath.Join(t.TempDir(), "absent.yaml")).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "warn" || cfg.Output.Format != "table" {
		t.Errorf("expected defaults; got %+v", cfg)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
log:
  format: json
output:
  color: true
policy:
  file: /etc/pcat/policy.yaml
aws:
  default_profile: audit
kubernetes:
  context: prod
metrics:
  textfile: /var/lib/node_exporter/pcat.prom
`)
	cfg, err := NewFileLoader(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("unset level must keep default; got %q", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" || !cfg.Output.Color || cfg.Policy.File != "/etc/pcat/policy.yaml" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.AWS.DefaultProfile != "audit" || cfg.Kubernetes.Context != "prod" || cfg.Metrics.Textfile == "" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := NewFileLoader(writeConfig(t, "")).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Output.Format != "table" {
		t.Errorf("expected defaults; got %+v", cfg)
	}
}

func TestLoad_UnknownKey(t *testing.T) {
	if _, err := NewFileLoader(writeConfig(t, "llm:\n  provider: openai\n")).Load(); err == nil {
		t.Error("expected error for unknown section")
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	t.Setenv("HOME", "/tmp/home")
	if got := DefaultPath(); got != "/tmp/xdg/pcat/config.yaml" {
		t.Errorf("DefaultPath() = %q", got)
	}
}
