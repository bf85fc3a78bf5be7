package policy

import (
	"os"
	"path/filepath"
	"testing"
)

func writePolicy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pcat.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPolicy_Success(t *testing.T) {
	path := writePolicy(t, `
version: 1
pack: aws_security
selection:
  services: [s3, rds]
  severity: high
policies:
  aws-rds-backup-retention:
    params:
      min_retention_days: 14
  aws-ec2-detailed-monitoring:
    enabled: false
    severity: HIGH
enforcement:
  fail_on_severity: critical
  fail_on_mandatory: true
custom_policies:
  - name: org-s3-bucket-prefix
    kind: aws:s3/bucket
    services: [s3]
    severity: low
    rego: |
      package org.s3
      deny contains msg if { msg := "x" }
`)

	cfg, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Version != 1 {
		t.Fatalf("expected version 1")
	}
	if cfg.Pack != "aws_security" {
		t.Errorf("expected pack aws_security; got %q", cfg.Pack)
	}
	if len(cfg.Selection.Services) != 2 || cfg.Selection.Severity != "high" {
		t.Errorf("unexpected selection: %+v", cfg.Selection)
	}

	ov := cfg.Policies["aws-ec2-detailed-monitoring"]
	if ov.Enabled == nil || *ov.Enabled {
		t.Fatalf("expected aws-ec2-detailed-monitoring enabled=false")
	}
	if ov.Severity != "HIGH" {
		t.Fatalf("expected severity HIGH")
	}

	v, ok := GetParam("aws-rds-backup-retention", "min_retention_days", cfg)
	if !ok || v != 14 {
		t.Errorf("expected min_retention_days=14; got %v (%v)", v, ok)
	}

	if !cfg.Enforcement.FailOnMandatory || cfg.Enforcement.FailOnSeverity != "critical" {
		t.Errorf("unexpected enforcement: %+v", cfg.Enforcement)
	}
	if len(cfg.CustomPolicies) != 1 || cfg.CustomPolicies[0].Kind != "aws:s3/bucket" {
		t.Errorf("unexpected custom policies: %+v", cfg.CustomPolicies)
	}
}

func TestLoadPolicy_InvalidVersion(t *testing.T) {
	path := writePolicy(t, "version: 2\n")

	if _, err := LoadPolicy(path); err == nil {
		t.Fatalf("expected error for invalid version")
	}
}

func TestLoadPolicy_UnknownSection(t *testing.T) {
	path := writePolicy(t, "version: 1\nrules:\n  X: {}\n")

	if _, err := LoadPolicy(path); err == nil {
		t.Fatalf("expected error for unknown section")
	}
}

func TestLoadPolicy_MissingFile(t *testing.T) {
	if _, err := LoadPolicy(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestParse_InitialisesPolicies(t *testing.T) {
	cfg, err := Parse([]byte("version: 1\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Policies == nil {
		t.Fatalf("expected Policies map to be initialised")
	}
}
