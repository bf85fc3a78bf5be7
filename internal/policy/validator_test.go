package policy_test

import (
	"strings"
	"testing"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/policy"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"
)

type noopCheck struct{}

func (noopCheck) Kind() models.ResourceKind                      { return models.KindAWSS3Bucket }
func (noopCheck) Validate(any, rules.EvalArgs, rules.ReportFunc) {}

// knownRegistry is a fixed policy set used by all validator tests.
func knownRegistry(t *testing.T) *rules.Registry {
	t.Helper()
	reg := rules.NewRegistry()
	for _, name := range []string{"policy-a", "policy-b"} {
		reg.MustRegister(rules.Metadata{
			Name:     name,
			Vendors:  []string{"aws"},
			Services: []string{"s3"},
			Severity: models.SeverityMedium,
			ConfigSchema: &rules.ConfigSchema{Properties: map[string]rules.ConfigProperty{
				"max_age_days": {Type: rules.TypeInteger, Default: 90},
				"tags":         {Type: rules.TypeArray},
			}},
		}, noopCheck{})
	}
	return reg
}

func boolPtr(b bool) *bool { return &b }

func validCustom() policy.CustomPolicy {
	return policy.CustomPolicy{
		Name:     "org-bucket-prefix",
		Kind:     "aws:s3/bucket",
		Services: []string{"s3"},
		Severity: "low",
		Rego:     "package org\n",
	}
}

// assertErrorContains fails unless exactly one error mentions want.
func assertErrorContains(t *testing.T, errs []error, want string) {
	t.Helper()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error; got %d: %v", len(errs), errs)
	}
	if !strings.Contains(errs[0].Error(), want) {
		t.Errorf("expected error mentioning %q; got %q", want, errs[0])
	}
}

// ── happy path ──────────────────────────────────────────────────────────────

func TestValidate_ValidMinimalConfig(t *testing.T) {
	cfg := &policy.PolicyConfig{Version: 1}
	if errs := policy.Validate(cfg, knownRegistry(t)); len(errs) != 0 {
		t.Errorf("expected no errors; got %d: %v", len(errs), errs)
	}
}

func TestValidate_ValidFullConfig(t *testing.T) {
	cfg := &policy.PolicyConfig{
		Version:   1,
		Pack:      "aws_security",
		Selection: rules.Criteria{Severity: "HIGH"},
		Policies: map[string]policy.PolicyOverride{
			"policy-a":          {Enabled: boolPtr(false)},
			"policy-b":          {Severity: "critical", EnforcementLevel: "Mandatory", Params: map[string]any{"max_age_days": 30, "tags": []any{"Owner"}}},
			"org-bucket-prefix": {Severity: "high"},
		},
		Enforcement:    policy.EnforcementConfig{FailOnSeverity: "HIGH", FailOnMandatory: true},
		CustomPolicies: []policy.CustomPolicy{validCustom()},
	}
	if errs := policy.Validate(cfg, knownRegistry(t)); len(errs) != 0 {
		t.Errorf("expected no errors; got %d: %v", len(errs), errs)
	}
}

// ── single errors ───────────────────────────────────────────────────────────

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  policy.PolicyConfig
		want string
	}{
		{"version", policy.PolicyConfig{Version: 3}, "version"},
		{"pack", policy.PolicyConfig{Version: 1, Pack: "pci"}, `unknown pack "pci"`},
		{"selection severity", policy.PolicyConfig{Version: 1, Selection: rules.Criteria{Severity: "urgent"}}, "selection.severity"},
		{"unknown policy", policy.PolicyConfig{Version: 1, Policies: map[string]policy.PolicyOverride{"policy-z": {}}}, "policies.policy-z: unknown policy"},
		{"severity", policy.PolicyConfig{Version: 1, Policies: map[string]policy.PolicyOverride{"policy-a": {Severity: "urgent"}}}, "policies.policy-a.severity"},
		{"enforcement level", policy.PolicyConfig{Version: 1, Policies: map[string]policy.PolicyOverride{"policy-a": {EnforcementLevel: "strict"}}}, "policies.policy-a.enforcement_level"},
		{"unknown param", policy.PolicyConfig{Version: 1, Policies: map[string]policy.PolicyOverride{"policy-a": {Params: map[string]any{"max_age": 1}}}}, "params.max_age: unknown option"},
		{"param type", policy.PolicyConfig{Version: 1, Policies: map[string]policy.PolicyOverride{"policy-a": {Params: map[string]any{"max_age_days": "ninety"}}}}, "expected integer"},
		{"fail_on_severity", policy.PolicyConfig{Version: 1, Enforcement: policy.EnforcementConfig{FailOnSeverity: "urgent"}}, "enforcement.fail_on_severity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertErrorContains(t, policy.Validate(&tt.cfg, knownRegistry(t)), tt.want)
		})
	}
}

func TestValidate_CustomPolicyErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*policy.CustomPolicy)
		want   string
	}{
		{"name", func(c *policy.CustomPolicy) { c.Name = " " }, ".name: required"},
		{"builtin collision", func(c *policy.CustomPolicy) { c.Name = "policy-a" }, "collides with a built-in policy"},
		{"kind", func(c *policy.CustomPolicy) { c.Kind = "aws:lambda/function" }, "unknown resource kind"},
		{"services", func(c *policy.CustomPolicy) { c.Services = nil }, "at least one service"},
		{"severity", func(c *policy.CustomPolicy) { c.Severity = "" }, ".severity"},
		{"enforcement", func(c *policy.CustomPolicy) { c.EnforcementLevel = "always" }, ".enforcement_level"},
		{"rego", func(c *policy.CustomPolicy) { c.Rego = "" }, ".rego: required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cp := validCustom()
			tt.mutate(&cp)
			cfg := &policy.PolicyConfig{Version: 1, CustomPolicies: []policy.CustomPolicy{cp}}
			assertErrorContains(t, policy.Validate(cfg, knownRegistry(t)), tt.want)
		})
	}
}

func TestValidate_DuplicateCustomPolicy(t *testing.T) {
	cfg := &policy.PolicyConfig{Version: 1, CustomPolicies: []policy.CustomPolicy{validCustom(), validCustom()}}
	assertErrorContains(t, policy.Validate(cfg, knownRegistry(t)), "declared more than once")
}

func TestValidate_CustomPolicyParams(t *testing.T) {
	cfg := &policy.PolicyConfig{
		Version:        1,
		Policies:       map[string]policy.PolicyOverride{"org-bucket-prefix": {Params: map[string]any{"anything": 5}}},
		CustomPolicies: []policy.CustomPolicy{validCustom()},
	}
	assertErrorContains(t, policy.Validate(cfg, knownRegistry(t)), "policies.org-bucket-prefix.params.anything: unknown option")

	cfg.Policies["org-bucket-prefix"] = policy.PolicyOverride{Params: map[string]any{"enabled": false}}
	if errs := policy.Validate(cfg, knownRegistry(t)); len(errs) != 0 {
		t.Errorf("expected enabled to be accepted; got %v", errs)
	}
}

// ── collection ──────────────────────────────────────────────────────────────

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &policy.PolicyConfig{
		Version: 2,
		Pack:    "nope",
		Policies: map[string]policy.PolicyOverride{
			"policy-a": {Severity: "bad"},
			"policy-z": {},
		},
		Enforcement: policy.EnforcementConfig{FailOnSeverity: "bad"},
	}
	if errs := policy.Validate(cfg, knownRegistry(t)); len(errs) != 5 {
		t.Errorf("expected 5 errors; got %d: %v", len(errs), errs)
	}
}

func TestValidate_NilConfig(t *testing.T) {
	if errs := policy.Validate(nil, knownRegistry(t)); len(errs) != 1 {
		t.Errorf("expected 1 error for nil config; got %v", errs)
	}
}
