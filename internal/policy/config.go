// Package policy loads and applies the deployer's policy file: which pack and
// selection to evaluate, per-policy overrides and parameters, enforcement
// thresholds, and deployer-authored Rego policies.
package policy

import "github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"

// PolicyConfig is the parsed policy file.
type PolicyConfig struct {
	Version int `yaml:"version"`

	// Pack names a built-in pack to evaluate. Selection narrows it further;
	// with no pack, Selection alone picks the policies.
	Pack      string         `yaml:"pack,omitempty"`
	Selection rules.Criteria `yaml:"selection,omitempty"`

	Policies       map[string]PolicyOverride `yaml:"policies,omitempty"`
	Enforcement    EnforcementConfig         `yaml:"enforcement,omitempty"`
	CustomPolicies []CustomPolicy            `yaml:"custom_policies,omitempty"`
}

// PolicyOverride tunes one policy without editing it.
type PolicyOverride struct {
	Enabled          *bool          `yaml:"enabled,omitempty"`
	EnforcementLevel string         `yaml:"enforcement_level,omitempty"`
	Severity         string         `yaml:"severity,omitempty"`
	Params           map[string]any `yaml:"params,omitempty"`
}

// EnforcementConfig decides when a run fails.
type EnforcementConfig struct {
	// FailOnSeverity fails the run when any violation is at least this severe.
	FailOnSeverity string `yaml:"fail_on_severity,omitempty"`
	// FailOnMandatory fails the run on any violation of a mandatory policy.
	FailOnMandatory bool `yaml:"fail_on_mandatory,omitempty"`
}

// CustomPolicy is a deployer-authored policy whose check is a Rego module.
// Query defaults to "data.<package>.deny" of the module.
type CustomPolicy struct {
	Name             string   `yaml:"name"`
	Description      string   `yaml:"description,omitempty"`
	Kind             string   `yaml:"kind"`
	Vendors          []string `yaml:"vendors,omitempty"`
	Services         []string `yaml:"services"`
	Severity         string   `yaml:"severity"`
	Topics           []string `yaml:"topics,omitempty"`
	Frameworks       []string `yaml:"frameworks,omitempty"`
	EnforcementLevel string   `yaml:"enforcement_level,omitempty"`
	Query            string   `yaml:"query,omitempty"`
	Rego             string   `yaml:"rego"`
}
