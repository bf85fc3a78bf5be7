package policy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rulepacks"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"
)

// Validate checks cfg against the policies registered in reg and returns all
// validation errors found. An empty slice means the config is valid.
//
// Checks performed:
//   - version must be 1
//   - pack must name a built-in pack if set
//   - selection.severity must be a valid severity if set
//   - policy names must be registered or declared under custom_policies
//   - policy severity and enforcement_level overrides must be valid
//   - params must be declared by the policy's config schema and match its type;
//     custom policies accept only "enabled"
//   - enforcement.fail_on_severity must be a valid severity if set
//   - custom policies need a unique name, a known kind, services, a valid
//     severity and a Rego module
//
// All errors are collected before returning; Validate never stops at the first error.
func Validate(cfg *PolicyConfig, reg *rules.Registry) []error {
	if cfg == nil {
		return []error{fmt.Errorf("policy config is nil")}
	}
	if reg == nil {
		reg = rules.NewRegistry()
	}

	var errs []error

	if cfg.Version != 1 {
		errs = append(errs, fmt.Errorf("version: unsupported value %d; must be 1", cfg.Version))
	}

	if cfg.Pack != "" {
		if _, ok := rulepacks.Lookup(cfg.Pack); !ok {
			errs = append(errs, fmt.Errorf("pack: unknown pack %q; valid values: %s", cfg.Pack, strings.Join(rulepacks.Names(), ", ")))
		}
	}
	if s := cfg.Selection.Severity; s != "" {
		if _, err := models.ParseSeverity(string(s)); err != nil {
			errs = append(errs, fmt.Errorf("selection.severity: %w", err))
		}
	}

	custom := make(map[string]bool, len(cfg.CustomPolicies))
	for i, cp := range cfg.CustomPolicies {
		errs = append(errs, validateCustom(i, cp, reg, custom)...)
		custom[cp.Name] = true
	}

	for _, name := range sortedNames(cfg.Policies) {
		ov := cfg.Policies[name]
		rec, registered := reg.Lookup(name)
		if !registered && !custom[name] {
			errs = append(errs, fmt.Errorf("policies.%s: unknown policy", name))
		}
		if ov.Severity != "" {
			if _, err := models.ParseSeverity(ov.Severity); err != nil {
				errs = append(errs, fmt.Errorf("policies.%s.severity: %w", name, err))
			}
		}
		if ov.EnforcementLevel != "" {
			if _, err := models.ParseEnforcementLevel(ov.EnforcementLevel); err != nil {
				errs = append(errs, fmt.Errorf("policies.%s.enforcement_level: %w", name, err))
			}
		}
		switch {
		case registered:
			errs = append(errs, validateParams(name, rec.ConfigSchema, ov.Params)...)
		case custom[name]:
			// Custom policies declare no options beyond "enabled".
			errs = append(errs, validateParams(name, nil, ov.Params)...)
		}
	}

	if s := cfg.Enforcement.FailOnSeverity; s != "" {
		if _, err := models.ParseSeverity(s); err != nil {
			errs = append(errs, fmt.Errorf("enforcement.fail_on_severity: %w", err))
		}
	}

	return errs
}

func validateParams(name string, schema *rules.ConfigSchema, params map[string]any) []error {
	var errs []error
	for _, key := range sortedNames(params) {
		prop, ok := schema.Lookup(key)
		if !ok {
			errs = append(errs, fmt.Errorf("policies.%s.params.%s: unknown option; valid options: %s", name, key, strings.Join(schema.Keys(), ", ")))
			continue
		}
		if !rules.Conforms(prop.Type, params[key]) {
			errs = append(errs, fmt.Errorf("policies.%s.params.%s: expected %s, got %T", name, key, prop.Type, params[key]))
		}
	}
	return errs
}

func validateCustom(i int, cp CustomPolicy, reg *rules.Registry, seen map[string]bool) []error {
	field := fmt.Sprintf("custom_policies[%d]", i)
	if cp.Name != "" {
		field = fmt.Sprintf("custom_policies.%s", cp.Name)
	}
	var errs []error
	switch {
	case strings.TrimSpace(cp.Name) == "":
		errs = append(errs, fmt.Errorf("%s.name: required", field))
	case seen[cp.Name]:
		errs = append(errs, fmt.Errorf("%s: declared more than once", field))
	default:
		if _, exists := reg.Lookup(cp.Name); exists {
			errs = append(errs, fmt.Errorf("%s: name collides with a built-in policy", field))
		}
	}
	if kind := models.ResourceKind(cp.Kind); !kind.IsKnown() {
		errs = append(errs, fmt.Errorf("%s.kind: unknown resource kind %q", field, cp.Kind))
	}
	if len(cp.Services) == 0 {
		errs = append(errs, fmt.Errorf("%s.services: at least one service is required", field))
	}
	if _, err := models.ParseSeverity(cp.Severity); err != nil {
		errs = append(errs, fmt.Errorf("%s.severity: %w", field, err))
	}
	if cp.EnforcementLevel != "" {
		if _, err := models.ParseEnforcementLevel(cp.EnforcementLevel); err != nil {
			errs = append(errs, fmt.Errorf("%s.enforcement_level: %w", field, err))
		}
	}
	if strings.TrimSpace(cp.Rego) == "" {
		errs = append(errs, fmt.Errorf("%s.rego: required", field))
	}
	return errs
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
