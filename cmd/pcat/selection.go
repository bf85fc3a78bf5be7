package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/policies"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/policy"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/regocheck"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"
)

// selectionFlags are the criteria flags shared by every command that picks
// policies from the catalog.
type selectionFlags struct {
	pack       string
	vendors    []string
	services   []string
	frameworks []string
	topics     []string
	severity   string
	policyFile string
}

func (f *selectionFlags) register(cmd *cobra.Command, withPolicyFile bool) {
	cmd.Flags().StringVar(&f.pack, "pack", "", "Select the policies of a named pack (see: pcat packs list)")
	cmd.Flags().StringSliceVar(&f.vendors, "vendor", nil, "Only policies for these vendors (aws, azure, google, kubernetes)")
	cmd.Flags().StringSliceVar(&f.services, "service", nil, "Only policies for these services")
	cmd.Flags().StringSliceVar(&f.frameworks, "framework", nil, "Only policies mapped to these frameworks")
	cmd.Flags().StringSliceVar(&f.topics, "topic", nil, "Only policies tagged with these topics")
	cmd.Flags().StringVar(&f.severity, "severity", "", "Minimum severity: low, medium, high, critical")
	if withPolicyFile {
		cmd.Flags().StringVar(&f.policyFile, "policy-file", "", "Deployer policy file (default from config)")
	}
}

// policyConfig loads the deployer policy file, if any, and lays the
// selection flags over its pack and selection. Flags replace the matching
// file values; they are never merged element-wise.
func (f *selectionFlags) policyConfig(a *app) (*policy.PolicyConfig, error) {
	path := f.policyFile
	if path == "" {
		path = a.cfg.Policy.File
	}

	cfg := &policy.PolicyConfig{Version: 1, Policies: map[string]policy.PolicyOverride{}}
	if path != "" {
		loaded, err := policy.LoadPolicy(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if f.severity != "" {
		if _, err := models.ParseSeverity(f.severity); err != nil {
			return nil, err
		}
		cfg.Selection.Severity = models.Severity(f.severity)
	}
	if f.pack != "" {
		cfg.Pack = f.pack
	}
	if f.vendors != nil {
		cfg.Selection.Vendors = f.vendors
	}
	if f.services != nil {
		cfg.Selection.Services = f.services
	}
	if f.frameworks != nil {
		cfg.Selection.Frameworks = f.frameworks
	}
	if f.topics != nil {
		cfg.Selection.Topics = f.topics
	}
	return cfg, nil
}

// selectPolicies builds the registry for cfg (built-in catalog plus the
// deployer's Rego policies), validates cfg against it and returns the
// selected records.
func selectPolicies(cmd *cobra.Command, a *app, cfg *policy.PolicyConfig) ([]rules.Record, error) {
	reg := policies.NewRegistry()
	if errs := policy.Validate(cfg, reg); len(errs) > 0 {
		return nil, validationError(errs)
	}
	if err := regocheck.Register(cmd.Context(), reg, cfg.CustomPolicies); err != nil {
		return nil, err
	}

	for _, unknown := range reg.UnknownCriteria(cfg.Criteria()) {
		a.log.Warn().Str("criterion", unknown).Msg("selection value matches no registered policy")
	}
	records, err := cfg.Select(reg)
	if err != nil {
		return nil, err
	}
	a.log.Debug().Int("policies", len(records)).Str("pack", cfg.Pack).Msg("policies selected")
	return records, nil
}

func validationError(errs []error) error {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = "  - " + e.Error()
	}
	return fmt.Errorf("invalid policy configuration:\n%s", strings.Join(msgs, "\n"))
}
