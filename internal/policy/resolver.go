package policy

import (
	"fmt"
	"strings"
	"time"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rulepacks"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"
)

// Criteria returns the selection block as registry criteria with the
// severity normalised to lower case. It is safe to call with a nil receiver.
func (c *PolicyConfig) Criteria() rules.Criteria {
	if c == nil {
		return rules.Criteria{}
	}
	crit := c.Selection
	crit.Severity = models.Severity(strings.ToLower(strings.TrimSpace(string(crit.Severity))))
	return crit
}

// Select returns the records of reg chosen by the configured pack and
// selection, in registration order. With neither set every record is chosen.
func (c *PolicyConfig) Select(reg *rules.Registry) ([]rules.Record, error) {
	if c == nil || c.Pack == "" {
		return reg.Filter(c.Criteria()), nil
	}
	pack, ok := rulepacks.Lookup(c.Pack)
	if !ok {
		return nil, fmt.Errorf("unknown pack %q", c.Pack)
	}
	sel := c.Criteria()
	var out []rules.Record
	for _, rec := range pack.Select(reg) {
		if sel.Matches(rec.Metadata) {
			out = append(out, rec)
		}
	}
	if out == nil {
		out = []rules.Record{}
	}
	return out, nil
}

// EvalArgs builds the run-time arguments for rec: schema defaults with the
// deployer's params and "enabled" override merged on top.
func (c *PolicyConfig) EvalArgs(rec rules.Record, now time.Time) rules.EvalArgs {
	return rules.ResolveArgs(rec.ConfigSchema, overrides(rec.Name, c), now)
}

// EnforcementFor returns the effective enforcement level of rec after the
// deployer's override.
func (c *PolicyConfig) EnforcementFor(rec rules.Record) models.EnforcementLevel {
	if c != nil {
		if ov, ok := c.Policies[rec.Name]; ok && ov.EnforcementLevel != "" {
			if l, err := models.ParseEnforcementLevel(ov.EnforcementLevel); err == nil {
				return l
			}
		}
	}
	return rec.EnforcementLevel
}

// ApplyOverrides rewrites the severity and enforcement level of violations
// whose policy has an override, and drops violations of policies the
// deployer disabled. It returns a new slice.
func ApplyOverrides(violations []models.Violation, cfg *PolicyConfig) []models.Violation {
	if cfg == nil {
		return violations
	}

	result := make([]models.Violation, 0, len(violations))
	for _, v := range violations {
		ov, ok := cfg.Policies[v.PolicyName]
		if !ok {
			result = append(result, v)
			continue
		}
		if ov.Enabled != nil && !*ov.Enabled {
			continue
		}
		if ov.Severity != "" {
			if s, err := models.ParseSeverity(ov.Severity); err == nil {
				v.Severity = s
			}
		}
		if ov.EnforcementLevel != "" {
			if l, err := models.ParseEnforcementLevel(ov.EnforcementLevel); err == nil {
				if l == models.EnforcementDisabled {
					continue
				}
				v.EnforcementLevel = l
			}
		}
		result = append(result, v)
	}
	return result
}
