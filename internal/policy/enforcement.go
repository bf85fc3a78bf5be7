package policy

import (
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
)

// ShouldFail reports whether violations break the configured enforcement.
//
// It returns false when:
//   - cfg is nil (no policy loaded)
//   - violations is empty
//   - fail_on_severity is empty or unrecognised and fail_on_mandatory is false
//
// It returns true when at least one violation is at least as severe as
// fail_on_severity, or when fail_on_mandatory is set and any violation comes
// from a mandatory policy.
func ShouldFail(violations []models.Violation, cfg *PolicyConfig) bool {
	if cfg == nil {
		return false
	}
	threshold, err := models.ParseSeverity(cfg.Enforcement.FailOnSeverity)
	hasThreshold := cfg.Enforcement.FailOnSeverity != "" && err == nil
	for _, v := range violations {
		if hasThreshold && v.Severity.AtLeast(threshold) {
			return true
		}
		if cfg.Enforcement.FailOnMandatory && v.EnforcementLevel == models.EnforcementMandatory {
			return true
		}
	}
	return false
}
