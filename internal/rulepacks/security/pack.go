// Package security provides the cross-vendor security pack: every policy
// rated critical, regardless of vendor or framework.
package security

import (
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"
)

// New returns the critical-severity pack.
func New() rules.Pack {
	return rules.Pack{
		Name:        "security",
		Description: "Critical-severity policies across every vendor.",
		Criteria:    rules.Criteria{Severity: models.SeverityCritical},
	}
}
