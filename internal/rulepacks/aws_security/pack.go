// Package aws_security provides the AWS security baseline pack: every AWS
// policy rated high or critical.
//
// Convention: every pack lives in internal/rulepacks/<name>/pack.go and
// exposes a single New() func returning a rules.Pack.
package aws_security

import (
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"
)

// New returns the AWS security baseline pack.
func New() rules.Pack {
	return rules.Pack{
		Name:        "aws_security",
		Description: "High and critical AWS security policies.",
		Criteria: rules.Criteria{
			Vendors:  []string{models.VendorAWS},
			Severity: models.SeverityHigh,
		},
	}
}
