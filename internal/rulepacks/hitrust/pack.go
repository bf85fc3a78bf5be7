// Package hitrust provides the HITRUST CSF pack.
package hitrust

import "github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"

// New returns the HITRUST CSF pack.
func New() rules.Pack {
	return rules.Pack{
		Name:        "hitrust",
		Description: "HITRUST Common Security Framework controls.",
		Criteria:    rules.Criteria{Frameworks: []string{"hitrust"}},
	}
}
