// Package iso27001 provides the ISO/IEC 27001 pack.
package iso27001

import "github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"

// New returns the ISO/IEC 27001 pack.
func New() rules.Pack {
	return rules.Pack{
		Name:        "iso27001",
		Description: "ISO/IEC 27001 Annex A controls.",
		Criteria:    rules.Criteria{Frameworks: []string{"iso27001"}},
	}
}
