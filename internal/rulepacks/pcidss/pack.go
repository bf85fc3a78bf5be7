// Package pcidss provides the PCI DSS pack.
package pcidss

import "github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"

// New returns the policies mapped to PCI DSS controls across every vendor.
func New() rules.Pack {
	return rules.Pack{
		Name:        "pcidss",
		Description: "Payment Card Industry Data Security Standard controls.",
		Criteria:    rules.Criteria{Frameworks: []string{"pcidss"}},
	}
}
