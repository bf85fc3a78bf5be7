// Package dataprotection provides the cross-vendor data-protection pack:
// encryption at rest and in transit, and public exposure of stored data.
package dataprotection

import "github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"

// New returns every policy tagged with the encryption or data-protection topic.
func New() rules.Pack {
	return rules.Pack{
		Name:        "dataprotection",
		Description: "Encryption and storage exposure policies for every vendor.",
		Criteria:    rules.Criteria{Topics: []string{"encryption", "data-protection"}},
	}
}
