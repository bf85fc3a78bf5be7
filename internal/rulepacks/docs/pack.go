// Package docs provides the "documentation" pack:
// tagging, labelling, and API hygiene policies that carry no security
// severity of their own.
package docs

import "github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"

// New returns the documentation pack.
func New() rules.Pack {
	return rules.Pack{
		Name:        "documentation",
		Description: "Ownership tags, labels and API version hygiene.",
		Criteria:    rules.Criteria{Topics: []string{"documentation"}},
	}
}
