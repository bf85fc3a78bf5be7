// Package cis provides the CIS Benchmarks pack.
package cis

import "github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"

// New returns the CIS Benchmarks pack.
func New() rules.Pack {
	return rules.Pack{
		Name:        "cis",
		Description: "CIS Benchmark recommendations for AWS, Azure, Google Cloud and Kubernetes.",
		Criteria:    rules.Criteria{Frameworks: []string{"cis"}},
	}
}
