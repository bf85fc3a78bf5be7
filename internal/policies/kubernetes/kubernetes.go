// Package kubernetes holds the Kubernetes policy catalog. Checks are typed on
// the k8s.io/api objects; the stable-API check accepts any runtime.Object.
package kubernetes

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"
)

// Policies returns the Kubernetes catalog in registration order.
func Policies() []rules.Record {
	return append(workloadPolicies(), clusterPolicies()...)
}

// Register adds every Kubernetes policy to reg, stopping at the first error.
func Register(reg *rules.Registry) error {
	for _, p := range Policies() {
		if _, err := reg.Register(p.Metadata, p.Check); err != nil {
			return fmt.Errorf("register kubernetes policies: %w", err)
		}
	}
	return nil
}
