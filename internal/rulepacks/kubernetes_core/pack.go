// Package kubernetes_core provides the cloud-agnostic Kubernetes pack. Its
// policies apply to any cluster regardless of the underlying cloud.
package kubernetes_core

import (
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"
)

// New returns every Kubernetes policy.
func New() rules.Pack {
	return rules.Pack{
		Name:        "kubernetes_core",
		Description: "Workload, RBAC and namespace governance for any Kubernetes cluster.",
		Criteria:    rules.Criteria{Vendors: []string{models.VendorKubernetes}},
	}
}
