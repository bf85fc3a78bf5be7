// Package kubernetes_eks provides the EKS control plane pack. It complements
// kubernetes_core with the AWS-side cluster configuration.
package kubernetes_eks

import "github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"

// New returns the EKS cluster policies.
func New() rules.Pack {
	return rules.Pack{
		Name:        "kubernetes_eks",
		Description: "EKS endpoint exposure, control plane logging and secrets encryption.",
		Criteria:    rules.Criteria{Services: []string{"eks"}},
	}
}
