// Package policies loads the built-in policy catalog into a registry.
//
// Vendor catalogs are registered in a fixed order (aws, azure, google,
// kubernetes) so that filter results are stable across runs.
package policies

import (
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/policies/aws"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/policies/azure"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/policies/google"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/policies/kubernetes"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"
)

var vendorCatalogs = []func(*rules.Registry) error{
	aws.Register,
	azure.Register,
	google.Register,
	kubernetes.Register,
}

// RegisterAll adds every built-in policy to reg.
func RegisterAll(reg *rules.Registry) error {
	for _, register := range vendorCatalogs {
		if err := register(reg); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry loaded with the built-in catalog.
// A definition error in the catalog is a programming error and panics.
func NewRegistry() *rules.Registry {
	reg := rules.NewRegistry()
	if err := RegisterAll(reg); err != nil {
		panic(err)
	}
	return reg
}
