// Package aws holds the AWS policy catalog. Every check is typed on the
// aws-sdk-go-v2 shape (or a models composite of SDK shapes) that the
// inventory collector produces for its kind.
package aws

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"
)

// Policies returns the AWS catalog in registration order.
func Policies() []rules.Record {
	var out []rules.Record
	out = append(out, ec2Policies()...)
	out = append(out, storagePolicies()...)
	out = append(out, identityPolicies()...)
	out = append(out, auditPolicies()...)
	return out
}

// Register adds every AWS policy to reg, stopping at the first error.
func Register(reg *rules.Registry) error {
	for _, p := range Policies() {
		if _, err := reg.Register(p.Metadata, p.Check); err != nil {
			return fmt.Errorf("register aws policies: %w", err)
		}
	}
	return nil
}
