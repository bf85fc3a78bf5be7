// Package aws_dataprotection provides the AWS-only view of the
// data-protection pack: EBS, RDS, S3, CloudTrail and EKS encryption.
package aws_dataprotection

import (
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"
)

// New returns the AWS data protection pack.
func New() rules.Pack {
	return rules.Pack{
		Name:        "aws_dataprotection",
		Description: "AWS encryption-at-rest and bucket exposure policies.",
		Criteria: rules.Criteria{
			Vendors: []string{models.VendorAWS},
			Topics:  []string{"encryption", "data-protection"},
		},
	}
}
