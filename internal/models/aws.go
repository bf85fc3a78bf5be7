package models

import (
	elbv2types "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"
	guarddutytypes "github.com/aws/aws-sdk-go-v2/service/guardduty/types"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ---------------------------------------------------------------------------
// AWS composite shapes
//
// Most AWS kinds are checked directly on the SDK type returned by a single
// Describe call. The shapes below exist because the configuration a check
// needs is spread across several API calls; each field keeps the SDK type
// the API returns so collectors can assign results without conversion.
// ---------------------------------------------------------------------------

// S3Bucket is the configuration of one S3 bucket.
// Nil pointer fields mean the corresponding configuration does not exist
// (e.g. GetPublicAccessBlock returned NoSuchPublicAccessBlockConfiguration).
type S3Bucket struct {
	Name              string                                     `json:"name"`
	Region            string                                     `json:"region,omitempty"`
	PublicAccessBlock *s3types.PublicAccessBlockConfiguration    `json:"public_access_block,omitempty"`
	Encryption        *s3types.ServerSideEncryptionConfiguration `json:"encryption,omitempty"`
	Versioning        s3types.BucketVersioningStatus             `json:"versioning,omitempty"`
	Logging           *s3types.LoggingEnabled                    `json:"logging,omitempty"`
}

// IAMUser is an IAM user together with its credentials and attachments.
// HasLoginProfile is true when the user has a console password.
type IAMUser struct {
	User             iamtypes.User                `json:"user"`
	HasLoginProfile  bool                         `json:"has_login_profile"`
	MFADevices       []iamtypes.MFADevice         `json:"mfa_devices,omitempty"`
	AccessKeys       []iamtypes.AccessKeyMetadata `json:"access_keys,omitempty"`
	AttachedPolicies []iamtypes.AttachedPolicy    `json:"attached_policies,omitempty"`
}

// RootAccount is the root-user credential state of an account, read from the
// IAM account summary.
type RootAccount struct {
	AccountID     string `json:"account_id"`
	HasAccessKeys bool   `json:"has_access_keys"`
	MFAEnabled    bool   `json:"mfa_enabled"`
}

// LoadBalancer is an ELBv2 load balancer with its listeners.
type LoadBalancer struct {
	LoadBalancer elbv2types.LoadBalancer `json:"load_balancer"`
	Listeners    []elbv2types.Listener   `json:"listeners,omitempty"`
}

// GuardDutyDetector is the GuardDuty state of one region. DetectorID is empty
// when no detector exists in the region.
type GuardDutyDetector struct {
	Region     string                        `json:"region"`
	DetectorID string                        `json:"detector_id,omitempty"`
	Status     guarddutytypes.DetectorStatus `json:"status,omitempty"`
}
