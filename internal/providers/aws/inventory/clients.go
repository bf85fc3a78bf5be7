package inventory

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	cloudtrailsvc "github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	configsvc "github.com/aws/aws-sdk-go-v2/service/configservice"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	ekssvc "github.com/aws/aws-sdk-go-v2/service/eks"
	elbv2svc "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	guarddutysvc "github.com/aws/aws-sdk-go-v2/service/guardduty"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"
	rdssvc "github.com/aws/aws-sdk-go-v2/service/rds"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
)

// ec2APIClient covers instances, volumes and security groups. It embeds the
// SDK paginator clients so the SDK paginators can be used directly.
type ec2APIClient interface {
	ec2svc.DescribeInstancesAPIClient
	ec2svc.DescribeVolumesAPIClient
	ec2svc.DescribeSecurityGroupsAPIClient
}

// s3APIClient covers bucket listing and the per-bucket configuration calls.
type s3APIClient interface {
	ListBuckets(ctx context.Context, params *s3svc.ListBucketsInput, optFns ...func(*s3svc.Options)) (*s3svc.ListBucketsOutput, error)
	GetPublicAccessBlock(ctx context.Context, params *s3svc.GetPublicAccessBlockInput, optFns ...func(*s3svc.Options)) (*s3svc.GetPublicAccessBlockOutput, error)
	GetBucketEncryption(ctx context.Context, params *s3svc.GetBucketEncryptionInput, optFns ...func(*s3svc.Options)) (*s3svc.GetBucketEncryptionOutput, error)
	GetBucketVersioning(ctx context.Context, params *s3svc.GetBucketVersioningInput, optFns ...func(*s3svc.Options)) (*s3svc.GetBucketVersioningOutput, error)
	GetBucketLogging(ctx context.Context, params *s3svc.GetBucketLoggingInput, optFns ...func(*s3svc.Options)) (*s3svc.GetBucketLoggingOutput, error)
}

type rdsAPIClient interface {
	rdssvc.DescribeDBInstancesAPIClient
}

// iamAPIClient covers users and the credentials attached to them.
type iamAPIClient interface {
	iamsvc.ListUsersAPIClient
	ListMFADevices(ctx context.Context, params *iamsvc.ListMFADevicesInput, optFns ...func(*iamsvc.Options)) (*iamsvc.ListMFADevicesOutput, error)
	GetLoginProfile(ctx context.Context, params *iamsvc.GetLoginProfileInput, optFns ...func(*iamsvc.Options)) (*iamsvc.GetLoginProfileOutput, error)
	ListAccessKeys(ctx context.Context, params *iamsvc.ListAccessKeysInput, optFns ...func(*iamsvc.Options)) (*iamsvc.ListAccessKeysOutput, error)
	ListAttachedUserPolicies(ctx context.Context, params *iamsvc.ListAttachedUserPoliciesInput, optFns ...func(*iamsvc.Options)) (*iamsvc.ListAttachedUserPoliciesOutput, error)
	GetAccountSummary(ctx context.Context, params *iamsvc.GetAccountSummaryInput, optFns ...func(*iamsvc.Options)) (*iamsvc.GetAccountSummaryOutput, error)
}

type elbv2APIClient interface {
	elbv2svc.DescribeLoadBalancersAPIClient
	DescribeListeners(ctx context.Context, params *elbv2svc.DescribeListenersInput, optFns ...func(*elbv2svc.Options)) (*elbv2svc.DescribeListenersOutput, error)
}

type cloudTrailAPIClient interface {
	DescribeTrails(ctx context.Context, params *cloudtrailsvc.DescribeTrailsInput, optFns ...func(*cloudtrailsvc.Options)) (*cloudtrailsvc.DescribeTrailsOutput, error)
}

type eksAPIClient interface {
	ekssvc.ListClustersAPIClient
	DescribeCluster(ctx context.Context, params *ekssvc.DescribeClusterInput, optFns ...func(*ekssvc.Options)) (*ekssvc.DescribeClusterOutput, error)
}

type guardDutyAPIClient interface {
	ListDetectors(ctx context.Context, params *guarddutysvc.ListDetectorsInput, optFns ...func(*guarddutysvc.Options)) (*guarddutysvc.ListDetectorsOutput, error)
	GetDetector(ctx context.Context, params *guarddutysvc.GetDetectorInput, optFns ...func(*guarddutysvc.Options)) (*guarddutysvc.GetDetectorOutput, error)
}

type configAPIClient interface {
	DescribeConfigurationRecorderStatus(ctx context.Context, params *configsvc.DescribeConfigurationRecorderStatusInput, optFns ...func(*configsvc.Options)) (*configsvc.DescribeConfigurationRecorderStatusOutput, error)
}

// clients bundles the service clients of one region.
type clients struct {
	EC2        ec2APIClient
	S3         s3APIClient
	RDS        rdsAPIClient
	IAM        iamAPIClient
	ELBv2      elbv2APIClient
	CloudTrail cloudTrailAPIClient
	EKS        eksAPIClient
	GuardDuty  guardDutyAPIClient
	Config     configAPIClient
}

// clientFactory creates region-scoped clients. Tests replace it with one
// returning fakes.
type clientFactory func(cfg aws.Config) *clients

func newDefaultClients(cfg aws.Config) *clients {
	return &clients{
		EC2:        ec2svc.NewFromConfig(cfg),
		S3:         s3svc.NewFromConfig(cfg),
		RDS:        rdssvc.NewFromConfig(cfg),
		IAM:        iamsvc.NewFromConfig(cfg),
		ELBv2:      elbv2svc.NewFromConfig(cfg),
		CloudTrail: cloudtrailsvc.NewFromConfig(cfg),
		EKS:        ekssvc.NewFromConfig(cfg),
		GuardDuty:  guarddutysvc.NewFromConfig(cfg),
		Config:     configsvc.NewFromConfig(cfg),
	}
}
