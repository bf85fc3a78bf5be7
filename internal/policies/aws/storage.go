package aws

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"
)

func storagePolicies() []rules.Record {
	return []rules.Record{
		{
			Metadata: rules.Metadata{
				Name:             "aws-s3-public-access-blocked",
				Description:      "S3 buckets must enable all four public access block settings.",
				EnforcementLevel: models.EnforcementMandatory,
				Vendors:          []string{models.VendorAWS},
				Services:         []string{"s3"},
				Severity:         models.SeverityCritical,
				Topics:           []string{"network", "data-protection"},
				Frameworks:       []string{"pcidss", "hitrust", "cis", "iso27001"},
			},
			Check: rules.ValidateResourceOfType(models.KindAWSS3Bucket, checkBucketPublicAccess),
		},
		{
			Metadata: rules.Metadata{
				Name:             "aws-s3-default-encryption",
				Description:      "S3 buckets must have default server-side encryption configured.",
				EnforcementLevel: models.EnforcementMandatory,
				Vendors:          []string{models.VendorAWS},
				Services:         []string{"s3"},
				Severity:         models.SeverityHigh,
				Topics:           []string{"encryption"},
				Frameworks:       []string{"pcidss", "hitrust"},
				ConfigSchema: &rules.ConfigSchema{Properties: map[string]rules.ConfigProperty{
					"require_kms": {Type: rules.TypeBoolean, Default: false, Description: "Require SSE-KMS instead of accepting SSE-S3."},
				}},
			},
			Check: rules.ValidateResourceOfType(models.KindAWSS3Bucket, checkBucketEncryption),
		},
		{
			Metadata: rules.Metadata{
				Name:        "aws-s3-versioning-enabled",
				Description: "S3 buckets should have versioning enabled to protect against accidental deletion.",
				Vendors:     []string{models.VendorAWS},
				Services:    []string{"s3"},
				Severity:    models.SeverityMedium,
				Topics:      []string{"data-protection", "availability"},
				Frameworks:  []string{"hitrust", "iso27001"},
			},
			Check: rules.ValidateResourceOfType(models.KindAWSS3Bucket, checkBucketVersioning),
		},
		{
			Metadata: rules.Metadata{
				Name:        "aws-s3-access-logging",
				Description: "S3 buckets should record server access logs.",
				Vendors:     []string{models.VendorAWS},
				Services:    []string{"s3"},
				Severity:    models.SeverityLow,
				Topics:      []string{"logging"},
				Frameworks:  []string{"pcidss", "cis"},
			},
			Check: rules.ValidateResourceOfType(models.KindAWSS3Bucket, checkBucketLogging),
		},
		{
			Metadata: rules.Metadata{
				Name:             "aws-rds-storage-encrypted",
				Description:      "RDS instances must encrypt their storage.",
				EnforcementLevel: models.EnforcementMandatory,
				Vendors:          []string{models.VendorAWS},
				Services:         []string{"rds"},
				Severity:         models.SeverityHigh,
				Topics:           []string{"encryption"},
				Frameworks:       []string{"pcidss", "hitrust", "cis"},
			},
			Check: rules.ValidateResourceOfType(models.KindAWSRDSInstance, checkRDSEncrypted),
		},
		{
			Metadata: rules.Metadata{
				Name:             "aws-rds-not-public",
				Description:      "RDS instances must not be publicly accessible.",
				EnforcementLevel: models.EnforcementMandatory,
				Vendors:          []string{models.VendorAWS},
				Services:         []string{"rds"},
				Severity:         models.SeverityCritical,
				Topics:           []string{"network"},
				Frameworks:       []string{"pcidss", "cis", "hitrust"},
			},
			Check: rules.ValidateResourceOfType(models.KindAWSRDSInstance, checkRDSPublic),
		},
		{
			Metadata: rules.Metadata{
				Name:        "aws-rds-backup-retention",
				Description: "RDS instances must retain automated backups for the configured number of days.",
				Vendors:     []string{models.VendorAWS},
				Services:    []string{"rds"},
				Severity:    models.SeverityMedium,
				Topics:      []string{"availability"},
				Frameworks:  []string{"hitrust", "iso27001"},
				ConfigSchema: &rules.ConfigSchema{Properties: map[string]rules.ConfigProperty{
					"min_retention_days": {Type: rules.TypeInteger, Default: 7, Description: "Minimum BackupRetentionPeriod in days."},
				}},
			},
			Check: rules.ValidateResourceOfType(models.KindAWSRDSInstance, checkRDSBackupRetention),
		},
		{
			Metadata: rules.Metadata{
				Name:        "aws-rds-deletion-protection",
				Description: "RDS instances should have deletion protection enabled.",
				Vendors:     []string{models.VendorAWS},
				Services:    []string{"rds"},
				Severity:    models.SeverityMedium,
				Topics:      []string{"availability"},
				Frameworks:  []string{"iso27001"},
			},
			Check: rules.ValidateResourceOfType(models.KindAWSRDSInstance, checkRDSDeletionProtection),
		},
		{
			Metadata: rules.Metadata{
				Name:        "aws-rds-multi-az",
				Description: "RDS instances should be deployed across multiple availability zones.",
				Vendors:     []string{models.VendorAWS},
				Services:    []string{"rds"},
				Severity:    models.SeverityLow,
				Topics:      []string{"availability"},
				Frameworks:  []string{"hitrust"},
			},
			Check: rules.ValidateResourceOfType(models.KindAWSRDSInstance, checkRDSMultiAZ),
		},
	}
}

func checkBucketPublicAccess(b models.S3Bucket, _ rules.EvalArgs, report rules.ReportFunc) {
	pab := b.PublicAccessBlock
	if pab == nil {
		report(fmt.Sprintf("Bucket %s has no public access block configuration.", b.Name))
		return
	}
	if !aws.ToBool(pab.BlockPublicAcls) || !aws.ToBool(pab.IgnorePublicAcls) ||
		!aws.ToBool(pab.BlockPublicPolicy) || !aws.ToBool(pab.RestrictPublicBuckets) {
		report(fmt.Sprintf("Bucket %s does not enable every public access block setting.", b.Name))
	}
}

func checkBucketEncryption(b models.S3Bucket, args rules.EvalArgs, report rules.ReportFunc) {
	algo, ok := defaultEncryption(b.Encryption)
	if !ok {
		report(fmt.Sprintf("Bucket %s has no default encryption.", b.Name))
		return
	}
	if args.Bool("require_kms", false) && algo != s3types.ServerSideEncryptionAwsKms && algo != s3types.ServerSideEncryptionAwsKmsDsse {
		report(fmt.Sprintf("Bucket %s uses %s; SSE-KMS is required.", b.Name, algo))
	}
}

func defaultEncryption(cfg *s3types.ServerSideEncryptionConfiguration) (s3types.ServerSideEncryption, bool) {
	if cfg == nil {
		return "", false
	}
	for _, rule := range cfg.Rules {
		if rule.ApplyServerSideEncryptionByDefault != nil && rule.ApplyServerSideEncryptionByDefault.SSEAlgorithm != "" {
			return rule.ApplyServerSideEncryptionByDefault.SSEAlgorithm, true
		}
	}
	return "", false
}

func checkBucketVersioning(b models.S3Bucket, _ rules.EvalArgs, report rules.ReportFunc) {
	if b.Versioning != s3types.BucketVersioningStatusEnabled {
		report(fmt.Sprintf("Bucket %s does not have versioning enabled.", b.Name))
	}
}

func checkBucketLogging(b models.S3Bucket, _ rules.EvalArgs, report rules.ReportFunc) {
	if b.Logging == nil || aws.ToString(b.Logging.TargetBucket) == "" {
		report(fmt.Sprintf("Bucket %s does not record server access logs.", b.Name))
	}
}

func checkRDSEncrypted(db rdstypes.DBInstance, _ rules.EvalArgs, report rules.ReportFunc) {
	if !aws.ToBool(db.StorageEncrypted) {
		report(fmt.Sprintf("RDS instance %s storage is not encrypted.", aws.ToString(db.DBInstanceIdentifier)))
	}
}

func checkRDSPublic(db rdstypes.DBInstance, _ rules.EvalArgs, report rules.ReportFunc) {
	if aws.ToBool(db.PubliclyAccessible) {
		report(fmt.Sprintf("RDS instance %s is publicly accessible.", aws.ToString(db.DBInstanceIdentifier)))
	}
}

func checkRDSBackupRetention(db rdstypes.DBInstance, args rules.EvalArgs, report rules.ReportFunc) {
	min := args.Int("min_retention_days", 7)
	if days := int(aws.ToInt32(db.BackupRetentionPeriod)); days < min {
		report(fmt.Sprintf("RDS instance %s retains backups for %d days (minimum %d).", aws.ToString(db.DBInstanceIdentifier), days, min))
	}
}

func checkRDSDeletionProtection(db rdstypes.DBInstance, _ rules.EvalArgs, report rules.ReportFunc) {
	if !aws.ToBool(db.DeletionProtection) {
		report(fmt.Sprintf("RDS instance %s does not have deletion protection enabled.", aws.ToString(db.DBInstanceIdentifier)))
	}
}

func checkRDSMultiAZ(db rdstypes.DBInstance, _ rules.EvalArgs, report rules.ReportFunc) {
	if !aws.ToBool(db.MultiAZ) {
		report(fmt.Sprintf("RDS instance %s is deployed in a single availability zone.", aws.ToString(db.DBInstanceIdentifier)))
	}
}
