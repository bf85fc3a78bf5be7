package inventory

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	rdssvc "github.com/aws/aws-sdk-go-v2/service/rds"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
)

// collectS3Buckets lists every bucket and reads its public access block,
// default encryption, versioning and logging configuration. An absent
// configuration leaves the field empty; any other per-bucket failure is
// logged and the bucket left out.
func (c *DefaultCollector) collectS3Buckets(ctx context.Context, cl *clients, source, _ string) ([]models.Resource, error) {
	out, err := cl.S3.ListBuckets(ctx, &s3svc.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf("list S3 buckets: %w", err)
	}

	res := make([]models.Resource, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		bucket, err := describeBucket(ctx, cl.S3, aws.ToString(b.Name))
		if err != nil {
			c.logger.Warn().
				Err(err).
				Str("service", ServiceS3).
				Str("bucket", aws.ToString(b.Name)).
				Msg("skipping S3 bucket")
			continue
		}
		bucket.Region = aws.ToString(b.BucketRegion)
		res = append(res, models.Resource{
			Kind:       models.KindAWSS3Bucket,
			Name:       bucket.Name,
			Source:     source,
			Properties: bucket,
		})
	}
	return res, nil
}

// notConfiguredCodes are the S3 error codes returned for a bucket that simply
// has no such configuration.
var notConfiguredCodes = []string{
	"NoSuchPublicAccessBlockConfiguration",
	"ServerSideEncryptionConfigurationNotFoundError",
}

func notConfigured(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && slices.Contains(notConfiguredCodes, apiErr.ErrorCode())
}

func describeBucket(ctx context.Context, client s3APIClient, name string) (models.S3Bucket, error) {
	b := models.S3Bucket{Name: name}
	in := aws.String(name)

	pab, err := client.GetPublicAccessBlock(ctx, &s3svc.GetPublicAccessBlockInput{Bucket: in})
	switch {
	case err == nil:
		b.PublicAccessBlock = pab.PublicAccessBlockConfiguration
	case !notConfigured(err):
		return b, fmt.Errorf("get public access block: %w", err)
	}

	enc, err := client.GetBucketEncryption(ctx, &s3svc.GetBucketEncryptionInput{Bucket: in})
	switch {
	case err == nil:
		b.Encryption = enc.ServerSideEncryptionConfiguration
	case !notConfigured(err):
		return b, fmt.Errorf("get bucket encryption: %w", err)
	}

	ver, err := client.GetBucketVersioning(ctx, &s3svc.GetBucketVersioningInput{Bucket: in})
	if err != nil {
		return b, fmt.Errorf("get bucket versioning: %w", err)
	}
	b.Versioning = ver.Status

	logging, err := client.GetBucketLogging(ctx, &s3svc.GetBucketLoggingInput{Bucket: in})
	if err != nil {
		return b, fmt.Errorf("get bucket logging: %w", err)
	}
	b.Logging = logging.LoggingEnabled
	return b, nil
}

func collectDBInstances(ctx context.Context, cl *clients, source, region string) ([]models.Resource, error) {
	var out []models.Resource
	p := rdssvc.NewDescribeDBInstancesPaginator(cl.RDS, &rdssvc.DescribeDBInstancesInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe DB instances in %s: %w", region, err)
		}
		for _, db := range page.DBInstances {
			out = append(out, models.Resource{
				Kind:       models.KindAWSRDSInstance,
				Name:       aws.ToString(db.DBInstanceIdentifier),
				Source:     source,
				Properties: db,
			})
		}
	}
	return out, nil
}
