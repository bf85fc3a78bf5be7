// Package inventory collects AWS resources into the typed shapes the AWS
// policy catalog checks.
package inventory

import (
	"context"
	"slices"

	"github.com/rs/zerolog"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/providers/aws/common"
)

// Service names accepted by WithServices. They match the services of the
// AWS policy catalog.
const (
	ServiceEC2        = "ec2"
	ServiceS3         = "s3"
	ServiceRDS        = "rds"
	ServiceIAM        = "iam"
	ServiceELBv2      = "elbv2"
	ServiceCloudTrail = "cloudtrail"
	ServiceEKS        = "eks"
	ServiceGuardDuty  = "guardduty"
	ServiceConfig     = "config"
)

// AllServices lists every collectable service.
func AllServices() []string {
	return []string{ServiceEC2, ServiceS3, ServiceRDS, ServiceIAM, ServiceELBv2, ServiceCloudTrail, ServiceEKS, ServiceGuardDuty, ServiceConfig}
}

// globalRegion is where account-wide services (S3 listing, IAM) are queried.
const globalRegion = "us-east-1"

// Collector gathers the inventory of one AWS account.
//
// Implementations never evaluate policies. A failure to collect one service
// in one region is logged and skipped so the rest of the scan completes.
type Collector interface {
	CollectAll(
		ctx context.Context,
		profile *common.ProfileConfig,
		provider common.AWSClientProvider,
		regions []string,
	) ([]models.Resource, error)
}

// DefaultCollector is the production Collector.
type DefaultCollector struct {
	factory  clientFactory
	logger   zerolog.Logger
	services []string
}

// Option configures a DefaultCollector.
type Option func(*DefaultCollector)

// WithLogger sets the logger used for skipped services.
func WithLogger(l zerolog.Logger) Option {
	return func(c *DefaultCollector) { c.logger = l }
}

// WithServices limits collection to services. An empty list collects all.
func WithServices(services ...string) Option {
	return func(c *DefaultCollector) { c.services = services }
}

// NewDefaultCollector returns a collector wired to production SDK clients.
func NewDefaultCollector(opts ...Option) *DefaultCollector {
	return newCollector(newDefaultClients, opts...)
}

func newCollector(f clientFactory, opts ...Option) *DefaultCollector {
	c := &DefaultCollector{factory: f, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *DefaultCollector) enabled(service string) bool {
	return len(c.services) == 0 || slices.Contains(c.services, service)
}

// collectFunc gathers one service in one region.
type collectFunc func(ctx context.Context, cl *clients, source, region string) ([]models.Resource, error)

// CollectAll gathers S3 and IAM once through the global region and every
// regional service in each of regions. Resources are returned in service
// then region order.
func (c *DefaultCollector) CollectAll(
	ctx context.Context,
	profile *common.ProfileConfig,
	provider common.AWSClientProvider,
	regions []string,
) ([]models.Resource, error) {
	var out []models.Resource

	global := c.factory(provider.ConfigForRegion(profile, globalRegion))
	for _, svc := range []struct {
		name string
		fn   collectFunc
	}{
		{ServiceS3, c.collectS3Buckets},
		{ServiceIAM, c.collectIAMUsers},
		{ServiceIAM, rootAccountCollector(profile.AccountID)},
	} {
		out = append(out, c.run(ctx, svc.name, svc.fn, global, profile.Source("global"), globalRegion)...)
	}

	regional := []struct {
		name string
		fn   collectFunc
	}{
		{ServiceEC2, collectInstances},
		{ServiceEC2, collectVolumes},
		{ServiceEC2, collectSecurityGroups},
		{ServiceRDS, collectDBInstances},
		{ServiceELBv2, collectLoadBalancers},
		{ServiceCloudTrail, collectTrails},
		{ServiceEKS, collectClusters},
		{ServiceGuardDuty, collectDetector},
		{ServiceConfig, collectRecorders},
	}
	for _, region := range regions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cl := c.factory(provider.ConfigForRegion(profile, region))
		for _, svc := range regional {
			out = append(out, c.run(ctx, svc.name, svc.fn, cl, profile.Source(region), region)...)
		}
	}
	return out, nil
}

func (c *DefaultCollector) run(ctx context.Context, service string, fn collectFunc, cl *clients, source, region string) []models.Resource {
	if !c.enabled(service) {
		return nil
	}
	res, err := fn(ctx, cl, source, region)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("service", service).
			Str("region", region).
			Msg("skipping service")
		return nil
	}
	c.logger.Debug().
		Str("service", service).
		Str("region", region).
		Int("resources", len(res)).
		Msg("collected")
	return res
}
