package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	elbv2svc "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
)

// collectIAMUsers returns every IAM user with its console login profile, MFA
// devices, access keys and attached managed policies. A user whose lookups
// fail is logged and left out, since partial data would misreport MFA and key
// state.
func (c *DefaultCollector) collectIAMUsers(ctx context.Context, cl *clients, source, _ string) ([]models.Resource, error) {
	var out []models.Resource
	p := iamsvc.NewListUsersPaginator(cl.IAM, &iamsvc.ListUsersInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list IAM users: %w", err)
		}
		for _, u := range page.Users {
			user, err := describeUser(ctx, cl.IAM, u.UserName)
			if err != nil {
				c.logger.Warn().
					Err(err).
					Str("service", ServiceIAM).
					Str("user", aws.ToString(u.UserName)).
					Msg("skipping IAM user")
				continue
			}
			user.User = u
			out = append(out, models.Resource{
				Kind:       models.KindAWSIAMUser,
				Name:       aws.ToString(u.UserName),
				Source:     source,
				Properties: user,
			})
		}
	}
	return out, nil
}

// describeUser fills the per-user details. A missing login profile
// (NoSuchEntity) means an API-only user and is not an error.
func describeUser(ctx context.Context, client iamAPIClient, name *string) (models.IAMUser, error) {
	var u models.IAMUser

	_, err := client.GetLoginProfile(ctx, &iamsvc.GetLoginProfileInput{UserName: name})
	var noEntity *iamtypes.NoSuchEntityException
	switch {
	case err == nil:
		u.HasLoginProfile = true
	case !errors.As(err, &noEntity):
		return u, fmt.Errorf("get login profile: %w", err)
	}

	mfa, err := client.ListMFADevices(ctx, &iamsvc.ListMFADevicesInput{UserName: name})
	if err != nil {
		return u, fmt.Errorf("list MFA devices: %w", err)
	}
	u.MFADevices = mfa.MFADevices

	keys, err := client.ListAccessKeys(ctx, &iamsvc.ListAccessKeysInput{UserName: name})
	if err != nil {
		return u, fmt.Errorf("list access keys: %w", err)
	}
	u.AccessKeys = keys.AccessKeyMetadata

	policies, err := client.ListAttachedUserPolicies(ctx, &iamsvc.ListAttachedUserPoliciesInput{UserName: name})
	if err != nil {
		return u, fmt.Errorf("list attached policies: %w", err)
	}
	u.AttachedPolicies = policies.AttachedPolicies
	return u, nil
}

// rootAccountCollector reads the IAM account summary. AccountAccessKeysPresent
// counts root access keys; AccountMFAEnabled is 1 when root has any MFA device.
func rootAccountCollector(accountID string) collectFunc {
	return func(ctx context.Context, cl *clients, source, _ string) ([]models.Resource, error) {
		out, err := cl.IAM.GetAccountSummary(ctx, &iamsvc.GetAccountSummaryInput{})
		if err != nil {
			return nil, fmt.Errorf("get IAM account summary: %w", err)
		}
		return []models.Resource{{
			Kind:   models.KindAWSRootAccount,
			Name:   accountID,
			Source: source,
			Properties: models.RootAccount{
				AccountID:     accountID,
				HasAccessKeys: out.SummaryMap["AccountAccessKeysPresent"] > 0,
				MFAEnabled:    out.SummaryMap["AccountMFAEnabled"] > 0,
			},
		}}, nil
	}
}

func collectLoadBalancers(ctx context.Context, cl *clients, source, region string) ([]models.Resource, error) {
	var out []models.Resource
	p := elbv2svc.NewDescribeLoadBalancersPaginator(cl.ELBv2, &elbv2svc.DescribeLoadBalancersInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe load balancers in %s: %w", region, err)
		}
		for _, lb := range page.LoadBalancers {
			item := models.LoadBalancer{LoadBalancer: lb}
			listeners, err := cl.ELBv2.DescribeListeners(ctx, &elbv2svc.DescribeListenersInput{LoadBalancerArn: lb.LoadBalancerArn})
			if err != nil {
				return nil, fmt.Errorf("describe listeners of %s: %w", aws.ToString(lb.LoadBalancerName), err)
			}
			item.Listeners = listeners.Listeners
			out = append(out, models.Resource{
				Kind:       models.KindAWSLoadBalancer,
				Name:       aws.ToString(lb.LoadBalancerName),
				Source:     source,
				Properties: item,
			})
		}
	}
	return out, nil
}
