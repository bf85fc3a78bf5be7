package aws

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	elbv2types "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"
)

const administratorAccessARN = "arn:aws:iam::aws:policy/AdministratorAccess"

// modernTLSPolicies are the ELBv2 security policies that only negotiate
// TLS 1.2 or newer.
var modernTLSPolicies = []string{
	"ELBSecurityPolicy-TLS13-1-2-2021-06",
	"ELBSecurityPolicy-TLS13-1-2-Res-2021-06",
	"ELBSecurityPolicy-TLS13-1-3-2021-06",
	"ELBSecurityPolicy-TLS-1-2-2017-01",
	"ELBSecurityPolicy-TLS-1-2-Ext-2018-06",
	"ELBSecurityPolicy-FS-1-2-2019-08",
	"ELBSecurityPolicy-FS-1-2-Res-2020-10",
}

func identityPolicies() []rules.Record {
	return []rules.Record{
		{
			Metadata: rules.Metadata{
				Name:             "aws-iam-user-console-mfa",
				Description:      "IAM users with a console password must have an MFA device.",
				EnforcementLevel: models.EnforcementMandatory,
				Vendors:          []string{models.VendorAWS},
				Services:         []string{"iam"},
				Severity:         models.SeverityHigh,
				Topics:           []string{"identity"},
				Frameworks:       []string{"pcidss", "cis", "hitrust", "iso27001"},
			},
			Check: rules.ValidateResourceOfType(models.KindAWSIAMUser, checkConsoleMFA),
		},
		{
			Metadata: rules.Metadata{
				Name:        "aws-iam-access-key-rotation",
				Description: "Active IAM access keys must be rotated within the configured age.",
				Vendors:     []string{models.VendorAWS},
				Services:    []string{"iam"},
				Severity:    models.SeverityMedium,
				Topics:      []string{"identity"},
				Frameworks:  []string{"pcidss", "cis"},
				ConfigSchema: &rules.ConfigSchema{Properties: map[string]rules.ConfigProperty{
					"max_age_days": {Type: rules.TypeInteger, Default: 90, Description: "Maximum age of an active access key."},
				}},
			},
			Check: rules.ValidateResourceOfType(models.KindAWSIAMUser, checkAccessKeyAge),
		},
		{
			Metadata: rules.Metadata{
				Name:        "aws-iam-user-no-admin-policy",
				Description: "IAM users must not have AdministratorAccess attached directly.",
				Vendors:     []string{models.VendorAWS},
				Services:    []string{"iam"},
				Severity:    models.SeverityHigh,
				Topics:      []string{"identity"},
				Frameworks:  []string{"cis", "iso27001"},
			},
			Check: rules.ValidateResourceOfType(models.KindAWSIAMUser, checkAdminPolicy),
		},
		{
			Metadata: rules.Metadata{
				Name:             "aws-root-account-mfa",
				Description:      "The root user must have MFA enabled.",
				EnforcementLevel: models.EnforcementMandatory,
				Vendors:          []string{models.VendorAWS},
				Services:         []string{"iam"},
				Severity:         models.SeverityCritical,
				Topics:           []string{"identity"},
				Frameworks:       []string{"cis", "pcidss", "hitrust", "iso27001"},
			},
			Check: rules.ValidateResourceOfType(models.KindAWSRootAccount, checkRootMFA),
		},
		{
			Metadata: rules.Metadata{
				Name:             "aws-root-account-no-access-keys",
				Description:      "The root user must not have access keys.",
				EnforcementLevel: models.EnforcementMandatory,
				Vendors:          []string{models.VendorAWS},
				Services:         []string{"iam"},
				Severity:         models.SeverityCritical,
				Topics:           []string{"identity"},
				Frameworks:       []string{"cis", "pcidss"},
			},
			Check: rules.ValidateResourceOfType(models.KindAWSRootAccount, checkRootAccessKeys),
		},
		{
			Metadata: rules.Metadata{
				Name:        "aws-elb-https-only",
				Description: "Load balancer HTTP listeners must redirect to HTTPS.",
				Vendors:     []string{models.VendorAWS},
				Services:    []string{"elbv2"},
				Severity:    models.SeverityMedium,
				Topics:      []string{"encryption", "network"},
				Frameworks:  []string{"pcidss", "hitrust"},
			},
			Check: rules.ValidateResourceOfType(models.KindAWSLoadBalancer, checkPlainHTTPListener),
		},
		{
			Metadata: rules.Metadata{
				Name:        "aws-elb-modern-tls-policy",
				Description: "HTTPS and TLS listeners must use a security policy limited to TLS 1.2 or newer.",
				Vendors:     []string{models.VendorAWS},
				Services:    []string{"elbv2"},
				Severity:    models.SeverityHigh,
				Topics:      []string{"encryption"},
				Frameworks:  []string{"pcidss"},
				ConfigSchema: &rules.ConfigSchema{Properties: map[string]rules.ConfigProperty{
					"allowed_policies": {Type: rules.TypeArray, Default: modernTLSPolicies, Description: "Accepted ELBv2 SSL policy names."},
				}},
			},
			Check: rules.ValidateResourceOfType(models.KindAWSLoadBalancer, checkTLSPolicy),
		},
	}
}

func checkConsoleMFA(u models.IAMUser, _ rules.EvalArgs, report rules.ReportFunc) {
	if u.HasLoginProfile && len(u.MFADevices) == 0 {
		report(fmt.Sprintf("IAM user %s has console access without MFA.", aws.ToString(u.User.UserName)))
	}
}

func checkAccessKeyAge(u models.IAMUser, args rules.EvalArgs, report rules.ReportFunc) {
	maxAge := args.Int("max_age_days", 90)
	now := args.Time()
	for _, key := range u.AccessKeys {
		if key.Status != iamtypes.StatusTypeActive || key.CreateDate == nil {
			continue
		}
		age := int(now.Sub(*key.CreateDate).Hours() / 24)
		if age > maxAge {
			report(fmt.Sprintf("Access key %s of IAM user %s is %d days old (maximum %d).",
				aws.ToString(key.AccessKeyId), aws.ToString(u.User.UserName), age, maxAge))
		}
	}
}

func checkAdminPolicy(u models.IAMUser, _ rules.EvalArgs, report rules.ReportFunc) {
	for _, p := range u.AttachedPolicies {
		if aws.ToString(p.PolicyArn) == administratorAccessARN {
			report(fmt.Sprintf("IAM user %s has AdministratorAccess attached directly.", aws.ToString(u.User.UserName)))
			return
		}
	}
}

func checkRootMFA(a models.RootAccount, _ rules.EvalArgs, report rules.ReportFunc) {
	if !a.MFAEnabled {
		report(fmt.Sprintf("Root user of account %s has no MFA device.", a.AccountID))
	}
}

func checkRootAccessKeys(a models.RootAccount, _ rules.EvalArgs, report rules.ReportFunc) {
	if a.HasAccessKeys {
		report(fmt.Sprintf("Root user of account %s has active access keys.", a.AccountID))
	}
}

func checkPlainHTTPListener(lb models.LoadBalancer, _ rules.EvalArgs, report rules.ReportFunc) {
	for _, l := range lb.Listeners {
		if l.Protocol != elbv2types.ProtocolEnumHttp || redirectsToHTTPS(l) {
			continue
		}
		report(fmt.Sprintf("Load balancer %s serves plain HTTP on port %d without redirecting to HTTPS.",
			aws.ToString(lb.LoadBalancer.LoadBalancerName), aws.ToInt32(l.Port)))
	}
}

func redirectsToHTTPS(l elbv2types.Listener) bool {
	for _, a := range l.DefaultActions {
		if a.Type == elbv2types.ActionTypeEnumRedirect && a.RedirectConfig != nil &&
			strings.EqualFold(aws.ToString(a.RedirectConfig.Protocol), "HTTPS") {
			return true
		}
	}
	return false
}

func checkTLSPolicy(lb models.LoadBalancer, args rules.EvalArgs, report rules.ReportFunc) {
	allowed := args.Strings("allowed_policies", modernTLSPolicies)
	for _, l := range lb.Listeners {
		if l.Protocol != elbv2types.ProtocolEnumHttps && l.Protocol != elbv2types.ProtocolEnumTls {
			continue
		}
		policy := aws.ToString(l.SslPolicy)
		if !containsString(allowed, policy) {
			report(fmt.Sprintf("Load balancer %s listener on port %d uses SSL policy %q.",
				aws.ToString(lb.LoadBalancer.LoadBalancerName), aws.ToInt32(l.Port), policy))
		}
	}
}

func containsString(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
