package aws

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	cloudtrailtypes "github.com/aws/aws-sdk-go-v2/service/cloudtrail/types"
	configtypes "github.com/aws/aws-sdk-go-v2/service/configservice/types"
	ekstypes "github.com/aws/aws-sdk-go-v2/service/eks/types"
	guarddutytypes "github.com/aws/aws-sdk-go-v2/service/guardduty/types"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"
)

// requiredControlPlaneLogs are the EKS control plane log types that must be
// shipped to CloudWatch.
var requiredControlPlaneLogs = []string{"api", "audit", "authenticator"}

func auditPolicies() []rules.Record {
	return []rules.Record{
		{
			Metadata: rules.Metadata{
				Name:             "aws-cloudtrail-multi-region",
				Description:      "CloudTrail trails must record events in every region.",
				EnforcementLevel: models.EnforcementMandatory,
				Vendors:          []string{models.VendorAWS},
				Services:         []string{"cloudtrail"},
				Severity:         models.SeverityHigh,
				Topics:           []string{"logging"},
				Frameworks:       []string{"pcidss", "cis", "hitrust", "iso27001"},
			},
			Check: rules.ValidateResourceOfType(models.KindAWSCloudTrail, checkTrailMultiRegion),
		},
		{
			Metadata: rules.Metadata{
				Name:        "aws-cloudtrail-log-validation",
				Description: "CloudTrail trails must enable log file integrity validation.",
				Vendors:     []string{models.VendorAWS},
				Services:    []string{"cloudtrail"},
				Severity:    models.SeverityMedium,
				Topics:      []string{"logging"},
				Frameworks:  []string{"pcidss", "cis"},
			},
			Check: rules.ValidateResourceOfType(models.KindAWSCloudTrail, checkTrailLogValidation),
		},
		{
			Metadata: rules.Metadata{
				Name:        "aws-cloudtrail-kms-encrypted",
				Description: "CloudTrail logs should be encrypted with a customer managed KMS key.",
				Vendors:     []string{models.VendorAWS},
				Services:    []string{"cloudtrail", "kms"},
				Severity:    models.SeverityMedium,
				Topics:      []string{"logging", "encryption"},
				Frameworks:  []string{"cis"},
			},
			Check: rules.ValidateResourceOfType(models.KindAWSCloudTrail, checkTrailKMS),
		},
		{
			Metadata: rules.Metadata{
				Name:             "aws-eks-private-endpoint",
				Description:      "EKS API endpoints must not be reachable from the whole internet.",
				EnforcementLevel: models.EnforcementMandatory,
				Vendors:          []string{models.VendorAWS},
				Services:         []string{"eks"},
				Severity:         models.SeverityHigh,
				Topics:           []string{"network"},
				Frameworks:       []string{"cis", "pcidss"},
			},
			Check: rules.ValidateResourceOfType(models.KindAWSEKSCluster, checkEKSPublicEndpoint),
		},
		{
			Metadata: rules.Metadata{
				Name:        "aws-eks-control-plane-logging",
				Description: "EKS clusters must ship api, audit and authenticator logs to CloudWatch.",
				Vendors:     []string{models.VendorAWS},
				Services:    []string{"eks"},
				Severity:    models.SeverityMedium,
				Topics:      []string{"logging"},
				Frameworks:  []string{"cis", "iso27001"},
				ConfigSchema: &rules.ConfigSchema{Properties: map[string]rules.ConfigProperty{
					"log_types": {Type: rules.TypeArray, Default: requiredControlPlaneLogs, Description: "Control plane log types that must be enabled."},
				}},
			},
			Check: rules.ValidateResourceOfType(models.KindAWSEKSCluster, checkEKSLogging),
		},
		{
			Metadata: rules.Metadata{
				Name:        "aws-eks-secrets-encryption",
				Description: "EKS clusters must envelope-encrypt Kubernetes secrets with KMS.",
				Vendors:     []string{models.VendorAWS},
				Services:    []string{"eks", "kms"},
				Severity:    models.SeverityHigh,
				Topics:      []string{"encryption"},
				Frameworks:  []string{"cis", "hitrust"},
			},
			Check: rules.ValidateResourceOfType(models.KindAWSEKSCluster, checkEKSSecretsEncryption),
		},
		{
			Metadata: rules.Metadata{
				Name:        "aws-guardduty-enabled",
				Description: "GuardDuty must be enabled in every region.",
				Vendors:     []string{models.VendorAWS},
				Services:    []string{"guardduty"},
				Severity:    models.SeverityHigh,
				Topics:      []string{"threat-detection"},
				Frameworks:  []string{"pcidss", "hitrust", "iso27001"},
			},
			Check: rules.ValidateResourceOfType(models.KindAWSGuardDutyDetector, checkGuardDuty),
		},
		{
			Metadata: rules.Metadata{
				Name:        "aws-config-recorder-recording",
				Description: "AWS Config recorders must be recording.",
				Vendors:     []string{models.VendorAWS},
				Services:    []string{"config"},
				Severity:    models.SeverityMedium,
				Topics:      []string{"logging"},
				Frameworks:  []string{"cis", "pcidss"},
			},
			Check: rules.ValidateResourceOfType(models.KindAWSConfigRecorder, checkConfigRecording),
		},
	}
}

func checkTrailMultiRegion(t cloudtrailtypes.Trail, _ rules.EvalArgs, report rules.ReportFunc) {
	if !aws.ToBool(t.IsMultiRegionTrail) {
		report(fmt.Sprintf("CloudTrail trail %s only records a single region.", aws.ToString(t.Name)))
	}
}

func checkTrailLogValidation(t cloudtrailtypes.Trail, _ rules.EvalArgs, report rules.ReportFunc) {
	if !aws.ToBool(t.LogFileValidationEnabled) {
		report(fmt.Sprintf("CloudTrail trail %s does not validate log files.", aws.ToString(t.Name)))
	}
}

func checkTrailKMS(t cloudtrailtypes.Trail, _ rules.EvalArgs, report rules.ReportFunc) {
	if aws.ToString(t.KmsKeyId) == "" {
		report(fmt.Sprintf("CloudTrail trail %s logs are not encrypted with KMS.", aws.ToString(t.Name)))
	}
}

func checkEKSPublicEndpoint(c ekstypes.Cluster, _ rules.EvalArgs, report rules.ReportFunc) {
	vpc := c.ResourcesVpcConfig
	if vpc == nil || !vpc.EndpointPublicAccess {
		return
	}
	// An empty CIDR list means EKS applied its 0.0.0.0/0 default.
	if len(vpc.PublicAccessCidrs) == 0 || containsString(vpc.PublicAccessCidrs, "0.0.0.0/0") {
		report(fmt.Sprintf("EKS cluster %s exposes its API endpoint to 0.0.0.0/0.", aws.ToString(c.Name)))
	}
}

func checkEKSLogging(c ekstypes.Cluster, args rules.EvalArgs, report rules.ReportFunc) {
	enabled := map[string]bool{}
	if c.Logging != nil {
		for _, setup := range c.Logging.ClusterLogging {
			if !aws.ToBool(setup.Enabled) {
				continue
			}
			for _, t := range setup.Types {
				enabled[string(t)] = true
			}
		}
	}
	for _, want := range args.Strings("log_types", requiredControlPlaneLogs) {
		if !enabled[want] {
			report(fmt.Sprintf("EKS cluster %s does not ship %s control plane logs.", aws.ToString(c.Name), want))
		}
	}
}

func checkEKSSecretsEncryption(c ekstypes.Cluster, _ rules.EvalArgs, report rules.ReportFunc) {
	for _, enc := range c.EncryptionConfig {
		if containsString(enc.Resources, "secrets") {
			return
		}
	}
	report(fmt.Sprintf("EKS cluster %s does not encrypt secrets with KMS.", aws.ToString(c.Name)))
}

func checkGuardDuty(d models.GuardDutyDetector, _ rules.EvalArgs, report rules.ReportFunc) {
	switch {
	case d.DetectorID == "":
		report(fmt.Sprintf("GuardDuty has no detector in region %s.", d.Region))
	case d.Status != guarddutytypes.DetectorStatusEnabled:
		report(fmt.Sprintf("GuardDuty detector %s in region %s is %s.", d.DetectorID, d.Region, d.Status))
	}
}

func checkConfigRecording(s configtypes.ConfigurationRecorderStatus, _ rules.EvalArgs, report rules.ReportFunc) {
	if !s.Recording {
		report(fmt.Sprintf("AWS Config recorder %s is not recording.", aws.ToString(s.Name)))
	}
}
