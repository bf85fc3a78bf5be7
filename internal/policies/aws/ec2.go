package aws

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"
)

const (
	sshPort = 22
	rdpPort = 3389
)

var worldCIDRs = []string{"0.0.0.0/0", "::/0"}

func ec2Policies() []rules.Record {
	return []rules.Record{
		{
			Metadata: rules.Metadata{
				Name:             "aws-ec2-imdsv2-required",
				Description:      "EC2 instances must require IMDSv2 session tokens for the instance metadata service.",
				EnforcementLevel: models.EnforcementMandatory,
				Vendors:          []string{models.VendorAWS},
				Services:         []string{"ec2"},
				Severity:         models.SeverityHigh,
				Topics:           []string{"identity"},
				Frameworks:       []string{"cis", "pcidss"},
			},
			Check: rules.ValidateResourceOfType(models.KindAWSEC2Instance, checkIMDSv2),
		},
		{
			Metadata: rules.Metadata{
				Name:        "aws-ec2-no-public-ip",
				Description: "EC2 instances should not have a public IPv4 address.",
				Vendors:     []string{models.VendorAWS},
				Services:    []string{"ec2"},
				Severity:    models.SeverityMedium,
				Topics:      []string{"network"},
				Frameworks:  []string{"pcidss", "hitrust"},
			},
			Check: rules.ValidateResourceOfType(models.KindAWSEC2Instance, checkInstancePublicIP),
		},
		{
			Metadata: rules.Metadata{
				Name:        "aws-ec2-detailed-monitoring",
				Description: "EC2 instances should have detailed CloudWatch monitoring enabled.",
				Vendors:     []string{models.VendorAWS},
				Services:    []string{"ec2", "cloudwatch"},
				Severity:    models.SeverityLow,
				Topics:      []string{"logging"},
				Frameworks:  []string{"iso27001"},
				ConfigSchema: &rules.ConfigSchema{Properties: map[string]rules.ConfigProperty{
					rules.EnabledOption: {Type: rules.TypeBoolean, Default: false, Description: "Off by default; detailed monitoring is billed per instance."},
				}},
			},
			Check: rules.ValidateResourceOfType(models.KindAWSEC2Instance, checkDetailedMonitoring),
		},
		{
			Metadata: rules.Metadata{
				Name:        "aws-ec2-required-tags",
				Description: "EC2 instances must carry the organisation's ownership tags.",
				Vendors:     []string{models.VendorAWS},
				Services:    []string{"ec2"},
				Severity:    models.SeverityLow,
				Topics:      []string{"documentation"},
				Frameworks:  []string{"iso27001", "hitrust"},
				ConfigSchema: &rules.ConfigSchema{Properties: map[string]rules.ConfigProperty{
					"tags": {Type: rules.TypeArray, Default: []string{"Owner", "Environment"}, Description: "Tag keys every instance must have."},
				}},
			},
			Check: rules.ValidateResourceOfType(models.KindAWSEC2Instance, checkRequiredTags),
		},
		{
			Metadata: rules.Metadata{
				Name:             "aws-ebs-volume-encrypted",
				Description:      "EBS volumes must be encrypted at rest.",
				EnforcementLevel: models.EnforcementMandatory,
				Vendors:          []string{models.VendorAWS},
				Services:         []string{"ec2", "ebs"},
				Severity:         models.SeverityHigh,
				Topics:           []string{"encryption"},
				Frameworks:       []string{"pcidss", "hitrust", "cis"},
			},
			Check: rules.ValidateResourceOfType(models.KindAWSEBSVolume, checkVolumeEncrypted),
		},
		{
			Metadata: rules.Metadata{
				Name:             "aws-sg-no-open-admin-ports",
				Description:      "Security groups must not allow SSH (22) or RDP (3389) from the internet.",
				EnforcementLevel: models.EnforcementMandatory,
				Vendors:          []string{models.VendorAWS},
				Services:         []string{"ec2", "vpc"},
				Severity:         models.SeverityCritical,
				Topics:           []string{"network"},
				Frameworks:       []string{"pcidss", "cis", "hitrust", "iso27001"},
			},
			Check: rules.ValidateResourceOfType(models.KindAWSSecurityGroup, checkOpenAdminPorts),
		},
		{
			Metadata: rules.Metadata{
				Name:        "aws-sg-no-unrestricted-ingress",
				Description: "Security groups must not allow all protocols and ports from the internet.",
				Vendors:     []string{models.VendorAWS},
				Services:    []string{"ec2", "vpc"},
				Severity:    models.SeverityHigh,
				Topics:      []string{"network"},
				Frameworks:  []string{"pcidss", "cis"},
			},
			Check: rules.ValidateResourceOfType(models.KindAWSSecurityGroup, checkUnrestrictedIngress),
		},
	}
}

func checkIMDSv2(inst ec2types.Instance, _ rules.EvalArgs, report rules.ReportFunc) {
	if inst.MetadataOptions == nil || inst.MetadataOptions.HttpTokens != ec2types.HttpTokensStateRequired {
		report(fmt.Sprintf("Instance %s allows IMDSv1; set HttpTokens to required.", aws.ToString(inst.InstanceId)))
	}
}

func checkInstancePublicIP(inst ec2types.Instance, _ rules.EvalArgs, report rules.ReportFunc) {
	if ip := aws.ToString(inst.PublicIpAddress); ip != "" {
		report(fmt.Sprintf("Instance %s has public IP address %s.", aws.ToString(inst.InstanceId), ip))
	}
}

func checkDetailedMonitoring(inst ec2types.Instance, _ rules.EvalArgs, report rules.ReportFunc) {
	if inst.Monitoring == nil || inst.Monitoring.State != ec2types.MonitoringStateEnabled {
		report(fmt.Sprintf("Instance %s does not have detailed monitoring enabled.", aws.ToString(inst.InstanceId)))
	}
}

func checkRequiredTags(inst ec2types.Instance, args rules.EvalArgs, report rules.ReportFunc) {
	have := make(map[string]bool, len(inst.Tags))
	for _, tag := range inst.Tags {
		have[aws.ToString(tag.Key)] = true
	}
	var missing []string
	for _, key := range args.Strings("tags", nil) {
		if !have[key] {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		report(fmt.Sprintf("Instance %s is missing required tags: %s.", aws.ToString(inst.InstanceId), strings.Join(missing, ", ")))
	}
}

func checkVolumeEncrypted(vol ec2types.Volume, _ rules.EvalArgs, report rules.ReportFunc) {
	if !aws.ToBool(vol.Encrypted) {
		report(fmt.Sprintf("EBS volume %s is not encrypted.", aws.ToString(vol.VolumeId)))
	}
}

// checkOpenAdminPorts reports each admin port once per security group, no
// matter how many permissions expose it.
func checkOpenAdminPorts(sg ec2types.SecurityGroup, _ rules.EvalArgs, report rules.ReportFunc) {
	for _, port := range []int32{sshPort, rdpPort} {
		for _, perm := range sg.IpPermissions {
			if !permitsPort(perm, port) {
				continue
			}
			if cidr, open := openToWorld(perm); open {
				report(fmt.Sprintf("Security group %s allows port %d from %s.", aws.ToString(sg.GroupId), port, cidr))
				break
			}
		}
	}
}

func checkUnrestrictedIngress(sg ec2types.SecurityGroup, _ rules.EvalArgs, report rules.ReportFunc) {
	for _, perm := range sg.IpPermissions {
		if aws.ToString(perm.IpProtocol) != "-1" {
			continue
		}
		if cidr, open := openToWorld(perm); open {
			report(fmt.Sprintf("Security group %s allows all traffic from %s.", aws.ToString(sg.GroupId), cidr))
			return
		}
	}
}

// permitsPort reports whether perm covers TCP port. Protocol "-1" covers
// every port.
func permitsPort(perm ec2types.IpPermission, port int32) bool {
	proto := aws.ToString(perm.IpProtocol)
	if proto == "-1" {
		return true
	}
	if proto != "tcp" && proto != "6" {
		return false
	}
	if perm.FromPort == nil || perm.ToPort == nil {
		return false
	}
	return *perm.FromPort <= port && port <= *perm.ToPort
}

func openToWorld(perm ec2types.IpPermission) (string, bool) {
	for _, r := range perm.IpRanges {
		if cidr := aws.ToString(r.CidrIp); isWorld(cidr) {
			return cidr, true
		}
	}
	for _, r := range perm.Ipv6Ranges {
		if cidr := aws.ToString(r.CidrIpv6); isWorld(cidr) {
			return cidr, true
		}
	}
	return "", false
}

func isWorld(cidr string) bool {
	for _, w := range worldCIDRs {
		if cidr == w {
			return true
		}
	}
	return false
}
