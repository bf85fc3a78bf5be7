// Package google holds the Google Cloud policy catalog. Checks are typed on
// the google.golang.org/api REST shapes and the Certificate Manager protobuf
// messages.
package google

import (
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/certificatemanager/apiv1/certificatemanagerpb"
	compute "google.golang.org/api/compute/v1"
	sqladmin "google.golang.org/api/sqladmin/v1"
	storage "google.golang.org/api/storage/v1"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

var adminPorts = []int{22, 3389}

// Policies returns the Google Cloud catalog in registration order.
func Policies() []rules.Record {
	return []rules.Record{
		{
			Metadata: rules.Metadata{
				Name:        "google-compute-secure-boot",
				Description: "Compute instances should boot with Shielded VM secure boot.",
				Vendors:     []string{models.VendorGoogle},
				Services:    []string{"compute"},
				Severity:    models.SeverityMedium,
				Topics:      []string{"workload"},
				Frameworks:  []string{"cis"},
			},
			Check: rules.ValidateResourceOfType(models.KindGoogleComputeInstance, checkSecureBoot),
		},
		{
			Metadata: rules.Metadata{
				Name:        "google-compute-no-external-ip",
				Description: "Compute instances should not have external IP addresses.",
				Vendors:     []string{models.VendorGoogle},
				Services:    []string{"compute"},
				Severity:    models.SeverityMedium,
				Topics:      []string{"network"},
				Frameworks:  []string{"cis", "pcidss"},
			},
			Check: rules.ValidateResourceOfType(models.KindGoogleComputeInstance, checkExternalIP),
		},
		{
			Metadata: rules.Metadata{
				Name:             "google-compute-default-sa-full-scope",
				Description:      "Compute instances must not run as the default service account with the cloud-platform scope.",
				EnforcementLevel: models.EnforcementMandatory,
				Vendors:          []string{models.VendorGoogle},
				Services:         []string{"compute", "iam"},
				Severity:         models.SeverityHigh,
				Topics:           []string{"identity"},
				Frameworks:       []string{"cis", "iso27001"},
			},
			Check: rules.ValidateResourceOfType(models.KindGoogleComputeInstance, checkDefaultServiceAccount),
		},
		{
			Metadata: rules.Metadata{
				Name:        "google-compute-serial-port-disabled",
				Description: "Compute instances must not enable interactive serial port access.",
				Vendors:     []string{models.VendorGoogle},
				Services:    []string{"compute"},
				Severity:    models.SeverityMedium,
				Topics:      []string{"network"},
				Frameworks:  []string{"cis"},
			},
			Check: rules.ValidateResourceOfType(models.KindGoogleComputeInstance, checkSerialPort),
		},
		{
			Metadata: rules.Metadata{
				Name:             "google-firewall-no-open-admin-ports",
				Description:      "VPC firewall rules must not allow SSH or RDP from 0.0.0.0/0.",
				EnforcementLevel: models.EnforcementMandatory,
				Vendors:          []string{models.VendorGoogle},
				Services:         []string{"compute", "vpc"},
				Severity:         models.SeverityCritical,
				Topics:           []string{"network"},
				Frameworks:       []string{"cis", "pcidss", "hitrust"},
			},
			Check: rules.ValidateResourceOfType(models.KindGoogleFirewall, checkFirewallAdminPorts),
		},
		{
			Metadata: rules.Metadata{
				Name:        "google-storage-uniform-access",
				Description: "Cloud Storage buckets should use uniform bucket-level access.",
				Vendors:     []string{models.VendorGoogle},
				Services:    []string{"storage"},
				Severity:    models.SeverityMedium,
				Topics:      []string{"identity", "data-protection"},
				Frameworks:  []string{"cis"},
			},
			Check: rules.ValidateResourceOfType(models.KindGoogleStorageBucket, checkUniformAccess),
		},
		{
			Metadata: rules.Metadata{
				Name:             "google-storage-public-access-prevention",
				Description:      "Cloud Storage buckets must enforce public access prevention.",
				EnforcementLevel: models.EnforcementMandatory,
				Vendors:          []string{models.VendorGoogle},
				Services:         []string{"storage"},
				Severity:         models.SeverityHigh,
				Topics:           []string{"data-protection", "network"},
				Frameworks:       []string{"cis", "pcidss", "iso27001"},
			},
			Check: rules.ValidateResourceOfType(models.KindGoogleStorageBucket, checkPublicAccessPrevention),
		},
		{
			Metadata: rules.Metadata{
				Name:        "google-sql-require-ssl",
				Description: "Cloud SQL instances must require SSL for client connections.",
				Vendors:     []string{models.VendorGoogle},
				Services:    []string{"sql"},
				Severity:    models.SeverityHigh,
				Topics:      []string{"encryption"},
				Frameworks:  []string{"cis", "pcidss"},
			},
			Check: rules.ValidateResourceOfType(models.KindGoogleSQLInstance, checkSQLRequireSSL),
		},
		{
			Metadata: rules.Metadata{
				Name:             "google-sql-no-public-network",
				Description:      "Cloud SQL instances must not authorize 0.0.0.0/0.",
				EnforcementLevel: models.EnforcementMandatory,
				Vendors:          []string{models.VendorGoogle},
				Services:         []string{"sql"},
				Severity:         models.SeverityCritical,
				Topics:           []string{"network"},
				Frameworks:       []string{"cis", "pcidss", "hitrust"},
			},
			Check: rules.ValidateResourceOfType(models.KindGoogleSQLInstance, checkSQLOpenNetwork),
		},
		{
			Metadata: rules.Metadata{
				Name:        "google-sql-backups-enabled",
				Description: "Cloud SQL instances must have automated backups enabled.",
				Vendors:     []string{models.VendorGoogle},
				Services:    []string{"sql"},
				Severity:    models.SeverityMedium,
				Topics:      []string{"availability"},
				Frameworks:  []string{"cis", "hitrust"},
			},
			Check: rules.ValidateResourceOfType(models.KindGoogleSQLInstance, checkSQLBackups),
		},
		{
			Metadata: rules.Metadata{
				Name:        "google-certificate-expiry",
				Description: "Certificate Manager certificates must not expire within the configured window.",
				Vendors:     []string{models.VendorGoogle},
				Services:    []string{"certificatemanager"},
				Severity:    models.SeverityHigh,
				Topics:      []string{"tls", "availability"},
				Frameworks:  []string{"pcidss", "iso27001"},
				ConfigSchema: &rules.ConfigSchema{Properties: map[string]rules.ConfigProperty{
					"warn_days": {Type: rules.TypeInteger, Default: 30, Description: "Report certificates expiring within this many days."},
				}},
			},
			Check: rules.ValidateResourceOfType(models.KindGoogleCertificate, checkCertificateExpiry),
		},
	}
}

// Register adds every Google Cloud policy to reg, stopping at the first error.
func Register(reg *rules.Registry) error {
	for _, p := range Policies() {
		if _, err := reg.Register(p.Metadata, p.Check); err != nil {
			return fmt.Errorf("register google policies: %w", err)
		}
	}
	return nil
}

func checkSecureBoot(inst compute.Instance, _ rules.EvalArgs, report rules.ReportFunc) {
	if inst.ShieldedInstanceConfig == nil || !inst.ShieldedInstanceConfig.EnableSecureBoot {
		report(fmt.Sprintf("Instance %s does not enable secure boot.", inst.Name))
	}
}

func checkExternalIP(inst compute.Instance, _ rules.EvalArgs, report rules.ReportFunc) {
	for _, nic := range inst.NetworkInterfaces {
		if nic == nil {
			continue
		}
		if len(nic.AccessConfigs) > 0 {
			report(fmt.Sprintf("Instance %s has an external IP on interface %s.", inst.Name, nic.Name))
		}
	}
}

func checkDefaultServiceAccount(inst compute.Instance, _ rules.EvalArgs, report rules.ReportFunc) {
	for _, sa := range inst.ServiceAccounts {
		if sa == nil || !strings.HasSuffix(sa.Email, "-compute@developer.gserviceaccount.com") {
			continue
		}
		for _, scope := range sa.Scopes {
			if scope == cloudPlatformScope {
				report(fmt.Sprintf("Instance %s runs as the default service account with full cloud-platform scope.", inst.Name))
				return
			}
		}
	}
}

func checkSerialPort(inst compute.Instance, _ rules.EvalArgs, report rules.ReportFunc) {
	if inst.Metadata == nil {
		return
	}
	for _, item := range inst.Metadata.Items {
		if item == nil || item.Key != "serial-port-enable" || item.Value == nil {
			continue
		}
		if v := strings.ToLower(*item.Value); v == "true" || v == "1" {
			report(fmt.Sprintf("Instance %s enables interactive serial port access.", inst.Name))
		}
	}
}

func checkFirewallAdminPorts(fw compute.Firewall, _ rules.EvalArgs, report rules.ReportFunc) {
	if fw.Disabled || (fw.Direction != "" && fw.Direction != "INGRESS") {
		return
	}
	if !containsString(fw.SourceRanges, "0.0.0.0/0") {
		return
	}
	for _, port := range adminPorts {
		for _, allowed := range fw.Allowed {
			if allowed != nil && firewallAllows(allowed, port) {
				report(fmt.Sprintf("Firewall rule %s allows port %d from 0.0.0.0/0.", fw.Name, port))
				break
			}
		}
	}
}

// firewallAllows reports whether a allows TCP port. An "all" protocol or a
// TCP entry without ports covers every port.
func firewallAllows(a *compute.FirewallAllowed, port int) bool {
	switch strings.ToLower(a.IPProtocol) {
	case "all":
		return true
	case "tcp", "6":
	default:
		return false
	}
	if len(a.Ports) == 0 {
		return true
	}
	for _, p := range a.Ports {
		lo, hi, ok := parsePortRange(p)
		if ok && lo <= port && port <= hi {
			return true
		}
	}
	return false
}

func parsePortRange(s string) (int, int, bool) {
	from, to, isRange := strings.Cut(s, "-")
	lo, err := strconv.Atoi(strings.TrimSpace(from))
	if err != nil {
		return 0, 0, false
	}
	if !isRange {
		return lo, lo, true
	}
	hi, err := strconv.Atoi(strings.TrimSpace(to))
	if err != nil {
		return 0, 0, false
	}
	return lo, hi, true
}

func checkUniformAccess(b storage.Bucket, _ rules.EvalArgs, report rules.ReportFunc) {
	iam := b.IamConfiguration
	if iam == nil || iam.UniformBucketLevelAccess == nil || !iam.UniformBucketLevelAccess.Enabled {
		report(fmt.Sprintf("Bucket %s uses fine-grained ACLs instead of uniform bucket-level access.", b.Name))
	}
}

func checkPublicAccessPrevention(b storage.Bucket, _ rules.EvalArgs, report rules.ReportFunc) {
	if b.IamConfiguration == nil || b.IamConfiguration.PublicAccessPrevention != "enforced" {
		report(fmt.Sprintf("Bucket %s does not enforce public access prevention.", b.Name))
	}
}

func checkSQLRequireSSL(db sqladmin.DatabaseInstance, _ rules.EvalArgs, report rules.ReportFunc) {
	if db.Settings == nil || db.Settings.IpConfiguration == nil {
		return
	}
	ip := db.Settings.IpConfiguration
	if ip.RequireSsl {
		return
	}
	switch ip.SslMode {
	case "ENCRYPTED_ONLY", "TRUSTED_CLIENT_CERTIFICATE_REQUIRED":
		return
	}
	report(fmt.Sprintf("Cloud SQL instance %s accepts unencrypted connections.", db.Name))
}

func checkSQLOpenNetwork(db sqladmin.DatabaseInstance, _ rules.EvalArgs, report rules.ReportFunc) {
	if db.Settings == nil || db.Settings.IpConfiguration == nil {
		return
	}
	for _, acl := range db.Settings.IpConfiguration.AuthorizedNetworks {
		if acl != nil && acl.Value == "0.0.0.0/0" {
			report(fmt.Sprintf("Cloud SQL instance %s authorizes 0.0.0.0/0.", db.Name))
			return
		}
	}
}

func checkSQLBackups(db sqladmin.DatabaseInstance, _ rules.EvalArgs, report rules.ReportFunc) {
	if db.Settings == nil || db.Settings.BackupConfiguration == nil || !db.Settings.BackupConfiguration.Enabled {
		report(fmt.Sprintf("Cloud SQL instance %s does not have automated backups enabled.", db.Name))
	}
}

func checkCertificateExpiry(cert *certificatemanagerpb.Certificate, args rules.EvalArgs, report rules.ReportFunc) {
	if cert == nil || cert.GetExpireTime() == nil {
		return
	}
	expires := cert.GetExpireTime().AsTime()
	left := expires.Sub(args.Time())
	days := int(left.Hours() / 24)
	switch {
	case left <= 0:
		report(fmt.Sprintf("Certificate %s expired on %s.", cert.GetName(), expires.Format("2006-01-02")))
	case days < args.Int("warn_days", 30):
		report(fmt.Sprintf("Certificate %s expires in %d days (%s).", cert.GetName(), days, expires.Format("2006-01-02")))
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
