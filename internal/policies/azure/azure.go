// Package azure holds the Azure policy catalog.
package azure

import (
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azcertificates"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"
)

const minimumTLS = "TLS1_2"

// Policies returns the Azure catalog in registration order.
func Policies() []rules.Record {
	return []rules.Record{
		{
			Metadata: rules.Metadata{
				Name:             "azure-storage-https-only",
				Description:      "Storage accounts must reject unencrypted HTTP traffic.",
				EnforcementLevel: models.EnforcementMandatory,
				Vendors:          []string{models.VendorAzure},
				Services:         []string{"storage"},
				Severity:         models.SeverityHigh,
				Topics:           []string{"encryption", "network"},
				Frameworks:       []string{"pcidss", "cis", "hitrust"},
			},
			Check: rules.ValidateResourceOfType(models.KindAzureStorageAccount, checkHTTPSOnly),
		},
		{
			Metadata: rules.Metadata{
				Name:        "azure-storage-min-tls",
				Description: "Storage accounts must require TLS 1.2 or newer.",
				Vendors:     []string{models.VendorAzure},
				Services:    []string{"storage"},
				Severity:    models.SeverityMedium,
				Topics:      []string{"encryption"},
				Frameworks:  []string{"pcidss", "cis"},
			},
			Check: rules.ValidateResourceOfType(models.KindAzureStorageAccount, checkMinimumTLS),
		},
		{
			Metadata: rules.Metadata{
				Name:             "azure-storage-no-public-blob",
				Description:      "Storage accounts must disallow anonymous blob access.",
				EnforcementLevel: models.EnforcementMandatory,
				Vendors:          []string{models.VendorAzure},
				Services:         []string{"storage"},
				Severity:         models.SeverityCritical,
				Topics:           []string{"network", "data-protection"},
				Frameworks:       []string{"pcidss", "cis", "iso27001"},
			},
			Check: rules.ValidateResourceOfType(models.KindAzureStorageAccount, checkBlobPublicAccess),
		},
		{
			Metadata: rules.Metadata{
				Name:        "azure-keyvault-cert-key-size",
				Description: "Key Vault RSA certificates must use keys of at least the configured size.",
				Vendors:     []string{models.VendorAzure},
				Services:    []string{"keyvault"},
				Severity:    models.SeverityHigh,
				Topics:      []string{"encryption", "tls"},
				Frameworks:  []string{"pcidss", "hitrust"},
				ConfigSchema: &rules.ConfigSchema{Properties: map[string]rules.ConfigProperty{
					"min_rsa_bits": {Type: rules.TypeInteger, Default: 2048, Description: "Minimum RSA key size in bits."},
				}},
			},
			Check: rules.ValidateResourceOfType(models.KindAzureKeyVaultCertificate, checkKeySize),
		},
		{
			Metadata: rules.Metadata{
				Name:        "azure-keyvault-cert-validity",
				Description: "Key Vault certificates must not be issued for longer than the configured validity.",
				Vendors:     []string{models.VendorAzure},
				Services:    []string{"keyvault"},
				Severity:    models.SeverityMedium,
				Topics:      []string{"tls"},
				Frameworks:  []string{"iso27001"},
				ConfigSchema: &rules.ConfigSchema{Properties: map[string]rules.ConfigProperty{
					"max_validity_months": {Type: rules.TypeInteger, Default: 12, Description: "Maximum certificate validity in months."},
				}},
			},
			Check: rules.ValidateResourceOfType(models.KindAzureKeyVaultCertificate, checkValidity),
		},
		{
			Metadata: rules.Metadata{
				Name:        "azure-keyvault-cert-auto-renew",
				Description: "Key Vault certificates should carry an AutoRenew lifetime action.",
				Vendors:     []string{models.VendorAzure},
				Services:    []string{"keyvault"},
				Severity:    models.SeverityLow,
				Topics:      []string{"tls", "availability"},
				Frameworks:  []string{"iso27001", "hitrust"},
			},
			Check: rules.ValidateResourceOfType(models.KindAzureKeyVaultCertificate, checkAutoRenew),
		},
	}
}

// Register adds every Azure policy to reg, stopping at the first error.
func Register(reg *rules.Registry) error {
	for _, p := range Policies() {
		if _, err := reg.Register(p.Metadata, p.Check); err != nil {
			return fmt.Errorf("register azure policies: %w", err)
		}
	}
	return nil
}

func checkHTTPSOnly(a models.AzureStorageAccount, _ rules.EvalArgs, report rules.ReportFunc) {
	// ARM defaults supportsHttpsTrafficOnly to true for new accounts.
	if a.EnableHTTPSTrafficOnly != nil && !*a.EnableHTTPSTrafficOnly {
		report(fmt.Sprintf("Storage account %s accepts plain HTTP traffic.", a.Name))
	}
}

func checkMinimumTLS(a models.AzureStorageAccount, _ rules.EvalArgs, report rules.ReportFunc) {
	v := strings.ToUpper(a.MinimumTLSVersion)
	if v == "" || v < minimumTLS {
		report(fmt.Sprintf("Storage account %s accepts TLS versions below 1.2 (minimum %q).", a.Name, a.MinimumTLSVersion))
	}
}

func checkBlobPublicAccess(a models.AzureStorageAccount, _ rules.EvalArgs, report rules.ReportFunc) {
	if a.AllowBlobPublicAccess == nil || *a.AllowBlobPublicAccess {
		report(fmt.Sprintf("Storage account %s allows anonymous blob access.", a.Name))
	}
}

func checkKeySize(c models.AzureKeyVaultCertificate, args rules.EvalArgs, report rules.ReportFunc) {
	kp := c.Policy.KeyProperties
	if kp == nil || kp.KeyType == nil {
		return
	}
	if *kp.KeyType != azcertificates.KeyTypeRSA && *kp.KeyType != azcertificates.KeyTypeRSAHSM {
		return
	}
	min := args.Int("min_rsa_bits", 2048)
	size := 0
	if kp.KeySize != nil {
		size = int(*kp.KeySize)
	}
	if size < min {
		report(fmt.Sprintf("Certificate %s uses a %d-bit RSA key (minimum %d).", c.Name, size, min))
	}
}

func checkValidity(c models.AzureKeyVaultCertificate, args rules.EvalArgs, report rules.ReportFunc) {
	x := c.Policy.X509CertificateProperties
	if x == nil || x.ValidityInMonths == nil {
		return
	}
	max := args.Int("max_validity_months", 12)
	if months := int(*x.ValidityInMonths); months > max {
		report(fmt.Sprintf("Certificate %s is issued for %d months (maximum %d).", c.Name, months, max))
	}
}

func checkAutoRenew(c models.AzureKeyVaultCertificate, _ rules.EvalArgs, report rules.ReportFunc) {
	for _, la := range c.Policy.LifetimeActions {
		if la == nil || la.Action == nil || la.Action.ActionType == nil {
			continue
		}
		if *la.Action.ActionType == azcertificates.CertificatePolicyActionAutoRenew {
			return
		}
	}
	report(fmt.Sprintf("Certificate %s has no AutoRenew lifetime action.", c.Name))
}
