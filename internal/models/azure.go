package models

import "github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azcertificates"

// AzureStorageAccount is the security-relevant subset of an Azure storage
// account's ARM properties.
type AzureStorageAccount struct {
	Name                   string `json:"name"`
	ResourceGroup          string `json:"resource_group,omitempty"`
	Location               string `json:"location,omitempty"`
	EnableHTTPSTrafficOnly *bool  `json:"enable_https_traffic_only,omitempty"`
	// MinimumTLSVersion uses the ARM enum form: TLS1_0, TLS1_1, TLS1_2.
	MinimumTLSVersion     string `json:"minimum_tls_version,omitempty"`
	AllowBlobPublicAccess *bool  `json:"allow_blob_public_access,omitempty"`
}

// AzureKeyVaultCertificate is a Key Vault certificate and its issuance policy.
type AzureKeyVaultCertificate struct {
	Name     string                           `json:"name"`
	VaultURL string                           `json:"vault_url,omitempty"`
	Policy   azcertificates.CertificatePolicy `json:"policy"`
}
