package azure_test

import (
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azcertificates"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/policies/azure"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"
)

func boolPtr(b bool) *bool    { return &b }
func int32Ptr(v int32) *int32 { return &v }

func eval(t *testing.T, name string, resource any, overrides map[string]any) int {
	t.Helper()
	reg := rules.NewRegistry()
	if err := azure.Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}
	rec, ok := reg.Lookup(name)
	if !ok {
		t.Fatalf("policy %q not registered", name)
	}
	n := 0
	rec.Check.Validate(resource, rules.ResolveArgs(rec.ConfigSchema, overrides, time.Now()), func(string) { n++ })
	return n
}

func TestStorageAccount(t *testing.T) {
	weak := models.AzureStorageAccount{
		Name:                   "weak",
		EnableHTTPSTrafficOnly: boolPtr(false),
		MinimumTLSVersion:      "TLS1_0",
		AllowBlobPublicAccess:  boolPtr(true),
	}
	strong := models.AzureStorageAccount{
		Name:                   "strong",
		EnableHTTPSTrafficOnly: boolPtr(true),
		MinimumTLSVersion:      "TLS1_2",
		AllowBlobPublicAccess:  boolPtr(false),
	}
	for _, name := range []string{"azure-storage-https-only", "azure-storage-min-tls", "azure-storage-no-public-blob"} {
		if got := eval(t, name, weak, nil); got != 1 {
			t.Errorf("%s on weak account: got %d violations; want 1", name, got)
		}
		if got := eval(t, name, &strong, nil); got != 0 {
			t.Errorf("%s on strong account: got %d violations; want 0", name, got)
		}
	}
}

func TestStorageAccount_UnsetHTTPSDefaultsToSecure(t *testing.T) {
	if got := eval(t, "azure-storage-https-only", models.AzureStorageAccount{Name: "a"}, nil); got != 0 {
		t.Errorf("got %d violations; want 0", got)
	}
}

func TestKeyVaultCertificate(t *testing.T) {
	rsa := azcertificates.KeyTypeRSA
	autoRenew := azcertificates.CertificatePolicyActionAutoRenew
	cert := models.AzureKeyVaultCertificate{
		Name: "api",
		Policy: azcertificates.CertificatePolicy{
			KeyProperties:             &azcertificates.KeyProperties{KeyType: &rsa, KeySize: int32Ptr(1024)},
			X509CertificateProperties: &azcertificates.X509CertificateProperties{ValidityInMonths: int32Ptr(24)},
		},
	}
	if got := eval(t, "azure-keyvault-cert-key-size", cert, nil); got != 1 {
		t.Errorf("key size: got %d; want 1", got)
	}
	if got := eval(t, "azure-keyvault-cert-key-size", cert, map[string]any{"min_rsa_bits": 1024}); got != 0 {
		t.Errorf("key size with override: got %d; want 0", got)
	}
	if got := eval(t, "azure-keyvault-cert-validity", cert, nil); got != 1 {
		t.Errorf("validity: got %d; want 1", got)
	}
	if got := eval(t, "azure-keyvault-cert-auto-renew", cert, nil); got != 1 {
		t.Errorf("auto renew: got %d; want 1", got)
	}

	cert.Policy.LifetimeActions = []*azcertificates.LifetimeAction{{
		Action: &azcertificates.LifetimeActionType{ActionType: &autoRenew},
	}}
	if got := eval(t, "azure-keyvault-cert-auto-renew", cert, nil); got != 0 {
		t.Errorf("auto renew after action: got %d; want 0", got)
	}
}
