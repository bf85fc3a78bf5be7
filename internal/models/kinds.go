package models

import "strings"

// Vendor identifiers used in policy metadata and resource kinds.
const (
	VendorAWS        = "aws"
	VendorAzure      = "azure"
	VendorGoogle     = "google"
	VendorKubernetes = "kubernetes"
)

// ResourceKind identifies the typed shape of a resource as "<vendor>:<type>".
// The set of kinds is closed: every kind maps to exactly one Go type that
// checks for that kind receive (see the comment on each constant).
//
// A kind of the form "<vendor>:*" is a wildcard that only checks use; it
// matches every resource kind of that vendor.
type ResourceKind string

const (
	// AWS
	KindAWSEC2Instance       ResourceKind = "aws:ec2/instance"        // ec2types.Instance
	KindAWSEBSVolume         ResourceKind = "aws:ec2/volume"          // ec2types.Volume
	KindAWSSecurityGroup     ResourceKind = "aws:ec2/security-group"  // ec2types.SecurityGroup
	KindAWSS3Bucket          ResourceKind = "aws:s3/bucket"           // S3Bucket
	KindAWSRDSInstance       ResourceKind = "aws:rds/instance"        // rdstypes.DBInstance
	KindAWSIAMUser           ResourceKind = "aws:iam/user"            // IAMUser
	KindAWSRootAccount       ResourceKind = "aws:iam/root-account"    // RootAccount
	KindAWSLoadBalancer      ResourceKind = "aws:elbv2/load-balancer" // LoadBalancer
	KindAWSCloudTrail        ResourceKind = "aws:cloudtrail/trail"    // cloudtrailtypes.Trail
	KindAWSEKSCluster        ResourceKind = "aws:eks/cluster"         // ekstypes.Cluster
	KindAWSGuardDutyDetector ResourceKind = "aws:guardduty/detector"  // GuardDutyDetector
	KindAWSConfigRecorder    ResourceKind = "aws:config/recorder"     // configtypes.ConfigurationRecorderStatus

	// Azure
	KindAzureStorageAccount      ResourceKind = "azure:storage/account"      // AzureStorageAccount
	KindAzureKeyVaultCertificate ResourceKind = "azure:keyvault/certificate" // AzureKeyVaultCertificate

	// Google Cloud
	KindGoogleComputeInstance ResourceKind = "google:compute/instance"               // compute.Instance
	KindGoogleFirewall        ResourceKind = "google:compute/firewall"               // compute.Firewall
	KindGoogleStorageBucket   ResourceKind = "google:storage/bucket"                 // storage.Bucket
	KindGoogleSQLInstance     ResourceKind = "google:sql/instance"                   // sqladmin.DatabaseInstance
	KindGoogleCertificate     ResourceKind = "google:certificatemanager/certificate" // certificatemanagerpb.Certificate

	// Kubernetes
	KindK8sPod                ResourceKind = "kubernetes:Pod"                // *corev1.Pod
	KindK8sDeployment         ResourceKind = "kubernetes:Deployment"         // *appsv1.Deployment
	KindK8sService            ResourceKind = "kubernetes:Service"            // *corev1.Service
	KindK8sNamespace          ResourceKind = "kubernetes:Namespace"          // *corev1.Namespace
	KindK8sIngress            ResourceKind = "kubernetes:Ingress"            // *networkingv1.Ingress
	KindK8sClusterRoleBinding ResourceKind = "kubernetes:ClusterRoleBinding" // *rbacv1.ClusterRoleBinding
	KindK8sObject             ResourceKind = "kubernetes:Object"             // *unstructured.Unstructured
	KindK8sAny                ResourceKind = "kubernetes:*"                  // any runtime.Object
)

var knownKinds = []ResourceKind{
	KindAWSEC2Instance,
	KindAWSEBSVolume,
	KindAWSSecurityGroup,
	KindAWSS3Bucket,
	KindAWSRDSInstance,
	KindAWSIAMUser,
	KindAWSRootAccount,
	KindAWSLoadBalancer,
	KindAWSCloudTrail,
	KindAWSEKSCluster,
	KindAWSGuardDutyDetector,
	KindAWSConfigRecorder,
	KindAzureStorageAccount,
	KindAzureKeyVaultCertificate,
	KindGoogleComputeInstance,
	KindGoogleFirewall,
	KindGoogleStorageBucket,
	KindGoogleSQLInstance,
	KindGoogleCertificate,
	KindK8sPod,
	KindK8sDeployment,
	KindK8sService,
	KindK8sNamespace,
	KindK8sIngress,
	KindK8sClusterRoleBinding,
	KindK8sObject,
}

// KnownKinds returns every concrete resource kind in declaration order.
// Wildcard kinds are not included.
func KnownKinds() []ResourceKind {
	out := make([]ResourceKind, len(knownKinds))
	copy(out, knownKinds)
	return out
}

// IsKnown reports whether k is a concrete kind or a vendor wildcard.
func (k ResourceKind) IsKnown() bool {
	if k.IsWildcard() {
		switch k.Vendor() {
		case VendorAWS, VendorAzure, VendorGoogle, VendorKubernetes:
			return true
		}
		return false
	}
	for _, known := range knownKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Vendor returns the vendor prefix of k ("aws" for "aws:ec2/instance").
func (k ResourceKind) Vendor() string {
	vendor, _, _ := strings.Cut(string(k), ":")
	return vendor
}

// IsWildcard reports whether k has the "<vendor>:*" form.
func (k ResourceKind) IsWildcard() bool {
	return strings.HasSuffix(string(k), ":*")
}

// Matches reports whether a check declared for kind k applies to a resource
// of kind other.
func (k ResourceKind) Matches(other ResourceKind) bool {
	if k == other {
		return true
	}
	return k.IsWildcard() && k.Vendor() == other.Vendor()
}

// Resource is one inventory item handed to checks. Properties holds the typed
// value that Kind declares; checks receive it unchanged.
type Resource struct {
	Kind ResourceKind `json:"kind"`
	Name string       `json:"name"`
	// Source locates the resource: a file path, "region/account", or a
	// kubeconfig context.
	Source     string `json:"source,omitempty"`
	Properties any    `json:"properties"`
}
