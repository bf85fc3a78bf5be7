package kubernetes

import (
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	"k8s.io/apimachinery/pkg/runtime"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"
)

const podSecurityEnforceLabel = "pod-security.kubernetes.io/enforce"

// internalLBAnnotations mark a LoadBalancer service as private on the major
// managed platforms.
var internalLBAnnotations = map[string]string{
	"service.beta.kubernetes.io/aws-load-balancer-internal":   "true",
	"service.beta.kubernetes.io/aws-load-balancer-scheme":     "internal",
	"networking.gke.io/load-balancer-type":                    "Internal",
	"service.beta.kubernetes.io/azure-load-balancer-internal": "true",
}

// broadSubjects are group and user names that cover every caller.
var broadSubjects = []string{"system:authenticated", "system:unauthenticated", "system:anonymous", "system:serviceaccounts"}

var systemNamespaces = []string{"kube-system", "kube-public", "kube-node-lease"}

func clusterPolicies() []rules.Record {
	return []rules.Record{
		{
			Metadata: rules.Metadata{
				Name:        "kubernetes-service-no-public-lb",
				Description: "Services of type LoadBalancer must be internal unless explicitly allowed.",
				Vendors:     []string{models.VendorKubernetes},
				Services:    []string{"service"},
				Severity:    models.SeverityMedium,
				Topics:      []string{"network"},
				Frameworks:  []string{"pcidss"},
				ConfigSchema: &rules.ConfigSchema{Properties: map[string]rules.ConfigProperty{
					"allowed_namespaces": {Type: rules.TypeArray, Default: []string{}, Description: "Namespaces allowed to expose public load balancers."},
				}},
			},
			Check: rules.ValidateResourceOfType(models.KindK8sService, checkPublicLoadBalancer),
		},
		{
			Metadata: rules.Metadata{
				Name:             "kubernetes-rbac-no-broad-cluster-admin",
				Description:      "cluster-admin must not be bound to every user, every service account, or a default service account.",
				EnforcementLevel: models.EnforcementMandatory,
				Vendors:          []string{models.VendorKubernetes},
				Services:         []string{"rbac"},
				Severity:         models.SeverityCritical,
				Topics:           []string{"identity"},
				Frameworks:       []string{"cis", "pcidss", "hitrust", "iso27001"},
			},
			Check: rules.ValidateResourceOfType(models.KindK8sClusterRoleBinding, checkBroadClusterAdmin),
		},
		{
			Metadata: rules.Metadata{
				Name:        "kubernetes-ingress-tls",
				Description: "Ingresses must terminate TLS.",
				Vendors:     []string{models.VendorKubernetes},
				Services:    []string{"ingress"},
				Severity:    models.SeverityMedium,
				Topics:      []string{"encryption", "tls"},
				Frameworks:  []string{"pcidss", "hitrust"},
			},
			Check: rules.ValidateResourceOfType(models.KindK8sIngress, checkIngressTLS),
		},
		{
			Metadata: rules.Metadata{
				Name:        "kubernetes-namespace-pod-security",
				Description: "Namespaces must enforce a Pod Security Admission level.",
				Vendors:     []string{models.VendorKubernetes},
				Services:    []string{"namespace"},
				Severity:    models.SeverityMedium,
				Topics:      []string{"workload"},
				Frameworks:  []string{"cis"},
				ConfigSchema: &rules.ConfigSchema{Properties: map[string]rules.ConfigProperty{
					"levels":            {Type: rules.TypeArray, Default: []string{"baseline", "restricted"}, Description: "Accepted enforce levels."},
					"exempt_namespaces": {Type: rules.TypeArray, Default: systemNamespaces, Description: "Namespaces that are not checked."},
				}},
			},
			Check: rules.ValidateResourceOfType(models.KindK8sNamespace, checkPodSecurityLabel),
		},
		{
			Metadata: rules.Metadata{
				Name:        "kubernetes-namespace-owner-label",
				Description: "Namespaces must document their owning team in labels.",
				Vendors:     []string{models.VendorKubernetes},
				Services:    []string{"namespace"},
				Severity:    models.SeverityLow,
				Topics:      []string{"documentation"},
				Frameworks:  []string{"iso27001"},
				ConfigSchema: &rules.ConfigSchema{Properties: map[string]rules.ConfigProperty{
					"labels":            {Type: rules.TypeArray, Default: []string{"owner"}, Description: "Label keys every namespace must carry."},
					"exempt_namespaces": {Type: rules.TypeArray, Default: systemNamespaces, Description: "Namespaces that are not checked."},
				}},
			},
			Check: rules.ValidateResourceOfType(models.KindK8sNamespace, checkOwnerLabels),
		},
		{
			Metadata: rules.Metadata{
				Name:        "kubernetes-stable-api-version",
				Description: "Objects should not use alpha or beta API versions.",
				Vendors:     []string{models.VendorKubernetes},
				Services:    []string{"api"},
				Severity:    models.SeverityLow,
				Topics:      []string{"documentation", "availability"},
			},
			Check: rules.ValidateResourceOfType(models.KindK8sAny, checkStableAPIVersion),
		},
	}
}

func checkPublicLoadBalancer(svc *corev1.Service, args rules.EvalArgs, report rules.ReportFunc) {
	if svc == nil || svc.Spec.Type != corev1.ServiceTypeLoadBalancer {
		return
	}
	if containsString(args.Strings("allowed_namespaces", nil), svc.Namespace) {
		return
	}
	for key, want := range internalLBAnnotations {
		if strings.EqualFold(svc.Annotations[key], want) {
			return
		}
	}
	report(fmt.Sprintf("Service %s/%s exposes a public load balancer.", svc.Namespace, svc.Name))
}

func checkBroadClusterAdmin(crb *rbacv1.ClusterRoleBinding, _ rules.EvalArgs, report rules.ReportFunc) {
	if crb == nil || crb.RoleRef.Kind != "ClusterRole" || crb.RoleRef.Name != "cluster-admin" {
		return
	}
	for _, s := range crb.Subjects {
		switch {
		case (s.Kind == rbacv1.GroupKind || s.Kind == rbacv1.UserKind) && containsString(broadSubjects, s.Name):
			report(fmt.Sprintf("ClusterRoleBinding %s grants cluster-admin to %s %q.", crb.Name, strings.ToLower(s.Kind), s.Name))
		case s.Kind == rbacv1.ServiceAccountKind && s.Name == "default":
			report(fmt.Sprintf("ClusterRoleBinding %s grants cluster-admin to the default service account in %q.", crb.Name, s.Namespace))
		}
	}
}

func checkIngressTLS(ing *networkingv1.Ingress, _ rules.EvalArgs, report rules.ReportFunc) {
	if ing == nil {
		return
	}
	if len(ing.Spec.TLS) == 0 {
		report(fmt.Sprintf("Ingress %s/%s does not terminate TLS.", ing.Namespace, ing.Name))
	}
}

func checkPodSecurityLabel(ns *corev1.Namespace, args rules.EvalArgs, report rules.ReportFunc) {
	if ns == nil || containsString(args.Strings("exempt_namespaces", systemNamespaces), ns.Name) {
		return
	}
	level, ok := ns.Labels[podSecurityEnforceLabel]
	switch {
	case !ok:
		report(fmt.Sprintf("Namespace %s has no %s label.", ns.Name, podSecurityEnforceLabel))
	case !containsString(args.Strings("levels", []string{"baseline", "restricted"}), level):
		report(fmt.Sprintf("Namespace %s enforces pod security level %q.", ns.Name, level))
	}
}

func checkOwnerLabels(ns *corev1.Namespace, args rules.EvalArgs, report rules.ReportFunc) {
	if ns == nil || containsString(args.Strings("exempt_namespaces", systemNamespaces), ns.Name) {
		return
	}
	for _, key := range args.Strings("labels", []string{"owner"}) {
		if ns.Labels[key] == "" {
			report(fmt.Sprintf("Namespace %s is missing label %q.", ns.Name, key))
		}
	}
}

// checkStableAPIVersion inspects the apiVersion recorded on obj. Objects
// whose GroupVersionKind is unset are skipped.
func checkStableAPIVersion(obj runtime.Object, _ rules.EvalArgs, report rules.ReportFunc) {
	if obj == nil || obj.GetObjectKind() == nil {
		return
	}
	gvk := obj.GetObjectKind().GroupVersionKind()
	if gvk.Version == "" {
		return
	}
	if strings.Contains(gvk.Version, "alpha") || strings.Contains(gvk.Version, "beta") {
		report(fmt.Sprintf("%s uses pre-release API version %s.", gvk.Kind, gvk.GroupVersion().String()))
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
