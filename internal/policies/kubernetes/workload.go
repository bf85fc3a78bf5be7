package kubernetes

import (
	"fmt"
	"strings"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"
)

var dangerousCapabilities = []string{"ALL", "SYS_ADMIN", "NET_ADMIN", "SYS_PTRACE", "SYS_MODULE"}

func workloadPolicies() []rules.Record {
	return []rules.Record{
		{
			Metadata: rules.Metadata{
				Name:             "kubernetes-pod-no-privileged",
				Description:      "Containers must not run in privileged mode.",
				EnforcementLevel: models.EnforcementMandatory,
				Vendors:          []string{models.VendorKubernetes},
				Services:         []string{"pod"},
				Severity:         models.SeverityCritical,
				Topics:           []string{"workload"},
				Frameworks:       []string{"cis", "pcidss", "hitrust"},
			},
			Check: rules.ValidateResourceOfType(models.KindK8sPod, checkPrivileged),
		},
		{
			Metadata: rules.Metadata{
				Name:             "kubernetes-pod-no-host-namespaces",
				Description:      "Pods must not share the host network, PID or IPC namespaces.",
				EnforcementLevel: models.EnforcementMandatory,
				Vendors:          []string{models.VendorKubernetes},
				Services:         []string{"pod"},
				Severity:         models.SeverityHigh,
				Topics:           []string{"workload", "network"},
				Frameworks:       []string{"cis", "pcidss"},
			},
			Check: rules.ValidateResourceOfType(models.KindK8sPod, checkHostNamespaces),
		},
		{
			Metadata: rules.Metadata{
				Name:        "kubernetes-pod-run-as-non-root",
				Description: "Containers must run as a non-root user.",
				Vendors:     []string{models.VendorKubernetes},
				Services:    []string{"pod"},
				Severity:    models.SeverityHigh,
				Topics:      []string{"workload"},
				Frameworks:  []string{"cis", "iso27001"},
			},
			Check: rules.ValidateResourceOfType(models.KindK8sPod, checkRunAsNonRoot),
		},
		{
			Metadata: rules.Metadata{
				Name:        "kubernetes-pod-resource-limits",
				Description: "Containers must declare resource limits.",
				Vendors:     []string{models.VendorKubernetes},
				Services:    []string{"pod"},
				Severity:    models.SeverityMedium,
				Topics:      []string{"workload", "availability"},
				Frameworks:  []string{"cis"},
				ConfigSchema: &rules.ConfigSchema{Properties: map[string]rules.ConfigProperty{
					"resources": {Type: rules.TypeArray, Default: []string{"cpu", "memory"}, Description: "Resource names every container must limit."},
				}},
			},
			Check: rules.ValidateResourceOfType(models.KindK8sPod, checkResourceLimits),
		},
		{
			Metadata: rules.Metadata{
				Name:        "kubernetes-pod-no-latest-tag",
				Description: "Container images must be pinned to a tag other than latest or to a digest.",
				Vendors:     []string{models.VendorKubernetes},
				Services:    []string{"pod"},
				Severity:    models.SeverityLow,
				Topics:      []string{"workload", "supply-chain"},
				Frameworks:  []string{"iso27001"},
			},
			Check: rules.ValidateResourceOfType(models.KindK8sPod, checkLatestTag),
		},
		{
			Metadata: rules.Metadata{
				Name:        "kubernetes-pod-no-privilege-escalation",
				Description: "Containers must set allowPrivilegeEscalation to false.",
				Vendors:     []string{models.VendorKubernetes},
				Services:    []string{"pod"},
				Severity:    models.SeverityMedium,
				Topics:      []string{"workload"},
				Frameworks:  []string{"cis"},
			},
			Check: rules.ValidateResourceOfType(models.KindK8sPod, checkPrivilegeEscalation),
		},
		{
			Metadata: rules.Metadata{
				Name:             "kubernetes-pod-no-dangerous-capabilities",
				Description:      "Containers must not add Linux capabilities that grant near-root access.",
				EnforcementLevel: models.EnforcementMandatory,
				Vendors:          []string{models.VendorKubernetes},
				Services:         []string{"pod"},
				Severity:         models.SeverityHigh,
				Topics:           []string{"workload"},
				Frameworks:       []string{"cis", "pcidss"},
				ConfigSchema: &rules.ConfigSchema{Properties: map[string]rules.ConfigProperty{
					"capabilities": {Type: rules.TypeArray, Default: dangerousCapabilities, Description: "Capabilities that must not appear in capabilities.add."},
				}},
			},
			Check: rules.ValidateResourceOfType(models.KindK8sPod, checkAddedCapabilities),
		},
		{
			Metadata: rules.Metadata{
				Name:        "kubernetes-pod-no-default-service-account",
				Description: "Pods should run under a dedicated service account.",
				Vendors:     []string{models.VendorKubernetes},
				Services:    []string{"pod"},
				Severity:    models.SeverityLow,
				Topics:      []string{"identity", "workload"},
				Frameworks:  []string{"cis"},
				ConfigSchema: &rules.ConfigSchema{Properties: map[string]rules.ConfigProperty{
					"exempt_namespaces": {Type: rules.TypeArray, Default: systemNamespaces, Description: "Namespaces that are not checked."},
				}},
			},
			Check: rules.ValidateResourceOfType(models.KindK8sPod, checkDefaultServiceAccount),
		},
		{
			Metadata: rules.Metadata{
				Name:        "kubernetes-deployment-min-replicas",
				Description: "Deployments must run at least the configured number of replicas.",
				Vendors:     []string{models.VendorKubernetes},
				Services:    []string{"deployment"},
				Severity:    models.SeverityLow,
				Topics:      []string{"availability"},
				Frameworks:  []string{"iso27001"},
				ConfigSchema: &rules.ConfigSchema{Properties: map[string]rules.ConfigProperty{
					"min_replicas": {Type: rules.TypeInteger, Default: 2, Description: "Minimum spec.replicas."},
				}},
			},
			Check: rules.ValidateResourceOfType(models.KindK8sDeployment, checkReplicas),
		},
	}
}

// containers returns the init and regular containers of pod.
func containers(pod *corev1.Pod) []corev1.Container {
	out := make([]corev1.Container, 0, len(pod.Spec.InitContainers)+len(pod.Spec.Containers))
	out = append(out, pod.Spec.InitContainers...)
	return append(out, pod.Spec.Containers...)
}

func podName(pod *corev1.Pod) string {
	if pod.Namespace == "" {
		return pod.Name
	}
	return pod.Namespace + "/" + pod.Name
}

func checkPrivileged(pod *corev1.Pod, _ rules.EvalArgs, report rules.ReportFunc) {
	if pod == nil {
		return
	}
	for _, c := range containers(pod) {
		if c.SecurityContext != nil && c.SecurityContext.Privileged != nil && *c.SecurityContext.Privileged {
			report(fmt.Sprintf("Pod %s container %q runs privileged.", podName(pod), c.Name))
		}
	}
}

func checkHostNamespaces(pod *corev1.Pod, _ rules.EvalArgs, report rules.ReportFunc) {
	if pod == nil {
		return
	}
	var shared []string
	if pod.Spec.HostNetwork {
		shared = append(shared, "network")
	}
	if pod.Spec.HostPID {
		shared = append(shared, "PID")
	}
	if pod.Spec.HostIPC {
		shared = append(shared, "IPC")
	}
	if len(shared) > 0 {
		report(fmt.Sprintf("Pod %s shares the host %s namespace.", podName(pod), strings.Join(shared, ", ")))
	}
}

// checkRunAsNonRoot resolves each container's effective identity: container
// settings override the pod security context.
func checkRunAsNonRoot(pod *corev1.Pod, _ rules.EvalArgs, report rules.ReportFunc) {
	if pod == nil {
		return
	}
	var podNonRoot *bool
	var podUser *int64
	if psc := pod.Spec.SecurityContext; psc != nil {
		podNonRoot, podUser = psc.RunAsNonRoot, psc.RunAsUser
	}
	for _, c := range containers(pod) {
		nonRoot, user := podNonRoot, podUser
		if sc := c.SecurityContext; sc != nil {
			if sc.RunAsNonRoot != nil {
				nonRoot = sc.RunAsNonRoot
			}
			if sc.RunAsUser != nil {
				user = sc.RunAsUser
			}
		}
		if user != nil && *user == 0 {
			report(fmt.Sprintf("Pod %s container %q runs as UID 0.", podName(pod), c.Name))
			continue
		}
		if (nonRoot == nil || !*nonRoot) && user == nil {
			report(fmt.Sprintf("Pod %s container %q may run as root; set runAsNonRoot.", podName(pod), c.Name))
		}
	}
}

func checkResourceLimits(pod *corev1.Pod, args rules.EvalArgs, report rules.ReportFunc) {
	if pod == nil {
		return
	}
	required := args.Strings("resources", []string{"cpu", "memory"})
	for _, c := range pod.Spec.Containers {
		var missing []string
		for _, r := range required {
			if _, ok := c.Resources.Limits[corev1.ResourceName(r)]; !ok {
				missing = append(missing, r)
			}
		}
		if len(missing) > 0 {
			report(fmt.Sprintf("Pod %s container %q has no %s limit.", podName(pod), c.Name, strings.Join(missing, "/")))
		}
	}
}

func checkLatestTag(pod *corev1.Pod, _ rules.EvalArgs, report rules.ReportFunc) {
	if pod == nil {
		return
	}
	for _, c := range containers(pod) {
		if unpinned(c.Image) {
			report(fmt.Sprintf("Pod %s container %q uses unpinned image %q.", podName(pod), c.Name, c.Image))
		}
	}
}

// unpinned reports whether image has no tag, the latest tag, and no digest.
func unpinned(image string) bool {
	if strings.Contains(image, "@") {
		return false
	}
	name := image[strings.LastIndex(image, "/")+1:]
	_, tag, hasTag := strings.Cut(name, ":")
	return !hasTag || tag == "latest"
}

func checkPrivilegeEscalation(pod *corev1.Pod, _ rules.EvalArgs, report rules.ReportFunc) {
	if pod == nil {
		return
	}
	for _, c := range containers(pod) {
		sc := c.SecurityContext
		if sc == nil || sc.AllowPrivilegeEscalation == nil || *sc.AllowPrivilegeEscalation {
			report(fmt.Sprintf("Pod %s container %q allows privilege escalation.", podName(pod), c.Name))
		}
	}
}

func checkAddedCapabilities(pod *corev1.Pod, args rules.EvalArgs, report rules.ReportFunc) {
	if pod == nil {
		return
	}
	denied := args.Strings("capabilities", dangerousCapabilities)
	for _, c := range containers(pod) {
		if c.SecurityContext == nil || c.SecurityContext.Capabilities == nil {
			continue
		}
		for _, capability := range c.SecurityContext.Capabilities.Add {
			if containsString(denied, strings.ToUpper(string(capability))) {
				report(fmt.Sprintf("Pod %s container %q adds capability %s.", podName(pod), c.Name, capability))
			}
		}
	}
}

// checkDefaultServiceAccount treats an unset serviceAccountName as "default",
// which is what the API server assigns.
func checkDefaultServiceAccount(pod *corev1.Pod, args rules.EvalArgs, report rules.ReportFunc) {
	if pod == nil || containsString(args.Strings("exempt_namespaces", systemNamespaces), pod.Namespace) {
		return
	}
	if sa := pod.Spec.ServiceAccountName; sa == "" || sa == "default" {
		report(fmt.Sprintf("Pod %s runs under the default service account.", podName(pod)))
	}
}

func checkReplicas(d *appsv1.Deployment, args rules.EvalArgs, report rules.ReportFunc) {
	if d == nil {
		return
	}
	replicas := int32(1)
	if d.Spec.Replicas != nil {
		replicas = *d.Spec.Replicas
	}
	if min := args.Int("min_replicas", 2); int(replicas) < min {
		report(fmt.Sprintf("Deployment %s/%s runs %d replica(s) (minimum %d).", d.Namespace, d.Name, replicas, min))
	}
}
