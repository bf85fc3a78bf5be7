// Package kubernetes collects live cluster objects into resources for the
// Kubernetes policy catalog.
package kubernetes

import k8sclient "k8s.io/client-go/kubernetes"

// ClusterInfo identifies a cluster and the kubeconfig context used to reach it.
type ClusterInfo struct {
	ContextName string
	Server      string
}

// Source is the provenance recorded on collected resources.
func (c ClusterInfo) Source() string {
	if c.ContextName == "" {
		return "kubernetes"
	}
	return "kubernetes/" + c.ContextName
}

// KubeClientProvider creates clientsets for kubeconfig contexts. Tests
// inject a provider returning a fake clientset.
type KubeClientProvider interface {
	// ClientsetForContext returns a clientset for contextName; an empty name
	// selects the current context.
	ClientsetForContext(contextName string) (k8sclient.Interface, ClusterInfo, error)
}

// DefaultKubeClientProvider loads the kubeconfig named by path, or the
// standard $KUBECONFIG / ~/.kube/config chain when path is empty.
type DefaultKubeClientProvider struct {
	path string
}

// NewDefaultKubeClientProvider returns a provider for the kubeconfig at path.
func NewDefaultKubeClientProvider(path string) *DefaultKubeClientProvider {
	return &DefaultKubeClientProvider{path: path}
}

// ClientsetForContext implements KubeClientProvider.
func (p *DefaultKubeClientProvider) ClientsetForContext(contextName string) (k8sclient.Interface, ClusterInfo, error) {
	return LoadClientset(p.path, contextName)
}
