package kubernetes

import (
	"fmt"

	k8sclient "k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
)

// LoadClientset builds a clientset from kubeconfigPath for contextName.
// An empty path follows the standard loading rules ($KUBECONFIG, then
// ~/.kube/config); an empty context selects the current one.
func LoadClientset(kubeconfigPath, contextName string) (k8sclient.Interface, ClusterInfo, error) {
	cfg, info, err := clientConfig(kubeconfigPath, contextName)
	if err != nil {
		return nil, ClusterInfo{}, err
	}

	restCfg, err := cfg.ClientConfig()
	if err != nil {
		return nil, ClusterInfo{}, fmt.Errorf("build REST config for context %q: %w", info.ContextName, err)
	}
	clientset, err := k8sclient.NewForConfig(restCfg)
	if err != nil {
		return nil, ClusterInfo{}, fmt.Errorf("build clientset for context %q: %w", info.ContextName, err)
	}
	return clientset, info, nil
}

// clientConfig resolves the kubeconfig and the effective context without
// contacting the cluster.
func clientConfig(kubeconfigPath, contextName string) (clientcmd.ClientConfig, ClusterInfo, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfigPath != "" {
		rules.ExplicitPath = kubeconfigPath
	}
	cfg := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{CurrentContext: contextName})

	raw, err := cfg.RawConfig()
	if err != nil {
		return nil, ClusterInfo{}, fmt.Errorf("load kubeconfig: %w", err)
	}

	info := ClusterInfo{ContextName: raw.CurrentContext}
	if contextName != "" {
		info.ContextName = contextName
	}
	kctx, ok := raw.Contexts[info.ContextName]
	if !ok {
		return nil, ClusterInfo{}, fmt.Errorf("kubeconfig has no context %q", info.ContextName)
	}
	if cluster, ok := raw.Clusters[kctx.Cluster]; ok {
		info.Server = cluster.Server
	}
	return cfg, info, nil
}
