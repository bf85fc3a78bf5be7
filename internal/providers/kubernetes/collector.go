package kubernetes

import (
	"context"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	k8sclient "k8s.io/client-go/kubernetes"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/resources"
)

// Options narrows a collection.
type Options struct {
	// Namespace limits namespaced objects to one namespace. Cluster-scoped
	// objects are still collected; Namespaces is reduced to that namespace.
	Namespace string
}

// lister lists one object type as typed runtime.Objects.
type lister struct {
	gvk  schema.GroupVersionKind
	list func(ctx context.Context, cs k8sclient.Interface, ns string) ([]runtime.Object, error)
}

var listers = []lister{
	{corev1.SchemeGroupVersion.WithKind("Namespace"), listNamespaces},
	{corev1.SchemeGroupVersion.WithKind("Pod"), listPods},
	{appsv1.SchemeGroupVersion.WithKind("Deployment"), listDeployments},
	{corev1.SchemeGroupVersion.WithKind("Service"), listServices},
	{networkingv1.SchemeGroupVersion.WithKind("Ingress"), listIngresses},
	{rbacv1.SchemeGroupVersion.WithKind("ClusterRoleBinding"), listClusterRoleBindings},
}

// Collect lists namespaces, pods, deployments, services, ingresses and
// cluster role bindings and returns them as resources. Any list failure
// aborts the collection.
func Collect(ctx context.Context, clientset k8sclient.Interface, info ClusterInfo, opts Options) ([]models.Resource, error) {
	var out []models.Resource
	for _, l := range listers {
		objs, err := l.list(ctx, clientset, opts.Namespace)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", l.gvk.Kind, err)
		}
		for _, obj := range objs {
			res, err := resources.FromObject(obj, l.gvk)
			if err != nil {
				return nil, err
			}
			res.Source = info.Source()
			out = append(out, res)
		}
	}
	return out, nil
}

func listNamespaces(ctx context.Context, cs k8sclient.Interface, ns string) ([]runtime.Object, error) {
	if ns != "" {
		obj, err := cs.CoreV1().Namespaces().Get(ctx, ns, metav1.GetOptions{})
		if err != nil {
			return nil, err
		}
		return []runtime.Object{obj}, nil
	}
	list, err := cs.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]runtime.Object, 0, len(list.Items))
	for i := range list.Items {
		out = append(out, &list.Items[i])
	}
	return out, nil
}

func listPods(ctx context.Context, cs k8sclient.Interface, ns string) ([]runtime.Object, error) {
	list, err := cs.CoreV1().Pods(ns).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]runtime.Object, 0, len(list.Items))
	for i := range list.Items {
		out = append(out, &list.Items[i])
	}
	return out, nil
}

func listDeployments(ctx context.Context, cs k8sclient.Interface, ns string) ([]runtime.Object, error) {
	list, err := cs.AppsV1().Deployments(ns).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]runtime.Object, 0, len(list.Items))
	for i := range list.Items {
		out = append(out, &list.Items[i])
	}
	return out, nil
}

func listServices(ctx context.Context, cs k8sclient.Interface, ns string) ([]runtime.Object, error) {
	list, err := cs.CoreV1().Services(ns).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]runtime.Object, 0, len(list.Items))
	for i := range list.Items {
		out = append(out, &list.Items[i])
	}
	return out, nil
}

func listIngresses(ctx context.Context, cs k8sclient.Interface, ns string) ([]runtime.Object, error) {
	list, err := cs.NetworkingV1().Ingresses(ns).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]runtime.Object, 0, len(list.Items))
	for i := range list.Items {
		out = append(out, &list.Items[i])
	}
	return out, nil
}

func listClusterRoleBindings(ctx context.Context, cs k8sclient.Interface, _ string) ([]runtime.Object, error) {
	list, err := cs.RbacV1().ClusterRoleBindings().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]runtime.Object, 0, len(list.Items))
	for i := range list.Items {
		out = append(out, &list.Items[i])
	}
	return out, nil
}
