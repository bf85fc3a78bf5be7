package resources

import (
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/yaml"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
)

// typedKinds maps the API versions that policies are written against to
// their resource kinds. Anything else is kept unstructured.
var typedKinds = map[schema.GroupVersionKind]models.ResourceKind{
	corev1.SchemeGroupVersion.WithKind("Pod"):                models.KindK8sPod,
	corev1.SchemeGroupVersion.WithKind("Service"):            models.KindK8sService,
	corev1.SchemeGroupVersion.WithKind("Namespace"):          models.KindK8sNamespace,
	appsv1.SchemeGroupVersion.WithKind("Deployment"):         models.KindK8sDeployment,
	networkingv1.SchemeGroupVersion.WithKind("Ingress"):      models.KindK8sIngress,
	rbacv1.SchemeGroupVersion.WithKind("ClusterRoleBinding"): models.KindK8sClusterRoleBinding,
}

// FromManifest decodes one Kubernetes object in JSON or YAML form.
// Objects of a modelled GroupVersionKind are decoded with client-go's scheme;
// all others become *unstructured.Unstructured under KindK8sObject. The
// object's GroupVersionKind is always set.
func FromManifest(data []byte) (models.Resource, error) {
	obj, gvk, err := scheme.Codecs.UniversalDeserializer().Decode(data, nil, nil)
	if err == nil && gvk != nil {
		if kind, ok := typedKinds[*gvk]; ok {
			obj.GetObjectKind().SetGroupVersionKind(*gvk)
			return models.Resource{Kind: kind, Name: objectName(obj), Properties: obj}, nil
		}
	}
	if err != nil && !runtime.IsNotRegisteredError(err) {
		return models.Resource{}, fmt.Errorf("decode manifest: %w", err)
	}

	raw, err := yaml.YAMLToJSON(data)
	if err != nil {
		return models.Resource{}, fmt.Errorf("decode manifest: %w", err)
	}
	u := &unstructured.Unstructured{}
	if err := u.UnmarshalJSON(raw); err != nil {
		return models.Resource{}, fmt.Errorf("decode manifest: %w", err)
	}
	return models.Resource{Kind: models.KindK8sObject, Name: objectName(u), Properties: u}, nil
}

// FromObject wraps a typed object, typically returned by a clientset, as a
// resource. gvk is recorded on the object since clientsets leave TypeMeta
// empty. Objects of an unmodelled kind are converted to unstructured form.
func FromObject(obj runtime.Object, gvk schema.GroupVersionKind) (models.Resource, error) {
	obj.GetObjectKind().SetGroupVersionKind(gvk)
	if kind, ok := typedKinds[gvk]; ok {
		return models.Resource{Kind: kind, Name: objectName(obj), Properties: obj}, nil
	}
	m, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
	if err != nil {
		return models.Resource{}, fmt.Errorf("convert %s: %w", gvk.Kind, err)
	}
	u := &unstructured.Unstructured{Object: m}
	u.SetGroupVersionKind(gvk)
	return models.Resource{Kind: models.KindK8sObject, Name: objectName(u), Properties: u}, nil
}

// objectName returns "namespace/name" for namespaced objects and "name"
// otherwise, prefixed with the object's kind.
func objectName(obj runtime.Object) string {
	kind := obj.GetObjectKind().GroupVersionKind().Kind
	m, ok := obj.(interface {
		GetName() string
		GetNamespace() string
	})
	if !ok {
		return kind
	}
	name := m.GetName()
	if ns := m.GetNamespace(); ns != "" {
		name = ns + "/" + name
	}
	if kind == "" {
		return name
	}
	return kind + "/" + name
}
