package resources_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cloud.google.com/go/certificatemanager/apiv1/certificatemanagerpb"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	compute "google.golang.org/api/compute/v1"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/resources"
)

const inventoryYAML = `
resources:
  - kind: aws:ec2/instance
    name: i-0abc
    source: eu-west-1/123456789012
    properties:
      InstanceId: i-0abc
      PublicIpAddress: 203.0.113.10
      MetadataOptions:
        HttpTokens: optional
  - kind: aws:s3/bucket
    name: logs
    properties:
      name: logs
      versioning: Enabled
  - kind: google:compute/instance
    name: web-1
    properties:
      name: web-1
      shieldedInstanceConfig:
        enableSecureBoot: true
  - kind: google:certificatemanager/certificate
    name: edge
    properties:
      name: projects/p/locations/global/certificates/edge
      expireTime: "2026-04-01T00:00:00Z"
`

const manifestsYAML = `
apiVersion: v1
kind: Pod
metadata:
  name: api
  namespace: prod
spec:
  containers:
    - name: app
      image: nginx:latest
---
apiVersion: apps/v1
kind: Deployment
metadata:
  name: api
  namespace: prod
spec:
  replicas: 1
---
apiVersion: policy/v1beta1
kind: PodSecurityPolicy
metadata:
  name: legacy
---
apiVersion: v1
kind: ConfigMap
metadata:
  name: settings
  namespace: prod
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile_Inventory(t *testing.T) {
	path := writeFile(t, t.TempDir(), "inventory.yaml", inventoryYAML)

	got, err := resources.LoadFile(path)
	require.NoError(t, err)
	require.Len(t, got, 4)

	inst, ok := got[0].Properties.(*ec2types.Instance)
	require.True(t, ok, "got %T", got[0].Properties)
	assert.Equal(t, "i-0abc", *inst.InstanceId)
	assert.Equal(t, ec2types.HttpTokensStateOptional, inst.MetadataOptions.HttpTokens)
	assert.Equal(t, "eu-west-1/123456789012", got[0].Source)

	bucket, ok := got[1].Properties.(*models.S3Bucket)
	require.True(t, ok)
	assert.Equal(t, "Enabled", string(bucket.Versioning))
	assert.Equal(t, path, got[1].Source)

	vm, ok := got[2].Properties.(*compute.Instance)
	require.True(t, ok)
	assert.True(t, vm.ShieldedInstanceConfig.EnableSecureBoot)

	cert, ok := got[3].Properties.(*certificatemanagerpb.Certificate)
	require.True(t, ok)
	assert.Equal(t, int64(1775001600), cert.GetExpireTime().GetSeconds())
}

func TestLoadFile_Manifests(t *testing.T) {
	path := writeFile(t, t.TempDir(), "manifests.yaml", manifestsYAML)

	got, err := resources.LoadFile(path)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, models.KindK8sPod, got[0].Kind)
	assert.Equal(t, "Pod/prod/api", got[0].Name)
	pod, ok := got[0].Properties.(*corev1.Pod)
	require.True(t, ok)
	assert.Equal(t, "nginx:latest", pod.Spec.Containers[0].Image)
	assert.Equal(t, "v1", pod.APIVersion)

	assert.Equal(t, models.KindK8sDeployment, got[1].Kind)
	_, ok = got[1].Properties.(*appsv1.Deployment)
	assert.True(t, ok)

	for _, r := range got[2:] {
		assert.Equal(t, models.KindK8sObject, r.Kind)
		_, ok := r.Properties.(*unstructured.Unstructured)
		assert.True(t, ok)
	}
	psp := got[2].Properties.(*unstructured.Unstructured)
	assert.Equal(t, "policy/v1beta1", psp.GetAPIVersion())
}

func TestLoadFile_List(t *testing.T) {
	list := `{"apiVersion":"v1","kind":"List","items":[
  {"apiVersion":"v1","kind":"Namespace","metadata":{"name":"a"}},
  {"apiVersion":"v1","kind":"Namespace","metadata":{"name":"b"}}]}`
	path := writeFile(t, t.TempDir(), "list.json", list)

	got, err := resources.LoadFile(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.KindK8sNamespace, got[1].Kind)
	assert.Equal(t, "Namespace/b", got[1].Name)
}

func TestLoadFile_ErrorsNameDocument(t *testing.T) {
	dir := t.TempDir()

	path := writeFile(t, dir, "bad.yaml", "resources: []\n---\nresources:\n  - kind: aws:lambda/function\n")
	_, err := resources.LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
	assert.Contains(t, err.Error(), "document 1")
	assert.Contains(t, err.Error(), `unknown resource kind "aws:lambda/function"`)

	path = writeFile(t, dir, "odd.yaml", "hello: world\n")
	_, err = resources.LoadFile(path)
	assert.ErrorContains(t, err, "neither a resource inventory nor a Kubernetes manifest")
}

func TestLoadPaths_WalksDirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "k8s")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeFile(t, dir, "inventory.yml", inventoryYAML)
	writeFile(t, sub, "manifests.yaml", manifestsYAML)
	writeFile(t, dir, "README.md", "not a resource")

	got, err := resources.LoadPaths([]string{dir})
	require.NoError(t, err)
	assert.Len(t, got, 8)
}

func TestLoadPaths_MissingPath(t *testing.T) {
	_, err := resources.LoadPaths([]string{filepath.Join(t.TempDir(), "absent")})
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	v, err := resources.Decode(models.KindAzureStorageAccount, []byte(`{"name":"st1","minimum_tls_version":"TLS1_0"}`))
	require.NoError(t, err)
	acct := v.(*models.AzureStorageAccount)
	assert.Equal(t, "TLS1_0", acct.MinimumTLSVersion)

	v, err = resources.Decode(models.KindAWSEBSVolume, nil)
	require.NoError(t, err)
	assert.IsType(t, &ec2types.Volume{}, v)

	_, err = resources.Decode(models.KindK8sAny, []byte(`{}`))
	assert.Error(t, err)

	_, err = resources.Decode(models.KindAWSS3Bucket, []byte(`{"name": 3}`))
	assert.Error(t, err)
}

func TestFromObject(t *testing.T) {
	pod := &corev1.Pod{ObjectMeta: metav1.ObjectMeta{Name: "api", Namespace: "prod"}}
	res, err := resources.FromObject(pod, corev1.SchemeGroupVersion.WithKind("Pod"))
	require.NoError(t, err)
	assert.Equal(t, models.KindK8sPod, res.Kind)
	assert.Equal(t, "v1", pod.APIVersion)

	cm := &corev1.ConfigMap{ObjectMeta: metav1.ObjectMeta{Name: "settings", Namespace: "prod"}}
	res, err = resources.FromObject(cm, corev1.SchemeGroupVersion.WithKind("ConfigMap"))
	require.NoError(t, err)
	assert.Equal(t, models.KindK8sObject, res.Kind)
	assert.True(t, strings.HasSuffix(res.Name, "prod/settings"))
}
