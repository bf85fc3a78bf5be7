package resources

import (
	"encoding/json"
	"fmt"

	"cloud.google.com/go/certificatemanager/apiv1/certificatemanagerpb"
	cloudtrailtypes "github.com/aws/aws-sdk-go-v2/service/cloudtrail/types"
	configtypes "github.com/aws/aws-sdk-go-v2/service/configservice/types"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	ekstypes "github.com/aws/aws-sdk-go-v2/service/eks/types"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	compute "google.golang.org/api/compute/v1"
	sqladmin "google.golang.org/api/sqladmin/v1"
	storage "google.golang.org/api/storage/v1"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
)

// shapes returns a fresh pointer to the Go type each concrete kind declares.
var shapes = map[models.ResourceKind]func() any{
	models.KindAWSEC2Instance:       func() any { return &ec2types.Instance{} },
	models.KindAWSEBSVolume:         func() any { return &ec2types.Volume{} },
	models.KindAWSSecurityGroup:     func() any { return &ec2types.SecurityGroup{} },
	models.KindAWSS3Bucket:          func() any { return &models.S3Bucket{} },
	models.KindAWSRDSInstance:       func() any { return &rdstypes.DBInstance{} },
	models.KindAWSIAMUser:           func() any { return &models.IAMUser{} },
	models.KindAWSRootAccount:       func() any { return &models.RootAccount{} },
	models.KindAWSLoadBalancer:      func() any { return &models.LoadBalancer{} },
	models.KindAWSCloudTrail:        func() any { return &cloudtrailtypes.Trail{} },
	models.KindAWSEKSCluster:        func() any { return &ekstypes.Cluster{} },
	models.KindAWSGuardDutyDetector: func() any { return &models.GuardDutyDetector{} },
	models.KindAWSConfigRecorder:    func() any { return &configtypes.ConfigurationRecorderStatus{} },

	models.KindAzureStorageAccount:      func() any { return &models.AzureStorageAccount{} },
	models.KindAzureKeyVaultCertificate: func() any { return &models.AzureKeyVaultCertificate{} },

	models.KindGoogleComputeInstance: func() any { return &compute.Instance{} },
	models.KindGoogleFirewall:        func() any { return &compute.Firewall{} },
	models.KindGoogleStorageBucket:   func() any { return &storage.Bucket{} },
	models.KindGoogleSQLInstance:     func() any { return &sqladmin.DatabaseInstance{} },
	models.KindGoogleCertificate:     func() any { return &certificatemanagerpb.Certificate{} },

	models.KindK8sPod:                func() any { return &corev1.Pod{} },
	models.KindK8sDeployment:         func() any { return &appsv1.Deployment{} },
	models.KindK8sService:            func() any { return &corev1.Service{} },
	models.KindK8sNamespace:          func() any { return &corev1.Namespace{} },
	models.KindK8sIngress:            func() any { return &networkingv1.Ingress{} },
	models.KindK8sClusterRoleBinding: func() any { return &rbacv1.ClusterRoleBinding{} },
	models.KindK8sObject:             func() any { return &unstructured.Unstructured{} },
}

// Decode converts the JSON form of a resource into the typed value kind
// declares. Protobuf-backed kinds use the proto JSON mapping; SDK structs
// without JSON tags match field names case-insensitively.
func Decode(kind models.ResourceKind, raw []byte) (any, error) {
	newShape, ok := shapes[kind]
	if !ok {
		return nil, fmt.Errorf("unknown resource kind %q", kind)
	}
	v := newShape()
	if len(raw) == 0 {
		return v, nil
	}

	var err error
	switch dst := v.(type) {
	case proto.Message:
		err = protojson.UnmarshalOptions{DiscardUnknown: true}.Unmarshal(raw, dst)
	case *unstructured.Unstructured:
		err = dst.UnmarshalJSON(raw)
	default:
		err = json.Unmarshal(raw, dst)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s properties: %w", kind, err)
	}
	return v, nil
}
