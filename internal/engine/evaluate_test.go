package engine_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/engine"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/metrics"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/policy"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func bucket(name string) models.Resource {
	return models.Resource{
		Kind:       models.KindAWSS3Bucket,
		Name:       name,
		Source:     "us-east-1/123456789012",
		Properties: &models.S3Bucket{Name: name},
	}
}

// prefixCheck reports buckets whose name starts with the configured prefix.
func prefixCheck() rules.Check {
	return rules.ValidateResourceOfType(models.KindAWSS3Bucket, func(b models.S3Bucket, args rules.EvalArgs, report rules.ReportFunc) {
		if strings.HasPrefix(b.Name, args.String("prefix", "tmp-")) {
			report("bucket " + b.Name + " looks temporary")
		}
	})
}

func register(t *testing.T, reg *rules.Registry, meta rules.Metadata, check rules.Check) {
	t.Helper()
	if meta.Vendors == nil {
		meta.Vendors = []string{check.Kind().Vendor()}
	}
	if meta.Services == nil {
		meta.Services = []string{"test"}
	}
	if meta.Severity == "" {
		meta.Severity = models.SeverityMedium
	}
	_, err := reg.Register(meta, check)
	require.NoError(t, err)
}

func TestEvaluate_ReportsViolations(t *testing.T) {
	reg := rules.NewRegistry()
	register(t, reg, rules.Metadata{
		Name:       "aws-s3-no-temp",
		Frameworks: []string{"cis"},
		Severity:   models.SeverityHigh,
		ConfigSchema: &rules.ConfigSchema{Properties: map[string]rules.ConfigProperty{
			"prefix": {Type: rules.TypeString, Default: "tmp-"},
		}},
	}, prefixCheck())

	res := []models.Resource{bucket("tmp-logs"), bucket("prod-data"), bucket("tmp-cache")}
	report, err := engine.New(engine.WithClock(clock)).Evaluate(context.Background(), reg.All(), res, nil)
	require.NoError(t, err)

	require.Len(t, report.Violations, 2)
	v := report.Violations[0]
	assert.Equal(t, "aws-s3-no-temp", v.PolicyName)
	assert.Equal(t, "tmp-cache", v.ResourceName)
	assert.Equal(t, models.SeverityHigh, v.Severity)
	assert.Equal(t, models.EnforcementAdvisory, v.EnforcementLevel)
	assert.Equal(t, []string{"cis"}, v.Frameworks)
	assert.Equal(t, "us-east-1/123456789012", v.Source)
	assert.Equal(t, fixedNow, v.DetectedAt)

	assert.Equal(t, 1, report.PoliciesEvaluated)
	assert.Equal(t, 3, report.ResourcesEvaluated)
	assert.Equal(t, 2, report.Summary.HighViolations)
	assert.Empty(t, report.Errors)
}

func TestEvaluate_DeployerConfig(t *testing.T) {
	reg := rules.NewRegistry()
	register(t, reg, rules.Metadata{
		Name: "aws-s3-no-temp",
		ConfigSchema: &rules.ConfigSchema{Properties: map[string]rules.ConfigProperty{
			"prefix": {Type: rules.TypeString, Default: "tmp-"},
		}},
	}, prefixCheck())

	cfg := &policy.PolicyConfig{
		Version: 1,
		Policies: map[string]policy.PolicyOverride{
			"aws-s3-no-temp": {
				Severity:         "critical",
				EnforcementLevel: "mandatory",
				Params:           map[string]any{"prefix": "prod-"},
			},
		},
	}
	res := []models.Resource{bucket("tmp-logs"), bucket("prod-data")}
	report, err := engine.New().Evaluate(context.Background(), reg.All(), res, cfg)
	require.NoError(t, err)

	require.Len(t, report.Violations, 1)
	assert.Equal(t, "prod-data", report.Violations[0].ResourceName)
	assert.Equal(t, models.SeverityCritical, report.Violations[0].Severity)
	assert.Equal(t, models.EnforcementMandatory, report.Violations[0].EnforcementLevel)
	assert.True(t, policy.ShouldFail(report.Violations, &policy.PolicyConfig{Enforcement: policy.EnforcementConfig{FailOnMandatory: true}}))
}

func TestEvaluate_SkipsDisabledPolicies(t *testing.T) {
	reg := rules.NewRegistry()
	register(t, reg, rules.Metadata{
		Name: "off-by-default",
		ConfigSchema: &rules.ConfigSchema{Properties: map[string]rules.ConfigProperty{
			"enabled": {Type: rules.TypeBoolean, Default: false},
		}},
	}, prefixCheck())
	register(t, reg, rules.Metadata{Name: "disabled-level", EnforcementLevel: models.EnforcementDisabled}, prefixCheck())
	register(t, reg, rules.Metadata{Name: "turned-off"}, prefixCheck())

	off := false
	cfg := &policy.PolicyConfig{Policies: map[string]policy.PolicyOverride{"turned-off": {Enabled: &off}}}
	report, err := engine.New().Evaluate(context.Background(), reg.All(), []models.Resource{bucket("tmp-x")}, cfg)
	require.NoError(t, err)

	assert.Empty(t, report.Violations)
	assert.NotNil(t, report.Violations)
	assert.Equal(t, 0, report.PoliciesEvaluated)

	on := true
	cfg.Policies["off-by-default"] = policy.PolicyOverride{Enabled: &on}
	report, err = engine.New().Evaluate(context.Background(), reg.All(), []models.Resource{bucket("tmp-x")}, cfg)
	require.NoError(t, err)
	require.Len(t, report.Violations, 1)
	assert.Equal(t, "off-by-default", report.Violations[0].PolicyName)
}

func TestEvaluate_KindMatching(t *testing.T) {
	reg := rules.NewRegistry()
	var seen []string
	register(t, reg, rules.Metadata{Name: "any-k8s"}, rules.ValidateResourceOfType(models.KindK8sAny, func(obj runtime.Object, _ rules.EvalArgs, _ rules.ReportFunc) {
		seen = append(seen, obj.GetObjectKind().GroupVersionKind().Kind)
	}))

	pod := &corev1.Pod{ObjectMeta: metav1.ObjectMeta{Name: "api"}}
	pod.SetGroupVersionKind(corev1.SchemeGroupVersion.WithKind("Pod"))
	ns := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "prod"}}
	ns.SetGroupVersionKind(corev1.SchemeGroupVersion.WithKind("Namespace"))

	res := []models.Resource{
		{Kind: models.KindK8sPod, Name: "Pod/api", Properties: pod},
		bucket("tmp-x"),
		{Kind: models.KindK8sNamespace, Name: "Namespace/prod", Properties: ns},
	}
	_, err := engine.New().Evaluate(context.Background(), reg.All(), res, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Pod", "Namespace"}, seen)
}

type failingCheck struct{ err error }

func (failingCheck) Kind() models.ResourceKind                      { return models.KindAWSS3Bucket }
func (failingCheck) Validate(any, rules.EvalArgs, rules.ReportFunc) {}
func (c failingCheck) Eval(context.Context, any, rules.EvalArgs, rules.ReportFunc) error {
	return c.err
}

func TestEvaluate_RecordsErrors(t *testing.T) {
	reg := rules.NewRegistry()
	register(t, reg, rules.Metadata{Name: "panics"}, rules.ValidateResourceOfType(models.KindAWSS3Bucket, func(models.S3Bucket, rules.EvalArgs, rules.ReportFunc) {
		panic("nil map")
	}))
	register(t, reg, rules.Metadata{Name: "fails"}, failingCheck{err: errors.New("rego: undefined function")})
	register(t, reg, rules.Metadata{Name: "works"}, prefixCheck())

	var logs bytes.Buffer
	report, err := engine.New(engine.WithLogger(zerolog.New(&logs))).
		Evaluate(context.Background(), reg.All(), []models.Resource{bucket("tmp-x")}, nil)
	require.NoError(t, err)

	require.Len(t, report.Errors, 2)
	assert.Equal(t, "panics", report.Errors[0].PolicyName)
	assert.Contains(t, report.Errors[0].Error, "nil map")
	assert.Equal(t, "fails", report.Errors[1].PolicyName)
	assert.Len(t, report.Violations, 1)
	assert.Contains(t, logs.String(), "policy evaluation failed")
}

func TestEvaluate_Cancelled(t *testing.T) {
	reg := rules.NewRegistry()
	register(t, reg, rules.Metadata{Name: "p"}, prefixCheck())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := engine.New().Evaluate(ctx, reg.All(), []models.Resource{bucket("tmp-x")}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluate_SortsBySeverity(t *testing.T) {
	reg := rules.NewRegistry()
	register(t, reg, rules.Metadata{Name: "low", Severity: models.SeverityLow}, prefixCheck())
	register(t, reg, rules.Metadata{Name: "critical", Severity: models.SeverityCritical}, prefixCheck())

	report, err := engine.New().Evaluate(context.Background(), reg.All(), []models.Resource{bucket("tmp-x")}, nil)
	require.NoError(t, err)
	require.Len(t, report.Violations, 2)
	assert.Equal(t, "critical", report.Violations[0].PolicyName)
	assert.Equal(t, "low", report.Violations[1].PolicyName)
}

func TestEvaluate_UpdatesMetrics(t *testing.T) {
	reg := rules.NewRegistry()
	register(t, reg, rules.Metadata{Name: "p", Severity: models.SeverityHigh}, prefixCheck())

	promReg := prometheus.NewRegistry()
	_, err := engine.New(engine.WithMetrics(metrics.NewCollector(promReg))).
		Evaluate(context.Background(), reg.All(), []models.Resource{bucket("tmp-x")}, &policy.PolicyConfig{Pack: "security"})
	require.NoError(t, err)

	families, err := promReg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "pcat_violations")
	assert.Contains(t, names, "pcat_policies_evaluated")
}
