package regocheck_test

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/certificatemanager/apiv1/certificatemanagerpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/policy"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/regocheck"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"
)

const bucketPrefix = `
package org.s3

deny contains msg if {
	not startswith(input.resource.name, input.params.prefix)
	msg := sprintf("bucket %s does not start with %s", [input.resource.name, input.params.prefix])
}
`

func collect(t *testing.T, c *regocheck.Check, resource any, cfg map[string]any) []string {
	t.Helper()
	var msgs []string
	err := c.Eval(context.Background(), resource, rules.EvalArgs{Config: cfg, Now: time.Now()}, func(m string) {
		msgs = append(msgs, m)
	})
	require.NoError(t, err)
	return msgs
}

func TestCompile_DefaultQuery(t *testing.T) {
	c, err := regocheck.Compile(context.Background(), "org-s3-prefix", models.KindAWSS3Bucket, "", bucketPrefix)
	require.NoError(t, err)
	assert.Equal(t, models.KindAWSS3Bucket, c.Kind())

	got := collect(t, c, models.S3Bucket{Name: "logs"}, map[string]any{"prefix": "acme-"})
	assert.Equal(t, []string{"bucket logs does not start with acme-"}, got)

	got = collect(t, c, models.S3Bucket{Name: "acme-logs"}, map[string]any{"prefix": "acme-"})
	assert.Empty(t, got)
}

func TestCompile_ObjectMessages(t *testing.T) {
	module := `
package org.certs

violations contains {"msg": "certificate has no description"} if {
	not input.resource.description
}
`
	c, err := regocheck.Compile(context.Background(), "org-cert-desc", models.KindGoogleCertificate, "data.org.certs.violations", module)
	require.NoError(t, err)

	got := collect(t, c, &certificatemanagerpb.Certificate{Name: "projects/p/certificates/c"}, nil)
	assert.Equal(t, []string{"certificate has no description"}, got)

	got = collect(t, c, &certificatemanagerpb.Certificate{Description: "edge"}, nil)
	assert.Empty(t, got)
}

func TestCompile_SyntaxError(t *testing.T) {
	_, err := regocheck.Compile(context.Background(), "broken", models.KindAWSS3Bucket, "", "package x\ndeny contains if {")
	assert.ErrorContains(t, err, "broken")
}

func TestValidate_SatisfiesCheck(t *testing.T) {
	c, err := regocheck.Compile(context.Background(), "org-s3-prefix", models.KindAWSS3Bucket, "", bucketPrefix)
	require.NoError(t, err)

	var check rules.Check = c
	var n int
	check.Validate(models.S3Bucket{Name: "x"}, rules.EvalArgs{Config: map[string]any{"prefix": "acme-"}}, func(string) { n++ })
	assert.Equal(t, 1, n)
}

func TestRegister(t *testing.T) {
	reg := rules.NewRegistry()
	custom := []policy.CustomPolicy{{
		Name:     "org-s3-prefix",
		Kind:     string(models.KindAWSS3Bucket),
		Services: []string{"s3"},
		Severity: "Medium",
		Topics:   []string{"documentation"},
		Rego:     bucketPrefix,
	}}

	require.NoError(t, regocheck.Register(context.Background(), reg, custom))

	rec, ok := reg.Lookup("org-s3-prefix")
	require.True(t, ok)
	assert.Equal(t, []string{"aws"}, rec.Vendors)
	assert.Equal(t, models.SeverityMedium, rec.Severity)
	assert.Equal(t, models.EnforcementAdvisory, rec.EnforcementLevel)

	err := regocheck.Register(context.Background(), reg, custom)
	var dup *rules.DuplicateNameError
	assert.ErrorAs(t, err, &dup)
}

func TestRegister_TrimsSeverityAndEnforcement(t *testing.T) {
	reg := rules.NewRegistry()
	custom := []policy.CustomPolicy{{
		Name:             "org-s3-prefix",
		Kind:             string(models.KindAWSS3Bucket),
		Services:         []string{"s3"},
		Severity:         " High",
		EnforcementLevel: "Mandatory ",
		Rego:             bucketPrefix,
	}}

	require.NoError(t, regocheck.Register(context.Background(), reg, custom))

	rec, ok := reg.Lookup("org-s3-prefix")
	require.True(t, ok)
	assert.Equal(t, models.SeverityHigh, rec.Severity)
	assert.Equal(t, models.EnforcementMandatory, rec.EnforcementLevel)
}

func TestRegister_InvalidSeverity(t *testing.T) {
	custom := []policy.CustomPolicy{{
		Name:     "org-s3-prefix",
		Kind:     string(models.KindAWSS3Bucket),
		Services: []string{"s3"},
		Severity: "urgent",
		Rego:     bucketPrefix,
	}}

	err := regocheck.Register(context.Background(), rules.NewRegistry(), custom)
	var invalid *rules.InvalidDefinitionError
	assert.ErrorAs(t, err, &invalid)
}
