package output_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/output"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func renderToString(violations []models.Violation, opts output.TableOptions) string {
	var buf bytes.Buffer
	output.RenderTable(&buf, violations, opts)
	return buf.String()
}

// headerFields returns the column names of the first line of a rendered table.
func headerFields(out string) []string {
	line, _, _ := strings.Cut(out, "\n")
	return strings.Fields(line)
}

func hasColumn(out, name string) bool {
	for _, f := range headerFields(out) {
		if f == name {
			return true
		}
	}
	return false
}

func oneViolation(overrides ...func(*models.Violation)) models.Violation {
	v := models.Violation{
		PolicyName:       "aws-s3-bucket-encryption",
		ResourceKind:     models.KindAWSS3Bucket,
		ResourceName:     "prod-logs",
		Source:           "global/123456789012",
		Severity:         models.SeverityHigh,
		EnforcementLevel: models.EnforcementMandatory,
		Message:          "S3 bucket prod-logs has no default encryption.",
	}
	for _, fn := range overrides {
		fn(&v)
	}
	return v
}

// ── optional columns ──────────────────────────────────────────────────────────

func TestRenderTable_EnforcementColumn(t *testing.T) {
	out := renderToString([]models.Violation{oneViolation()}, output.TableOptions{IncludeEnforcement: true})
	if !strings.Contains(out, "ENFORCEMENT") || !strings.Contains(out, "mandatory") {
		t.Errorf("expected ENFORCEMENT column with value\ngot:\n%s", out)
	}

	out = renderToString([]models.Violation{oneViolation()}, output.TableOptions{})
	if strings.Contains(out, "ENFORCEMENT") {
		t.Errorf("ENFORCEMENT column must not appear when disabled\ngot:\n%s", out)
	}
}

func TestRenderTable_SourceLabel_Default(t *testing.T) {
	out := renderToString([]models.Violation{oneViolation()}, output.TableOptions{IncludeSource: true})
	if !hasColumn(out, "SOURCE") || !strings.Contains(out, "global/123456789012") {
		t.Errorf("expected SOURCE column\ngot:\n%s", out)
	}
}

func TestRenderTable_SourceLabel_Context(t *testing.T) {
	out := renderToString([]models.Violation{oneViolation(func(v *models.Violation) {
		v.Source = "kubernetes/prod"
	})}, output.TableOptions{IncludeSource: true, SourceLabel: "CONTEXT"})
	if !hasColumn(out, "CONTEXT") {
		t.Errorf("expected CONTEXT header\ngot:\n%s", out)
	}
	if hasColumn(out, "SOURCE") {
		t.Errorf("SOURCE header must be replaced\ngot:\n%s", out)
	}
}

// ── message shortening ────────────────────────────────────────────────────────

func TestRenderTable_MessageIsTruncatedWhenTooLong(t *testing.T) {
	long := strings.Repeat("x", 200)
	out := renderToString([]models.Violation{oneViolation(func(v *models.Violation) { v.Message = long })}, output.TableOptions{})
	if strings.Contains(out, long) {
		t.Errorf("expected long message to be truncated\ngot:\n%s", out)
	}
	if !strings.Contains(out, "...") {
		t.Errorf("expected ellipsis in truncated message\ngot:\n%s", out)
	}
}

func TestRenderTable_LongResourceName(t *testing.T) {
	name := "Deployment/" + strings.Repeat("n", 60)
	out := renderToString([]models.Violation{oneViolation(func(v *models.Violation) { v.ResourceName = name })}, output.TableOptions{})
	if strings.Contains(out, name) || !strings.Contains(out, "~") {
		t.Errorf("expected resource name to be cut\ngot:\n%s", out)
	}
}

// ── empty violations ──────────────────────────────────────────────────────────

func TestRenderTable_Empty(t *testing.T) {
	out := renderToString(nil, output.TableOptions{})
	if strings.TrimSpace(out) != "No violations." {
		t.Errorf("expected 'No violations.'; got %q", out)
	}
}

// ── color mode ────────────────────────────────────────────────────────────────

func TestRenderTable_ColoredFalse_NoAnsiCodes(t *testing.T) {
	out := renderToString([]models.Violation{oneViolation()}, output.TableOptions{Colored: false})
	if strings.Contains(out, "\033[") {
		t.Errorf("expected no ANSI codes\ngot:\n%q", out)
	}
}

func TestRenderTable_ColoredTrue_HasAnsiCodes(t *testing.T) {
	out := renderToString([]models.Violation{oneViolation()}, output.TableOptions{Colored: true})
	if !strings.Contains(out, "\033[0;31mhigh\033[0m") {
		t.Errorf("expected red high severity\ngot:\n%q", out)
	}
}

// ── ShortenMessage unit tests ─────────────────────────────────────────────────

func TestShortenMessage(t *testing.T) {
	tests := []struct {
		msg  string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"abcdef", 1, "a..."},
	}
	for _, tt := range tests {
		if got := output.ShortenMessage(tt.msg, tt.max); got != tt.want {
			t.Errorf("ShortenMessage(%q, %d) = %q, want %q", tt.msg, tt.max, got, tt.want)
		}
	}
}

// ── summary ───────────────────────────────────────────────────────────────────

func TestRenderSummary(t *testing.T) {
	report := &models.Report{
		PoliciesEvaluated:  3,
		ResourcesEvaluated: 7,
		Summary:            models.Summarize([]models.Violation{oneViolation()}),
		Errors:             []models.EvaluationError{{PolicyName: "custom-x", ResourceName: "b", Error: "boom"}},
	}
	var buf bytes.Buffer
	output.RenderSummary(&buf, report)
	out := buf.String()
	for _, want := range []string{"3 policies, 7 resources: 1 violations", "high 1", "mandatory 1", "custom-x on b: boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in summary\ngot:\n%s", want, out)
		}
	}
}

// ── policy listing ────────────────────────────────────────────────────────────

func TestRenderPolicies(t *testing.T) {
	records := []rules.Record{{Metadata: rules.Metadata{
		Name:             "kubernetes-ingress-tls",
		Severity:         models.SeverityMedium,
		EnforcementLevel: models.EnforcementAdvisory,
		Vendors:          []string{"kubernetes"},
		Services:         []string{"ingress"},
		Frameworks:       []string{"hitrust", "pcidss"},
	}}}
	var buf bytes.Buffer
	output.RenderPolicies(&buf, records, false)
	out := buf.String()
	for _, want := range []string{"NAME", "FRAMEWORKS", "kubernetes-ingress-tls", "hitrust,pcidss", "1 policies"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q\ngot:\n%s", want, out)
		}
	}

	buf.Reset()
	output.RenderPolicies(&buf, nil, false)
	if strings.TrimSpace(buf.String()) != "No policies match." {
		t.Errorf("unexpected empty listing %q", buf.String())
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := output.WriteJSON(&buf, []models.Violation{oneViolation()}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got) != 1 || got[0]["policy_name"] != "aws-s3-bucket-encryption" {
		t.Errorf("unexpected JSON %s", buf.String())
	}
}
