package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"
)

// ── test helpers ──────────────────────────────────────────────────────────────

func makeRecord() rules.Record {
	return rules.Record{
		Metadata: rules.Metadata{
			Name:             "aws-iam-access-key-rotation",
			Description:      "IAM access keys must be rotated regularly.",
			EnforcementLevel: models.EnforcementMandatory,
			Vendors:          []string{"aws"},
			Services:         []string{"iam"},
			Severity:         models.SeverityHigh,
			Frameworks:       []string{"cis", "pcidss"},
			ConfigSchema: &rules.ConfigSchema{Properties: map[string]rules.ConfigProperty{
				"max_age_days": {Type: rules.TypeInteger, Default: 90, Description: "Maximum key age."},
			}},
		},
		Check: rules.ValidateResourceOfType(models.KindAWSIAMUser, func(models.IAMUser, rules.EvalArgs, rules.ReportFunc) {}),
	}
}

// ── ExplainPolicy ─────────────────────────────────────────────────────────────

func TestExplainPolicy_HappyPath(t *testing.T) {
	var buf bytes.Buffer
	ExplainPolicy(&buf, makeRecord())
	out := buf.String()

	for _, want := range []string{
		"POLICY aws-iam-access-key-rotation",
		"IAM access keys must be rotated regularly.",
		"Severity:     high",
		"Enforcement:  mandatory",
		"Resource:     aws:iam/user",
		"Frameworks:   cis, pcidss",
		"Topics:       -",
		"Options (2):",
		"enabled (boolean, default true)",
		"max_age_days (integer, default 90)",
		"Maximum key age.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output\ngot:\n%s", want, out)
		}
	}
	if strings.Index(out, "enabled") > strings.Index(out, "max_age_days") {
		t.Errorf("enabled must be listed first\ngot:\n%s", out)
	}
}

func TestExplainPolicy_NoSchema(t *testing.T) {
	rec := makeRecord()
	rec.ConfigSchema = nil

	var buf bytes.Buffer
	ExplainPolicy(&buf, rec)
	if !strings.Contains(buf.String(), "Options (1):") {
		t.Errorf("expected only the enabled option\ngot:\n%s", buf.String())
	}
}

// ── WriteExplainJSON ──────────────────────────────────────────────────────────

func TestWriteExplainJSON_Found(t *testing.T) {
	rec := makeRecord()
	var buf bytes.Buffer
	if err := WriteExplainJSON(&buf, &rec, rec.Name); err != nil {
		t.Fatalf("WriteExplainJSON: %v", err)
	}

	var got struct {
		Policy map[string]any `json:"policy"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Policy["name"] != rec.Name || got.Policy["kind"] != "aws:iam/user" {
		t.Errorf("unexpected policy JSON %s", buf.String())
	}
}

func TestWriteExplainJSON_NotFound(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteExplainJSON(&buf, nil, "nope"); err != nil {
		t.Fatalf("WriteExplainJSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"error": "No policy named nope"`) {
		t.Errorf("unexpected output %s", buf.String())
	}
}
