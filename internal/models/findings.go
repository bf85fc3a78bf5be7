package models

import (
	"fmt"
	"strings"
	"time"
)

// Severity represents the risk level a policy assigns to its violations.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityRank orders severities from least to most severe.
// Unknown values rank 0 and therefore never satisfy a threshold.
var severityRank = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// AllSeverities returns every severity ordered from least to most severe.
func AllSeverities() []Severity {
	return []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
}

// Rank returns the ordinal of s (low=1 … critical=4), or 0 when s is unknown.
func (s Severity) Rank() int { return severityRank[s] }

// Valid reports whether s is one of the four known severities.
func (s Severity) Valid() bool { return s.Rank() > 0 }

// AtLeast reports whether s is at least as severe as min.
// An unknown s or min never matches.
func (s Severity) AtLeast(min Severity) bool {
	if !s.Valid() || !min.Valid() {
		return false
	}
	return s.Rank() >= min.Rank()
}

// ParseSeverity converts a case-insensitive string into a Severity.
func ParseSeverity(v string) (Severity, error) {
	s := Severity(strings.ToLower(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", fmt.Errorf("invalid severity %q; valid values: low, medium, high, critical", v)
	}
	return s, nil
}

// EnforcementLevel tells the evaluation host how strictly to treat a violation.
type EnforcementLevel string

const (
	EnforcementAdvisory  EnforcementLevel = "advisory"
	EnforcementMandatory EnforcementLevel = "mandatory"
	EnforcementDisabled  EnforcementLevel = "disabled"
)

// Valid reports whether l is a known enforcement level.
func (l EnforcementLevel) Valid() bool {
	switch l {
	case EnforcementAdvisory, EnforcementMandatory, EnforcementDisabled:
		return true
	}
	return false
}

// ParseEnforcementLevel converts a case-insensitive string into an EnforcementLevel.
func ParseEnforcementLevel(v string) (EnforcementLevel, error) {
	l := EnforcementLevel(strings.ToLower(strings.TrimSpace(v)))
	if !l.Valid() {
		return "", fmt.Errorf("invalid enforcement level %q; valid values: advisory, mandatory, disabled", v)
	}
	return l, nil
}

// Violation is a single policy violation reported against one resource.
// It is the atomic output unit of the evaluation engine.
type Violation struct {
	ID               string           `json:"id"`
	PolicyName       string           `json:"policy_name"`
	ResourceKind     ResourceKind     `json:"resource_kind"`
	ResourceName     string           `json:"resource_name"`
	Source           string           `json:"source,omitempty"`
	Severity         Severity         `json:"severity"`
	EnforcementLevel EnforcementLevel `json:"enforcement_level"`
	Message          string           `json:"message"`
	Frameworks       []string         `json:"frameworks,omitempty"`
	DetectedAt       time.Time        `json:"detected_at"`
}

// Summary aggregates violation counts across a report.
type Summary struct {
	TotalViolations     int `json:"total_violations"`
	CriticalViolations  int `json:"critical_violations"`
	HighViolations      int `json:"high_violations"`
	MediumViolations    int `json:"medium_violations"`
	LowViolations       int `json:"low_violations"`
	MandatoryViolations int `json:"mandatory_violations"`
	AdvisoryViolations  int `json:"advisory_violations"`
}

// Summarize counts violations by severity and enforcement level.
func Summarize(violations []Violation) Summary {
	var s Summary
	s.TotalViolations = len(violations)
	for _, v := range violations {
		switch v.Severity {
		case SeverityCritical:
			s.CriticalViolations++
		case SeverityHigh:
			s.HighViolations++
		case SeverityMedium:
			s.MediumViolations++
		case SeverityLow:
			s.LowViolations++
		}
		switch v.EnforcementLevel {
		case EnforcementMandatory:
			s.MandatoryViolations++
		case EnforcementAdvisory:
			s.AdvisoryViolations++
		}
	}
	return s
}

// EvaluationError records a policy that failed while evaluating a resource.
// The run continues; the error is surfaced in the report.
type EvaluationError struct {
	PolicyName   string `json:"policy_name"`
	ResourceName string `json:"resource_name"`
	Error        string `json:"error"`
}

// Report is the top-level output of an evaluation run.
type Report struct {
	ReportID           string            `json:"report_id"`
	GeneratedAt        time.Time         `json:"generated_at"`
	Pack               string            `json:"pack,omitempty"`
	PoliciesEvaluated  int               `json:"policies_evaluated"`
	ResourcesEvaluated int               `json:"resources_evaluated"`
	Summary            Summary           `json:"summary"`
	Violations         []Violation       `json:"violations"`
	Errors             []EvaluationError `json:"errors,omitempty"`
	// Metadata carries optional source-specific key/value pairs such as
	// the AWS account ID or the Kubernetes context name.
	Metadata map[string]any `json:"metadata,omitempty"`
}
