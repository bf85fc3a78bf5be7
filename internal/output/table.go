// Package output renders evaluation reports and policy listings for the CLI.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"
)

// ANSI color codes for severity output (used when Colored=true).
const (
	ansiReset   = "\033[0m"
	ansiBoldRed = "\033[1;31m"
	ansiRed     = "\033[0;31m"
	ansiYellow  = "\033[0;33m"
	ansiBlue    = "\033[0;34m"
)

// Supported --output values.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// TableOptions controls which columns RenderTable renders and how severity is coloured.
type TableOptions struct {
	// Colored wraps severity labels with ANSI codes. Default false (CI-safe).
	Colored bool

	// IncludeEnforcement adds an ENFORCEMENT column.
	IncludeEnforcement bool

	// IncludeSource adds a column with the resource source.
	IncludeSource bool

	// SourceLabel is the header of the source column. Defaults to "SOURCE";
	// use "CONTEXT" for Kubernetes scans or "REGION" for AWS scans.
	SourceLabel string
}

func severityCode(sev models.Severity) string {
	switch sev {
	case models.SeverityCritical:
		return ansiBoldRed
	case models.SeverityHigh:
		return ansiRed
	case models.SeverityMedium:
		return ansiYellow
	case models.SeverityLow:
		return ansiBlue
	}
	return ""
}

// ColorSeverity wraps a severity string with ANSI codes when colored is true.
// When colored is false the string is returned unchanged (CI-safe default).
func ColorSeverity(sev models.Severity, colored bool) string {
	code := severityCode(sev)
	if !colored || code == "" {
		return string(sev)
	}
	return code + string(sev) + ansiReset
}

// ShortenMessage truncates msg to at most max runes, appending "..." when truncated.
// max is treated as at least 4 to guarantee space for the ellipsis.
func ShortenMessage(msg string, max int) string {
	if max < 4 {
		max = 4
	}
	runes := []rune(msg)
	if len(runes) <= max {
		return msg
	}
	return string(runes[:max-3]) + "..."
}

// severityCell returns the severity padded to width characters.
// When colored, ANSI codes wrap only the text; trailing padding stays plain
// so later columns align whether or not the terminal honours ANSI codes.
func severityCell(sev models.Severity, width int, colored bool) string {
	text := string(sev)
	code := severityCode(sev)
	if !colored || code == "" {
		return fmt.Sprintf("%-*s", width, text)
	}
	spaces := width - len(text)
	if spaces < 0 {
		spaces = 0
	}
	return code + text + ansiReset + strings.Repeat(" ", spaces)
}

// truncateField shortens s to at most max runes for name columns, marking
// the cut with a trailing "~".
func truncateField(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "~"
}

// RenderTable writes a formatted violations table to w.
//
// Column order:
//
//	RESOURCE  [SOURCE]  SEVERITY  [ENFORCEMENT]  POLICY  MESSAGE
func RenderTable(w io.Writer, violations []models.Violation, opts TableOptions) {
	if opts.SourceLabel == "" {
		opts.SourceLabel = "SOURCE"
	}

	if len(violations) == 0 {
		fmt.Fprintln(w, "No violations.")
		return
	}

	const (
		wResource    = 36
		wSource      = 24
		wSeverity    = 10
		wEnforcement = 11
		wPolicy      = 40
		wMessage     = 60
	)

	var hb strings.Builder
	hb.WriteString(fmt.Sprintf("%-*s", wResource, "RESOURCE"))
	if opts.IncludeSource {
		hb.WriteString(fmt.Sprintf("  %-*s", wSource, opts.SourceLabel))
	}
	hb.WriteString(fmt.Sprintf("  %-*s", wSeverity, "SEVERITY"))
	if opts.IncludeEnforcement {
		hb.WriteString(fmt.Sprintf("  %-*s", wEnforcement, "ENFORCEMENT"))
	}
	hb.WriteString(fmt.Sprintf("  %-*s", wPolicy, "POLICY"))
	hb.WriteString("  MESSAGE")
	header := hb.String()

	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len(header)+wMessage-len("MESSAGE")))

	for _, v := range violations {
		var rb strings.Builder
		rb.WriteString(fmt.Sprintf("%-*s", wResource, truncateField(v.ResourceName, wResource)))
		if opts.IncludeSource {
			rb.WriteString(fmt.Sprintf("  %-*s", wSource, truncateField(v.Source, wSource)))
		}
		rb.WriteString("  " + severityCell(v.Severity, wSeverity, opts.Colored))
		if opts.IncludeEnforcement {
			rb.WriteString(fmt.Sprintf("  %-*s", wEnforcement, v.EnforcementLevel))
		}
		rb.WriteString(fmt.Sprintf("  %-*s", wPolicy, truncateField(v.PolicyName, wPolicy)))
		rb.WriteString("  " + ShortenMessage(v.Message, wMessage))
		fmt.Fprintln(w, strings.TrimRight(rb.String(), " "))
	}
}

// RenderSummary writes the one-line count summary and any evaluation errors.
func RenderSummary(w io.Writer, report *models.Report) {
	s := report.Summary
	fmt.Fprintf(w, "\n%d policies, %d resources: %d violations (critical %d, high %d, medium %d, low %d; mandatory %d)\n",
		report.PoliciesEvaluated, report.ResourcesEvaluated, s.TotalViolations,
		s.CriticalViolations, s.HighViolations, s.MediumViolations, s.LowViolations, s.MandatoryViolations)
	if len(report.Errors) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%d evaluation errors:\n", len(report.Errors))
	for _, e := range report.Errors {
		fmt.Fprintf(w, "  %s on %s: %s\n", e.PolicyName, e.ResourceName, e.Error)
	}
}

// RenderPolicies writes a policy listing table to w.
//
//	NAME  SEVERITY  ENFORCEMENT  VENDORS  SERVICES  FRAMEWORKS
func RenderPolicies(w io.Writer, records []rules.Record, colored bool) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No policies match.")
		return
	}

	const (
		wName        = 48
		wSeverity    = 10
		wEnforcement = 11
		wVendors     = 12
		wServices    = 20
	)

	header := fmt.Sprintf("%-*s  %-*s  %-*s  %-*s  %-*s  %s",
		wName, "NAME", wSeverity, "SEVERITY", wEnforcement, "ENFORCEMENT",
		wVendors, "VENDORS", wServices, "SERVICES", "FRAMEWORKS")
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len(header)))

	for _, r := range records {
		row := fmt.Sprintf("%-*s  %s  %-*s  %-*s  %-*s  %s",
			wName, truncateField(r.Name, wName),
			severityCell(r.Severity, wSeverity, colored),
			wEnforcement, r.EnforcementLevel,
			wVendors, truncateField(strings.Join(r.Vendors, ","), wVendors),
			wServices, truncateField(strings.Join(r.Services, ","), wServices),
			strings.Join(r.Frameworks, ","))
		fmt.Fprintln(w, strings.TrimRight(row, " "))
	}
	fmt.Fprintf(w, "\n%d policies\n", len(records))
}

// RenderPacks writes one line per pack with its description.
func RenderPacks(w io.Writer, packs []rules.Pack) {
	for _, p := range packs {
		fmt.Fprintf(w, "%-20s  %s\n", p.Name, p.Description)
	}
}

// WriteJSON writes v as indented JSON to w.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
