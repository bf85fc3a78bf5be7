// Package render provides presentation-layer helpers for pcat CLI output.
// It is a pure rendering package with no registry lookups or evaluation.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"
)

// ExplainPolicy writes a structured description of one policy to w.
//
// Example output:
//
//	POLICY kubernetes-namespace-owner-label
//	Namespaces must document their owning team in labels.
//
//	Severity:     low
//	Enforcement:  advisory
//	Resource:     kubernetes:Namespace
//	Vendors:      kubernetes
//	Services:     namespace
//	Topics:       documentation
//	Frameworks:   iso27001
//
//	Options (3):
//
//	  enabled (boolean, default true)
//	  exempt_namespaces (array, default [kube-system kube-public kube-node-lease])
//	    Namespaces that are not checked.
func ExplainPolicy(w io.Writer, rec rules.Record) {
	fmt.Fprintf(w, "POLICY %s\n", rec.Name)
	if rec.Description != "" {
		fmt.Fprintln(w, rec.Description)
	}
	fmt.Fprintln(w)

	field := func(label, value string) {
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(w, "%-14s%s\n", label+":", value)
	}
	field("Severity", string(rec.Severity))
	field("Enforcement", string(rec.EnforcementLevel))
	if rec.Check != nil {
		field("Resource", string(rec.Check.Kind()))
	}
	field("Vendors", strings.Join(rec.Vendors, ", "))
	field("Services", strings.Join(rec.Services, ", "))
	field("Topics", strings.Join(rec.Topics, ", "))
	field("Frameworks", strings.Join(rec.Frameworks, ", "))

	keys := rec.ConfigSchema.Keys()
	fmt.Fprintf(w, "\nOptions (%d):\n", len(keys))
	for _, k := range keys {
		p, _ := rec.ConfigSchema.Lookup(k)
		fmt.Fprintln(w)
		if p.Default != nil {
			fmt.Fprintf(w, "  %s (%s, default %v)\n", k, p.Type, p.Default)
		} else {
			fmt.Fprintf(w, "  %s (%s)\n", k, p.Type)
		}
		if p.Description != "" {
			fmt.Fprintf(w, "    %s\n", p.Description)
		}
	}
}

// WriteExplainJSON writes the policy metadata as indented JSON to w.
//
// When rec is non-nil, the output is:
//
//	{"policy": { ...metadata fields..., "kind": "..." }}
//
// When rec is nil (name not registered), the output is:
//
//	{"error": "No policy named NAME"}
func WriteExplainJSON(w io.Writer, rec *rules.Record, name string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if rec == nil {
		return enc.Encode(map[string]string{
			"error": fmt.Sprintf("No policy named %s", name),
		})
	}
	out := struct {
		rules.Metadata
		Kind string `json:"kind,omitempty"`
	}{Metadata: rec.Metadata}
	if rec.Check != nil {
		out.Kind = string(rec.Check.Kind())
	}
	return enc.Encode(map[string]any{"policy": out})
}
