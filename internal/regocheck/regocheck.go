// Package regocheck compiles deployer-authored Rego modules into policy
// checks.
//
// A module receives {"resource": <resource as JSON>, "params": <options>,
// "now": <RFC 3339 timestamp>} as input. Its query must evaluate to a set or
// array of violations; each element is either a message string or an object
// with a "msg" field.
package regocheck

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/policy"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"
)

// DefaultRule is queried in the module's package when no query is given.
const DefaultRule = "deny"

// Check is a rules.Check backed by a prepared Rego query.
type Check struct {
	name  string
	kind  models.ResourceKind
	query rego.PreparedEvalQuery
}

// Compile parses module and prepares query against it. An empty query
// defaults to "data.<package>.deny".
func Compile(ctx context.Context, name string, kind models.ResourceKind, query, module string) (*Check, error) {
	parsed, err := ast.ParseModule(name+".rego", module)
	if err != nil {
		return nil, fmt.Errorf("parse rego for %s: %w", name, err)
	}
	if strings.TrimSpace(query) == "" {
		query = parsed.Package.Path.String() + "." + DefaultRule
	}

	prepared, err := rego.New(
		rego.Query(query),
		rego.ParsedModule(parsed),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile rego for %s: %w", name, err)
	}

	return &Check{name: name, kind: kind, query: prepared}, nil
}

// Kind returns the resource kind the module was declared for.
func (c *Check) Kind() models.ResourceKind { return c.kind }

// Validate evaluates the module without a deadline. Evaluation errors are
// dropped; hosts that need them call Eval.
func (c *Check) Validate(resource any, args rules.EvalArgs, report rules.ReportFunc) {
	_ = c.Eval(context.Background(), resource, args, report)
}

// Eval evaluates the module against resource and reports every violation
// the query yields.
func (c *Check) Eval(ctx context.Context, resource any, args rules.EvalArgs, report rules.ReportFunc) error {
	doc, err := toDocument(resource)
	if err != nil {
		return fmt.Errorf("%s: encode resource: %w", c.name, err)
	}
	input := map[string]any{
		"resource": doc,
		"params":   args.Config,
		"now":      args.Time().Format(time.RFC3339),
	}

	rs, err := c.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return fmt.Errorf("%s: evaluate rego: %w", c.name, err)
	}
	for _, result := range rs {
		for _, expr := range result.Expressions {
			for _, msg := range messages(expr.Value) {
				report(msg)
			}
		}
	}
	return nil
}

// messages flattens a query value into violation messages.
func messages(v any) []string {
	var items []any
	switch val := v.(type) {
	case []any:
		items = val
	case string:
		items = []any{val}
	case map[string]any:
		items = []any{val}
	default:
		return nil
	}

	var out []string
	for _, item := range items {
		switch it := item.(type) {
		case string:
			out = append(out, it)
		case map[string]any:
			if msg, ok := it["msg"].(string); ok {
				out = append(out, msg)
			} else {
				b, _ := json.Marshal(it)
				out = append(out, string(b))
			}
		}
	}
	return out
}

// toDocument converts a typed resource into plain JSON values. Protobuf
// messages use protojson so field names follow the proto JSON mapping.
func toDocument(resource any) (any, error) {
	var (
		data []byte
		err  error
	)
	if m, ok := resource.(proto.Message); ok {
		data, err = protojson.Marshal(m)
	} else {
		data, err = json.Marshal(resource)
	}
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Register compiles every custom policy and adds it to reg. It stops at the
// first compile or registration error.
func Register(ctx context.Context, reg *rules.Registry, custom []policy.CustomPolicy) error {
	for _, cp := range custom {
		kind := models.ResourceKind(cp.Kind)
		check, err := Compile(ctx, cp.Name, kind, cp.Query, cp.Rego)
		if err != nil {
			return err
		}

		vendors := cp.Vendors
		if len(vendors) == 0 {
			vendors = []string{kind.Vendor()}
		}
		meta := rules.Metadata{
			Name:             cp.Name,
			Description:      cp.Description,
			EnforcementLevel: enforcementLevel(cp.EnforcementLevel),
			Vendors:          vendors,
			Services:         cp.Services,
			Severity:         severity(cp.Severity),
			Topics:           cp.Topics,
			Frameworks:       cp.Frameworks,
		}
		if _, err := reg.Register(meta, check); err != nil {
			return fmt.Errorf("register custom policy: %w", err)
		}
	}
	return nil
}

// severity normalises v the way the policy validator does. Unparseable
// values pass through unchanged so Register reports them.
func severity(v string) models.Severity {
	if s, err := models.ParseSeverity(v); err == nil {
		return s
	}
	return models.Severity(v)
}

func enforcementLevel(v string) models.EnforcementLevel {
	if strings.TrimSpace(v) == "" {
		return ""
	}
	if l, err := models.ParseEnforcementLevel(v); err == nil {
		return l
	}
	return models.EnforcementLevel(v)
}
