package rules

import (
	"time"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
)

// ReportFunc is the violation callback supplied by the evaluation host.
// A check calls it once per violation it detects.
type ReportFunc func(message string)

// EvalArgs carries the run-time arguments of one check invocation.
type EvalArgs struct {
	// Config holds per-check configuration: schema defaults with any
	// deployer overrides merged on top. It may be nil.
	Config map[string]any

	// Now is the evaluation timestamp. Checks that compare ages or expiry
	// dates must use it instead of time.Now so runs are reproducible.
	Now time.Time
}

// Check is the executable body of a policy. It inspects one resource and
// reports zero or more violations.
//
// Checks must be stateless, must not perform I/O, and must ignore resources
// whose Properties are not of the type their Kind declares.
type Check interface {
	// Kind returns the resource kind this check applies to. Wildcard kinds
	// ("kubernetes:*") apply to every kind of that vendor.
	Kind() models.ResourceKind

	// Validate inspects resource and calls report for each violation.
	Validate(resource any, args EvalArgs, report ReportFunc)
}

// typedCheck adapts a predicate over a concrete resource type to Check.
type typedCheck[T any] struct {
	kind models.ResourceKind
	fn   func(T, EvalArgs, ReportFunc)
}

// ValidateResourceOfType returns a Check that invokes fn for resources whose
// value is a T (or a non-nil *T). Any other value is ignored.
func ValidateResourceOfType[T any](kind models.ResourceKind, fn func(resource T, args EvalArgs, report ReportFunc)) Check {
	return typedCheck[T]{kind: kind, fn: fn}
}

func (c typedCheck[T]) Kind() models.ResourceKind { return c.kind }

func (c typedCheck[T]) Validate(resource any, args EvalArgs, report ReportFunc) {
	switch v := resource.(type) {
	case T:
		c.fn(v, args, report)
	case *T:
		if v != nil {
			c.fn(*v, args, report)
		}
	}
}

// Metadata classifies a policy. It is declared separately from the Check and
// composed with it by the Registry.
type Metadata struct {
	// Name is the unique identifier of the policy across the registry.
	Name        string `json:"name"`
	Description string `json:"description"`

	// EnforcementLevel defaults to advisory when left empty.
	EnforcementLevel models.EnforcementLevel `json:"enforcement_level"`

	Vendors    []string        `json:"vendors"`
	Services   []string        `json:"services"`
	Severity   models.Severity `json:"severity"`
	Topics     []string        `json:"topics,omitempty"`
	Frameworks []string        `json:"frameworks,omitempty"`

	// ConfigSchema describes the options a deployer may set for this policy.
	// The "enabled" option is always recognised.
	ConfigSchema *ConfigSchema `json:"config_schema,omitempty"`
}

// Record is one registered policy: its metadata and its check.
type Record struct {
	Metadata
	Check Check `json:"-"`
}

// ShouldEval reports whether the record's check should run for args.
func (r Record) ShouldEval(args EvalArgs) bool {
	return ShouldEvalPolicy(r.ConfigSchema, args)
}
