package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/metrics"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/policy"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rules"
)

// contextChecker is implemented by checks that can fail or block, such as
// compiled Rego queries. The engine prefers Eval over Validate when present.
type contextChecker interface {
	Eval(ctx context.Context, resource any, args rules.EvalArgs, report rules.ReportFunc) error
}

// Engine evaluates selected policies against an inventory of resources.
// It never collects resources itself; providers and loaders do that.
type Engine struct {
	logger  zerolog.Logger
	metrics *metrics.Collector
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for per-run and per-policy events.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics records every run on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(e *Engine) { e.metrics = c }
}

// WithClock overrides the evaluation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New returns an Engine with a no-op logger and no metrics.
func New(opts ...Option) *Engine {
	e := &Engine{logger: zerolog.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs every record against every resource whose kind its check
// applies to. Records are visited in the given order. A record is skipped
// when its effective enforcement level is disabled or when ShouldEval
// reports false for the deployer's arguments. Check failures and panics are
// recorded in Report.Errors and do not stop the run. cfg may be nil.
//
// Evaluate returns an error only when ctx is cancelled.
func (e *Engine) Evaluate(ctx context.Context, records []rules.Record, resources []models.Resource, cfg *policy.PolicyConfig) (*models.Report, error) {
	start := e.now()
	now := start.UTC()

	byKind := groupByKind(resources)
	var (
		violations []models.Violation
		evalErrors []models.EvaluationError
		evaluated  int
	)

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("evaluation cancelled: %w", err)
		}

		log := e.logger.With().Str("policy", rec.Name).Logger()
		level := cfg.EnforcementFor(rec)
		if level == "" {
			level = models.EnforcementAdvisory
		}
		if level == models.EnforcementDisabled {
			log.Debug().Msg("policy disabled by enforcement level")
			continue
		}
		args := cfg.EvalArgs(rec, now)
		if !rec.ShouldEval(args) {
			log.Debug().Msg("policy disabled by configuration")
			continue
		}
		evaluated++

		for _, res := range matching(rec.Check.Kind(), byKind) {
			report := func(msg string) {
				violations = append(violations, models.Violation{
					ID:               fmt.Sprintf("%s:%s", rec.Name, res.Name),
					PolicyName:       rec.Name,
					ResourceKind:     res.Kind,
					ResourceName:     res.Name,
					Source:           res.Source,
					Severity:         rec.Severity,
					EnforcementLevel: level,
					Message:          msg,
					Frameworks:       rec.Frameworks,
					DetectedAt:       now,
				})
			}
			if err := runCheck(ctx, rec.Check, res.Properties, args, report); err != nil {
				log.Warn().Err(err).Str("resource", res.Name).Msg("policy evaluation failed")
				evalErrors = append(evalErrors, models.EvaluationError{
					PolicyName:   rec.Name,
					ResourceName: res.Name,
					Error:        err.Error(),
				})
			}
		}
	}

	violations = policy.ApplyOverrides(violations, cfg)
	sortViolations(violations)
	if violations == nil {
		violations = []models.Violation{}
	}

	report := &models.Report{
		ReportID:           fmt.Sprintf("eval-%d", start.UnixNano()),
		GeneratedAt:        now,
		PoliciesEvaluated:  evaluated,
		ResourcesEvaluated: len(resources),
		Summary:            models.Summarize(violations),
		Violations:         violations,
		Errors:             evalErrors,
	}
	if cfg != nil {
		report.Pack = cfg.Pack
	}

	elapsed := e.now().Sub(start)
	if e.metrics != nil {
		e.metrics.Update(report, elapsed)
	}
	e.logger.Info().
		Int("policies", evaluated).
		Int("resources", len(resources)).
		Int("violations", len(violations)).
		Int("errors", len(evalErrors)).
		Dur("duration", elapsed).
		Msg("evaluation complete")

	return report, nil
}

// runCheck invokes check on one resource, converting a panic into an error.
func runCheck(ctx context.Context, check rules.Check, resource any, args rules.EvalArgs, report rules.ReportFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("check panicked: %v", r)
		}
	}()
	if cc, ok := check.(contextChecker); ok {
		return cc.Eval(ctx, resource, args, report)
	}
	check.Validate(resource, args, report)
	return nil
}

func groupByKind(resources []models.Resource) map[models.ResourceKind][]models.Resource {
	out := make(map[models.ResourceKind][]models.Resource)
	for _, r := range resources {
		out[r.Kind] = append(out[r.Kind], r)
	}
	return out
}

// matching returns the resources a check declared for kind applies to, in
// a stable order.
func matching(kind models.ResourceKind, byKind map[models.ResourceKind][]models.Resource) []models.Resource {
	if !kind.IsWildcard() {
		return byKind[kind]
	}
	kinds := make([]models.ResourceKind, 0, len(byKind))
	for k := range byKind {
		if kind.Matches(k) {
			kinds = append(kinds, k)
		}
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	var out []models.Resource
	for _, k := range kinds {
		out = append(out, byKind[k]...)
	}
	return out
}

// sortViolations orders violations by severity (critical first), then by
// policy name and resource name.
func sortViolations(violations []models.Violation) {
	sort.SliceStable(violations, func(i, j int) bool {
		a, b := violations[i], violations[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if a.PolicyName != b.PolicyName {
			return a.PolicyName < b.PolicyName
		}
		return a.ResourceName < b.ResourceName
	})
}
