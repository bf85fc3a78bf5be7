// Package metrics provides Prometheus instrumentation for evaluation runs.
package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
)

// Collector translates a report into Prometheus metric values.
type Collector struct {
	policiesEvaluated  prometheus.Gauge
	resourcesEvaluated prometheus.Gauge
	violations         *prometheus.GaugeVec
	evalErrors         *prometheus.GaugeVec
	runDuration        prometheus.Gauge
	lastRun            prometheus.Gauge
	mu                 sync.Mutex
}

// NewCollector creates and registers metrics on the given registerer.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		policiesEvaluated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pcat",
			Name:      "policies_evaluated",
			Help:      "Number of policies evaluated in the last run.",
		}),
		resourcesEvaluated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pcat",
			Name:      "resources_evaluated",
			Help:      "Number of resources evaluated in the last run.",
		}),
		violations: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "pcat",
			Name:      "violations",
			Help:      "Violations in the last run by severity and enforcement level.",
		}, []string{"severity", "enforcement"}),
		evalErrors: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "pcat",
			Name:      "evaluation_errors",
			Help:      "Policies that failed during the last run.",
		}, []string{"policy"}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pcat",
			Name:      "run_duration_seconds",
			Help:      "Duration of the last evaluation run in seconds.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pcat",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix timestamp of the last evaluation run.",
		}),
	}

	reg.MustRegister(c.policiesEvaluated)
	reg.MustRegister(c.resourcesEvaluated)
	reg.MustRegister(c.violations)
	reg.MustRegister(c.evalErrors)
	reg.MustRegister(c.runDuration)
	reg.MustRegister(c.lastRun)

	return c
}

// Update replaces all metric values from the given report.
func (c *Collector) Update(report *models.Report, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.violations.Reset()
	c.evalErrors.Reset()

	c.runDuration.Set(duration.Seconds())
	c.lastRun.Set(float64(report.GeneratedAt.Unix()))
	c.policiesEvaluated.Set(float64(report.PoliciesEvaluated))
	c.resourcesEvaluated.Set(float64(report.ResourcesEvaluated))

	for _, sev := range models.AllSeverities() {
		for _, lvl := range []models.EnforcementLevel{models.EnforcementAdvisory, models.EnforcementMandatory} {
			c.violations.With(prometheus.Labels{"severity": string(sev), "enforcement": string(lvl)}).Set(0)
		}
	}
	for _, v := range report.Violations {
		c.violations.With(prometheus.Labels{"severity": string(v.Severity), "enforcement": string(v.EnforcementLevel)}).Inc()
	}
	for _, e := range report.Errors {
		c.evalErrors.With(prometheus.Labels{"policy": e.PolicyName}).Inc()
	}
}

// WriteTextfile writes every metric gathered by g to path in the
// node-exporter textfile format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
