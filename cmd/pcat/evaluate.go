package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/engine"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/logging"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/metrics"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/output"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/policy"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/resources"
)

// reportFlags control how an evaluation is rendered and when it fails.
type reportFlags struct {
	selection selectionFlags
	format    string
	color     bool
	outFile   string
	failOn    string
	textfile  string
}

func (f *reportFlags) register(cmd *cobra.Command) {
	f.selection.register(cmd, true)
	cmd.Flags().StringVarP(&f.format, "output", "o", "", "Output format: table or json (default from config)")
	cmd.Flags().BoolVar(&f.color, "color", false, "Colour severities in table output")
	cmd.Flags().StringVar(&f.outFile, "report-file", "", "Also write the full JSON report to this path")
	cmd.Flags().StringVar(&f.failOn, "fail-on", "", "Exit 1 when a violation is at least this severe (overrides the policy file)")
	cmd.Flags().StringVar(&f.textfile, "metrics-textfile", "", "Write Prometheus metrics for the run to this path")
}

// evaluation is one evaluation run over collected resources.
type evaluation struct {
	flags       *reportFlags
	resources   []models.Resource
	sourceLabel string
	metadata    map[string]any
}

func newEvalCmd(a *app) *cobra.Command {
	var flags reportFlags
	cmd := &cobra.Command{
		Use:   "eval PATH...",
		Short: "Evaluate policies against inventory files and Kubernetes manifests",
		Long: `Evaluate the selected policies against resources read from YAML or JSON
files. A file may hold a resource inventory ("resources:" list) or Kubernetes
manifests; directories are walked recursively and "-" reads stdin.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var res []models.Resource
			var paths []string
			for _, p := range args {
				if p != "-" {
					paths = append(paths, p)
					continue
				}
				stdin, err := resources.Load(cmd.InOrStdin(), "stdin")
				if err != nil {
					return err
				}
				res = append(res, stdin...)
			}
			if len(paths) > 0 {
				loaded, err := resources.LoadPaths(paths)
				if err != nil {
					return err
				}
				res = append(res, loaded...)
			}
			a.log.Debug().Int("resources", len(res)).Msg("resources loaded")
			return a.evaluate(cmd, evaluation{flags: &flags, resources: res})
		},
	}
	flags.register(cmd)
	return cmd
}

// evaluate selects policies, runs the engine over ev.resources, renders the
// report and returns an exitError when enforcement fails.
func (a *app) evaluate(cmd *cobra.Command, ev evaluation) error {
	f := ev.flags
	cfg, err := f.selection.policyConfig(a)
	if err != nil {
		return err
	}
	if f.failOn != "" {
		if _, err := models.ParseSeverity(f.failOn); err != nil {
			return err
		}
		cfg.Enforcement.FailOnSeverity = f.failOn
	}
	records, err := selectPolicies(cmd, a, cfg)
	if err != nil {
		return err
	}

	opts := []engine.Option{
		engine.WithLogger(logging.Component(a.log, "engine")),
		engine.WithClock(a.now),
	}
	textfile := f.textfile
	if textfile == "" {
		textfile = a.cfg.Metrics.Textfile
	}
	var promReg *prometheus.Registry
	if textfile != "" {
		promReg = prometheus.NewRegistry()
		opts = append(opts, engine.WithMetrics(metrics.NewCollector(promReg)))
	}

	report, err := engine.New(opts...).Evaluate(cmd.Context(), records, ev.resources, cfg)
	if err != nil {
		return err
	}
	report.Metadata = ev.metadata

	if promReg != nil {
		if err := metrics.WriteTextfile(textfile, promReg); err != nil {
			return err
		}
	}
	if f.outFile != "" {
		if err := writeReportToFile(f.outFile, report); err != nil {
			return err
		}
	}

	w := cmd.OutOrStdout()
	switch resolveFormat(f.format, a) {
	case output.FormatJSON:
		if err := output.WriteJSON(w, report); err != nil {
			return err
		}
	case output.FormatTable:
		output.RenderTable(w, report.Violations, output.TableOptions{
			Colored:            f.color || a.cfg.Output.Color,
			IncludeEnforcement: true,
			IncludeSource:      true,
			SourceLabel:        ev.sourceLabel,
		})
		output.RenderSummary(w, report)
	default:
		return fmt.Errorf("invalid output format %q; valid values: table, json", f.format)
	}

	if policy.ShouldFail(report.Violations, cfg) {
		return &exitError{code: 1, reason: "enforcement failed"}
	}
	return nil
}

// writeReportToFile serialises report as indented JSON and writes it to path,
// creating or overwriting the file. It does not affect stdout output.
func writeReportToFile(path string, report *models.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write report file %q: %w", path, err)
	}
	werr := output.WriteJSON(f, report)
	if err := errors.Join(werr, f.Close()); err != nil {
		return fmt.Errorf("write report file %q: %w", path, err)
	}
	return nil
}
