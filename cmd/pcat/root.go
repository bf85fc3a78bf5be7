package main

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/config"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/logging"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/providers/aws/inventory"
	kube "github.com/pankaj-dahiya-devops/policy-catalog/internal/providers/kubernetes"
)

// deps are the external collaborators of the CLI. Tests replace them with
// fakes; newRootCmd wires the production implementations.
type deps struct {
	aws          common.AWSClientProvider
	newInventory func(opts ...inventory.Option) inventory.Collector
	newKube      func(kubeconfig string) kube.KubeClientProvider
	now          func() time.Time
}

func defaultDeps() deps {
	return deps{
		aws: common.NewDefaultAWSClientProvider(),
		newInventory: func(opts ...inventory.Option) inventory.Collector {
			return inventory.NewDefaultCollector(opts...)
		},
		newKube: func(path string) kube.KubeClientProvider {
			return kube.NewDefaultKubeClientProvider(path)
		},
		now: time.Now,
	}
}

// app carries state shared by every subcommand of one invocation.
type app struct {
	deps
	cfgPath   string
	logLevel  string
	logFormat string

	cfg *config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(defaultDeps())
}

func newRootCmdWith(d deps) *cobra.Command {
	a := &app{deps: d, cfg: config.Default(), log: zerolog.Nop()}

	root := &cobra.Command{
		Use:           "pcat",
		Short:         "pcat: select and evaluate cloud compliance policies",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "Path to the pcat config file (default: ~/.config/pcat/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format: text or json (default from config)")

	root.AddCommand(
		newPoliciesCmd(a),
		newPacksCmd(a),
		newEvalCmd(a),
		newScanCmd(a),
		newConfigCmd(a),
		newDoctorCmd(a),
		newVersionCmd(),
	)
	return root
}

// init loads the application config and builds the logger. Flags win over
// config values.
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.NewFileLoader(a.cfgPath).Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	level, format := cfg.Log.Level, cfg.Log.Format
	if a.logLevel != "" {
		level = a.logLevel
	}
	if a.logFormat != "" {
		format = a.logFormat
	}
	log, err := logging.New(level, format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.log = log
	return nil
}
