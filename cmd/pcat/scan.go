package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/logging"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/models"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/providers/aws/inventory"
	kube "github.com/pankaj-dahiya-devops/policy-catalog/internal/providers/kubernetes"
)

func newScanCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Collect live resources and evaluate policies against them",
	}
	cmd.AddCommand(newScanAWSCmd(a), newScanKubernetesCmd(a))
	return cmd
}

func newScanAWSCmd(a *app) *cobra.Command {
	var (
		flags       reportFlags
		profile     string
		allProfiles bool
		regions     []string
		services    []string
	)
	cmd := &cobra.Command{
		Use:   "aws",
		Short: "Scan an AWS account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if profile == "" {
				profile = a.cfg.AWS.DefaultProfile
			}
			if len(regions) == 0 && a.cfg.AWS.DefaultRegion != "" {
				regions = []string{a.cfg.AWS.DefaultRegion}
			}

			opts := []inventory.Option{inventory.WithLogger(logging.Component(a.log, "inventory"))}
			if len(services) > 0 {
				opts = append(opts, inventory.WithServices(services...))
			}
			collector := a.newInventory(opts...)

			var profiles []*common.ProfileConfig
			if allProfiles {
				all, err := a.aws.LoadAllProfiles(cmd.Context())
				if err != nil {
					return fmt.Errorf("load all profiles: %w", err)
				}
				if len(all) == 0 {
					return fmt.Errorf("no AWS profiles found")
				}
				profiles = all
			} else {
				p, err := a.aws.LoadProfile(cmd.Context(), profile)
				if err != nil {
					return fmt.Errorf("load profile %q: %w", profile, err)
				}
				profiles = []*common.ProfileConfig{p}
			}

			var (
				res      []models.Resource
				accounts []string
				scanned  int
			)
			for _, p := range profiles {
				log := a.log.With().Str("profile", p.ProfileName).Logger()
				regs, err := common.ResolveRegions(cmd.Context(), a.aws, p, regions)
				if err != nil {
					if !allProfiles {
						return fmt.Errorf("resolve regions for profile %q: %w", p.ProfileName, err)
					}
					log.Warn().Err(err).Msg("skipping profile")
					continue
				}
				collected, err := collector.CollectAll(cmd.Context(), p, a.aws, regs)
				if err != nil {
					if !allProfiles {
						return fmt.Errorf("collect resources for profile %q: %w", p.ProfileName, err)
					}
					log.Warn().Err(err).Msg("skipping profile")
					continue
				}
				scanned++
				res = append(res, collected...)
				accounts = append(accounts, p.AccountID)
			}
			if scanned == 0 {
				return fmt.Errorf("all profiles failed; no resources collected")
			}

			meta := map[string]any{"accounts": accounts}
			if !allProfiles {
				meta["profile"] = profiles[0].ProfileName
			}
			return a.evaluate(cmd, evaluation{
				flags:       &flags,
				resources:   res,
				sourceLabel: "REGION/ACCOUNT",
				metadata:    meta,
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&profile, "profile", "", "AWS profile name (default from config, then the default credential chain)")
	cmd.Flags().BoolVar(&allProfiles, "all-profiles", false, "Scan every configured AWS profile")
	cmd.Flags().StringSliceVar(&regions, "region", nil, "AWS region(s) to scan (default: all active regions)")
	cmd.Flags().StringSliceVar(&services, "aws-service", nil, fmt.Sprintf("Only collect these services %v", inventory.AllServices()))
	return cmd
}

func newScanKubernetesCmd(a *app) *cobra.Command {
	var (
		flags       reportFlags
		kubeconfig  string
		contextName string
		namespace   string
	)
	cmd := &cobra.Command{
		Use:     "kubernetes",
		Aliases: []string{"k8s"},
		Short:   "Scan a Kubernetes cluster",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if kubeconfig == "" {
				kubeconfig = a.cfg.Kubernetes.Kubeconfig
			}
			if contextName == "" {
				contextName = a.cfg.Kubernetes.Context
			}

			clientset, info, err := a.newKube(kubeconfig).ClientsetForContext(contextName)
			if err != nil {
				return err
			}
			res, err := kube.Collect(cmd.Context(), clientset, info, kube.Options{Namespace: namespace})
			if err != nil {
				return fmt.Errorf("collect cluster resources for context %q: %w", info.ContextName, err)
			}
			a.log.Debug().Str("context", info.ContextName).Int("resources", len(res)).Msg("cluster collected")

			return a.evaluate(cmd, evaluation{
				flags:       &flags,
				resources:   res,
				sourceLabel: "CONTEXT",
				metadata:    map[string]any{"context": info.ContextName, "server": info.Server},
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&kubeconfig, "kubeconfig", "", "Path to kubeconfig (default: $KUBECONFIG or ~/.kube/config)")
	cmd.Flags().StringVar(&contextName, "context", "", "Kubeconfig context (default: current context)")
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "Only scan this namespace")
	return cmd
}
