package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/policies"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/policy"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/regocheck"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect pcat and policy configuration",
	}
	cmd.AddCommand(newConfigValidateCmd(a))
	return cmd
}

func newConfigValidateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [POLICY_FILE]",
		Short: "Validate a deployer policy file against the catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Policy.File
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("no policy file given and none configured")
			}

			cfg, err := policy.LoadPolicy(path)
			if err != nil {
				return err
			}
			reg := policies.NewRegistry()
			errs := policy.Validate(cfg, reg)
			if len(errs) == 0 {
				if err := regocheck.Register(cmd.Context(), reg, cfg.CustomPolicies); err != nil {
					errs = append(errs, err)
				}
			}

			w := cmd.OutOrStdout()
			if len(errs) > 0 {
				fmt.Fprintf(w, "%s: %d problems\n", path, len(errs))
				for _, e := range errs {
					fmt.Fprintf(w, "  - %v\n", e)
				}
				return &exitError{code: 1, reason: "invalid policy file"}
			}

			selected, err := cfg.Select(reg)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s: OK (%d policies selected, %d custom)\n", path, len(selected), len(cfg.CustomPolicies))
			return nil
		},
	}
	return cmd
}
