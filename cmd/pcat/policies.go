package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/policy-catalog/internal/output"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/policies"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/render"
	"github.com/pankaj-dahiya-devops/policy-catalog/internal/rulepacks"
)

func newPoliciesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policies",
		Short: "Browse the policy catalog",
	}
	cmd.AddCommand(newPoliciesListCmd(a), newPoliciesShowCmd(a))
	return cmd
}

func newPoliciesListCmd(a *app) *cobra.Command {
	var (
		sel    selectionFlags
		format string
		facets bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List policies matching the selection criteria",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			if facets {
				return output.WriteJSON(w, policies.NewRegistry().Facets())
			}

			cfg, err := sel.policyConfig(a)
			if err != nil {
				return err
			}
			records, err := selectPolicies(cmd, a, cfg)
			if err != nil {
				return err
			}
			if resolveFormat(format, a) == output.FormatJSON {
				return output.WriteJSON(w, records)
			}
			output.RenderPolicies(w, records, a.cfg.Output.Color)
			return nil
		},
	}
	sel.register(cmd, true)
	cmd.Flags().StringVarP(&format, "output", "o", "", "Output format: table or json (default from config)")
	cmd.Flags().BoolVar(&facets, "facets", false, "Print the vendors, services, frameworks and topics in the catalog")
	return cmd
}

func newPoliciesShowCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show NAME",
		Short: "Describe one policy and its options",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, ok := policies.NewRegistry().Lookup(args[0])
			w := cmd.OutOrStdout()
			if resolveFormat(format, a) == output.FormatJSON {
				if !ok {
					if err := render.WriteExplainJSON(w, nil, args[0]); err != nil {
						return err
					}
					return &exitError{code: 1, reason: "policy not found"}
				}
				return render.WriteExplainJSON(w, &rec, args[0])
			}
			if !ok {
				return fmt.Errorf("no policy named %q", args[0])
			}
			render.ExplainPolicy(w, rec)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "", "Output format: table or json (default from config)")
	return cmd
}

func newPacksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "packs",
		Short: "Browse named policy packs",
	}
	var format string
	list := &cobra.Command{
		Use:   "list",
		Short: "List the named packs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if resolveFormat(format, a) == output.FormatJSON {
				return output.WriteJSON(cmd.OutOrStdout(), rulepacks.All())
			}
			output.RenderPacks(cmd.OutOrStdout(), rulepacks.All())
			return nil
		},
	}
	list.Flags().StringVarP(&format, "output", "o", "", "Output format: table or json (default from config)")
	cmd.AddCommand(list)
	return cmd
}

// resolveFormat returns the --output flag value, falling back to the config.
func resolveFormat(flag string, a *app) string {
	if flag != "" {
		return flag
	}
	return a.cfg.Output.Format
}
