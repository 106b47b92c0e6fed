package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/omnipkg/omni/internal/manifest"
	"github.com/omnipkg/omni/internal/orchestrator"
	"github.com/omnipkg/omni/internal/resolver"
	"github.com/omnipkg/omni/internal/types"
)

func newInstallCmd() *cobra.Command {
	var backendTag string
	var strategy string
	var force bool
	var fromManifest string

	cmd := &cobra.Command{
		Use:   "install [packages...]",
		Short: "Install one or more packages, or every app in a manifest",
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			strat, err := parseStrategy(strategy)
			if err != nil {
				return err
			}
			opts := orchestrator.InstallOptions{
				Backend:  types.Backend(backendTag),
				Strategy: strat,
				Force:    force,
			}

			if fromManifest != "" {
				f, err := os.Open(fromManifest)
				if err != nil {
					return fmt.Errorf("failed to open manifest: %w", err)
				}
				defer f.Close()
				m, err := manifest.Parse(f)
				if err != nil {
					return err
				}
				t, plan, err := a.orch.InstallFromManifest(ctx, a.actor, m, opts)
				if err != nil {
					return err
				}
				return printInstallResult(cmd, t, plan)
			}

			if len(args) == 0 {
				return fmt.Errorf("install requires at least one package name, or --from <manifest>")
			}
			t, plan, err := a.orch.Install(ctx, a.actor, args, opts)
			if err != nil {
				return err
			}
			return printInstallResult(cmd, t, plan)
		}),
	}

	cmd.Flags().StringVar(&backendTag, "backend", "", "restrict to a single backend (e.g. apt, snap)")
	cmd.Flags().StringVar(&strategy, "strategy", "conservative", "resolution strategy: conservative, latest, minimal")
	cmd.Flags().BoolVar(&force, "force", false, "proceed despite a detected conflict")
	cmd.Flags().StringVar(&fromManifest, "from", "", "install every app declared in a YAML manifest")
	return cmd
}

func printInstallResult(cmd *cobra.Command, t *types.Transaction, plan *types.Plan) error {
	if t == nil {
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "transaction %s: %s\n", t.UUID, t.Status)
	for _, op := range t.Operations {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-8s %-20s %-10s %s\n", op.Type, op.Name, op.Backend, op.Status)
	}
	if plan != nil && len(plan.Warnings) > 0 {
		for _, w := range plan.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
		}
	}
	if t.Status != types.TxCompleted {
		return fmt.Errorf("transaction ended in state %s", t.Status)
	}
	return nil
}

func parseStrategy(s string) (resolver.Strategy, error) {
	switch s {
	case "", "conservative":
		return resolver.Conservative, nil
	case "latest":
		return resolver.Latest, nil
	case "minimal":
		return resolver.Minimal, nil
	default:
		return resolver.Conservative, fmt.Errorf("unknown strategy %q (want conservative, latest, or minimal)", s)
	}
}
