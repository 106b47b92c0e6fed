package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omnipkg/omni/internal/types"
)

func newResolveCmd() *cobra.Command {
	var backendTag string
	var strategy string

	cmd := &cobra.Command{
		Use:   "resolve <package>",
		Short: "Show the resolution plan for a package without installing it",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			strat, err := parseStrategy(strategy)
			if err != nil {
				return err
			}
			plan, err := a.orch.Resolve(ctx, args[0], types.Backend(backendTag), strat)
			if err != nil {
				return err
			}
			for _, pkg := range plan.Packages {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %-10s %s\n", pkg.Name, pkg.Backend, pkg.Version)
			}
			for _, c := range plan.Conflicts {
				fmt.Fprintf(cmd.ErrOrStderr(), "conflict: %s\n", c.Reason)
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&backendTag, "backend", "", "backend to resolve against (required)")
	cmd.Flags().StringVar(&strategy, "strategy", "conservative", "resolution strategy: conservative, latest, minimal")
	cmd.MarkFlagRequired("backend")
	return cmd
}
