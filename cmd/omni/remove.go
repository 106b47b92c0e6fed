package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omnipkg/omni/internal/types"
)

func newRemoveCmd() *cobra.Command {
	var backendTag string

	cmd := &cobra.Command{
		Use:     "remove [packages...]",
		Aliases: []string{"rm", "uninstall"},
		Short:   "Remove one or more installed packages",
		Args:    cobra.MinimumNArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			t, err := a.orch.Remove(ctx, a.actor, args, types.Backend(backendTag))
			if err != nil {
				return err
			}
			return printInstallResult(cmd, t, nil)
		}),
	}

	cmd.Flags().StringVar(&backendTag, "backend", "", "restrict to a single backend (e.g. apt, snap)")
	return cmd
}
