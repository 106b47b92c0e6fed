package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/omnipkg/omni/internal/types"
)

func newUpdateCmd() *cobra.Command {
	var backendTag string
	var all bool

	cmd := &cobra.Command{
		Use:   "update [packages...]",
		Short: "Update one or more packages, or every installed package with --all",
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			t, err := a.orch.Update(ctx, a.actor, args, types.Backend(backendTag), all)
			if err != nil {
				return err
			}
			return printInstallResult(cmd, t, nil)
		}),
	}

	cmd.Flags().StringVar(&backendTag, "backend", "", "restrict to a single backend (e.g. apt, snap)")
	cmd.Flags().BoolVar(&all, "all", false, "update every currently installed package")
	return cmd
}
