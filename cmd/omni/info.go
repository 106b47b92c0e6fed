package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omnipkg/omni/internal/types"
)

func newInfoCmd() *cobra.Command {
	var backendTag string

	cmd := &cobra.Command{
		Use:   "info <package>",
		Short: "Show backend-reported metadata for a package",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			info, err := a.orch.Info(ctx, args[0], types.Backend(backendTag))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), info)
			return nil
		}),
	}

	cmd.Flags().StringVar(&backendTag, "backend", "", "backend to query (required)")
	cmd.MarkFlagRequired("backend")
	return cmd
}
