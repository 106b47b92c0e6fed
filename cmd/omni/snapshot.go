package main

import (
	"context"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Create, list, or revert to a point-in-time snapshot of installed packages",
	}
	cmd.AddCommand(newSnapshotCreateCmd(), newSnapshotListCmd(), newSnapshotRevertCmd())
	return cmd
}

func newSnapshotCreateCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Capture the current installed-package set under name",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			id, err := a.orch.SnapshotCreate(ctx, args[0], description)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		}),
	}
	cmd.Flags().StringVar(&description, "description", "", "free-form description")
	return cmd
}

func newSnapshotListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every captured snapshot",
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			snaps, err := a.orch.SnapshotList(ctx)
			if err != nil {
				return err
			}
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Name", "Description", "Created"})
			for _, s := range snaps {
				table.Append([]string{s.ID, s.Name, s.Description, s.CreatedAt.Format("2006-01-02 15:04:05")})
			}
			table.Render()
			return nil
		}),
	}
}

func newSnapshotRevertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revert <id-or-name>",
		Short: "Restore the installed-package set captured by a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			ok, err := a.orch.SnapshotRevert(ctx, a.actor, args[0])
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: snapshot restored partially; some packages could not be reinstalled")
			}
			return nil
		}),
	}
}
