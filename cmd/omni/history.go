package main

import (
	"context"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/omnipkg/omni/internal/types"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect or undo past install/remove/update operations",
	}
	cmd.AddCommand(newHistoryShowCmd(), newHistoryUndoCmd())
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the append-only install history",
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			records, err := a.orch.HistoryShow(ctx, limit)
			if err != nil {
				return err
			}
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Name", "Backend", "Version", "Status", "Timestamp"})
			for _, r := range records {
				table.Append([]string{r.Name, string(r.Backend), r.Version, string(r.Status), r.Timestamp.Format("2006-01-02 15:04:05")})
			}
			table.Render()
			return nil
		}),
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "cap the number of rows shown (0 = no limit)")
	return cmd
}

func newHistoryUndoCmd() *cobra.Command {
	var backendTag string

	cmd := &cobra.Command{
		Use:   "undo <package>",
		Short: "Synthesize and commit the inverse of the most recent operation on a package",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			t, err := a.orch.HistoryUndo(ctx, a.actor, args[0], types.Backend(backendTag))
			if err != nil {
				return err
			}
			return printInstallResult(cmd, t, nil)
		}),
	}
	cmd.Flags().StringVar(&backendTag, "backend", "", "restrict to a single backend")
	return cmd
}
