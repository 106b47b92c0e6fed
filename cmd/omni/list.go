package main

import (
	"context"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/omnipkg/omni/internal/types"
)

func newListCmd() *cobra.Command {
	var backendTag string
	var detailed bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List currently installed packages",
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			records, err := a.orch.List(ctx, types.Backend(backendTag))
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(os.Stdout)
			if detailed {
				table.SetHeader([]string{"Name", "Backend", "Version", "Status", "Installed"})
				for _, r := range records {
					table.Append([]string{r.Name, string(r.Backend), r.Version, string(r.Status), r.Timestamp.Format("2006-01-02 15:04")})
				}
			} else {
				table.SetHeader([]string{"Name", "Backend", "Version"})
				for _, r := range records {
					table.Append([]string{r.Name, string(r.Backend), r.Version})
				}
			}
			table.Render()
			return nil
		}),
	}

	cmd.Flags().StringVar(&backendTag, "backend", "", "restrict to a single backend")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "add status and install-timestamp columns")
	return cmd
}
