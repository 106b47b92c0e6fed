package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omnipkg/omni/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or reset omni's configuration",
	}
	cmd.AddCommand(newConfigShowCmd(), newConfigResetCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective (defaulted, coerced) configuration",
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "general:\n")
			fmt.Fprintf(cmd.OutOrStdout(), "  auto_update: %v\n", a.cfg.General.AutoUpdate)
			fmt.Fprintf(cmd.OutOrStdout(), "  parallel_installs: %v\n", a.cfg.General.ParallelInstalls)
			fmt.Fprintf(cmd.OutOrStdout(), "  max_parallel_jobs: %d\n", a.cfg.General.MaxParallelJobs)
			fmt.Fprintf(cmd.OutOrStdout(), "  confirm_installs: %v\n", a.cfg.General.ConfirmInstalls)
			fmt.Fprintf(cmd.OutOrStdout(), "  log_level: %s\n", a.cfg.General.LogLevel)
			fmt.Fprintf(cmd.OutOrStdout(), "  fallback_enabled: %v\n", a.cfg.General.FallbackEnabled)
			fmt.Fprintf(cmd.OutOrStdout(), "boxes:\n")
			fmt.Fprintf(cmd.OutOrStdout(), "  preferred_order: %v\n", a.cfg.Boxes.PreferredOrder)
			fmt.Fprintf(cmd.OutOrStdout(), "  disabled_boxes: %v\n", a.cfg.Boxes.DisabledBoxes)
			fmt.Fprintf(cmd.OutOrStdout(), "security:\n")
			fmt.Fprintf(cmd.OutOrStdout(), "  verify_signatures: %v\n", a.cfg.Security.VerifySignatures)
			fmt.Fprintf(cmd.OutOrStdout(), "  verify_checksums: %v\n", a.cfg.Security.VerifyChecksums)
			fmt.Fprintf(cmd.OutOrStdout(), "  allow_untrusted: %v\n", a.cfg.Security.AllowUntrusted)
			return nil
		}),
	}
}

func newConfigResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Overwrite the configuration file with defaults",
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Root().PersistentFlags().GetString("config")
			if configPath == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				configPath = p
			}
			if _, err := config.Reset(configPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration reset at %s\n", configPath)
			return nil
		}),
	}
}
