package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omnipkg/omni/internal/security"
)

func newVerifyCmd() *cobra.Command {
	var checksum, signature string

	cmd := &cobra.Command{
		Use:   "verify <file>",
		Short: "Check an artifact's checksum and/or detached signature",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			kr, err := loadKeyRing(a.cfg)
			if err != nil {
				return fmt.Errorf("failed to load trusted key ring: %w", err)
			}
			level, err := security.VerifyArtifact(ctx, kr, signatureClient(), args[0], checksum, signature)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), level)
			if !a.cfg.Security.AllowUntrusted && level == security.Untrusted {
				return fmt.Errorf("artifact is untrusted and security.allow_untrusted is false")
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&checksum, "checksum", "", "expected SHA-256 (or SHA-512) checksum")
	cmd.Flags().StringVar(&signature, "signature", "", "path or URL to a detached signature")
	return cmd
}
