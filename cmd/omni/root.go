package main

import "github.com/spf13/cobra"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "omni",
		Short:        "Drive apt, dnf, pacman, snap, flatpak and friends behind one interface",
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug-level logging")
	root.PersistentFlags().Bool("mock", false, "use in-memory mock backends instead of real package managers")
	root.PersistentFlags().String("config", "", "path to config.yaml (default: XDG config dir)")

	root.AddCommand(
		newInstallCmd(),
		newRemoveCmd(),
		newUpdateCmd(),
		newSearchCmd(),
		newInfoCmd(),
		newListCmd(),
		newResolveCmd(),
		newHistoryCmd(),
		newSnapshotCmd(),
		newVerifyCmd(),
		newConfigCmd(),
	)
	return root
}
