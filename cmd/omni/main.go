// Command omni is a meta-package-manager CLI: it drives whichever native
// package manager (apt, dnf, pacman, snap, flatpak, ...) is available on
// the host behind one consistent install/remove/update/search surface.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
