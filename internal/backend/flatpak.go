package backend

import (
	"github.com/omnipkg/omni/internal/executor"
	"github.com/omnipkg/omni/internal/types"
)

// NewFlatpak builds the flatpak adapter.
func NewFlatpak(exec *executor.Executor) Adapter {
	return newCLIBackend(cliSpec{
		backend:   types.Flatpak,
		binary:    "flatpak",
		priority:  45,
		needsSudo: false,
		probeArgs: []string{"--version"},
		install:   func(name string) []string { return []string{"install", "-y", name} },
		remove:    func(name string) []string { return []string{"uninstall", "-y", name} },
		update: func(name string) []string {
			if name == "" {
				return []string{"update", "-y"}
			}
			return []string{"update", "-y", name}
		},
		search:       func(q string) []string { return []string{"search", q} },
		list:         []string{"list", "--app"},
		info:         func(name string) []string { return []string{"info", name} },
		installedVer: func(name string) []string { return []string{"info", name} },
	}, exec)
}
