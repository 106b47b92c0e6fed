package backend

import (
	"github.com/omnipkg/omni/internal/executor"
	"github.com/omnipkg/omni/internal/types"
)

// NewChocolatey builds the Chocolatey adapter.
func NewChocolatey(exec *executor.Executor) Adapter {
	return newCLIBackend(cliSpec{
		backend:   types.Chocolatey,
		binary:    "choco",
		priority:  55,
		needsSudo: true,
		probeArgs: []string{"--version"},
		install:   func(name string) []string { return []string{"install", name, "-y"} },
		remove:    func(name string) []string { return []string{"uninstall", name, "-y"} },
		update: func(name string) []string {
			if name == "" {
				return []string{"upgrade", "all", "-y"}
			}
			return []string{"upgrade", name, "-y"}
		},
		search:       func(q string) []string { return []string{"search", q} },
		list:         []string{"list", "--local-only"},
		info:         func(name string) []string { return []string{"info", name} },
		installedVer: func(name string) []string { return []string{"list", "--local-only", name} },
	}, exec)
}
