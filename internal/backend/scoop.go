package backend

import (
	"github.com/omnipkg/omni/internal/executor"
	"github.com/omnipkg/omni/internal/types"
)

// NewScoop builds the Scoop adapter.
func NewScoop(exec *executor.Executor) Adapter {
	return newCLIBackend(cliSpec{
		backend:   types.Scoop,
		binary:    "scoop",
		priority:  35,
		needsSudo: false,
		probeArgs: []string{"--version"},
		install:   func(name string) []string { return []string{"install", name} },
		remove:    func(name string) []string { return []string{"uninstall", name} },
		update: func(name string) []string {
			if name == "" {
				return []string{"update", "*"}
			}
			return []string{"update", name}
		},
		search:       func(q string) []string { return []string{"search", q} },
		list:         []string{"list"},
		info:         func(name string) []string { return []string{"info", name} },
		installedVer: func(name string) []string { return []string{"list", name} },
	}, exec)
}
