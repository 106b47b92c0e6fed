package backend

import (
	"github.com/omnipkg/omni/internal/executor"
	"github.com/omnipkg/omni/internal/types"
)

// NewZypper builds the openSUSE zypper adapter.
func NewZypper(exec *executor.Executor) Adapter {
	return newCLIBackend(cliSpec{
		backend:   types.Zypper,
		binary:    "zypper",
		priority:  85,
		needsSudo: true,
		probeArgs: []string{"--version"},
		install:   func(name string) []string { return []string{"--non-interactive", "install", name} },
		remove:    func(name string) []string { return []string{"--non-interactive", "remove", name} },
		update: func(name string) []string {
			if name == "" {
				return []string{"--non-interactive", "update"}
			}
			return []string{"--non-interactive", "update", name}
		},
		search:       func(q string) []string { return []string{"search", q} },
		list:         []string{"search", "--installed-only"},
		info:         func(name string) []string { return []string{"info", name} },
		installedVer: func(name string) []string { return []string{"info", name} },
	}, exec)
}
