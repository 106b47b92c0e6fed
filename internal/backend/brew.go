package backend

import (
	"strings"

	"github.com/omnipkg/omni/internal/executor"
	"github.com/omnipkg/omni/internal/types"
)

// NewBrew builds the Homebrew adapter.
func NewBrew(exec *executor.Executor) Adapter {
	return newCLIBackend(cliSpec{
		backend:   types.Brew,
		binary:    "brew",
		priority:  70,
		needsSudo: false,
		probeArgs: []string{"--version"},
		install:   func(name string) []string { return []string{"install", name} },
		remove:    func(name string) []string { return []string{"uninstall", name} },
		update: func(name string) []string {
			if name == "" {
				return []string{"upgrade"}
			}
			return []string{"upgrade", name}
		},
		search: func(q string) []string { return []string{"search", q} },
		list:   []string{"list"},
		info:   func(name string) []string { return []string{"info", name} },
		installedVer: func(name string) []string {
			return []string{"list", "--versions", name}
		},
		versionFromOutput: func(stdout string) (string, bool) {
			fields := strings.Fields(stdout)
			if len(fields) >= 2 {
				return fields[len(fields)-1], true
			}
			return "", false
		},
	}, exec)
}
