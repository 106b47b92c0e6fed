package backend

import (
	"strings"

	"github.com/omnipkg/omni/internal/executor"
	"github.com/omnipkg/omni/internal/types"
)

// NewAPT builds the Debian/Ubuntu APT adapter.
func NewAPT(exec *executor.Executor) Adapter {
	return newCLIBackend(cliSpec{
		backend:   types.APT,
		binary:    "apt-get",
		priority:  90,
		needsSudo: true,
		probeArgs: []string{"--version"},
		install:   func(name string) []string { return []string{"install", "-y", name} },
		remove:    func(name string) []string { return []string{"remove", "-y", name} },
		update: func(name string) []string {
			if name == "" {
				return []string{"upgrade", "-y"}
			}
			return []string{"install", "-y", "--only-upgrade", name}
		},
		search: func(q string) []string { return []string{"search", q} },
		list:   []string{"list", "--installed"},
		info:   func(name string) []string { return []string{"show", name} },
		installedVer: func(name string) []string {
			return []string{"list", "--installed", name}
		},
		namesFromOutput: func(stdout string) []string {
			var out []string
			for _, line := range strings.Split(stdout, "\n") {
				if idx := strings.Index(line, "/"); idx > 0 {
					out = append(out, line[:idx])
				}
			}
			return out
		},
		versionFromOutput: func(stdout string) (string, bool) {
			for _, line := range strings.Split(stdout, "\n") {
				if strings.HasPrefix(line, "Version:") {
					return strings.TrimSpace(strings.TrimPrefix(line, "Version:")), true
				}
			}
			return "", false
		},
	}, exec)
}
