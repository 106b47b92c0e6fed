package backend

import (
	"strings"

	"github.com/omnipkg/omni/internal/executor"
	"github.com/omnipkg/omni/internal/types"
)

// NewDNF builds the Fedora/RHEL DNF adapter.
func NewDNF(exec *executor.Executor) Adapter {
	return newCLIBackend(cliSpec{
		backend:   types.DNF,
		binary:    "dnf",
		priority:  90,
		needsSudo: true,
		probeArgs: []string{"--version"},
		install:   func(name string) []string { return []string{"install", "-y", name} },
		remove:    func(name string) []string { return []string{"remove", "-y", name} },
		update: func(name string) []string {
			if name == "" {
				return []string{"upgrade", "-y"}
			}
			return []string{"upgrade", "-y", name}
		},
		search: func(q string) []string { return []string{"search", q} },
		list:   []string{"list", "installed"},
		info:   func(name string) []string { return []string{"info", name} },
		installedVer: func(name string) []string {
			return []string{"list", "installed", name}
		},
		namesFromOutput: func(stdout string) []string {
			var out []string
			for _, line := range strings.Split(stdout, "\n") {
				fields := strings.Fields(line)
				if len(fields) >= 2 && strings.Contains(fields[0], ".") {
					out = append(out, strings.SplitN(fields[0], ".", 2)[0])
				}
			}
			return out
		},
		versionFromOutput: func(stdout string) (string, bool) {
			for _, line := range strings.Split(stdout, "\n") {
				if strings.HasPrefix(strings.TrimSpace(line), "Version") {
					parts := strings.SplitN(line, ":", 2)
					if len(parts) == 2 {
						return strings.TrimSpace(parts[1]), true
					}
				}
			}
			return "", false
		},
	}, exec)
}
