package backend

import (
	"strings"

	"github.com/omnipkg/omni/internal/executor"
	"github.com/omnipkg/omni/internal/types"
)

// NewSnap builds the snapd adapter.
func NewSnap(exec *executor.Executor) Adapter {
	return newCLIBackend(cliSpec{
		backend:   types.Snap,
		binary:    "snap",
		priority:  50,
		needsSudo: true,
		probeArgs: []string{"version"},
		install:   func(name string) []string { return []string{"install", name} },
		remove:    func(name string) []string { return []string{"remove", name} },
		update: func(name string) []string {
			if name == "" {
				return []string{"refresh"}
			}
			return []string{"refresh", name}
		},
		search: func(q string) []string { return []string{"find", q} },
		list:   []string{"list"},
		info:   func(name string) []string { return []string{"info", name} },
		installedVer: func(name string) []string {
			return []string{"list", name}
		},
		namesFromOutput: func(stdout string) []string {
			var out []string
			lines := strings.Split(stdout, "\n")
			for i, line := range lines {
				if i == 0 || line == "" {
					continue // header row
				}
				fields := strings.Fields(line)
				if len(fields) > 0 {
					out = append(out, fields[0])
				}
			}
			return out
		},
		versionFromOutput: func(stdout string) (string, bool) {
			lines := strings.Split(stdout, "\n")
			if len(lines) < 2 {
				return "", false
			}
			fields := strings.Fields(lines[1])
			if len(fields) >= 2 {
				return fields[1], true
			}
			return "", false
		},
	}, exec)
}
