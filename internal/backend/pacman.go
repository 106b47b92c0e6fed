package backend

import (
	"strings"

	"github.com/omnipkg/omni/internal/executor"
	"github.com/omnipkg/omni/internal/types"
)

// NewPacman builds the Arch Linux pacman adapter.
func NewPacman(exec *executor.Executor) Adapter {
	return newCLIBackend(cliSpec{
		backend:   types.Pacman,
		binary:    "pacman",
		priority:  85,
		needsSudo: true,
		probeArgs: []string{"--version"},
		install:   func(name string) []string { return []string{"-S", "--noconfirm", name} },
		remove:    func(name string) []string { return []string{"-R", "--noconfirm", name} },
		update: func(name string) []string {
			if name == "" {
				return []string{"-Syu", "--noconfirm"}
			}
			return []string{"-S", "--noconfirm", name}
		},
		search: func(q string) []string { return []string{"-Ss", q} },
		list:   []string{"-Q"},
		info:   func(name string) []string { return []string{"-Qi", name} },
		installedVer: func(name string) []string {
			return []string{"-Q", name}
		},
		namesFromOutput: func(stdout string) []string {
			var out []string
			for _, line := range strings.Split(stdout, "\n") {
				fields := strings.Fields(line)
				if len(fields) >= 1 && !strings.HasPrefix(line, " ") {
					out = append(out, fields[0])
				}
			}
			return out
		},
		versionFromOutput: func(stdout string) (string, bool) {
			fields := strings.Fields(stdout)
			if len(fields) >= 2 {
				return fields[1], true
			}
			return "", false
		},
	}, exec)
}
