package backend

import (
	"strings"

	"github.com/omnipkg/omni/internal/executor"
	"github.com/omnipkg/omni/internal/types"
)

// NewWinget builds the Windows Package Manager adapter.
func NewWinget(exec *executor.Executor) Adapter {
	return newCLIBackend(cliSpec{
		backend:   types.Winget,
		binary:    "winget",
		priority:  80,
		needsSudo: false,
		probeArgs: []string{"--version"},
		install:   func(name string) []string { return []string{"install", "--id", name, "--silent"} },
		remove:    func(name string) []string { return []string{"uninstall", "--id", name, "--silent"} },
		update: func(name string) []string {
			if name == "" {
				return []string{"upgrade", "--all", "--silent"}
			}
			return []string{"upgrade", "--id", name, "--silent"}
		},
		search: func(q string) []string { return []string{"search", q} },
		list:   []string{"list"},
		info:   func(name string) []string { return []string{"show", "--id", name} },
		namesFromOutput: func(stdout string) []string {
			var out []string
			lines := strings.Split(stdout, "\n")
			for i, line := range lines {
				if i < 2 || line == "" {
					continue // header + separator rows
				}
				fields := strings.Fields(line)
				if len(fields) > 0 {
					out = append(out, fields[0])
				}
			}
			return out
		},
	}, exec)
}
