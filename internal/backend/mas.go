package backend

import (
	"strings"

	"github.com/omnipkg/omni/internal/executor"
	"github.com/omnipkg/omni/internal/types"
)

// NewMAS builds the Mac App Store CLI (`mas`) adapter.
func NewMAS(exec *executor.Executor) Adapter {
	return newCLIBackend(cliSpec{
		backend:   types.MAS,
		binary:    "mas",
		priority:  30,
		needsSudo: false,
		probeArgs: []string{"version"},
		install:   func(name string) []string { return []string{"install", name} },
		remove:    nil, // mas has no uninstall subcommand
		update: func(name string) []string {
			if name == "" {
				return []string{"upgrade"}
			}
			return []string{"upgrade", name}
		},
		search: func(q string) []string { return []string{"search", q} },
		list:   []string{"list"},
		info:   func(name string) []string { return []string{"info", name} },
		namesFromOutput: func(stdout string) []string {
			var out []string
			for _, line := range strings.Split(stdout, "\n") {
				fields := strings.Fields(line)
				if len(fields) >= 2 {
					out = append(out, strings.Join(fields[1:len(fields)-1], " "))
				}
			}
			return out
		},
	}, exec)
}
