package backend

import (
	"time"

	"github.com/omnipkg/omni/internal/executor"
	"github.com/omnipkg/omni/internal/types"
)

// EmergeInstallTimeout is much longer than binary-backend defaults, since
// emerge builds from source (spec.md §4.2: "longer for source-based systems
// such as emerge").
const EmergeInstallTimeout = 2 * time.Hour

// NewEmerge builds the Gentoo emerge adapter.
func NewEmerge(exec *executor.Executor) Adapter {
	return newCLIBackend(cliSpec{
		backend:   types.Emerge,
		binary:    "emerge",
		priority:  60,
		needsSudo: true,
		probeArgs: []string{"--version"},
		install:   func(name string) []string { return []string{"--ask=n", name} },
		remove:    func(name string) []string { return []string{"--ask=n", "--unmerge", name} },
		update: func(name string) []string {
			if name == "" {
				return []string{"--ask=n", "--update", "--deep", "@world"}
			}
			return []string{"--ask=n", "--update", name}
		},
		search: func(q string) []string { return []string{"--search", q} },
		list:   []string{"--pretend", "--emptytree", "@world"},
		info:   func(name string) []string { return []string{"--info", name} },
	}, exec)
}
