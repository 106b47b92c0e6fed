package backend

import (
	"context"
	"strings"

	"github.com/omnipkg/omni/internal/errs"
	"github.com/omnipkg/omni/internal/executor"
	"github.com/omnipkg/omni/internal/types"
)

// argvBuilder builds the argv for one contract operation. Each concrete
// backend supplies its own table of these, the way vcs_repo.go supplies one
// gitRepo/svnRepo/bzrRepo/hgRepo per VCS over a shared Get/Update/Ping
// shape.
type argvBuilder func(name string) []string

// cliSpec is the per-backend table driving cliBackend, analogous to the
// per-VCS command tables in vcs_repo.go.
type cliSpec struct {
	backend      types.Backend
	binary       string
	priority     int
	needsSudo    bool
	probeArgs    []string // e.g. []string{"--version"}
	install      argvBuilder
	remove       argvBuilder
	update       argvBuilder // name == "" means update everything
	search       argvBuilder
	list         []string
	info         argvBuilder
	installedVer argvBuilder
	// versionFromOutput extracts a version string from `info`'s stdout.
	versionFromOutput func(stdout string) (string, bool)
	// namesFromOutput extracts package names from `search`/`list` stdout.
	namesFromOutput func(stdout string) []string
}

// cliBackend is the shared Adapter implementation every concrete native
// tool wraps (spec.md §4.2's uniform contract, "implemented once per native
// tool").
type cliBackend struct {
	spec cliSpec
	exec *executor.Executor
}

func newCLIBackend(spec cliSpec, exec *executor.Executor) *cliBackend {
	return &cliBackend{spec: spec, exec: exec}
}

func (b *cliBackend) Name() types.Backend { return b.spec.backend }
func (b *cliBackend) Priority() int       { return b.spec.priority }
func (b *cliBackend) NeedsPrivilege() bool { return b.spec.needsSudo }

func (b *cliBackend) IsAvailable(ctx context.Context) bool {
	cfg := executor.DefaultConfig()
	cfg.Sandbox = false
	cfg.MaxRetries = 0
	_, err := b.exec.Run(ctx, b.spec.binary, b.spec.probeArgs, cfg)
	return err == nil
}

func (b *cliBackend) Install(ctx context.Context, name string) error {
	if b.spec.install == nil {
		return errs.New(errs.UnsupportedBackend, "install not supported by "+string(b.spec.backend))
	}
	return b.runMutating(ctx, b.spec.install(name))
}

func (b *cliBackend) Remove(ctx context.Context, name string) error {
	if b.spec.remove == nil {
		return errs.New(errs.UnsupportedBackend, "remove not supported by "+string(b.spec.backend))
	}
	return b.runMutating(ctx, b.spec.remove(name))
}

func (b *cliBackend) Update(ctx context.Context, name string) error {
	if b.spec.update == nil {
		return errs.New(errs.UnsupportedBackend, "update not supported by "+string(b.spec.backend))
	}
	return b.runMutating(ctx, b.spec.update(name))
}

func (b *cliBackend) runMutating(ctx context.Context, argv []string) error {
	cfg := executor.DefaultConfig()
	cfg.RequiresSudo = b.spec.needsSudo
	cfg.AllowNetwork = true // install/remove/update fetch from the backend's own repository
	_, err := b.exec.Run(ctx, b.spec.binary, argv, cfg)
	return err
}

func (b *cliBackend) Search(ctx context.Context, query string) ([]string, error) {
	if b.spec.search == nil {
		return nil, errs.New(errs.UnsupportedBackend, "search not supported by "+string(b.spec.backend))
	}
	cfg := executor.DefaultConfig()
	cfg.Sandbox = false
	res, err := b.exec.Run(ctx, b.spec.binary, b.spec.search(query), cfg)
	if err != nil {
		return nil, err
	}
	if b.spec.namesFromOutput != nil {
		return b.spec.namesFromOutput(res.Stdout), nil
	}
	return splitLines(res.Stdout), nil
}

func (b *cliBackend) ListInstalled(ctx context.Context) ([]string, error) {
	if b.spec.list == nil {
		return nil, errs.New(errs.UnsupportedBackend, "list not supported by "+string(b.spec.backend))
	}
	cfg := executor.DefaultConfig()
	cfg.Sandbox = false
	res, err := b.exec.Run(ctx, b.spec.binary, b.spec.list, cfg)
	if err != nil {
		return nil, err
	}
	if b.spec.namesFromOutput != nil {
		return b.spec.namesFromOutput(res.Stdout), nil
	}
	return splitLines(res.Stdout), nil
}

func (b *cliBackend) GetInfo(ctx context.Context, name string) (string, error) {
	if b.spec.info == nil {
		return "", errs.New(errs.UnsupportedBackend, "info not supported by "+string(b.spec.backend))
	}
	cfg := executor.DefaultConfig()
	cfg.Sandbox = false
	res, err := b.exec.Run(ctx, b.spec.binary, b.spec.info(name), cfg)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

func (b *cliBackend) GetInstalledVersion(ctx context.Context, name string) (string, bool, error) {
	if b.spec.installedVer == nil {
		return "", false, errs.New(errs.UnsupportedBackend, "version query not supported by "+string(b.spec.backend))
	}
	cfg := executor.DefaultConfig()
	cfg.Sandbox = false
	cfg.MaxRetries = 0
	res, err := b.exec.Run(ctx, b.spec.binary, b.spec.installedVer(name), cfg)
	if err != nil {
		if e, ok := errs.As(err, errs.InstallationFailed); ok && e != nil {
			return "", false, nil // not found is represented by a non-zero exit, not an error kind
		}
		return "", false, err
	}
	if b.spec.versionFromOutput != nil {
		v, ok := b.spec.versionFromOutput(res.Stdout)
		return v, ok, nil
	}
	line := strings.TrimSpace(res.Stdout)
	return line, line != "", nil
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
