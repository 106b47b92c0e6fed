package backend

import (
	"context"
	"os"
	"path/filepath"

	"github.com/omnipkg/omni/internal/errs"
	"github.com/omnipkg/omni/internal/executor"
	"github.com/omnipkg/omni/internal/types"
	"github.com/omnipkg/omni/internal/validate"
)

// appimageBackend is the one adapter that is not a thin wrapper over a
// native CLI: AppImage has no central package manager, so omni manages the
// files itself under a per-user AppImage directory, using optional
// AppImageUpdate for refresh when it is on PATH.
type appimageBackend struct {
	exec *executor.Executor
	dir  string // e.g. ~/.local/share/omni/appimages
}

// NewAppImage builds the AppImage adapter, storing files under dir.
func NewAppImage(exec *executor.Executor, dir string) Adapter {
	return &appimageBackend{exec: exec, dir: dir}
}

func (a *appimageBackend) Name() types.Backend  { return types.AppImage }
func (a *appimageBackend) Priority() int        { return 20 }
func (a *appimageBackend) NeedsPrivilege() bool { return false }

func (a *appimageBackend) IsAvailable(ctx context.Context) bool {
	_, err := validate.Path(a.dir)
	return err == nil
}

func (a *appimageBackend) targetPath(name string) (string, error) {
	if err := validate.PackageName(name); err != nil {
		return "", err
	}
	return validate.Path(filepath.Join(a.dir, name+".AppImage"))
}

// Install marks name executable in place; the actual download is performed
// upstream (URL validation happens in internal/validate before this is
// called — AppImage names reaching here are already local file names under
// the managed directory).
func (a *appimageBackend) Install(ctx context.Context, name string) error {
	path, err := a.targetPath(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return errs.Wrap(errs.PackageNotFound, err, "AppImage file not found").WithContext("path", path)
	}
	return os.Chmod(path, 0o755)
}

func (a *appimageBackend) Remove(ctx context.Context, name string) error {
	path, err := a.targetPath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.InstallationFailed, err, "failed to remove AppImage")
	}
	return nil
}

// Update re-invokes AppImageUpdate if it is present, per tool convention;
// otherwise it is a no-op (spec.md §4.2 describes update as backend-typed,
// not universally supported).
func (a *appimageBackend) Update(ctx context.Context, name string) error {
	path, err := a.targetPath(name)
	if err != nil {
		return err
	}
	cfg := executor.DefaultConfig()
	cfg.Sandbox = false
	_, err = a.exec.Run(ctx, "AppImageUpdate", []string{path}, cfg)
	return err
}

func (a *appimageBackend) Search(ctx context.Context, query string) ([]string, error) {
	return nil, errs.New(errs.UnsupportedBackend, "AppImage has no central repository to search")
}

func (a *appimageBackend) ListInstalled(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.Wrap(errs.Database, err, "failed to list AppImage directory")
	}
	var out []string
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".AppImage" {
			out = append(out, e.Name()[:len(e.Name())-len(".AppImage")])
		}
	}
	return out, nil
}

func (a *appimageBackend) GetInfo(ctx context.Context, name string) (string, error) {
	path, err := a.targetPath(name)
	if err != nil {
		return "", err
	}
	cfg := executor.DefaultConfig()
	cfg.Sandbox = false
	res, err := a.exec.Run(ctx, "file", []string{path}, cfg)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

func (a *appimageBackend) GetInstalledVersion(ctx context.Context, name string) (string, bool, error) {
	path, err := a.targetPath(name)
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(path); err != nil {
		return "", false, nil
	}
	return "installed", true, nil
}
