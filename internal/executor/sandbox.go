package executor

import (
	"os"
	"path/filepath"
)

// newSandbox creates a fresh scratch directory (mode 0700) and a minimal
// environment for sandboxed sub-process execution, per spec.md §4.3
// precondition 4: PATH/HOME/TMPDIR replaced with minimal values,
// LD_PRELOAD/LD_LIBRARY_PATH stripped. The Linux unshare() hardening is
// applied by applyResourceLimits in resource_limits_linux.go where available.
func newSandbox(extra []string) (dir string, env []string, err error) {
	dir, err = os.MkdirTemp("", "omni-sandbox-*")
	if err != nil {
		return "", nil, err
	}
	if err := os.Chmod(dir, 0o700); err != nil {
		os.RemoveAll(dir)
		return "", nil, err
	}

	env = []string{
		"PATH=/usr/bin:/bin",
		"HOME=" + dir,
		"TMPDIR=" + filepath.Join(dir, "tmp"),
	}
	if err := os.MkdirAll(filepath.Join(dir, "tmp"), 0o700); err != nil {
		os.RemoveAll(dir)
		return "", nil, err
	}
	env = append(env, extra...)
	return dir, env, nil
}
