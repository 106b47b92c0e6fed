package store

import (
	"os"

	"github.com/termie/go-shutil"

	"github.com/omnipkg/omni/internal/errs"
)

// SnapshotConfigFile copies the config file at path into a per-operation
// snapshot directory (spec.md §4.5's add_operation "relevant config-file
// contents") and returns the copy's path, to be stored as
// types.Operation.ConfigSnapshot. Grounded on the teacher's
// project_manager.go use of shutil.CopyTree for checkout snapshots;
// config files here are single files, so shutil.Copy (the same function
// CopyTree uses per-entry) is used directly rather than the tree walker.
func SnapshotConfigFile(snapshotDir, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errs.Wrap(errs.Database, err, "failed to stat config file for snapshot")
	}

	if err := os.MkdirAll(snapshotDir, 0o700); err != nil {
		return "", errs.Wrap(errs.Database, err, "failed to create config snapshot directory")
	}

	dest := snapshotDir + "/" + filenameOf(path)
	if err := shutil.Copy(path, dest); err != nil {
		return "", errs.Wrap(errs.Database, err, "failed to snapshot config file")
	}
	return dest, nil
}

func filenameOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
