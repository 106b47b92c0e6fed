package manifest

import (
	"io"

	"github.com/pelletier/go-toml/v2"

	"github.com/omnipkg/omni/internal/errs"
)

// Lock is the legacy TOML lock snapshot format, decoded by ReadLock. No
// CLI command reads lock files; `history show` is served from the state
// store's install records.
type Lock struct {
	Memo     string          `toml:"memo"`
	Packages []LockedPkg     `toml:"packages"`
	Meta     *LockedLockMeta `toml:"meta,omitempty"`
}

// LockedPkg is one `[[packages]]` entry in a legacy lock file.
type LockedPkg struct {
	Name      string `toml:"name"`
	Backend   string `toml:"backend"`
	Version   string `toml:"version,omitempty"`
	Source    string `toml:"source,omitempty"`
	Timestamp string `toml:"timestamp,omitempty"`
}

// LockedLockMeta carries the same provenance fields as Meta, for locks
// written without a matching YAML manifest alongside them.
type LockedLockMeta struct {
	CreatedBy string `toml:"created_by,omitempty"`
	CreatedOn string `toml:"created_on,omitempty"`
}

// ReadLock parses a legacy TOML lock file.
func ReadLock(r io.Reader) (*Lock, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.Wrap(errs.Validation, err, "failed to read legacy lock file")
	}
	var l Lock
	if err := toml.Unmarshal(b, &l); err != nil {
		return nil, errs.Wrap(errs.Validation, err, "failed to parse legacy TOML lock")
	}
	return &l, nil
}
