package manifest_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omnipkg/omni/internal/manifest"
)

const legacyLock = `
memo = "a1b2c3"

[[packages]]
name = "vim"
backend = "apt"
version = "9.0.1"
timestamp = "2024-01-01T00:00:00Z"

[[packages]]
name = "ripgrep"
backend = "apt"

[meta]
created_by = "legacy-installer"
`

func TestReadLockParsesLegacyFormat(t *testing.T) {
	l, err := manifest.ReadLock(strings.NewReader(legacyLock))
	require.NoError(t, err)
	require.Equal(t, "a1b2c3", l.Memo)
	require.Len(t, l.Packages, 2)
	require.Equal(t, "vim", l.Packages[0].Name)
	require.Equal(t, "9.0.1", l.Packages[0].Version)
	require.Equal(t, "legacy-installer", l.Meta.CreatedBy)
}

func TestReadLockRejectsGarbage(t *testing.T) {
	_, err := manifest.ReadLock(strings.NewReader("not valid toml {{{"))
	require.Error(t, err)
}
