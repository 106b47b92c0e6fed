package manifest_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omnipkg/omni/internal/manifest"
)

const validManifest = `
project: dev-box
description: editors and tools
apps:
  - name: vim
    box: apt
  - name: ripgrep
    box: apt
    version: ">=13.0.0"
meta:
  created_by: ci
`

func TestParseValidManifest(t *testing.T) {
	m, err := manifest.Parse(strings.NewReader(validManifest))
	require.NoError(t, err)
	require.Equal(t, "dev-box", m.Project)
	require.Len(t, m.Apps, 2)
	require.Equal(t, "ci", m.Meta.CreatedBy)
}

func TestParseRejectsMissingProject(t *testing.T) {
	_, err := manifest.Parse(strings.NewReader("apps:\n  - name: vim\n    box: apt\n"))
	require.Error(t, err)
}

func TestParseRejectsUnknownBackend(t *testing.T) {
	bad := "project: x\napps:\n  - name: vim\n    box: not-a-backend\n"
	_, err := manifest.Parse(strings.NewReader(bad))
	require.Error(t, err)
}

func TestParseRejectsMaliciousPackageName(t *testing.T) {
	bad := "project: x\napps:\n  - name: ../../etc/passwd\n    box: apt\n"
	_, err := manifest.Parse(strings.NewReader(bad))
	require.Error(t, err)
}

func TestRequestsConvertsApps(t *testing.T) {
	m, err := manifest.Parse(strings.NewReader(validManifest))
	require.NoError(t, err)

	deps, err := m.Requests()
	require.NoError(t, err)
	require.Len(t, deps, 2)
	require.Equal(t, "vim", deps[0].Name)
	require.Equal(t, "ripgrep", deps[1].Name)
}
