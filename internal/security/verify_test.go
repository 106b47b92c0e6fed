package security_test

import (
	"context"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omnipkg/omni/internal/errs"
	"github.com/omnipkg/omni/internal/security"
)

// explodingFetcher fails the test if Do is ever called, so
// TestVerifyArtifactBlocksSSRFBeforeFetch can assert "no HTTP request is
// issued" the way Scenario S6 requires.
type explodingFetcher struct{ t *testing.T }

func (f *explodingFetcher) Do(*http.Request) (*http.Response, error) {
	f.t.Fatal("signature fetch must not run once URL validation has rejected the target")
	return nil, nil
}

// TestVerifyArtifactBlocksSSRFBeforeFetch covers Scenario S6:
// verify(file, signature="https://127.0.0.1/sig") fails URL validation
// with a private-network-block error, and no HTTP request is issued.
func TestVerifyArtifactBlocksSSRFBeforeFetch(t *testing.T) {
	tmp := t.TempDir()
	path := tmp + "/artifact.bin"
	require.NoError(t, os.WriteFile(path, []byte("contents"), 0o600))

	_, err := security.VerifyArtifact(context.Background(), nil, &explodingFetcher{t}, path, "", "https://127.0.0.1/sig")
	require.Error(t, err)
	_, ok := errs.As(err, errs.Security)
	require.True(t, ok, "expected a Security-kind error citing the SSRF guard, got %v", err)
}
