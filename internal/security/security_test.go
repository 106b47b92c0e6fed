package security_test

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omnipkg/omni/internal/security"
)

func TestVerifyChecksumSHA256Matches(t *testing.T) {
	content := []byte("omni package contents")
	sum := sha256.Sum256(content)
	want := hex.EncodeToString(sum[:])

	require.NoError(t, security.VerifyChecksum(bytes.NewReader(content), want))
}

func TestVerifyChecksumMismatch(t *testing.T) {
	content := []byte("omni package contents")
	sum := sha256.Sum256([]byte("different contents"))
	want := hex.EncodeToString(sum[:])

	err := security.VerifyChecksum(bytes.NewReader(content), want)
	require.Error(t, err)
}

// TestVerifyChecksumRejectsMD5 covers the Open Question decision: an
// MD5-shaped digest is a distinct failure, not a silent pass or a generic
// mismatch.
func TestVerifyChecksumRejectsMD5(t *testing.T) {
	md5Shaped := "d41d8cd98f00b204e9800998ecf8427e" // 32 hex chars
	err := security.VerifyChecksum(bytes.NewReader([]byte("anything")), md5Shaped)
	require.Error(t, err)
	require.Contains(t, err.Error(), "md5")
}

func TestClassifyTrustLevels(t *testing.T) {
	require.Equal(t, security.Trusted, security.Classify(security.Outcome{SignatureProvided: true, SignatureOK: true}))
	require.Equal(t, security.Valid, security.Classify(security.Outcome{ChecksumProvided: true, ChecksumOK: true}))
	require.Equal(t, security.Unsigned, security.Classify(security.Outcome{}))
	require.Equal(t, security.Untrusted, security.Classify(security.Outcome{ChecksumProvided: true, ChecksumOK: false}))
	require.Equal(t, security.Untrusted, security.Classify(security.Outcome{SignatureProvided: true, SignatureOK: false}))
}
