// Package security implements spec.md §9's signature/checksum
// verification and the trust-level derivation named in the Glossary:
// checksum comparison (with MD5 deliberately rejected, never silently
// mismatched), GPG detached-signature verification, and the
// Trusted/Valid/Unsigned/Untrusted classification that feeds `verify`.
package security

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"io"

	"github.com/omnipkg/omni/internal/errs"
	"github.com/omnipkg/omni/internal/validate"
)

// digestLen maps a checksum string's hex length to the hash.Hash
// constructor spec.md §4.1's table implies for that length. Length 32 is
// reserved for the MD5 rejection path and never reaches this map.
var digestLen = map[int]func() hash.Hash{
	40:  sha1.New,
	64:  sha256.New,
	128: sha512.New,
}

// VerifyChecksum compares the hex digest of r's contents against want.
// MD5-shaped checksums (length 32) are a distinct, non-retryable
// Validation failure rather than a generic mismatch — spec.md §3/§9
// states MD5 "is accepted but fails verification," and an implementer
// must decide whether that's a silent false or an explicit rejection;
// this implementation makes it explicit so callers can tell "wrong
// file" apart from "unacceptable digest algorithm."
func VerifyChecksum(r io.Reader, want string) error {
	if err := validate.Checksum(want); err != nil {
		return err
	}
	if len(want) == 32 {
		return errs.New(errs.Validation, "md5 is not an accepted checksum algorithm").WithContext("checksum", want)
	}

	newHash, ok := digestLen[len(want)]
	if !ok {
		return errs.New(errs.Validation, "checksum has an unsupported length").WithContext("checksum", want)
	}

	h := newHash()
	if _, err := io.Copy(h, r); err != nil {
		return errs.Wrap(errs.Security, err, "failed to read content for checksum verification")
	}

	got := hex.EncodeToString(h.Sum(nil))
	if got != want {
		return errs.New(errs.Security, "checksum mismatch").WithContext("expected", want).WithContext("actual", got)
	}
	return nil
}
