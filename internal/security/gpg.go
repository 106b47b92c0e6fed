package security

import (
	"io"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"

	"github.com/omnipkg/omni/internal/errs"
)

// KeyRing wraps an openpgp.EntityList of trusted keys, loaded from
// config's `security.trusted_keys` (spec.md §6).
type KeyRing struct {
	entities openpgp.EntityList
}

// LoadKeyRing parses one or more ASCII-armored public keys.
func LoadKeyRing(armored ...string) (*KeyRing, error) {
	var all openpgp.EntityList
	for _, a := range armored {
		entities, err := openpgp.ReadArmoredKeyRing(strings.NewReader(a))
		if err != nil {
			return nil, errs.Wrap(errs.Security, err, "failed to parse GPG public key")
		}
		all = append(all, entities...)
	}
	return &KeyRing{entities: all}, nil
}

// VerifyDetachedSignature checks sig against content using any key in kr,
// returning the signing entity's primary key ID (KeyIdString) on success.
func (kr *KeyRing) VerifyDetachedSignature(content io.Reader, sig io.Reader) (string, error) {
	if kr == nil || len(kr.entities) == 0 {
		return "", errs.New(errs.Security, "no trusted keys configured")
	}
	signer, err := openpgp.CheckDetachedSignature(kr.entities, content, sig, nil)
	if err != nil {
		return "", errs.Wrap(errs.Security, err, "GPG signature verification failed")
	}
	if signer == nil || signer.PrimaryKey == nil {
		return "", errs.New(errs.Security, "GPG signature verified against no known key")
	}
	return signer.PrimaryKey.KeyIdString(), nil
}
