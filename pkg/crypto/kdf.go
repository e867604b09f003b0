package crypto

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// HKDFSHA256 derives length bytes of key material from inputKey using
// HKDF-SHA256 (RFC 5869): Extract with salt, then Expand with info. This
// is the only key-derivation primitive the session manager's encrypt path
// needs — DerivePrivacyKey calls it to turn a session's encryption key
// into its privacy key.
func HKDFSHA256(inputKey, salt, info []byte, length int) ([]byte, error) {
	reader := hkdf.New(sha256.New, inputKey, salt, info)
	result := make([]byte, length)
	if _, err := io.ReadFull(reader, result); err != nil {
		return nil, err
	}
	return result, nil
}
