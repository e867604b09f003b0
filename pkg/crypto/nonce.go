// Nonce construction and privacy-key derivation for secure-session message
// framing: the two pieces of key material the codec's encrypt/decrypt path
// builds fresh per datagram rather than caching.

package crypto

import (
	"encoding/binary"
	"errors"
)

const (
	// NonceSize is the AEAD/privacy nonce length shared by AES-CCM and
	// AES-CTR in this package.
	NonceSize = 13

	// SymmetricKeySize is the session encryption/privacy key length.
	SymmetricKeySize = 16

	// MICSize is the AEAD tag length.
	MICSize = 16

	// PrivacyNonceMICOffset is the starting byte of the MIC fragment folded
	// into the privacy nonce.
	PrivacyNonceMICOffset = 5

	// PrivacyNonceMICLength is the length of that MIC fragment.
	PrivacyNonceMICLength = 11
)

var privacyKeyInfo = []byte("PrivacyKey")

var (
	ErrInvalidKeySize = errors.New("nonce: invalid key size, must be 16 bytes")
	ErrInvalidMICSize = errors.New("nonce: invalid MIC size, must be 16 bytes")
)

// BuildAEADNonce lays out securityFlags || messageCounter (LE) ||
// sourceNodeID (LE) into a 13-byte AES-CCM nonce. sourceNodeID is whoever
// encrypted the datagram: the local node on Encode, the peer (as tracked by
// the session table) on Decode.
func BuildAEADNonce(securityFlags uint8, messageCounter uint32, sourceNodeID uint64) []byte {
	nonce := make([]byte, NonceSize)
	nonce[0] = securityFlags
	binary.LittleEndian.PutUint32(nonce[1:5], messageCounter)
	binary.LittleEndian.PutUint64(nonce[5:13], sourceNodeID)
	return nonce
}

// DerivePrivacyKey turns a 16-byte session encryption key into its privacy
// key via HKDF-SHA256 with an empty salt and the fixed info string
// "PrivacyKey". Called once per Codec at construction; the result is cached
// for every subsequent header obfuscation on that session.
func DerivePrivacyKey(encryptionKey []byte) ([]byte, error) {
	if len(encryptionKey) != SymmetricKeySize {
		return nil, ErrInvalidKeySize
	}
	return HKDFSHA256(encryptionKey, nil, privacyKeyInfo, SymmetricKeySize)
}

// BuildPrivacyNonce lays out sessionID (BE) || mic[5:16] into a 13-byte
// AES-CTR nonce. Folding a slice of the already-computed MIC into the nonce
// ties header obfuscation to that specific datagram's authentication tag
// without needing a separate counter for it.
func BuildPrivacyNonce(sessionID uint16, mic []byte) ([]byte, error) {
	if len(mic) != MICSize {
		return nil, ErrInvalidMICSize
	}

	nonce := make([]byte, NonceSize)
	binary.BigEndian.PutUint16(nonce[0:2], sessionID)
	copy(nonce[2:13], mic[PrivacyNonceMICOffset:PrivacyNonceMICOffset+PrivacyNonceMICLength])
	return nonce, nil
}
