// AES-128-CTR (NIST 800-38A §6.5), parameterized the way Matter's privacy
// obfuscation uses it: a 16-byte key and 13-byte nonce, counter blocks built
// per NIST 800-38C Appendix A.3 with L=2. This is not a general-purpose CTR
// wrapper — it exists only to obfuscate a header's counter/source/
// destination fields, which pkg/message.Codec does on both encode and
// decode.

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
)

const (
	// AESCTRKeySize is the AES-128 key size in bytes.
	AESCTRKeySize = 16

	// AESCTRNonceSize is the privacy nonce size in bytes.
	AESCTRNonceSize = 13

	// aesCTRBlockSize is the AES block size (always 16 bytes).
	aesCTRBlockSize = 16

	// aesCTRLenSize is the length field size (L = 15 - nonceSize = 2).
	aesCTRLenSize = 2
)

var (
	ErrAESCTRInvalidKeySize   = errors.New("aesctr: invalid key size, must be 16 bytes")
	ErrAESCTRInvalidNonceSize = errors.New("aesctr: invalid nonce size, must be 13 bytes")
)

// AESCTR is an AES-128-CTR cipher bound to one privacy key.
type AESCTR struct {
	block cipher.Block
}

// NewAESCTR builds an AESCTR around a 16-byte key.
func NewAESCTR(key []byte) (*AESCTR, error) {
	if len(key) != AESCTRKeySize {
		return nil, ErrAESCTRInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	return &AESCTR{block: block}, nil
}

// NonceSize returns the nonce size this cipher requires.
func (c *AESCTR) NonceSize() int {
	return AESCTRNonceSize
}

// Encrypt XORs plaintext with the keystream for nonce, returning ciphertext
// of the same length.
func (c *AESCTR) Encrypt(nonce, plaintext []byte) ([]byte, error) {
	if len(nonce) != AESCTRNonceSize {
		return nil, ErrAESCTRInvalidNonceSize
	}

	ciphertext := make([]byte, len(plaintext))
	c.ctrXOR(nonce, ciphertext, plaintext)
	return ciphertext, nil
}

// Decrypt reverses Encrypt; CTR mode makes this the identical XOR operation.
func (c *AESCTR) Decrypt(nonce, ciphertext []byte) ([]byte, error) {
	if len(nonce) != AESCTRNonceSize {
		return nil, ErrAESCTRInvalidNonceSize
	}

	plaintext := make([]byte, len(ciphertext))
	c.ctrXOR(nonce, plaintext, ciphertext)
	return plaintext, nil
}

// ctrXOR builds the initial counter block A_1 (flags || nonce || counter)
// and runs CTR mode over src into dst. The counter starts at 1, not 0,
// matching how AES-CCM reserves counter 0 for its S_0 tag block — privacy
// obfuscation and CCM's own CTR encryption share that convention so a single
// block cipher key schedule setup could in principle serve both.
func (c *AESCTR) ctrXOR(nonce []byte, dst, src []byte) {
	if len(src) == 0 {
		return
	}

	var ctr [aesCTRBlockSize]byte
	ctr[0] = aesCTRLenSize - 1 // L-1 = 1
	copy(ctr[1:1+AESCTRNonceSize], nonce)
	ctr[aesCTRBlockSize-1] = 1

	stream := cipher.NewCTR(c.block, ctr[:])
	stream.XORKeyStream(dst, src)
}

// AESCTREncrypt builds a one-shot AESCTR and encrypts plaintext under
// key/nonce. This is what pkg/message.Codec.applyPrivacy calls.
func AESCTREncrypt(key, nonce, plaintext []byte) ([]byte, error) {
	ctr, err := NewAESCTR(key)
	if err != nil {
		return nil, err
	}
	return ctr.Encrypt(nonce, plaintext)
}

// AESCTRDecrypt builds a one-shot AESCTR and decrypts ciphertext under
// key/nonce. This is what pkg/message.Codec.removePrivacy calls.
func AESCTRDecrypt(key, nonce, ciphertext []byte) ([]byte, error) {
	ctr, err := NewAESCTR(key)
	if err != nil {
		return nil, err
	}
	return ctr.Decrypt(nonce, ciphertext)
}
