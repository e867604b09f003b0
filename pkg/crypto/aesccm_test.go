package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"
)

// rfc3610TestVectors covers two parameter combinations from RFC 3610 Section
// 8 that Matter's own 13-byte-nonce/16-byte-tag vectors below don't exercise:
// an 8-byte tag and a 10-byte tag, both still with a 13-byte nonce.
var rfc3610TestVectors = []struct {
	name       string
	key        string
	nonce      string
	aad        string
	plaintext  string
	ciphertext string
	tag        string
	nonceSize  int
	tagSize    int
}{
	// Packet Vector #1 (M=8, L=2)
	{
		name:       "RFC3610_Vector1",
		key:        "c0c1c2c3c4c5c6c7c8c9cacbcccdcecf",
		nonce:      "00000003020100a0a1a2a3a4a5",
		aad:        "0001020304050607",
		plaintext:  "08090a0b0c0d0e0f101112131415161718191a1b1c1d1e",
		ciphertext: "588c979a61c663d2f066d0c2c0f989806d5f6b61dac384",
		tag:        "17e8d12cfdf926e0",
		nonceSize:  13,
		tagSize:    8,
	},
	// Packet Vector #7 (M=10, L=2)
	{
		name:       "RFC3610_Vector7",
		key:        "c0c1c2c3c4c5c6c7c8c9cacbcccdcecf",
		nonce:      "00000009080706a0a1a2a3a4a5",
		aad:        "0001020304050607",
		plaintext:  "08090a0b0c0d0e0f101112131415161718191a1b1c1d1e",
		ciphertext: "0135d1b2c95f41d5d1d4fec185d166b8094e999dfed96c",
		tag:        "048c56602c97acbb7490",
		nonceSize:  13,
		tagSize:    10,
	},
}

// matterSDKTestVectors covers the package's own 13-byte-nonce/16-byte-tag
// parameters, pulled from connectedhomeip/src/crypto/tests/AES_CCM_128_test_vectors.h.
var matterSDKTestVectors = []struct {
	name       string
	key        string
	nonce      string
	aad        string
	plaintext  string
	ciphertext string
	tag        string
}{
	// tcId=38: empty plaintext
	{
		name:       "SDK_empty_plaintext",
		key:        "404142434445464748494a4b4c4d4e4f",
		nonce:      "101112131415161718191a1b1c",
		aad:        "",
		plaintext:  "",
		ciphertext: "",
		tag:        "32d6f8243a26d0bd98d01b0f448e7773",
	},
	// aesccm128_matter_91c8d337cf46_test_vector_1: 9-byte plaintext
	{
		name:       "SDK_matter_91c8d337cf46",
		key:        "0953fa93e7caac9638f58820220a398e",
		nonce:      "00800148202345000012345678",
		aad:        "",
		plaintext:  "120104320308ba072f",
		ciphertext: "79d7dbc0c9b4d43eeb",
		tag:        "281508e50d58dbbd27c39597800f4733",
	},
}

func TestAESCCMConstants(t *testing.T) {
	if AESCCMKeySize != 16 {
		t.Errorf("AESCCMKeySize = %d, want 16", AESCCMKeySize)
	}
	if AESCCMTagSize != 16 {
		t.Errorf("AESCCMTagSize = %d, want 16", AESCCMTagSize)
	}
	if AESCCMNonceSize != 13 {
		t.Errorf("AESCCMNonceSize = %d, want 13", AESCCMNonceSize)
	}
}

func TestNewAESCCM(t *testing.T) {
	key := make([]byte, AESCCMKeySize)
	if _, err := NewAESCCM(key); err != nil {
		t.Errorf("NewAESCCM with valid key failed: %v", err)
	}

	for _, size := range []int{0, 8, 15, 17, 24, 32} {
		key := make([]byte, size)
		if _, err := NewAESCCM(key); err != ErrAESCCMInvalidKeySize {
			t.Errorf("NewAESCCM with %d-byte key: got error %v, want ErrAESCCMInvalidKeySize", size, err)
		}
	}
}

func TestAESCCMRoundtrip(t *testing.T) {
	key := []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
		0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f}
	nonce := []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
		0x08, 0x09, 0x0a, 0x0b, 0x0c}
	plaintext := []byte("Hello, Matter Protocol!")
	aad := []byte("additional authenticated data")

	ccm, err := NewAESCCM(key)
	if err != nil {
		t.Fatalf("NewAESCCM failed: %v", err)
	}

	ciphertext, err := ccm.Seal(nonce, plaintext, aad)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	expectedLen := len(plaintext) + AESCCMTagSize
	if len(ciphertext) != expectedLen {
		t.Errorf("ciphertext length = %d, want %d", len(ciphertext), expectedLen)
	}

	decrypted, err := ccm.Open(nonce, ciphertext, aad)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !bytes.Equal(plaintext, decrypted) {
		t.Errorf("decrypted text mismatch\ngot:  %x\nwant: %x", decrypted, plaintext)
	}
}

func TestAESCCMRoundtripEmptyPlaintext(t *testing.T) {
	key := make([]byte, AESCCMKeySize)
	nonce := make([]byte, AESCCMNonceSize)
	aad := []byte("some aad")

	ccm, err := NewAESCCM(key)
	if err != nil {
		t.Fatalf("NewAESCCM failed: %v", err)
	}

	ciphertext, err := ccm.Seal(nonce, nil, aad)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if len(ciphertext) != AESCCMTagSize {
		t.Errorf("ciphertext length = %d, want %d", len(ciphertext), AESCCMTagSize)
	}

	decrypted, err := ccm.Open(nonce, ciphertext, aad)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if len(decrypted) != 0 {
		t.Errorf("decrypted length = %d, want 0", len(decrypted))
	}
}

func TestAESCCMRoundtripNoAAD(t *testing.T) {
	key := make([]byte, AESCCMKeySize)
	nonce := make([]byte, AESCCMNonceSize)
	plaintext := []byte("test message without aad")

	ccm, err := NewAESCCM(key)
	if err != nil {
		t.Fatalf("NewAESCCM failed: %v", err)
	}

	ciphertext, err := ccm.Seal(nonce, plaintext, nil)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	decrypted, err := ccm.Open(nonce, ciphertext, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !bytes.Equal(plaintext, decrypted) {
		t.Errorf("decrypted text mismatch")
	}
}

func TestAESCCMAuthenticationFailure(t *testing.T) {
	key := make([]byte, AESCCMKeySize)
	nonce := make([]byte, AESCCMNonceSize)
	plaintext := []byte("test message")
	aad := []byte("aad")

	ccm, err := NewAESCCM(key)
	if err != nil {
		t.Fatalf("NewAESCCM failed: %v", err)
	}

	ciphertext, err := ccm.Seal(nonce, plaintext, aad)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	tamperedCiphertext := append([]byte(nil), ciphertext...)
	tamperedCiphertext[0] ^= 0x01
	if _, err = ccm.Open(nonce, tamperedCiphertext, aad); err != ErrAESCCMAuthFailed {
		t.Errorf("Open with tampered ciphertext: got error %v, want ErrAESCCMAuthFailed", err)
	}

	tamperedTag := append([]byte(nil), ciphertext...)
	tamperedTag[len(tamperedTag)-1] ^= 0x01
	if _, err = ccm.Open(nonce, tamperedTag, aad); err != ErrAESCCMAuthFailed {
		t.Errorf("Open with tampered tag: got error %v, want ErrAESCCMAuthFailed", err)
	}

	if _, err = ccm.Open(nonce, ciphertext, []byte("wrong aad")); err != ErrAESCCMAuthFailed {
		t.Errorf("Open with wrong AAD: got error %v, want ErrAESCCMAuthFailed", err)
	}
}

func TestAESCCMInvalidNonce(t *testing.T) {
	key := make([]byte, AESCCMKeySize)
	ccm, err := NewAESCCM(key)
	if err != nil {
		t.Fatalf("NewAESCCM failed: %v", err)
	}

	for _, size := range []int{0, 7, 12, 14, 16} {
		nonce := make([]byte, size)
		if _, err := ccm.Seal(nonce, []byte("test"), nil); err != ErrAESCCMInvalidNonceSize {
			t.Errorf("Seal with %d-byte nonce: got error %v, want ErrAESCCMInvalidNonceSize", size, err)
		}
		if _, err := ccm.Open(nonce, make([]byte, AESCCMTagSize), nil); err != ErrAESCCMInvalidNonceSize {
			t.Errorf("Open with %d-byte nonce: got error %v, want ErrAESCCMInvalidNonceSize", size, err)
		}
	}
}

func TestAESCCMCiphertextTooShort(t *testing.T) {
	key := make([]byte, AESCCMKeySize)
	nonce := make([]byte, AESCCMNonceSize)

	ccm, err := NewAESCCM(key)
	if err != nil {
		t.Fatalf("NewAESCCM failed: %v", err)
	}

	shortCiphertext := make([]byte, AESCCMTagSize-1)
	if _, err = ccm.Open(nonce, shortCiphertext, nil); err != ErrAESCCMCiphertextTooShort {
		t.Errorf("Open with short ciphertext: got error %v, want ErrAESCCMCiphertextTooShort", err)
	}
}

func TestAESCCMConvenienceFunctions(t *testing.T) {
	key := make([]byte, AESCCMKeySize)
	nonce := make([]byte, AESCCMNonceSize)
	plaintext := []byte("test convenience functions")
	aad := []byte("aad")

	ciphertext, err := AESCCM128Encrypt(key, nonce, plaintext, aad)
	if err != nil {
		t.Fatalf("AESCCM128Encrypt failed: %v", err)
	}

	decrypted, err := AESCCM128Decrypt(key, nonce, ciphertext, aad)
	if err != nil {
		t.Fatalf("AESCCM128Decrypt failed: %v", err)
	}
	if !bytes.Equal(plaintext, decrypted) {
		t.Errorf("decrypted text mismatch")
	}
}

// TestAESCCMSDKVectors checks encrypt and decrypt against known-good vectors
// for the parameters this package actually uses (13-byte nonce, 16-byte tag).
func TestAESCCMSDKVectors(t *testing.T) {
	for _, tc := range matterSDKTestVectors {
		t.Run(tc.name, func(t *testing.T) {
			key, err := hex.DecodeString(tc.key)
			if err != nil {
				t.Fatalf("decode key: %v", err)
			}
			nonce, err := hex.DecodeString(tc.nonce)
			if err != nil {
				t.Fatalf("decode nonce: %v", err)
			}
			var aad []byte
			if tc.aad != "" {
				aad, err = hex.DecodeString(tc.aad)
				if err != nil {
					t.Fatalf("decode aad: %v", err)
				}
			}
			plaintext, err := hex.DecodeString(tc.plaintext)
			if err != nil {
				t.Fatalf("decode plaintext: %v", err)
			}
			expectedCiphertext, err := hex.DecodeString(tc.ciphertext)
			if err != nil {
				t.Fatalf("decode expected ciphertext: %v", err)
			}
			expectedTag, err := hex.DecodeString(tc.tag)
			if err != nil {
				t.Fatalf("decode expected tag: %v", err)
			}

			result, err := AESCCM128Encrypt(key, nonce, plaintext, aad)
			if err != nil {
				t.Fatalf("AESCCM128Encrypt failed: %v", err)
			}

			gotCiphertext := result[:len(result)-AESCCMTagSize]
			gotTag := result[len(result)-AESCCMTagSize:]
			if !bytes.Equal(gotCiphertext, expectedCiphertext) {
				t.Errorf("ciphertext mismatch\ngot:  %x\nwant: %x", gotCiphertext, expectedCiphertext)
			}
			if !bytes.Equal(gotTag, expectedTag) {
				t.Errorf("tag mismatch\ngot:  %x\nwant: %x", gotTag, expectedTag)
			}

			decrypted, err := AESCCM128Decrypt(key, nonce, result, aad)
			if err != nil {
				t.Fatalf("AESCCM128Decrypt failed: %v", err)
			}
			if !bytes.Equal(decrypted, plaintext) {
				t.Errorf("decrypted text mismatch\ngot:  %x\nwant: %x", decrypted, plaintext)
			}
		})
	}
}

// TestAESCCMRFC3610Vectors checks the tag-size/nonce-size variants this
// package supports via NewAESCCMWithParams but never uses itself, against
// authoritative RFC 3610 vectors.
func TestAESCCMRFC3610Vectors(t *testing.T) {
	for _, tc := range rfc3610TestVectors {
		t.Run(tc.name, func(t *testing.T) {
			key, err := hex.DecodeString(tc.key)
			if err != nil {
				t.Fatalf("decode key: %v", err)
			}
			nonce, err := hex.DecodeString(tc.nonce)
			if err != nil {
				t.Fatalf("decode nonce: %v", err)
			}
			aad, err := hex.DecodeString(tc.aad)
			if err != nil {
				t.Fatalf("decode aad: %v", err)
			}
			plaintext, err := hex.DecodeString(tc.plaintext)
			if err != nil {
				t.Fatalf("decode plaintext: %v", err)
			}
			expectedCiphertext, err := hex.DecodeString(tc.ciphertext)
			if err != nil {
				t.Fatalf("decode expected ciphertext: %v", err)
			}
			expectedTag, err := hex.DecodeString(tc.tag)
			if err != nil {
				t.Fatalf("decode expected tag: %v", err)
			}

			ccm, err := NewAESCCMWithParams(key, tc.nonceSize, tc.tagSize)
			if err != nil {
				t.Fatalf("NewAESCCMWithParams failed: %v", err)
			}

			result, err := ccm.Seal(nonce, plaintext, aad)
			if err != nil {
				t.Fatalf("Seal failed: %v", err)
			}

			gotCiphertext := result[:len(result)-tc.tagSize]
			gotTag := result[len(result)-tc.tagSize:]
			if !bytes.Equal(gotCiphertext, expectedCiphertext) {
				t.Errorf("ciphertext mismatch\ngot:  %x\nwant: %x", gotCiphertext, expectedCiphertext)
			}
			if !bytes.Equal(gotTag, expectedTag) {
				t.Errorf("tag mismatch\ngot:  %x\nwant: %x", gotTag, expectedTag)
			}

			decrypted, err := ccm.Open(nonce, result, aad)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			if !bytes.Equal(decrypted, plaintext) {
				t.Errorf("decrypted text mismatch\ngot:  %x\nwant: %x", decrypted, plaintext)
			}
		})
	}
}

func BenchmarkAESCCMSeal(b *testing.B) {
	key := make([]byte, AESCCMKeySize)
	nonce := make([]byte, AESCCMNonceSize)
	plaintext := make([]byte, 256)
	aad := make([]byte, 32)

	ccm, _ := NewAESCCM(key)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ccm.Seal(nonce, plaintext, aad)
	}
}

func BenchmarkAESCCMOpen(b *testing.B) {
	key := make([]byte, AESCCMKeySize)
	nonce := make([]byte, AESCCMNonceSize)
	plaintext := make([]byte, 256)
	aad := make([]byte, 32)

	ccm, _ := NewAESCCM(key)
	ciphertext, _ := ccm.Seal(nonce, plaintext, aad)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ccm.Open(nonce, ciphertext, aad)
	}
}
