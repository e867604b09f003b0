package message

import (
	"github.com/backkem/securesession/pkg/crypto"
)

// Codec encrypts and decrypts datagrams for one authenticated session. It
// holds the session's AEAD key and a privacy key derived from it once at
// construction, plus the local node ID used for nonce construction on
// Encode (Decode takes the peer's node ID per call, since it varies by who
// sent the datagram).
type Codec struct {
	encryptionKey []byte
	privacyKey    []byte
	sourceNodeID  uint64
}

// NewCodec builds a Codec around a 16-byte AES-128 session key, deriving
// and caching its privacy key up front. sourceNodeID is fed into the AEAD
// nonce on Encode; it is not written into the outgoing header.
func NewCodec(encryptionKey []byte, sourceNodeID uint64) (*Codec, error) {
	if len(encryptionKey) != crypto.SymmetricKeySize {
		return nil, ErrInvalidKey
	}

	privacyKey, err := crypto.DerivePrivacyKey(encryptionKey)
	if err != nil {
		return nil, err
	}

	return &Codec{
		encryptionKey: encryptionKey,
		privacyKey:    privacyKey,
		sourceNodeID:  sourceNodeID,
	}, nil
}

// Encode authenticates and encrypts protocol+payload under header, setting
// header.Privacy from the privacy argument and optionally obfuscating the
// header's variable-length fields before returning the complete wire
// datagram.
func (c *Codec) Encode(header *MessageHeader, protocol *ProtocolHeader, payload []byte, privacy bool) ([]byte, error) {
	header.Privacy = privacy

	protocolBytes := protocol.Encode()
	plaintext := make([]byte, len(protocolBytes)+len(payload))
	copy(plaintext, protocolBytes)
	copy(plaintext[len(protocolBytes):], payload)

	aad := header.Encode()
	nonce := crypto.BuildAEADNonce(header.securityFlags(), header.MessageCounter, c.sourceNodeID)

	ciphertext, err := crypto.AESCCM128Encrypt(c.encryptionKey, nonce, plaintext, aad)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	encryptedPayload := ciphertext[:len(ciphertext)-MICSize]
	mic := ciphertext[len(ciphertext)-MICSize:]

	headerBytes := aad
	if privacy {
		headerBytes, err = c.applyPrivacy(header, mic)
		if err != nil {
			return nil, err
		}
	}

	result := make([]byte, len(headerBytes)+len(encryptedPayload)+MICSize)
	n := copy(result, headerBytes)
	n += copy(result[n:], encryptedPayload)
	copy(result[n:], mic)

	return result, nil
}

// applyPrivacy obfuscates header's counter/source/destination fields in
// place (on a fresh copy of its encoded bytes) using a nonce derived from
// the session ID and MIC.
func (c *Codec) applyPrivacy(header *MessageHeader, mic []byte) ([]byte, error) {
	headerBytes := header.Encode()

	privacyNonce, err := crypto.BuildPrivacyNonce(header.SessionID, mic)
	if err != nil {
		return nil, err
	}

	offset := header.PrivacyHeaderOffset()
	length := header.PrivacyObfuscatedSize()
	if length == 0 {
		return headerBytes, nil
	}

	obfuscated, err := crypto.AESCTREncrypt(c.privacyKey, privacyNonce, headerBytes[offset:offset+length])
	if err != nil {
		return nil, err
	}
	copy(headerBytes[offset:], obfuscated)

	return headerBytes, nil
}

// Decode authenticates and decrypts a received secure datagram. sourceNodeID
// is the peer's node ID as tracked by the session table, not whatever the
// (possibly privacy-obfuscated) wire header claims — the caller supplies
// it because nonce construction needs it before the header can be
// deobfuscated.
func (c *Codec) Decode(data []byte, sourceNodeID uint64) (*Frame, error) {
	raw, err := DecodeRaw(data)
	if err != nil {
		return nil, err
	}
	if !raw.Header.IsSecure() {
		return nil, ErrDecryptionFailed
	}

	headerBytes := make([]byte, raw.Header.Size())
	if raw.Header.Privacy {
		copy(headerBytes, data[:raw.Header.Size()])
		if err := c.removePrivacy(headerBytes, &raw.Header, raw.MIC); err != nil {
			return nil, err
		}
		if _, err := raw.Header.Decode(headerBytes); err != nil {
			return nil, err
		}
	} else {
		raw.Header.EncodeTo(headerBytes)
	}

	nonce := crypto.BuildAEADNonce(raw.Header.securityFlags(), raw.Header.MessageCounter, sourceNodeID)

	ciphertext := make([]byte, len(raw.EncryptedPayload)+MICSize)
	n := copy(ciphertext, raw.EncryptedPayload)
	copy(ciphertext[n:], raw.MIC)

	plaintext, err := crypto.AESCCM128Decrypt(c.encryptionKey, nonce, ciphertext, headerBytes)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	frame := &Frame{Header: raw.Header}
	protocolLen, err := frame.Protocol.Decode(plaintext)
	if err != nil {
		return nil, err
	}
	if len(plaintext) > protocolLen {
		frame.Payload = append([]byte(nil), plaintext[protocolLen:]...)
	}

	return frame, nil
}

// removePrivacy reverses applyPrivacy in place over headerBytes.
func (c *Codec) removePrivacy(headerBytes []byte, header *MessageHeader, mic []byte) error {
	privacyNonce, err := crypto.BuildPrivacyNonce(header.SessionID, mic)
	if err != nil {
		return err
	}

	offset := header.PrivacyHeaderOffset()
	length := header.PrivacyObfuscatedSize()
	if length == 0 {
		return nil
	}

	deobfuscated, err := crypto.AESCTRDecrypt(c.privacyKey, privacyNonce, headerBytes[offset:offset+length])
	if err != nil {
		return err
	}
	copy(headerBytes[offset:], deobfuscated)

	return nil
}

// DecodeWithKey decodes data using a one-shot Codec built from
// encryptionKey. Convenient for tests and for a one-off decode where
// keeping a Codec around isn't worth it.
func DecodeWithKey(data []byte, encryptionKey []byte, sourceNodeID uint64) (*Frame, error) {
	codec, err := NewCodec(encryptionKey, sourceNodeID)
	if err != nil {
		return nil, err
	}
	return codec.Decode(data, sourceNodeID)
}

// UnsecuredCodec frames and parses messages on the unauthenticated
// channel, where nothing is encrypted and there is no MIC.
type UnsecuredCodec struct{}

// NewUnsecuredCodec returns an UnsecuredCodec. It carries no state, so any
// number of callers can share one.
func NewUnsecuredCodec() *UnsecuredCodec {
	return &UnsecuredCodec{}
}

// Encode frames header/protocol/payload as a plaintext datagram.
func (u *UnsecuredCodec) Encode(header *MessageHeader, protocol *ProtocolHeader, payload []byte) []byte {
	frame := &Frame{
		Header:   *header,
		Protocol: *protocol,
		Payload:  payload,
	}
	return frame.EncodeUnsecured()
}

// Decode parses a plaintext datagram.
func (u *UnsecuredCodec) Decode(data []byte) (*Frame, error) {
	return DecodeUnsecured(data)
}
