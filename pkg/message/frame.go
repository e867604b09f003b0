package message

import (
	"encoding/binary"
	"io"
)

// Frame is a fully decoded, plaintext datagram: a clear message header
// plus the protocol header and application payload that, for an
// authenticated session, would otherwise be sitting behind AEAD
// decryption. Frame only ever holds already-decrypted content.
type Frame struct {
	Header   MessageHeader
	Protocol ProtocolHeader
	Payload  []byte
}

// EncodeUnsecured serializes f for the unauthenticated channel, where
// nothing past the message header is encrypted. Used for the
// establishment traffic a pairing engine exchanges before a session has
// key material.
func (f *Frame) EncodeUnsecured() []byte {
	total := f.Header.Size() + f.Protocol.Size() + len(f.Payload)

	buf := make([]byte, total)
	n := f.Header.EncodeTo(buf)
	n += f.Protocol.EncodeTo(buf[n:])
	copy(buf[n:], f.Payload)

	return buf
}

// DecodeUnsecured parses an unauthenticated-channel datagram: message
// header, then protocol header, then whatever application payload
// remains.
func DecodeUnsecured(data []byte) (*Frame, error) {
	f := &Frame{}

	headerLen, err := f.Header.Decode(data)
	if err != nil {
		return nil, err
	}
	if len(data) < headerLen {
		return nil, ErrMessageTooShort
	}

	protocolLen, err := f.Protocol.Decode(data[headerLen:])
	if err != nil {
		return nil, err
	}

	payloadStart := headerLen + protocolLen
	if len(data) > payloadStart {
		f.Payload = make([]byte, len(data)-payloadStart)
		copy(f.Payload, data[payloadStart:])
	}

	return f, nil
}

// RawFrame is a datagram as it exists on an authenticated session: a clear
// header followed by still-encrypted payload bytes and a trailing MIC.
// Use Codec to turn this into (or back from) a Frame.
type RawFrame struct {
	Header           MessageHeader
	EncryptedPayload []byte
	MIC              []byte
}

// EncodeRaw serializes r to wire bytes: header, ciphertext, MIC.
func (r *RawFrame) EncodeRaw() []byte {
	total := r.Header.Size() + len(r.EncryptedPayload) + len(r.MIC)

	buf := make([]byte, total)
	n := r.Header.EncodeTo(buf)
	n += copy(buf[n:], r.EncryptedPayload)
	copy(buf[n:], r.MIC)

	return buf
}

// DecodeRaw splits wire bytes into header, ciphertext, and MIC without
// attempting decryption — that's Codec's job, once the right key material
// is in hand.
func DecodeRaw(data []byte) (*RawFrame, error) {
	r := &RawFrame{}

	headerLen, err := r.Header.Decode(data)
	if err != nil {
		return nil, err
	}

	if r.Header.IsSecure() {
		if len(data) < headerLen+MICSize {
			return nil, ErrMessageTooShort
		}
		cipherEnd := len(data) - MICSize
		r.EncryptedPayload = append([]byte(nil), data[headerLen:cipherEnd]...)
		r.MIC = append([]byte(nil), data[cipherEnd:]...)
	} else if len(data) > headerLen {
		r.EncryptedPayload = append([]byte(nil), data[headerLen:]...)
	}

	return r, nil
}

// TotalSize returns the wire size of r: header plus payload plus (for a
// secure header) the trailing MIC.
func (r *RawFrame) TotalSize() int {
	size := r.Header.Size() + len(r.EncryptedPayload)
	if r.Header.IsSecure() {
		size += MICSize
	}
	return size
}

// StreamWriter adds a 4-byte little-endian length prefix ahead of each
// frame written through it, for transports (TCP) with no inherent
// datagram boundary.
type StreamWriter struct {
	w io.Writer
}

// NewStreamWriter wraps w for length-prefixed frame writes.
func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{w: w}
}

// Write emits frame prefixed with its 4-byte length.
func (sw *StreamWriter) Write(frame []byte) (int, error) {
	var lenBuf [TCPLengthPrefixSize]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(frame)))

	n, err := sw.w.Write(lenBuf[:])
	if err != nil {
		return n, err
	}
	m, err := sw.w.Write(frame)
	return n + m, err
}

// WriteFrame encodes frame to wire bytes and writes it length-prefixed.
func (sw *StreamWriter) WriteFrame(frame *RawFrame) error {
	_, err := sw.Write(frame.EncodeRaw())
	return err
}

// StreamReader reads StreamWriter's length-prefixed framing back out of a
// byte stream.
type StreamReader struct {
	r io.Reader
}

// NewStreamReader wraps r for length-prefixed frame reads.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{r: r}
}

// Read blocks for one complete length-prefixed frame and returns its body,
// with the length prefix stripped.
func (sr *StreamReader) Read() ([]byte, error) {
	var lenBuf [TCPLengthPrefixSize]byte
	if _, err := io.ReadFull(sr.r, lenBuf[:]); err != nil {
		if err == io.EOF {
			return nil, err
		}
		return nil, ErrStreamReadFailed
	}

	frameLen := binary.LittleEndian.Uint32(lenBuf[:])
	if frameLen == 0 {
		return nil, ErrInvalidLengthPrefix
	}
	if frameLen > MaxUDPMessageSize*2 {
		return nil, ErrMessageTooLong
	}

	frame := make([]byte, frameLen)
	if _, err := io.ReadFull(sr.r, frame); err != nil {
		return nil, ErrStreamReadFailed
	}

	return frame, nil
}

// ReadFrame reads one length-prefixed frame and decodes it as a RawFrame.
func (sr *StreamReader) ReadFrame() (*RawFrame, error) {
	data, err := sr.Read()
	if err != nil {
		return nil, err
	}
	return DecodeRaw(data)
}

// EncodeWithLengthPrefix prepends frame's 4-byte little-endian length,
// matching what StreamReader expects.
func EncodeWithLengthPrefix(frame []byte) []byte {
	buf := make([]byte, TCPLengthPrefixSize+len(frame))
	binary.LittleEndian.PutUint32(buf[:TCPLengthPrefixSize], uint32(len(frame)))
	copy(buf[TCPLengthPrefixSize:], frame)
	return buf
}

// ValidateSize rejects a datagram that wouldn't fit in a single UDP
// frame.
func ValidateSize(data []byte) error {
	if len(data) > MaxUDPMessageSize {
		return ErrMessageTooLong
	}
	return nil
}
