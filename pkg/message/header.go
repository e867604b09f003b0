package message

import (
	"encoding/binary"
)

// MessageHeader is the clear-text (never encrypted) part of a Matter
// datagram: message flags, session ID, security flags, and counter, plus
// the optional source/destination fields the flags select. It doubles as
// the AAD for an authenticated session's ciphertext and, when Privacy is
// set, as the range obfuscated by the privacy cipher (see
// PrivacyHeaderOffset/PrivacyObfuscatedSize).
//
// All multi-byte fields are little-endian on the wire.
type MessageHeader struct {
	// SessionID names the session (encryption context) this datagram
	// belongs to. SessionID 0 combined with SessionTypeUnicast marks an
	// unauthenticated datagram — there is no session keyed by ID 0.
	SessionID uint16

	// MessageCounter increases monotonically per sender and feeds both
	// replay detection and AEAD nonce construction.
	MessageCounter uint32

	// SessionType distinguishes a unicast session from a group session.
	SessionType SessionType

	// SourceNodeID is the 64-bit sender identity. Only meaningful when
	// SourcePresent is set; required for group traffic, optional for
	// unicast.
	SourceNodeID uint64

	// DestinationType selects which of DestinationNodeID/DestinationGroupID
	// (if either) is populated.
	DestinationType DestinationType

	// DestinationNodeID is valid only when DestinationType is
	// DestinationNodeID.
	DestinationNodeID uint64

	// DestinationGroupID is valid only when DestinationType is
	// DestinationGroupID.
	DestinationGroupID uint16

	// SourcePresent is the wire S flag: whether SourceNodeID was encoded.
	SourcePresent bool

	// Privacy is the wire P flag: whether the header's obfuscated range has
	// been run through the privacy cipher.
	Privacy bool

	// Control is the wire C flag: this datagram uses the control counter
	// rather than the session's ordinary message counter.
	Control bool

	// Extensions is the wire MX flag. Version-1.0 senders always clear it.
	Extensions bool
}

// Size returns how many bytes Encode will produce for the header as
// currently populated — it depends on SourcePresent and DestinationType.
func (h *MessageHeader) Size() int {
	size := MinHeaderSize

	if h.SourcePresent {
		size += NodeIDSize
	}
	size += h.DestinationType.Size()

	return size
}

// Encode allocates a buffer sized to fit and serializes the header into
// it. The result can be used directly as AEAD additional data.
func (h *MessageHeader) Encode() []byte {
	buf := make([]byte, h.Size())
	h.EncodeTo(buf)
	return buf
}

// EncodeTo writes the header into buf, which must be at least Size() bytes,
// and returns the number of bytes written.
func (h *MessageHeader) EncodeTo(buf []byte) int {
	n := 0

	buf[n] = h.messageFlags()
	n++

	binary.LittleEndian.PutUint16(buf[n:], h.SessionID)
	n += 2

	buf[n] = h.securityFlags()
	n++

	binary.LittleEndian.PutUint32(buf[n:], h.MessageCounter)
	n += 4

	if h.SourcePresent {
		binary.LittleEndian.PutUint64(buf[n:], h.SourceNodeID)
		n += NodeIDSize
	}

	switch h.DestinationType {
	case DestinationNodeID:
		binary.LittleEndian.PutUint64(buf[n:], h.DestinationNodeID)
		n += NodeIDSize
	case DestinationGroupID:
		binary.LittleEndian.PutUint16(buf[n:], h.DestinationGroupID)
		n += GroupIDSize
	}

	return n
}

// messageFlags packs the version, S flag, and DSIZ bits into one byte.
func (h *MessageHeader) messageFlags() uint8 {
	flags := MessageVersion << flagVersionShift

	if h.SourcePresent {
		flags |= flagSourcePresent
	}
	flags |= uint8(h.DestinationType) & flagDSIZMask

	return flags
}

// securityFlags packs session type, MX, C, and P into one byte.
func (h *MessageHeader) securityFlags() uint8 {
	var flags uint8

	flags |= uint8(h.SessionType) & secFlagSessionTypeMask

	if h.Extensions {
		flags |= secFlagExtensions
	}
	if h.Control {
		flags |= secFlagControl
	}
	if h.Privacy {
		flags |= secFlagPrivacy
	}

	return flags
}

// Decode parses a header from the front of data and returns how many bytes
// it consumed. data may be longer than the header; the remainder belongs
// to the caller.
func (h *MessageHeader) Decode(data []byte) (int, error) {
	if len(data) < MinHeaderSize {
		return 0, ErrMessageTooShort
	}

	n := 0

	msgFlags := data[n]
	n++

	version := (msgFlags >> flagVersionShift) & flagVersionMask
	if version != MessageVersion {
		return 0, ErrInvalidVersion
	}
	h.SourcePresent = msgFlags&flagSourcePresent != 0
	h.DestinationType = DestinationType(msgFlags & flagDSIZMask)
	if !h.DestinationType.IsValid() {
		return 0, ErrInvalidDSIZ
	}

	h.SessionID = binary.LittleEndian.Uint16(data[n:])
	n += 2

	secFlags := data[n]
	n++

	h.SessionType = SessionType(secFlags & secFlagSessionTypeMask)
	if !h.SessionType.IsValid() {
		return 0, ErrInvalidSessionType
	}
	h.Extensions = secFlags&secFlagExtensions != 0
	h.Control = secFlags&secFlagControl != 0
	h.Privacy = secFlags&secFlagPrivacy != 0

	h.MessageCounter = binary.LittleEndian.Uint32(data[n:])
	n += 4

	tail := n
	if h.SourcePresent {
		tail += NodeIDSize
	}
	tail += h.DestinationType.Size()
	if len(data) < tail {
		return 0, ErrMessageTooShort
	}

	if h.SourcePresent {
		h.SourceNodeID = binary.LittleEndian.Uint64(data[n:])
		n += NodeIDSize
	} else {
		h.SourceNodeID = 0
	}

	switch h.DestinationType {
	case DestinationNodeID:
		h.DestinationNodeID = binary.LittleEndian.Uint64(data[n:])
		h.DestinationGroupID = 0
		n += NodeIDSize
	case DestinationGroupID:
		h.DestinationGroupID = binary.LittleEndian.Uint16(data[n:])
		h.DestinationNodeID = 0
		n += GroupIDSize
	default:
		h.DestinationNodeID = 0
		h.DestinationGroupID = 0
	}

	return n, nil
}

// IsSecure reports whether this datagram belongs to an authenticated
// session rather than the unicast/SessionID-0 unauthenticated channel.
func (h *MessageHeader) IsSecure() bool {
	return !(h.SessionType == SessionTypeUnicast && h.SessionID == 0)
}

// Validate rejects header field combinations the wire format forbids (a
// group session with no source node ID or no destination, or a unicast
// session destined to a group ID).
func (h *MessageHeader) Validate() error {
	if h.SessionType == SessionTypeGroup && !h.SourcePresent {
		return ErrMissingSourceNodeID
	}
	if h.SessionType == SessionTypeGroup && h.DestinationType == DestinationNone {
		return ErrInvalidDSIZ
	}
	if h.SessionType == SessionTypeUnicast && h.DestinationType == DestinationGroupID {
		return ErrInvalidDSIZ
	}
	return nil
}

// PrivacyObfuscatedSize returns how many bytes after PrivacyHeaderOffset
// the privacy cipher covers: message counter plus whichever optional
// source/destination fields are present.
func (h *MessageHeader) PrivacyObfuscatedSize() int {
	size := 4

	if h.SourcePresent {
		size += NodeIDSize
	}
	size += h.DestinationType.Size()

	return size
}

// PrivacyHeaderOffset returns the fixed byte offset — past message flags,
// session ID, and security flags — where the privacy-obfuscated range
// begins.
func (h *MessageHeader) PrivacyHeaderOffset() int {
	return 4
}
