// Package message implements the Matter wire codec: header layout,
// AES-CCM encrypt/decrypt, AES-CTR privacy obfuscation, and the
// length-prefixed TCP stream framing a transport uses underneath it. The
// session manager is the package's only intended caller — it owns
// counters, session lookup, and the delegate boundary, and hands this
// package nothing but bytes and already-derived key material.
package message

// SessionType selects unicast vs. group addressing for a session. Encoded
// in the security flags byte's low two bits.
type SessionType uint8

const (
	// SessionTypeUnicast is a point-to-point session (an established
	// authenticated session, or the unauthenticated channel when paired
	// with SessionID 0).
	SessionTypeUnicast SessionType = 0

	// SessionTypeGroup is a multicast session keyed by a group key rather
	// than a per-peer one.
	SessionTypeGroup SessionType = 1
)

// String returns a human-readable name for the session type.
func (s SessionType) String() string {
	switch s {
	case SessionTypeUnicast:
		return "Unicast"
	case SessionTypeGroup:
		return "Group"
	default:
		return "Unknown"
	}
}

// IsValid returns true if the session type is a defined value.
func (s SessionType) IsValid() bool {
	return s <= SessionTypeGroup
}

// DestinationType selects which destination field, if any, follows the
// optional source node ID in a message header. Encoded in the message
// flags byte's DSIZ bits.
type DestinationType uint8

const (
	// DestinationNone means no destination field is encoded.
	DestinationNone DestinationType = 0

	// DestinationNodeID means an 8-byte node ID follows.
	DestinationNodeID DestinationType = 1

	// DestinationGroupID means a 2-byte group ID follows.
	DestinationGroupID DestinationType = 2
)

// String returns a human-readable name for the destination type.
func (d DestinationType) String() string {
	switch d {
	case DestinationNone:
		return "None"
	case DestinationNodeID:
		return "NodeID"
	case DestinationGroupID:
		return "GroupID"
	default:
		return "Unknown"
	}
}

// IsValid returns true if the destination type is a defined value.
func (d DestinationType) IsValid() bool {
	return d <= DestinationGroupID
}

// Size returns the size in bytes of the destination field for this type.
func (d DestinationType) Size() int {
	switch d {
	case DestinationNone:
		return 0
	case DestinationNodeID:
		return 8
	case DestinationGroupID:
		return 2
	default:
		return 0
	}
}

// ProtocolID names the protocol that assigns meaning to a message's
// opcode field.
type ProtocolID uint16

const (
	// ProtocolSecureChannel carries pairing/session-establishment and
	// retransmission-control messages.
	ProtocolSecureChannel ProtocolID = 0x0000

	// ProtocolInteractionModel carries application-layer read/write/invoke
	// traffic.
	ProtocolInteractionModel ProtocolID = 0x0001

	// ProtocolBDX carries Bulk Data Exchange traffic.
	ProtocolBDX ProtocolID = 0x0002

	// ProtocolUserDirectedCommissioning carries UDC traffic.
	ProtocolUserDirectedCommissioning ProtocolID = 0x0003

	// ProtocolForTesting is reserved for isolated test harnesses.
	ProtocolForTesting ProtocolID = 0x0004
)

// String returns a human-readable name for the protocol ID.
func (p ProtocolID) String() string {
	switch p {
	case ProtocolSecureChannel:
		return "SecureChannel"
	case ProtocolInteractionModel:
		return "InteractionModel"
	case ProtocolBDX:
		return "BDX"
	case ProtocolUserDirectedCommissioning:
		return "UDC"
	case ProtocolForTesting:
		return "Testing"
	default:
		return "Unknown"
	}
}

// VendorID constants.
const (
	// VendorIDMatter is the standard Matter vendor ID (0x0000).
	VendorIDMatter uint16 = 0x0000
)
