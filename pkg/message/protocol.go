package message

import (
	"encoding/binary"
)

// ProtocolHeader is the first part of the message payload: it carries the
// protocol/opcode/exchange routing an upper layer needs, and for an
// authenticated session it sits inside the encrypted range (it's only
// clear text on the unauthenticated channel).
type ProtocolHeader struct {
	// ProtocolID identifies which protocol defines ProtocolOpcode's
	// meaning.
	ProtocolID ProtocolID

	// ProtocolOpcode is the message type within ProtocolID.
	ProtocolOpcode uint8

	// ExchangeID names the exchange (request/response conversation) this
	// message is part of.
	ExchangeID uint16

	// ProtocolVendorID namespaces ProtocolID for vendor-specific protocols.
	// Only meaningful when VendorPresent; otherwise treated as
	// VendorIDMatter.
	ProtocolVendorID uint16

	// AckedMessageCounter names the message counter being acknowledged.
	// Only meaningful when Acknowledgement is set.
	AckedMessageCounter uint32

	// Initiator is the wire I flag: set by the exchange's initiating side.
	Initiator bool

	// Acknowledgement is the wire A flag: this message acks
	// AckedMessageCounter.
	Acknowledgement bool

	// Reliability is the wire R flag: the sender wants this message
	// acknowledged.
	Reliability bool

	// SecuredExtensions is the wire SX flag. Version-1.0 senders always
	// clear it.
	SecuredExtensions bool

	// VendorPresent is the wire V flag: whether ProtocolVendorID was
	// encoded.
	VendorPresent bool
}

// Size returns how many bytes Encode will produce given the currently set
// VendorPresent/Acknowledgement flags.
func (p *ProtocolHeader) Size() int {
	size := MinProtocolHeaderSize

	if p.VendorPresent {
		size += 2
	}
	if p.Acknowledgement {
		size += 4
	}

	return size
}

// Encode allocates a buffer sized to fit and serializes the protocol
// header into it.
func (p *ProtocolHeader) Encode() []byte {
	buf := make([]byte, p.Size())
	p.EncodeTo(buf)
	return buf
}

// EncodeTo writes the protocol header into buf, which must be at least
// Size() bytes, and returns the number of bytes written.
func (p *ProtocolHeader) EncodeTo(buf []byte) int {
	n := 0

	buf[n] = p.exchangeFlags()
	n++

	buf[n] = p.ProtocolOpcode
	n++

	binary.LittleEndian.PutUint16(buf[n:], p.ExchangeID)
	n += 2

	if p.VendorPresent {
		binary.LittleEndian.PutUint16(buf[n:], p.ProtocolVendorID)
		n += 2
	}

	binary.LittleEndian.PutUint16(buf[n:], uint16(p.ProtocolID))
	n += 2

	if p.Acknowledgement {
		binary.LittleEndian.PutUint32(buf[n:], p.AckedMessageCounter)
		n += 4
	}

	return n
}

// exchangeFlags packs I/A/R/SX/V into one byte.
func (p *ProtocolHeader) exchangeFlags() uint8 {
	var flags uint8

	if p.Initiator {
		flags |= exchFlagInitiator
	}
	if p.Acknowledgement {
		flags |= exchFlagAcknowledgement
	}
	if p.Reliability {
		flags |= exchFlagReliability
	}
	if p.SecuredExtensions {
		flags |= exchFlagSecuredExtensions
	}
	if p.VendorPresent {
		flags |= exchFlagVendor
	}

	return flags
}

// Decode parses a protocol header from the front of data and returns how
// many bytes it consumed.
func (p *ProtocolHeader) Decode(data []byte) (int, error) {
	if len(data) < MinProtocolHeaderSize {
		return 0, ErrPayloadTooShort
	}

	n := 0

	exchFlags := data[n]
	n++

	p.Initiator = exchFlags&exchFlagInitiator != 0
	p.Acknowledgement = exchFlags&exchFlagAcknowledgement != 0
	p.Reliability = exchFlags&exchFlagReliability != 0
	p.SecuredExtensions = exchFlags&exchFlagSecuredExtensions != 0
	p.VendorPresent = exchFlags&exchFlagVendor != 0

	p.ProtocolOpcode = data[n]
	n++

	p.ExchangeID = binary.LittleEndian.Uint16(data[n:])
	n += 2

	tail := n + 2
	if p.VendorPresent {
		tail += 2
	}
	if p.Acknowledgement {
		tail += 4
	}
	if len(data) < tail {
		return 0, ErrPayloadTooShort
	}

	if p.VendorPresent {
		p.ProtocolVendorID = binary.LittleEndian.Uint16(data[n:])
		n += 2
	} else {
		p.ProtocolVendorID = VendorIDMatter
	}

	p.ProtocolID = ProtocolID(binary.LittleEndian.Uint16(data[n:]))
	n += 2

	if p.Acknowledgement {
		p.AckedMessageCounter = binary.LittleEndian.Uint32(data[n:])
		n += 4
	} else {
		p.AckedMessageCounter = 0
	}

	return n, nil
}

// IsSecureChannel reports whether this message belongs to the Secure
// Channel protocol (pairing/session-establishment control messages).
func (p *ProtocolHeader) IsSecureChannel() bool {
	return p.ProtocolVendorID == VendorIDMatter && p.ProtocolID == ProtocolSecureChannel
}

// IsInteractionModel reports whether this message belongs to the
// Interaction Model protocol.
func (p *ProtocolHeader) IsInteractionModel() bool {
	return p.ProtocolVendorID == VendorIDMatter && p.ProtocolID == ProtocolInteractionModel
}

// NeedsAck reports whether the sender requested an acknowledgement.
func (p *ProtocolHeader) NeedsAck() bool {
	return p.Reliability
}

// IsAck reports whether this message itself is an acknowledgement.
func (p *ProtocolHeader) IsAck() bool {
	return p.Acknowledgement
}
