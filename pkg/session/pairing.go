package session

// PairingSession is the adapter NewPairing consumes from the key-exchange
// engine — itself out of scope here (see the package doc comment). It
// exposes exactly what installing a new authenticated session needs: the
// two session identifiers the handshake negotiated, the peer's starting
// message counter, and a way to derive the actual symmetric key material
// once the node's role in the exchange is known.
type PairingSession interface {
	// PeerSessionID is the identifier to stamp into outgoing messages
	// addressed to the peer.
	PeerSessionID() uint16

	// LocalSessionID is the identifier that routes inbound messages to the
	// new session. NewPairing replaces any existing session at this id.
	LocalSessionID() uint16

	// PeerCounter is the peer's message counter value at the moment pairing
	// completed, used to seed the new session's peer counter baseline.
	PeerCounter() uint32

	// DeriveSecureSession derives the bidirectional key material into out,
	// which must be exactly 2*SessionKeySize bytes: the first half is the
	// initiator-to-responder key, the second half responder-to-initiator.
	DeriveSecureSession(out []byte, role Role) error
}
