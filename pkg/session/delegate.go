package session

import (
	"github.com/backkem/securesession/pkg/message"
	"github.com/backkem/securesession/pkg/transport"
)

// Delegate is the upward interface an embedder implements and registers
// with a Manager. Every method runs synchronously on the goroutine that
// drove the triggering call into the manager (the transport handler Init
// registers via SetHandler, NewPairing, ExpirePairing and its variants, or
// the expiry timer callback). The manager takes no lock around these calls.
type Delegate interface {
	// OnMessageReceived delivers one inbound datagram, decoded as far as
	// the session manager is responsible for: the packet header, the
	// decrypted (or, for unauthenticated sessions, plaintext) payload
	// header, the session it arrived on, the address it arrived from, and
	// whether this exact counter had already been committed before
	// (isDuplicate). msg is the application payload following the payload
	// header.
	OnMessageReceived(packetHeader *message.MessageHeader, payloadHeader *message.ProtocolHeader, handle SessionHandle, peerAddr transport.PeerAddress, isDuplicate bool, msg []byte)

	// OnNewConnection fires once a pairing has installed a new
	// authenticated session.
	OnNewConnection(handle SessionHandle)

	// OnConnectionExpired fires once for each authenticated session
	// removed, whether by explicit revocation, replacement by NewPairing at
	// the same local session id, LRU eviction on Create, or the idle-expiry
	// sweep.
	OnConnectionExpired(handle SessionHandle)

	// OnReceiveError reports an inbound-dispatch failure that could not be
	// attributed to any specific session (e.g. an unknown session id). It
	// is never called for conditions the manager resolves by itself
	// (duplicate suppression, out-of-window drops) — those are logged, not
	// escalated.
	OnReceiveError(err error, peerAddr transport.PeerAddress)
}
