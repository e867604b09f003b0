package session

import "github.com/backkem/securesession/pkg/transport"

// Transport is the downward collaborator the session manager sends prepared
// datagrams through. It also registers itself as the transport's upward
// message delegate during Init by calling SetHandler. *transport.Manager
// satisfies this interface; it is defined here, at the consumer, rather
// than in pkg/transport, since the session manager is the only caller that
// needs this exact shape.
type Transport interface {
	// Send hands a fully framed datagram to the transport for delivery to
	// peer.
	Send(data []byte, peer transport.PeerAddress) error

	// Disconnect tears down any persistent connection to peer. A no-op for
	// connectionless transports.
	Disconnect(peer transport.PeerAddress)

	// SetHandler installs the function the transport calls for every
	// received datagram, replacing whatever handler (if any) was
	// previously registered.
	SetHandler(handler transport.MessageHandler)
}
