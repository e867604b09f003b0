package session

import (
	"github.com/backkem/securesession/pkg/fabric"
	"github.com/backkem/securesession/pkg/transport"
)

// SessionHandle is a copyable reference to a session tracked by a Manager.
// It never points at a PeerConnectionState or UnauthenticatedSession
// directly: every operation that takes a handle re-resolves it through the
// owning table, so an authenticated handle captured before its session
// expired simply fails to resolve (NotConnected) rather than dangling. An
// unauthenticated handle resolves by address and gets a fresh entry if its
// old one was evicted.
type SessionHandle struct {
	Authenticated bool

	// Set when Authenticated is true.
	FabricIndex    fabric.FabricIndex
	PeerNodeID     fabric.NodeID
	LocalSessionID uint16

	// Set when Authenticated is false.
	PeerAddress transport.PeerAddress
}

// AuthenticatedHandle builds a handle for an authenticated session.
func AuthenticatedHandle(fabricIndex fabric.FabricIndex, peerNodeID fabric.NodeID, localSessionID uint16) SessionHandle {
	return SessionHandle{
		Authenticated:  true,
		FabricIndex:    fabricIndex,
		PeerNodeID:     peerNodeID,
		LocalSessionID: localSessionID,
	}
}

// UnauthenticatedHandle builds a handle for an unauthenticated session.
func UnauthenticatedHandle(addr transport.PeerAddress) SessionHandle {
	return SessionHandle{PeerAddress: addr}
}
