package session

import (
	"github.com/backkem/securesession/pkg/counter"
	"github.com/backkem/securesession/pkg/message"
	"github.com/backkem/securesession/pkg/transport"
)

// UnauthenticatedSession tracks a peer reachable over an unencrypted
// transport, before any pairing has taken place. It carries no key
// material: plaintext messages exchanged over it are trusted only as far
// as an application-level protocol (e.g. a pairing handshake) chooses to
// trust them.
//
// Unlike the authenticated table, entries here are keyed by PeerAddress
// rather than a session ID: an unauthenticated peer has no session
// identifier of its own yet, only the address it spoke from.
type UnauthenticatedSession struct {
	peerAddress transport.PeerAddress

	sendCounter *counter.Send
	peerCounter *counter.Peer

	lastActivityTimeMs uint64

	lruPrev, lruNext *UnauthenticatedSession
}

func newUnauthenticatedSession(addr transport.PeerAddress, nowMs uint64) *UnauthenticatedSession {
	return &UnauthenticatedSession{
		peerAddress:        addr,
		sendCounter:        counter.NewSend(),
		peerCounter:        counter.NewPeerTrustFirst(counter.DefaultWindowSize),
		lastActivityTimeMs: nowMs,
	}
}

// PeerAddress returns the address this entry was allocated for.
func (u *UnauthenticatedSession) PeerAddress() transport.PeerAddress { return u.peerAddress }

// LastActivityTimeMs returns the monotonic timestamp of the last message
// sent or received over this session.
func (u *UnauthenticatedSession) LastActivityTimeMs() uint64 { return u.lastActivityTimeMs }

func (u *UnauthenticatedSession) markActive(nowMs uint64) { u.lastActivityTimeMs = nowMs }

func (u *UnauthenticatedSession) nextSendCounter() uint32   { return u.sendCounter.Value() }
func (u *UnauthenticatedSession) commitSendCounter() error  { return u.sendCounter.Advance() }
func (u *UnauthenticatedSession) verifyPeerCounter(c uint32) error {
	return u.peerCounter.VerifyOrTrustFirst(c)
}
func (u *UnauthenticatedSession) commitPeerCounter(c uint32) { u.peerCounter.Commit(c) }

// encode frames payload as a plaintext datagram. Unauthenticated messages
// are never encrypted, so there is no key material to use here — only the
// wire header/counter bookkeeping.
func (u *UnauthenticatedSession) encode(header *message.MessageHeader, protocol *message.ProtocolHeader, payload []byte) []byte {
	header.SessionID = 0
	header.MessageCounter = u.nextSendCounter()
	codec := message.NewUnsecuredCodec()
	return codec.Encode(header, protocol, payload)
}

func (u *UnauthenticatedSession) decode(data []byte) (*message.Frame, error) {
	codec := message.NewUnsecuredCodec()
	frame, err := codec.Decode(data)
	if err != nil {
		return nil, err
	}
	return frame, nil
}
