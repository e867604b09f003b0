package session

import (
	"github.com/backkem/securesession/pkg/counter"
	"github.com/backkem/securesession/pkg/fabric"
	"github.com/backkem/securesession/pkg/message"
	"github.com/backkem/securesession/pkg/transport"
)

// SessionKeySize is the size, in bytes, of each half of the symmetric key
// material a pairing produces (one key per direction).
const SessionKeySize = 16

// PeerConnectionState is an established, authenticated session between this
// node and a peer on a fabric. It is created by NewPairing once a pairing
// engine has finished a key exchange, and lives in a PeerConnections table
// keyed by local_session_id.
//
// Unlike a full CASE/PASE session context, this type carries no PASE/CASE
// distinction, no resumption ID, no CASE Authenticated Tags, and no MRP
// timing parameters — all of those belong to the pairing engine or the
// exchange layer, both external to the session manager. What remains is
// exactly the data model's PeerConnectionState: identity, key material, and
// the two counters that guard replay.
type PeerConnectionState struct {
	peerNodeID     fabric.NodeID
	localNodeID    fabric.NodeID // this node's operational node ID on fabricIndex, for nonce construction
	peerAddress    transport.PeerAddress // mutable: updated on receive from a new address
	fabricIndex    fabric.FabricIndex
	localSessionID uint16
	peerSessionID  uint16
	role           Role

	encryptCodec *message.Codec
	decryptCodec *message.Codec

	sendCounter *counter.Send
	peerCounter *counter.Peer

	lastActivityTimeMs uint64

	// lruPrev/lruNext link this entry into the table's LRU list; zero value
	// (not linked) when the entry isn't owned by a table.
	lruPrev, lruNext *PeerConnectionState
}

// peerConnectionConfig carries the inputs NewPairing gathers from a
// PairingSession before constructing a PeerConnectionState.
type peerConnectionConfig struct {
	peerNodeID     fabric.NodeID
	localNodeID    fabric.NodeID
	peerAddress    transport.PeerAddress
	fabricIndex    fabric.FabricIndex
	localSessionID uint16
	peerSessionID  uint16
	role           Role
	keyMaterial    []byte // 2*SessionKeySize: I2R key || R2I key
	peerCounter    uint32
	windowSize     uint
	nowMs          uint64
}

func newPeerConnectionState(cfg peerConnectionConfig) (*PeerConnectionState, error) {
	if !cfg.role.IsValid() {
		return nil, ErrInvalidRole
	}
	if len(cfg.keyMaterial) != 2*SessionKeySize {
		return nil, ErrInvalidArgument
	}

	i2rKey := cfg.keyMaterial[:SessionKeySize]
	r2iKey := cfg.keyMaterial[SessionKeySize:]

	localNodeIDForNonce := uint64(cfg.localNodeID)

	var encryptCodec, decryptCodec *message.Codec
	var err error
	if cfg.role == RoleInitiator {
		encryptCodec, err = message.NewCodec(i2rKey, localNodeIDForNonce)
		if err != nil {
			return nil, err
		}
		decryptCodec, err = message.NewCodec(r2iKey, 0)
		if err != nil {
			return nil, err
		}
	} else {
		encryptCodec, err = message.NewCodec(r2iKey, localNodeIDForNonce)
		if err != nil {
			return nil, err
		}
		decryptCodec, err = message.NewCodec(i2rKey, 0)
		if err != nil {
			return nil, err
		}
	}

	pc := &PeerConnectionState{
		peerNodeID:         cfg.peerNodeID,
		localNodeID:        cfg.localNodeID,
		peerAddress:        cfg.peerAddress,
		fabricIndex:        cfg.fabricIndex,
		localSessionID:     cfg.localSessionID,
		peerSessionID:      cfg.peerSessionID,
		role:               cfg.role,
		encryptCodec:       encryptCodec,
		decryptCodec:       decryptCodec,
		sendCounter:        counter.NewSend(),
		peerCounter:        counter.NewPeer(cfg.windowSize),
		lastActivityTimeMs: cfg.nowMs,
	}
	pc.peerCounter.SetCounter(cfg.peerCounter)

	return pc, nil
}

// PeerNodeID returns the peer's operational node ID.
func (p *PeerConnectionState) PeerNodeID() fabric.NodeID { return p.peerNodeID }

// PeerAddress returns the peer's last-known transport address.
func (p *PeerConnectionState) PeerAddress() transport.PeerAddress { return p.peerAddress }

// SetPeerAddress updates the peer's transport address. The session manager
// calls this whenever a message authenticated under this session arrives
// from a different address than the one on file, so replies keep reaching
// a peer that has moved (new source port, roaming radio, etc.).
func (p *PeerConnectionState) SetPeerAddress(addr transport.PeerAddress) { p.peerAddress = addr }

// FabricIndex returns the fabric this session is bound to.
func (p *PeerConnectionState) FabricIndex() fabric.FabricIndex { return p.fabricIndex }

// LocalSessionID returns the session identifier that routes inbound
// messages to this state.
func (p *PeerConnectionState) LocalSessionID() uint16 { return p.localSessionID }

// PeerSessionID returns the session identifier to stamp into outgoing
// messages addressed to the peer.
func (p *PeerConnectionState) PeerSessionID() uint16 { return p.peerSessionID }

// Role returns the role this node played during pairing.
func (p *PeerConnectionState) Role() Role { return p.role }

// LastActivityTimeMs returns the monotonic timestamp, in milliseconds, of
// the last send or receive on this session.
func (p *PeerConnectionState) LastActivityTimeMs() uint64 { return p.lastActivityTimeMs }

// markActive stamps the session's last-activity time to now.
func (p *PeerConnectionState) markActive(nowMs uint64) { p.lastActivityTimeMs = nowMs }

// nextSendCounter returns the counter value the next outgoing message
// should carry, without advancing it. PrepareMessage calls
// commitSendCounter as soon as the message is framed, before it reaches the
// transport.
func (p *PeerConnectionState) nextSendCounter() uint32 { return p.sendCounter.Value() }

func (p *PeerConnectionState) commitSendCounter() error { return p.sendCounter.Advance() }

// verifyPeerCounter reports whether c would be accepted as a fresh counter
// from the peer, without mutating replay state.
func (p *PeerConnectionState) verifyPeerCounter(c uint32) error { return p.peerCounter.Verify(c) }

// commitPeerCounter records c as accepted. Call only after decryption of
// the message carrying c has succeeded.
func (p *PeerConnectionState) commitPeerCounter(c uint32) { p.peerCounter.Commit(c) }

// peerCounterSynchronized reports whether the peer counter has a baseline.
func (p *PeerConnectionState) peerCounterSynchronized() bool { return p.peerCounter.Synchronized() }

// syncPeerCounter establishes a baseline after out-of-band counter
// synchronization.
func (p *PeerConnectionState) syncPeerCounter(c uint32) { p.peerCounter.SetCounter(c) }

// encrypt frames payload as a complete encrypted datagram addressed to the
// peer, stamping the next send counter. It does not advance the counter;
// PrepareMessage commits it (via commitSendCounter) right after encrypting.
func (p *PeerConnectionState) encrypt(header *message.MessageHeader, protocol *message.ProtocolHeader, payload []byte, privacy bool) ([]byte, error) {
	header.SessionID = p.peerSessionID
	header.MessageCounter = p.nextSendCounter()
	return p.encryptCodec.Encode(header, protocol, payload, privacy)
}

// decrypt opens an incoming encrypted datagram. It does not touch replay
// state; the caller must separately verify and commit the message counter.
func (p *PeerConnectionState) decrypt(data []byte) (*message.Frame, error) {
	frame, err := p.decryptCodec.Decode(data, uint64(p.peerNodeID))
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return frame, nil
}
