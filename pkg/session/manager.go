package session

import (
	"github.com/backkem/securesession/pkg/counter"
	"github.com/backkem/securesession/pkg/countersync"
	"github.com/backkem/securesession/pkg/fabric"
	"github.com/backkem/securesession/pkg/message"
	"github.com/backkem/securesession/pkg/sysclock"
	"github.com/backkem/securesession/pkg/transport"
	"github.com/pion/logging"
)

// FabricTable is the subset of *fabric.Table the manager needs: membership
// checks for fabric indices stamped onto new sessions, and the local
// node's own operational node ID on a fabric (for nonce construction).
type FabricTable interface {
	IsMember(index fabric.FabricIndex) bool
	Get(index fabric.FabricIndex) (*fabric.FabricInfo, bool)
}

// Manager is the secure session manager: it owns the authenticated and
// unauthenticated session tables, dispatches inbound datagrams delivered by
// the transport, frames outbound datagrams, and drives the idle-expiry
// sweep. Manager takes no internal lock, and callers (the embedding event
// loop) must serialize every call into it.
type Manager struct {
	state State

	config ManagerConfig

	authenticated   *PeerConnections
	unauthenticated *unauthenticatedSessions
	globalCounter   *counter.Send

	sysLayer     sysclock.SystemLayer
	transport    Transport
	fabrics      FabricTable
	counterSync  countersync.Service
	delegate     Delegate

	expiryTimer sysclock.Timer

	log logging.LeveledLogger
}

// ManagerDeps carries the collaborators Init wires together. LoggerFactory
// is optional; nil disables logging, matching the ambient
// logging convention (see pkg/transport).
type ManagerDeps struct {
	SysLayer      sysclock.SystemLayer
	Transport     Transport
	Fabrics       FabricTable
	CounterSync   countersync.Service
	Delegate      Delegate
	LoggerFactory logging.LoggerFactory
}

// NewManager creates a Manager in the NotReady state. Call Init before any
// other method.
func NewManager(config ManagerConfig) *Manager {
	config = config.withDefaults()
	return &Manager{
		state:           NotReady,
		config:          config,
		authenticated:   NewPeerConnections(config.MaxAuthenticatedSessions),
		unauthenticated: newUnauthenticatedSessions(config.MaxUnauthenticatedSessions),
		globalCounter:   counter.NewSend(),
	}
}

// State returns the manager's current lifecycle state.
func (m *Manager) State() State { return m.state }

// Init installs the manager's collaborators, registers it as the
// transport's upward delegate, and schedules the first expiry sweep.
// Returns ErrIncorrectState if already initialized, ErrInvalidArgument if
// deps.Transport is nil.
func (m *Manager) Init(deps ManagerDeps) error {
	if m.state == Initialized {
		return ErrIncorrectState
	}
	if deps.Transport == nil {
		return ErrInvalidArgument
	}

	if deps.LoggerFactory != nil {
		m.log = deps.LoggerFactory.NewLogger("session-manager")
	}

	m.sysLayer = deps.SysLayer
	m.transport = deps.Transport
	m.fabrics = deps.Fabrics
	m.counterSync = deps.CounterSync
	m.delegate = deps.Delegate

	m.transport.SetHandler(m.onTransportMessage)

	if m.sysLayer != nil {
		timer := m.sysLayer.StartTimer(m.config.PeerConnectionTimeoutCheckFrequencyMs, m.onExpiryTick)
		if timer == nil {
			panic("session: initial expiry timer scheduling failed")
		}
		m.expiryTimer = timer
	}

	m.state = Initialized
	return nil
}

// Shutdown cancels the expiry timer, drops collaborators, and returns the
// manager to NotReady. Never errors.
func (m *Manager) Shutdown() {
	if m.expiryTimer != nil {
		m.expiryTimer.Cancel()
		m.expiryTimer = nil
	}
	m.sysLayer = nil
	m.transport = nil
	m.fabrics = nil
	m.counterSync = nil
	m.delegate = nil
	m.state = NotReady
}

func (m *Manager) nowMs() uint64 {
	if m.sysLayer == nil {
		return 0
	}
	return m.sysLayer.MonotonicTimeMs()
}

// PrepareMessage frames plaintext into a complete outbound wire datagram
// addressed to the session handle resolves to. privacy requests header
// obfuscation on an authenticated session's datagram; it has no effect on
// an unauthenticated one, which is never encrypted. isControl stamps the
// packet header's control-message bit; the bit is carried as given and does
// not change which send counter is used (ControlMessageCountersEnabled is
// not read here or anywhere else).
func (m *Manager) PrepareMessage(handle SessionHandle, payloadHeader *message.ProtocolHeader, plaintext []byte, privacy, isControl bool) (*EncryptedPacketBuffer, error) {
	if m.state != Initialized {
		return nil, ErrIncorrectState
	}

	header := &message.MessageHeader{Control: isControl}

	if handle.Authenticated {
		pc := m.authenticated.FindBySessionID(handle.LocalSessionID)
		if pc == nil {
			return nil, ErrNotConnected
		}

		data, err := pc.encrypt(header, payloadHeader, plaintext, privacy)
		if err != nil {
			return nil, err
		}
		if err := pc.commitSendCounter(); err != nil {
			return nil, err
		}

		return &EncryptedPacketBuffer{Session: handle, Data: data}, nil
	}

	u := m.unauthenticated.FindOrAllocate(handle.PeerAddress, m.nowMs())
	m.unauthenticated.MarkActive(u, m.nowMs())
	data := u.encode(header, payloadHeader, plaintext)
	if err := u.commitSendCounter(); err != nil {
		return nil, err
	}

	return &EncryptedPacketBuffer{Session: handle, Data: data}, nil
}

// SendPrepared hands a prepared buffer to the transport, marking its
// session active first. Returns ErrInvalidMessageLength for a chained
// buffer, ErrNotConnected if the session no longer resolves.
func (m *Manager) SendPrepared(buf *EncryptedPacketBuffer) error {
	if m.state != Initialized {
		return ErrIncorrectState
	}
	if buf == nil {
		return ErrInvalidArgument
	}
	if buf.Chained {
		return ErrInvalidMessageLength
	}

	addr, ok := m.resolveDestination(buf.Session)
	if !ok {
		return ErrNotConnected
	}

	if m.log != nil {
		m.log.Debugf("sending %d bytes to %v at %d", len(buf.Data), addr, m.nowMs())
	}

	return m.transport.Send(buf.Data, addr)
}

func (m *Manager) resolveDestination(handle SessionHandle) (transport.PeerAddress, bool) {
	if handle.Authenticated {
		pc := m.authenticated.FindBySessionID(handle.LocalSessionID)
		if pc == nil {
			return transport.PeerAddress{}, false
		}
		m.authenticated.MarkActive(pc, m.nowMs())
		return pc.PeerAddress(), true
	}

	u := m.unauthenticated.FindOrAllocate(handle.PeerAddress, m.nowMs())
	m.unauthenticated.MarkActive(u, m.nowMs())
	return u.PeerAddress(), true
}

// NewPairing installs a new authenticated session from a completed
// pairing, replacing any existing session with the same local session ID.
func (m *Manager) NewPairing(peerAddr transport.PeerAddress, peerNodeID fabric.NodeID, pairing PairingSession, role Role, fabricIndex fabric.FabricIndex) (SessionHandle, error) {
	if m.state != Initialized {
		return SessionHandle{}, ErrIncorrectState
	}
	if !role.IsValid() {
		return SessionHandle{}, ErrInvalidArgument
	}
	if peerAddr.IsValid() && !m.config.AllowStreamPairingAddress && peerAddr.TransportType != transport.TransportTypeBLE {
		return SessionHandle{}, ErrInvalidArgument
	}
	if m.fabrics != nil && !m.fabrics.IsMember(fabricIndex) {
		return SessionHandle{}, ErrInvalidArgument
	}

	var localNodeID fabric.NodeID
	if m.fabrics != nil {
		if info, ok := m.fabrics.Get(fabricIndex); ok {
			localNodeID = info.NodeID
		}
	}

	keyMaterial := make([]byte, 2*SessionKeySize)
	if err := pairing.DeriveSecureSession(keyMaterial, role); err != nil {
		return SessionHandle{}, err
	}

	if existing := m.authenticated.FindBySessionID(pairing.LocalSessionID()); existing != nil {
		m.authenticated.Remove(existing)
		m.onEvicted(existing)
	}

	cfg := peerConnectionConfig{
		peerNodeID:     peerNodeID,
		localNodeID:    localNodeID,
		peerAddress:    peerAddr,
		fabricIndex:    fabricIndex,
		localSessionID: pairing.LocalSessionID(),
		peerSessionID:  pairing.PeerSessionID(),
		role:           role,
		keyMaterial:    keyMaterial,
		peerCounter:    pairing.PeerCounter(),
		windowSize:     m.config.ReplayWindowSize,
		nowMs:          m.nowMs(),
	}

	pc, err := m.authenticated.Create(cfg, m.onEvicted)
	if err != nil {
		return SessionHandle{}, err
	}

	handle := AuthenticatedHandle(pc.fabricIndex, pc.peerNodeID, pc.localSessionID)
	if m.delegate != nil {
		m.delegate.OnNewConnection(handle)
	}
	return handle, nil
}

func (m *Manager) onEvicted(pc *PeerConnectionState) {
	if m.delegate != nil {
		m.delegate.OnConnectionExpired(AuthenticatedHandle(pc.fabricIndex, pc.peerNodeID, pc.localSessionID))
	}
}

// ExpirePairing removes the session handle resolves to. A no-op if it
// does not resolve to an authenticated session.
func (m *Manager) ExpirePairing(handle SessionHandle) {
	if !handle.Authenticated {
		return
	}
	pc := m.authenticated.FindBySessionID(handle.LocalSessionID)
	if pc == nil {
		return
	}
	m.authenticated.Remove(pc)
	if m.delegate != nil {
		m.delegate.OnConnectionExpired(handle)
	}
}

// ExpireAllPairings removes every authenticated session to nodeID on
// fabricIndex.
func (m *Manager) ExpireAllPairings(nodeID fabric.NodeID, fabricIndex fabric.FabricIndex) {
	for _, pc := range m.authenticated.FindByNodeID(fabricIndex, nodeID) {
		m.authenticated.Remove(pc)
		if m.delegate != nil {
			m.delegate.OnConnectionExpired(AuthenticatedHandle(pc.fabricIndex, pc.peerNodeID, pc.localSessionID))
		}
	}
}

// ExpireAllPairingsForFabric removes every authenticated session bound to
// fabricIndex.
func (m *Manager) ExpireAllPairingsForFabric(fabricIndex fabric.FabricIndex) {
	for _, pc := range m.authenticated.FindByFabric(fabricIndex) {
		m.authenticated.Remove(pc)
		if m.delegate != nil {
			m.delegate.OnConnectionExpired(AuthenticatedHandle(pc.fabricIndex, pc.peerNodeID, pc.localSessionID))
		}
	}
}

func (m *Manager) onExpiryTick() {
	now := m.nowMs()
	m.authenticated.ExpireInactive(now, m.config.PeerConnectionTimeoutMs, func(pc *PeerConnectionState) {
		handle := AuthenticatedHandle(pc.fabricIndex, pc.peerNodeID, pc.localSessionID)
		if m.delegate != nil {
			m.delegate.OnConnectionExpired(handle)
		}
		if m.transport != nil {
			m.transport.Disconnect(pc.PeerAddress())
		}
	})

	if m.sysLayer != nil && m.state == Initialized {
		m.expiryTimer = m.sysLayer.StartTimer(m.config.PeerConnectionTimeoutCheckFrequencyMs, m.onExpiryTick)
	}
}

// onTransportMessage is the transport's upward entry point, registered via
// SetHandler during Init. It implements the inbound-dispatch
// algorithm.
func (m *Manager) onTransportMessage(msg *transport.ReceivedMessage) {
	var header message.MessageHeader
	if _, err := header.Decode(msg.Data); err != nil {
		if m.delegate != nil {
			m.delegate.OnReceiveError(err, msg.PeerAddr)
		}
		return
	}

	if header.IsSecure() {
		m.secureDispatch(&header, msg.Data, msg.PeerAddr)
		return
	}
	m.plaintextDispatch(&header, msg.Data, msg.PeerAddr)
}

func (m *Manager) plaintextDispatch(header *message.MessageHeader, data []byte, peerAddr transport.PeerAddress) {
	u := m.unauthenticated.FindOrAllocate(peerAddr, m.nowMs())

	if err := u.verifyPeerCounter(header.MessageCounter); err != nil {
		if m.log != nil {
			m.log.Warnf("dropping unauthenticated message from %v: %v", peerAddr, err)
		}
		return
	}

	m.unauthenticated.MarkActive(u, m.nowMs())

	frame, err := u.decode(data)
	if err != nil {
		if m.delegate != nil {
			m.delegate.OnReceiveError(err, peerAddr)
		}
		return
	}

	u.commitPeerCounter(header.MessageCounter)

	if m.delegate != nil {
		m.delegate.OnMessageReceived(header, &frame.Protocol, UnauthenticatedHandle(peerAddr), peerAddr, false, frame.Payload)
	}
}

func (m *Manager) secureDispatch(header *message.MessageHeader, data []byte, peerAddr transport.PeerAddress) {
	pc := m.authenticated.FindBySessionID(header.SessionID)
	if pc == nil {
		if m.delegate != nil {
			m.delegate.OnReceiveError(ErrKeyNotFoundFromPeer, peerAddr)
		}
		return
	}

	if !pc.peerCounterSynchronized() && !header.Control {
		if m.counterSync != nil {
			m.counterSync.QueueReceivedMessageAndStartSync(pc.localSessionID, pc.peerNodeID, data)
		}
		return
	}

	isDuplicate := false
	if err := pc.verifyPeerCounter(header.MessageCounter); err != nil {
		switch err {
		case counter.ErrDuplicateMessageReceived:
			isDuplicate = true
		default:
			if m.log != nil {
				m.log.Warnf("dropping message from session %d: %v", pc.localSessionID, err)
			}
			return
		}
	}

	m.authenticated.MarkActive(pc, m.nowMs())

	frame, err := pc.decrypt(data)
	if err != nil {
		if m.log != nil {
			m.log.Warnf("dropping undecryptable message on session %d: %v", pc.localSessionID, err)
		}
		return
	}

	if isDuplicate && !frame.Protocol.NeedsAck() {
		return
	}

	pc.commitPeerCounter(header.MessageCounter)

	if peerAddr.String() != pc.PeerAddress().String() {
		pc.SetPeerAddress(peerAddr)
	}

	handle := AuthenticatedHandle(pc.fabricIndex, pc.peerNodeID, pc.localSessionID)
	if m.delegate != nil {
		m.delegate.OnMessageReceived(header, &frame.Protocol, handle, peerAddr, isDuplicate, frame.Payload)
	}
}
