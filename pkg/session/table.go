package session

import (
	"github.com/backkem/securesession/pkg/fabric"
	"github.com/backkem/securesession/pkg/transport"
)

// Session ID constants.
const (
	// MinSessionID is the minimum valid secure local session ID. ID 0 is
	// reserved for unauthenticated traffic.
	MinSessionID uint16 = 1

	// DefaultMaxAuthenticatedSessions is the default capacity of a
	// PeerConnections table.
	DefaultMaxAuthenticatedSessions = 16

	// DefaultMaxUnauthenticatedSessions is the default capacity of an
	// unauthenticatedSessions table.
	DefaultMaxUnauthenticatedSessions = 4
)

// PeerConnections is the authenticated-session table: it owns every
// PeerConnectionState keyed by local_session_id, evicts the
// least-recently-active entry when full, and sweeps entries that have gone
// idle past a configured threshold.
//
// It uses the same intrusive LRU list as unauthenticatedSessions, adds the
// idle sweep, and carries no lock of its own; it relies on the Manager's
// callers serializing every call into it.
type PeerConnections struct {
	sessions    map[uint16]*PeerConnectionState
	maxSessions int
	nextID      uint16

	lruHead, lruTail *PeerConnectionState // lruHead = most recently active
}

// NewPeerConnections creates an authenticated session table. maxSessions <=
// 0 uses DefaultMaxAuthenticatedSessions.
func NewPeerConnections(maxSessions int) *PeerConnections {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxAuthenticatedSessions
	}
	return &PeerConnections{
		sessions:    make(map[uint16]*PeerConnectionState),
		maxSessions: maxSessions,
		nextID:      MinSessionID,
	}
}

func (t *PeerConnections) allocateID() uint16 {
	startID := t.nextID
	for {
		id := t.nextID
		t.nextID++
		if t.nextID == 0 {
			t.nextID = MinSessionID
		}
		if _, exists := t.sessions[id]; !exists {
			return id
		}
		if t.nextID == startID {
			return 0 // exhausted, should be unreachable given maxSessions <= 0xFFFF
		}
	}
}

// Create inserts a new PeerConnectionState for the given config. If
// cfg.localSessionID is zero, one is auto-allocated; otherwise the given
// id is honored verbatim (used when a pairing negotiated a specific local
// session id up front). If the table is at capacity, the
// least-recently-active existing entry is evicted first and passed to
// onEvict (which should run the connection-expired delegate callback)
// before the new entry is installed.
func (t *PeerConnections) Create(cfg peerConnectionConfig, onEvict func(*PeerConnectionState)) (*PeerConnectionState, error) {
	if len(t.sessions) >= t.maxSessions {
		if t.lruTail == nil {
			return nil, ErrNoMemory
		}
		evicted := t.lruTail
		t.unlink(evicted)
		delete(t.sessions, evicted.localSessionID)
		if onEvict != nil {
			onEvict(evicted)
		}
	}

	if cfg.localSessionID == 0 {
		cfg.localSessionID = t.allocateID()
		if cfg.localSessionID == 0 {
			return nil, ErrNoMemory
		}
	}

	pc, err := newPeerConnectionState(cfg)
	if err != nil {
		return nil, err
	}

	t.sessions[pc.localSessionID] = pc
	t.pushFront(pc)
	return pc, nil
}

// MarkActive moves pc to the front of the LRU list and stamps its
// last-activity time.
func (t *PeerConnections) MarkActive(pc *PeerConnectionState, nowMs uint64) {
	pc.markActive(nowMs)
	t.unlink(pc)
	t.pushFront(pc)
}

// Remove deletes pc from the table. A no-op if pc is not present.
func (t *PeerConnections) Remove(pc *PeerConnectionState) {
	if _, ok := t.sessions[pc.localSessionID]; !ok {
		return
	}
	t.unlink(pc)
	delete(t.sessions, pc.localSessionID)
}

// FindBySessionID looks up a session by local session ID.
func (t *PeerConnections) FindBySessionID(id uint16) *PeerConnectionState {
	return t.sessions[id]
}

// FindByNodeID returns every session to nodeID on fabricIndex.
func (t *PeerConnections) FindByNodeID(fabricIndex fabric.FabricIndex, nodeID fabric.NodeID) []*PeerConnectionState {
	var result []*PeerConnectionState
	for _, pc := range t.sessions {
		if pc.fabricIndex == fabricIndex && pc.peerNodeID == nodeID {
			result = append(result, pc)
		}
	}
	return result
}

// FindByFabric returns every session bound to fabricIndex.
func (t *PeerConnections) FindByFabric(fabricIndex fabric.FabricIndex) []*PeerConnectionState {
	var result []*PeerConnectionState
	for _, pc := range t.sessions {
		if pc.fabricIndex == fabricIndex {
			result = append(result, pc)
		}
	}
	return result
}

// Count returns the number of active authenticated sessions.
func (t *PeerConnections) Count() int { return len(t.sessions) }

// IsFull reports whether the table is at capacity.
func (t *PeerConnections) IsFull() bool { return len(t.sessions) >= t.maxSessions }

// MaxSessions returns the table's capacity.
func (t *PeerConnections) MaxSessions() int { return t.maxSessions }

// ExpireInactive evicts every session whose last activity is older than
// maxIdleMs relative to nowMs, invoking onExpire for each. Matches
// the idle sweep driven by the session manager's
// periodic timer.
func (t *PeerConnections) ExpireInactive(nowMs, maxIdleMs uint64, onExpire func(*PeerConnectionState)) {
	var stale []*PeerConnectionState
	for _, pc := range t.sessions {
		if nowMs-pc.lastActivityTimeMs > maxIdleMs {
			stale = append(stale, pc)
		}
	}
	for _, pc := range stale {
		t.Remove(pc)
		if onExpire != nil {
			onExpire(pc)
		}
	}
}

func (t *PeerConnections) pushFront(pc *PeerConnectionState) {
	pc.lruPrev = nil
	pc.lruNext = t.lruHead
	if t.lruHead != nil {
		t.lruHead.lruPrev = pc
	}
	t.lruHead = pc
	if t.lruTail == nil {
		t.lruTail = pc
	}
}

func (t *PeerConnections) unlink(pc *PeerConnectionState) {
	if pc.lruPrev != nil {
		pc.lruPrev.lruNext = pc.lruNext
	} else if t.lruHead == pc {
		t.lruHead = pc.lruNext
	}
	if pc.lruNext != nil {
		pc.lruNext.lruPrev = pc.lruPrev
	} else if t.lruTail == pc {
		t.lruTail = pc.lruPrev
	}
	pc.lruPrev, pc.lruNext = nil, nil
}

// unauthenticatedSessions is the unauthenticated-session table, keyed by
// peer address rather than session ID. It is LRU-only: unauthenticated
// peers are never swept for idleness, only evicted to make room for a new
// one.
type unauthenticatedSessions struct {
	// byAddr is keyed by PeerAddress.String() rather than the PeerAddress
	// value itself: PeerAddress wraps a net.Addr, and the concrete address
	// types behind it (e.g. *net.UDPAddr) embed a net.IP byte slice, which
	// is not comparable — using PeerAddress directly as a map key would
	// panic as soon as two addresses were compared.
	byAddr      map[string]*UnauthenticatedSession
	maxSessions int

	lruHead, lruTail *UnauthenticatedSession
}

func newUnauthenticatedSessions(maxSessions int) *unauthenticatedSessions {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxUnauthenticatedSessions
	}
	return &unauthenticatedSessions{
		byAddr:      make(map[string]*UnauthenticatedSession),
		maxSessions: maxSessions,
	}
}

// FindOrAllocate returns the existing entry for addr, or allocates one,
// silently evicting the least-recently-active entry if the table is full.
//
// A lookup hit does NOT mark the entry active: the caller is expected to
// call MarkActive itself once it has done whatever validation the lookup
// was for (e.g. verifying the inbound counter), so that a flood of
// rejected datagrams can't refresh LRU recency ahead of that validation.
func (t *unauthenticatedSessions) FindOrAllocate(addr transport.PeerAddress, nowMs uint64) *UnauthenticatedSession {
	key := addr.String()
	if u, ok := t.byAddr[key]; ok {
		return u
	}

	if len(t.byAddr) >= t.maxSessions && t.lruTail != nil {
		evicted := t.lruTail
		t.unlink(evicted)
		delete(t.byAddr, evicted.peerAddress.String())
	}

	u := newUnauthenticatedSession(addr, nowMs)
	t.byAddr[key] = u
	t.pushFront(u)
	return u
}

// MarkActive moves u to the front of the LRU list and stamps its
// last-activity time.
func (t *unauthenticatedSessions) MarkActive(u *UnauthenticatedSession, nowMs uint64) {
	u.markActive(nowMs)
	t.unlink(u)
	t.pushFront(u)
}

func (t *unauthenticatedSessions) pushFront(u *UnauthenticatedSession) {
	u.lruPrev = nil
	u.lruNext = t.lruHead
	if t.lruHead != nil {
		t.lruHead.lruPrev = u
	}
	t.lruHead = u
	if t.lruTail == nil {
		t.lruTail = u
	}
}

func (t *unauthenticatedSessions) unlink(u *UnauthenticatedSession) {
	if u.lruPrev != nil {
		u.lruPrev.lruNext = u.lruNext
	} else if t.lruHead == u {
		t.lruHead = u.lruNext
	}
	if u.lruNext != nil {
		u.lruNext.lruPrev = u.lruPrev
	} else if t.lruTail == u {
		t.lruTail = u.lruPrev
	}
	u.lruPrev, u.lruNext = nil, nil
}
