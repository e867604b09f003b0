package session

import (
	"testing"

	"github.com/backkem/securesession/pkg/fabric"
	"github.com/backkem/securesession/pkg/transport"
)

func testKeyMaterial() []byte {
	return make([]byte, 2*SessionKeySize)
}

func testConfig(fabricIndex fabric.FabricIndex, peerNodeID fabric.NodeID, peerSessionID uint16) peerConnectionConfig {
	return peerConnectionConfig{
		peerNodeID:    peerNodeID,
		localNodeID:   fabric.NodeID(1),
		fabricIndex:   fabricIndex,
		peerSessionID: peerSessionID,
		role:          RoleInitiator,
		keyMaterial:   testKeyMaterial(),
		windowSize:    0,
	}
}

func TestNewPeerConnections(t *testing.T) {
	t.Run("default max sessions", func(t *testing.T) {
		table := NewPeerConnections(0)
		if table.MaxSessions() != DefaultMaxAuthenticatedSessions {
			t.Errorf("MaxSessions() = %d, want %d", table.MaxSessions(), DefaultMaxAuthenticatedSessions)
		}
	})

	t.Run("initial state", func(t *testing.T) {
		table := NewPeerConnections(10)
		if table.Count() != 0 {
			t.Errorf("Count() = %d, want 0", table.Count())
		}
		if table.IsFull() {
			t.Error("IsFull() should be false for empty table")
		}
	})
}

func TestPeerConnections_CreateAllocatesUniqueIDs(t *testing.T) {
	table := NewPeerConnections(100)
	ids := make(map[uint16]bool)

	for i := 0; i < 10; i++ {
		pc, err := table.Create(testConfig(1, fabric.NodeID(i+1), uint16(i+1)), nil)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if pc.LocalSessionID() == 0 {
			t.Error("Create() assigned session ID 0, which is reserved")
		}
		if ids[pc.LocalSessionID()] {
			t.Errorf("Create() returned duplicate local session ID: %d", pc.LocalSessionID())
		}
		ids[pc.LocalSessionID()] = true
	}
}

func TestPeerConnections_CreateEvictsLRUWhenFull(t *testing.T) {
	table := NewPeerConnections(2)

	var evicted *PeerConnectionState
	onEvict := func(pc *PeerConnectionState) { evicted = pc }

	first, err := table.Create(testConfig(1, fabric.NodeID(1), 1), onEvict)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	_, err = table.Create(testConfig(1, fabric.NodeID(2), 2), onEvict)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if evicted != nil {
		t.Fatalf("unexpected eviction before table is full")
	}

	third, err := table.Create(testConfig(1, fabric.NodeID(3), 3), onEvict)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if evicted == nil {
		t.Fatal("expected eviction when table is full")
	}
	if evicted.LocalSessionID() != first.LocalSessionID() {
		t.Errorf("evicted session = %d, want least-recently-active session %d", evicted.LocalSessionID(), first.LocalSessionID())
	}
	if table.Count() != 2 {
		t.Errorf("Count() = %d, want 2", table.Count())
	}
	if table.FindBySessionID(third.LocalSessionID()) == nil {
		t.Error("newly created session should still be present")
	}
}

func TestPeerConnections_MarkActiveReordersLRU(t *testing.T) {
	table := NewPeerConnections(2)

	first, _ := table.Create(testConfig(1, fabric.NodeID(1), 1), nil)
	_, _ = table.Create(testConfig(1, fabric.NodeID(2), 2), nil)

	// Touch the first entry so it's no longer the least-recently-active one.
	table.MarkActive(first, 100)

	var evicted *PeerConnectionState
	third, err := table.Create(testConfig(1, fabric.NodeID(3), 3), func(pc *PeerConnectionState) { evicted = pc })
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if evicted == nil || evicted.LocalSessionID() == first.LocalSessionID() {
		t.Errorf("expected the untouched entry to be evicted, got %v", evicted)
	}
	if table.FindBySessionID(third.LocalSessionID()) == nil {
		t.Error("newly created session should be present")
	}
}

func TestPeerConnections_FindByNodeIDAndFabric(t *testing.T) {
	table := NewPeerConnections(10)

	a, _ := table.Create(testConfig(1, fabric.NodeID(42), 1), nil)
	b, _ := table.Create(testConfig(1, fabric.NodeID(42), 2), nil)
	_, _ = table.Create(testConfig(2, fabric.NodeID(42), 3), nil)

	matches := table.FindByNodeID(1, fabric.NodeID(42))
	if len(matches) != 2 {
		t.Fatalf("FindByNodeID() returned %d entries, want 2", len(matches))
	}
	seen := map[uint16]bool{a.LocalSessionID(): false, b.LocalSessionID(): false}
	for _, m := range matches {
		seen[m.LocalSessionID()] = true
	}
	for id, found := range seen {
		if !found {
			t.Errorf("expected session %d in FindByNodeID results", id)
		}
	}

	fabricMatches := table.FindByFabric(1)
	if len(fabricMatches) != 2 {
		t.Errorf("FindByFabric(1) returned %d entries, want 2", len(fabricMatches))
	}
}

func TestPeerConnections_Remove(t *testing.T) {
	table := NewPeerConnections(10)
	pc, _ := table.Create(testConfig(1, fabric.NodeID(1), 1), nil)

	table.Remove(pc)
	if table.Count() != 0 {
		t.Errorf("Count() = %d, want 0 after Remove", table.Count())
	}
	if table.FindBySessionID(pc.LocalSessionID()) != nil {
		t.Error("expected FindBySessionID to return nil after Remove")
	}

	// Removing again is a no-op.
	table.Remove(pc)
}

func TestPeerConnections_ExpireInactive(t *testing.T) {
	table := NewPeerConnections(10)
	stale, _ := table.Create(testConfig(1, fabric.NodeID(1), 1), nil)
	fresh, _ := table.Create(testConfig(1, fabric.NodeID(2), 2), nil)

	table.MarkActive(stale, 0)
	table.MarkActive(fresh, 9_000)

	var expired []*PeerConnectionState
	table.ExpireInactive(10_000, 5_000, func(pc *PeerConnectionState) {
		expired = append(expired, pc)
	})

	if len(expired) != 1 || expired[0].LocalSessionID() != stale.LocalSessionID() {
		t.Fatalf("ExpireInactive() expired %v, want only the stale session", expired)
	}
	if table.FindBySessionID(stale.LocalSessionID()) != nil {
		t.Error("stale session should have been removed")
	}
	if table.FindBySessionID(fresh.LocalSessionID()) == nil {
		t.Error("fresh session should still be present")
	}
}

func TestUnauthenticatedSessions_FindOrAllocate(t *testing.T) {
	table := newUnauthenticatedSessions(2)
	addr, _ := transport.UDPAddrFromString("127.0.0.1:1000")

	u1 := table.FindOrAllocate(addr, 0)
	u2 := table.FindOrAllocate(addr, 10)
	if u1 != u2 {
		t.Error("FindOrAllocate() should return the same entry for the same address")
	}
}

func TestUnauthenticatedSessions_EvictsLRUWhenFull(t *testing.T) {
	table := newUnauthenticatedSessions(2)
	addr1, _ := transport.UDPAddrFromString("127.0.0.1:1000")
	addr2, _ := transport.UDPAddrFromString("127.0.0.1:1001")
	addr3, _ := transport.UDPAddrFromString("127.0.0.1:1002")

	table.FindOrAllocate(addr1, 0)
	table.FindOrAllocate(addr2, 1)
	table.FindOrAllocate(addr3, 2)

	if u := table.FindOrAllocate(addr1, 3); u.LastActivityTimeMs() == 0 {
		t.Error("expected addr1's original entry to have been evicted and recreated")
	}
}
