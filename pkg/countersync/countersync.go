// Package countersync provides the collaborator the session manager defers
// to when an authenticated session receives a message before its peer
// counter has a synchronized baseline: instead of rejecting the message
// outright, it queues the message and kicks off an out-of-band exchange to
// learn the peer's real counter value.
package countersync

import "github.com/backkem/securesession/pkg/fabric"

// Service is the counter-synchronization collaborator. The session manager
// calls QueueReceivedMessageAndStartSync when its inbound secure dispatch
// finds a session whose peer counter is unsynchronized; once the
// service has learned the peer's counter (by whatever out-of-band exchange
// it implements), it is expected to call back into the session manager to
// install the counter and redeliver the held message.
type Service interface {
	QueueReceivedMessageAndStartSync(localSessionID uint16, peerNodeID fabric.NodeID, message []byte)
}

// Immediate is a minimal Service stand-in: it has no real synchronization
// protocol to run, so it simply drops the queued message. Suitable for
// tests and for deployments where every session always starts
// pre-synchronized (e.g. because NewPairing is always given a concrete
// starting counter by its pairing engine).
type Immediate struct {
	Dropped []DroppedMessage
}

// DroppedMessage records a message Immediate discarded, for test assertions.
type DroppedMessage struct {
	LocalSessionID uint16
	PeerNodeID     fabric.NodeID
	Message        []byte
}

func NewImmediate() *Immediate { return &Immediate{} }

func (i *Immediate) QueueReceivedMessageAndStartSync(localSessionID uint16, peerNodeID fabric.NodeID, message []byte) {
	i.Dropped = append(i.Dropped, DroppedMessage{localSessionID, peerNodeID, message})
}
