package counter

// Peer tracks the highest counter seen from a peer plus a sliding-window
// bitmap of which of the preceding windowSize counters have already
// been accepted, for replay detection on the receive side.
//
// A naive reception-state implementation conflates checking and
// committing into one call (CheckAndAccept): it mutates state as part of
// deciding whether a counter is valid. That forces verification and
// acceptance to happen atomically, with no room for a decrypt step in
// between. This type keeps the same bitmap-shifting arithmetic but splits
// it into separate operations so a caller can run verify, then decrypt,
// then commit only once decryption has actually succeeded:
//
//	if err := peer.Verify(c); err != nil { ... reject ... }
//	plaintext, err := open(ciphertext)
//	if err != nil { ... reject, counter state untouched ... }
//	peer.Commit(c)
//
// A Peer starts in one of two modes, matching the two kinds of session the
// data model distinguishes:
//   - authenticated sessions start unsynchronized and trustFirstUse=false:
//     Verify returns ErrNotSynchronized until a counter-sync service calls
//     SetCounter to establish a baseline.
//   - unauthenticated sessions start unsynchronized and trustFirstUse=true
//     (see NewPeerTrustFirst): the first counter is accepted on sight and
//     Commit adopts it as the baseline.
type Peer struct {
	maxSeen       uint32
	window        uint64
	windowSize    uint
	synchronized  bool
	trustFirstUse bool
}

// NewPeer creates a peer counter for an authenticated session: it requires
// an explicit SetCounter call (from the counter-sync service) before it
// will accept anything.
func NewPeer(windowSize uint) *Peer {
	return &Peer{windowSize: clampWindow(windowSize)}
}

// NewPeerTrustFirst creates a peer counter for an unauthenticated session:
// the first counter presented to Verify/VerifyOrTrustFirst is accepted and
// becomes the baseline once committed.
func NewPeerTrustFirst(windowSize uint) *Peer {
	return &Peer{windowSize: clampWindow(windowSize), trustFirstUse: true}
}

func clampWindow(windowSize uint) uint {
	if windowSize == 0 || windowSize > MaxWindowSize {
		return DefaultWindowSize
	}
	return windowSize
}

// Verify reports whether counter would be accepted, without mutating any
// state. It returns nil if the counter is new: either the peer is still
// unsynchronized and in trust-first-use mode (the caller must follow up
// with Commit to adopt it as the baseline), or the peer is synchronized and
// the counter is ahead of the max seen, or within the window and not yet
// marked as received.
func (p *Peer) Verify(c uint32) error {
	if !p.synchronized {
		if p.trustFirstUse {
			return nil
		}
		return ErrNotSynchronized
	}
	return p.checkWindow(c)
}

// VerifyOrTrustFirst is the entry point unauthenticated sessions use: it
// accepts and (via a follow-up Commit) adopts the first counter seen, and
// behaves exactly like Verify afterward.
func (p *Peer) VerifyOrTrustFirst(c uint32) error {
	return p.Verify(c)
}

func (p *Peer) checkWindow(c uint32) error {
	if c > p.maxSeen {
		return nil
	}
	if c == p.maxSeen {
		return ErrDuplicateMessageReceived
	}
	behind := p.maxSeen - c
	if uint(behind) > p.windowSize {
		return ErrMessageCounterOutOfWindow
	}
	offset := behind - 1
	if p.window&(1<<offset) != 0 {
		return ErrDuplicateMessageReceived
	}
	return nil
}

// Commit records counter c as accepted. Call this only after a message
// that passed Verify has also passed decryption — committing a counter
// that was never actually processed opens a window for a genuine
// retransmission to be rejected as a duplicate.
func (p *Peer) Commit(c uint32) {
	if !p.synchronized {
		p.adopt(c)
		return
	}
	if c > p.maxSeen {
		p.advance(c)
		return
	}
	behind := p.maxSeen - c
	if uint(behind) <= p.windowSize {
		offset := behind - 1
		p.window |= 1 << offset
	}
}

// SetCounter establishes counter c as the synchronized baseline, discarding
// any prior window state. The counter-sync service calls this once it has
// learned the peer's current counter value for an authenticated session
// that started unsynchronized.
func (p *Peer) SetCounter(c uint32) {
	p.adopt(c)
}

func (p *Peer) adopt(c uint32) {
	p.maxSeen = c
	p.window = 0
	p.synchronized = true
}

// advance shifts the window forward to the new max, preserving the
// shift-and-mark-previous-max arithmetic: a jump past the window
// width resets the bitmap outright, otherwise the window is shifted left by
// the jump distance and the bit for the prior max is set.
func (p *Peer) advance(newMax uint32) {
	shift := newMax - p.maxSeen
	if uint(shift) > p.windowSize {
		p.window = 0
	} else {
		p.window = (p.window << shift) | (1 << (shift - 1))
	}
	p.maxSeen = newMax
}

// MaxSeen returns the highest counter committed so far.
func (p *Peer) MaxSeen() uint32 {
	return p.maxSeen
}

// Synchronized reports whether the peer counter has a baseline.
func (p *Peer) Synchronized() bool {
	return p.synchronized
}
