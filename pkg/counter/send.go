package counter

import (
	"crypto/rand"
	"encoding/binary"
)

// Send is a monotonic 32-bit message counter used on the sending side,
// either as the per-session encrypted counter or the node-global
// unencrypted counter. It carries no lock: the session manager's
// cooperative scheduling model serializes every call into it.
//
// This mirrors a monotonic message/session counter,
// split apart from peer-side replay tracking.
type Send struct {
	value     uint32
	exhausted bool
}

// NewSend creates a send counter seeded with a random value in [1, 2^28],
// the same random initialization a Crypto_DRBG-seeded counter performs.
func NewSend() *Send {
	return &Send{value: randomInit()}
}

// NewSendWithValue creates a send counter with a specific initial value.
// Used to restore a persisted counter or for deterministic tests.
func NewSendWithValue(initial uint32) *Send {
	return &Send{value: initial}
}

// Value returns the counter value that the next outgoing message should
// carry, without advancing the counter.
func (c *Send) Value() uint32 {
	return c.value
}

// Advance increments the counter so the next call to Value returns a fresh
// value. The session manager reads Value() to stamp a message and calls
// Advance() as soon as the message is framed, in PrepareMessage, before
// SendPrepared hands it to the transport. Returns ErrCounterExhausted if the
// counter has already wrapped past uint32 max; the owning session must then
// be torn down.
func (c *Send) Advance() error {
	if c.exhausted {
		return ErrCounterExhausted
	}
	c.value++
	if c.value == 0 {
		c.exhausted = true
	}
	return nil
}

// IsExhausted reports whether the counter has wrapped.
func (c *Send) IsExhausted() bool {
	return c.exhausted
}

// randomInit generates a random initial counter value in [1, 2^28], per
// a DRBG-seeded counter init (Crypto_DRBG(len=28) + 1).
func randomInit() uint32 {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 1
	}
	value := binary.LittleEndian.Uint32(buf[:])
	return (value & (initMax - 1)) + 1
}
