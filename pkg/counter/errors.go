// Package counter implements the message counter primitives used to
// prevent replay of secure-session traffic: a monotonic send counter and a
// peer receive counter backed by a sliding-window bitmap.
//
// The session manager owns the single-threaded cooperative scheduling model
// (see pkg/session), so unlike a combined message-counter/reception-state type and
// ReceptionState, these types carry no internal mutex — callers are
// expected to serialize access themselves.
package counter

import "errors"

var (
	// ErrCounterExhausted is returned when a send counter has wrapped past
	// its maximum value. The session it belongs to can no longer send and
	// must be torn down and re-established.
	ErrCounterExhausted = errors.New("counter: exhausted")

	// ErrNotSynchronized is returned by Verify when the peer counter has not
	// yet been given a baseline via SetCounter or Commit, and the counter is
	// not in trust-first-use mode.
	ErrNotSynchronized = errors.New("counter: not synchronized")

	// ErrMessageCounterOutOfWindow is returned when a received counter falls
	// behind the sliding replay window entirely.
	ErrMessageCounterOutOfWindow = errors.New("counter: message counter out of window")

	// ErrDuplicateMessageReceived is returned when a received counter has
	// already been seen (equal to the max, or marked in the window bitmap).
	ErrDuplicateMessageReceived = errors.New("counter: duplicate message received")
)

const (
	// DefaultWindowSize is the default width, in bits, of the peer receive
	// counter's sliding replay window. Matter fixes this at 32; this
	// implementation widens it to a configurable size, backed by a uint64 bitmap, so a
	// session can tolerate more reordering before rejecting a counter as
	// out-of-window.
	DefaultWindowSize = 64

	// MaxWindowSize is the largest window this implementation supports,
	// bounded by the uint64 bitmap.
	MaxWindowSize = 64

	// initMax is the maximum initial counter value: counters are seeded to
	// a random value in [1, initMax], mirroring Matter's
	// randomCounterInit (CounterInitMax = 2^28).
	initMax = 1 << 28
)
