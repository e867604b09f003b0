package session

import "errors"

// Preconditions.
var (
	// ErrIncorrectState is returned when a call is made in the wrong
	// lifecycle state (e.g. any operation but Init before Init, or Init
	// twice without an intervening Shutdown).
	ErrIncorrectState = errors.New("session: incorrect state")

	// ErrInvalidArgument is returned for null/invalid inputs, such as a nil
	// transport passed to Init or a peer address of the wrong transport kind
	// passed to NewPairing.
	ErrInvalidArgument = errors.New("session: invalid argument")
)

// Resource errors.
var (
	// ErrNoMemory is returned when the authenticated session table is full
	// and no slot could be evicted to make room.
	ErrNoMemory = errors.New("session: no memory")
)

// Routing errors.
var (
	// ErrNotConnected is returned when sending against a handle that does
	// not resolve to a live session.
	ErrNotConnected = errors.New("session: not connected")

	// ErrKeyNotFoundFromPeer is returned when an encrypted datagram's
	// session id matches no authenticated session.
	ErrKeyNotFoundFromPeer = errors.New("session: key not found from peer")
)

// Framing errors.
var (
	// ErrInvalidMessageLength is returned when send_prepared is given a
	// chained (scatter/gather) buffer, which this implementation refuses
	// exactly as the source does.
	ErrInvalidMessageLength = errors.New("session: invalid message length (chained buffer)")
)

// Counter errors with the same meaning as the pkg/counter sentinels. They are
// distinct values that do not wrap those errors; the manager's dispatch
// compares against the pkg/counter sentinels directly.
var (
	// ErrDuplicateMessageReceived mirrors counter.ErrDuplicateMessageReceived.
	ErrDuplicateMessageReceived = errors.New("session: duplicate message received")

	// ErrMessageCounterOutOfWindow mirrors counter.ErrMessageCounterOutOfWindow.
	ErrMessageCounterOutOfWindow = errors.New("session: message counter out of window")
)

// Crypto errors.
var (
	// ErrDecryptionFailed is returned when the codec fails to authenticate
	// or decrypt a received datagram.
	ErrDecryptionFailed = errors.New("session: decryption failed")
)

// ErrInvalidRole is returned when a session role value is neither
// Initiator nor Responder.
var ErrInvalidRole = errors.New("session: invalid session role")
