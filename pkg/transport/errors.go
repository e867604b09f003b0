package transport

import "errors"

// Sentinel errors returned by the transport implementations in this package.
var (
	// ErrClosed is returned by any operation on a transport that has already
	// been closed.
	ErrClosed = errors.New("transport: closed")

	// ErrInvalidAddress is returned when a peer address fails validation
	// (wrong transport type, empty host, zero port, and so on).
	ErrInvalidAddress = errors.New("transport: invalid address")

	// ErrNoHandler is returned by NewUDP, NewTCP and NewManager when the
	// config carries no MessageHandler.
	ErrNoHandler = errors.New("transport: no message handler configured")

	// ErrNotStarted names use of a transport before Start. No function in
	// this package returns it.
	ErrNotStarted = errors.New("transport: not started")

	// ErrAlreadyStarted is returned when Start is called on a transport
	// that is already running.
	ErrAlreadyStarted = errors.New("transport: already started")

	// ErrConnectionNotFound names a stream transport having no open
	// connection to the requested peer. No function in this package
	// returns it.
	ErrConnectionNotFound = errors.New("transport: connection not found for peer")

	// ErrSendFailed names a socket/connection write failure. No function in
	// this package returns or wraps it.
	ErrSendFailed = errors.New("transport: send failed")

	// ErrMessageTooLarge is returned when a datagram exceeds the transport's
	// maximum frame size.
	ErrMessageTooLarge = errors.New("transport: message too large")
)
