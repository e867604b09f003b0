// Package sysclock provides the system-layer abstraction the session
// manager schedules its idle-expiry sweep through: a monotonic clock plus
// a single-shot timer. Its shape follows the retransmit-timer abstraction
// retransmit timer, which used a per-entry time.AfterFunc; this package
// generalizes that pattern into a reusable collaborator and adds a fake
// implementation for deterministic tests.
package sysclock

// Timer is a handle to a scheduled callback. Canceling a timer that has
// already fired is a no-op.
type Timer interface {
	Cancel()
}

// SystemLayer is the external collaborator the session manager uses for
// timing: it never calls time.Now or time.AfterFunc directly, so that
// tests can substitute a fake clock and drive the expiry sweep
// deterministically.
type SystemLayer interface {
	// StartTimer arranges for callback to run after delayMs milliseconds.
	StartTimer(delayMs uint64, callback func()) Timer

	// MonotonicTimeMs returns a monotonically increasing timestamp in
	// milliseconds. The zero point is unspecified; only differences between
	// calls are meaningful.
	MonotonicTimeMs() uint64
}
