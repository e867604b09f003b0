package sysclock

import "time"

// Real is a SystemLayer backed by the standard library's wall clock and
// time.AfterFunc, the same primitive a retransmit timer would use.
type Real struct {
	start time.Time
}

// NewReal creates a SystemLayer whose MonotonicTimeMs is measured from the
// moment of construction.
func NewReal() *Real {
	return &Real{start: time.Now()}
}

func (r *Real) StartTimer(delayMs uint64, callback func()) Timer {
	t := time.AfterFunc(time.Duration(delayMs)*time.Millisecond, callback)
	return realTimer{t}
}

func (r *Real) MonotonicTimeMs() uint64 {
	return uint64(time.Since(r.start).Milliseconds())
}

type realTimer struct {
	t *time.Timer
}

func (r realTimer) Cancel() { r.t.Stop() }
