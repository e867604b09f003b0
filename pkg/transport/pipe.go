package transport

import (
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/pion/transport/v3/test"
)

// Factory builds the connections a transport needs: a packet connection for
// UDP-style traffic and, optionally, a listener for TCP. Production code
// wires a real net.Dial/net.Listen-backed Factory; tests wire a PipeFactory
// pair instead, so the session manager never has to know which it's talking
// to.
type Factory interface {
	// CreateUDPConn returns a packet connection bound to port.
	CreateUDPConn(port int) (net.PacketConn, error)

	// CreateTCPListener returns a listener bound to port, or nil if this
	// Factory doesn't support TCP.
	CreateTCPListener(port int) (net.Listener, error)
}

// NetworkCondition describes link impairments a Pipe should simulate, so
// retransmission/reordering-tolerant code paths can be exercised without a
// real lossy network.
type NetworkCondition struct {
	// DropRate is the probability (0.0-1.0) a written packet is silently
	// discarded instead of delivered.
	DropRate float64

	// DelayMin and DelayMax bound a uniformly distributed extra delay
	// applied to every write.
	DelayMin time.Duration
	DelayMax time.Duration

	// DuplicateRate is the probability (0.0-1.0) a written packet is
	// delivered twice.
	DuplicateRate float64

	// ReorderRate and ReorderDelay are accepted for configuration
	// compatibility with callers that set them, but are not yet
	// implemented by WriteTo.
	ReorderRate  float64
	ReorderDelay time.Duration
}

// PipeConfig configures a Pipe's background delivery behavior.
type PipeConfig struct {
	// AutoProcess runs a background goroutine that delivers queued packets
	// on a timer, so callers don't have to pump the pipe by hand. Default
	// true; tests that need deterministic packet ordering set this false
	// and call Tick/Process themselves.
	AutoProcess bool

	// ProcessInterval is how often the auto-processor goroutine checks for
	// queued packets. Default 1ms.
	ProcessInterval time.Duration
}

// DefaultPipeConfig returns {AutoProcess: true, ProcessInterval: 1ms}.
func DefaultPipeConfig() PipeConfig {
	return PipeConfig{
		AutoProcess:     true,
		ProcessInterval: 1 * time.Millisecond,
	}
}

// Pipe is an in-memory, full-duplex link between two endpoints, built on
// pion's test.Bridge and augmented with NetworkCondition simulation. It
// backs PipeFactory pairs in tests that need two transports talking to each
// other without touching a real socket.
type Pipe struct {
	bridge *test.Bridge

	mu              sync.RWMutex
	condition       NetworkCondition
	closed          bool
	rng             *rand.Rand
	autoProcess     bool
	processInterval time.Duration
	stopCh          chan struct{}
	wg              sync.WaitGroup
}

// NewPipe returns a Pipe with auto-processing enabled.
func NewPipe() *Pipe {
	return NewPipeWithConfig(DefaultPipeConfig())
}

// NewPipeWithConfig returns a Pipe configured per config.
func NewPipeWithConfig(config PipeConfig) *Pipe {
	p := &Pipe{
		bridge:          test.NewBridge(),
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
		autoProcess:     config.AutoProcess,
		processInterval: config.ProcessInterval,
		stopCh:          make(chan struct{}),
	}

	if config.ProcessInterval == 0 {
		p.processInterval = 1 * time.Millisecond
	}

	if p.autoProcess {
		p.startAutoProcess()
	}

	return p
}

func (p *Pipe) startAutoProcess() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.processInterval)
		defer ticker.Stop()

		for {
			select {
			case <-p.stopCh:
				return
			case <-ticker.C:
				p.bridge.Tick()
			}
		}
	}()
}

// SetAutoProcess starts or stops the background delivery goroutine.
// Disabling it is how a test takes manual control via Tick/Process.
func (p *Pipe) SetAutoProcess(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	if p.autoProcess == enabled {
		return
	}
	p.autoProcess = enabled

	if enabled {
		p.stopCh = make(chan struct{})
		p.startAutoProcess()
	} else {
		close(p.stopCh)
		p.wg.Wait()
	}
}

// AutoProcess reports whether the background delivery goroutine is running.
func (p *Pipe) AutoProcess() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.autoProcess
}

// SetCondition replaces the link impairment applied to writes in both
// directions.
func (p *Pipe) SetCondition(cond NetworkCondition) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.condition = cond
}

// Condition returns the currently configured NetworkCondition.
func (p *Pipe) Condition() NetworkCondition {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.condition
}

// Conn0 returns endpoint 0's connection.
func (p *Pipe) Conn0() net.Conn {
	return p.bridge.GetConn0()
}

// Conn1 returns endpoint 1's connection.
func (p *Pipe) Conn1() net.Conn {
	return p.bridge.GetConn1()
}

// Tick delivers one queued packet per direction, if any are waiting, and
// returns how many were delivered (0, 1, or 2). Callers running with
// AutoProcess disabled use this, or Process, to drive delivery by hand.
func (p *Pipe) Tick() int {
	return p.bridge.Tick()
}

// Process drains every queued packet and returns how many were delivered.
func (p *Pipe) Process() int {
	count := 0
	for {
		n := p.Tick()
		if n == 0 {
			break
		}
		count += n
	}
	return count
}

// Close stops the background delivery goroutine (if any) and closes both
// endpoints.
func (p *Pipe) Close() error {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true

	if p.autoProcess {
		close(p.stopCh)
	}
	p.mu.Unlock()

	p.wg.Wait()

	var errs []error
	if err := p.bridge.GetConn0().Close(); err != nil {
		errs = append(errs, err)
	}
	if err := p.bridge.GetConn1().Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// PipeAddr is a net.Addr identifying one logical endpoint of a Pipe.
type PipeAddr struct {
	ID   int // 0 or 1
	Port int
}

func (a PipeAddr) Network() string { return "pipe" }
func (a PipeAddr) String() string  { return fmt.Sprintf("pipe:%d:%d", a.ID, a.Port) }

// PipePacketConn adapts one side of a Pipe to net.PacketConn so it can sit
// behind the same UDP transport code a real socket would.
type PipePacketConn struct {
	conn     net.Conn
	localID  int
	port     int
	peerAddr net.Addr
	pipe     *Pipe
}

// ReadFrom reads the next packet; the returned address is always the
// pipe's fixed peer, since a Pipe only ever has one.
func (c *PipePacketConn) ReadFrom(b []byte) (n int, addr net.Addr, err error) {
	n, err = c.conn.Read(b)
	return n, c.peerAddr, err
}

// WriteTo writes a packet, applying the owning Pipe's NetworkCondition
// first (drop, delay, duplicate). addr is ignored: a Pipe has exactly one
// peer, so there's nowhere else b could go.
func (c *PipePacketConn) WriteTo(b []byte, addr net.Addr) (n int, err error) {
	if c.pipe != nil {
		c.pipe.mu.RLock()
		cond := c.pipe.condition
		rng := c.pipe.rng
		c.pipe.mu.RUnlock()

		if cond.DropRate > 0 && rng.Float64() < cond.DropRate {
			return len(b), nil
		}

		if cond.DelayMax > 0 {
			delay := cond.DelayMin
			if cond.DelayMax > cond.DelayMin {
				delay += time.Duration(rng.Int63n(int64(cond.DelayMax - cond.DelayMin)))
			}
			if delay > 0 {
				time.Sleep(delay)
			}
		}

		if cond.DuplicateRate > 0 && rng.Float64() < cond.DuplicateRate {
			if _, err := c.conn.Write(b); err != nil {
				return 0, err
			}
			// fall through and send the second copy below
		}
	}

	return c.conn.Write(b)
}

func (c *PipePacketConn) Close() error {
	return c.conn.Close()
}

func (c *PipePacketConn) LocalAddr() net.Addr {
	return PipeAddr{ID: c.localID, Port: c.port}
}

func (c *PipePacketConn) SetDeadline(t time.Time) error {
	return c.conn.SetDeadline(t)
}

func (c *PipePacketConn) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

func (c *PipePacketConn) SetWriteDeadline(t time.Time) error {
	return c.conn.SetWriteDeadline(t)
}

var _ net.PacketConn = (*PipePacketConn)(nil)

// PipeFactory is a Factory backed by one side of a shared Pipe. Construct a
// connected pair with NewPipeFactoryPair rather than this type directly.
type PipeFactory struct {
	mu          sync.Mutex
	peerFactory *PipeFactory
	pipe        *Pipe
	localID     int // 0 or 1
	udpConn     *PipePacketConn
}

// NewPipeFactoryPair returns two PipeFactory values wired to opposite ends
// of one auto-processing Pipe — e.g. one standing in for a device, the
// other for a controller, with no manual pumping required for messages to
// flow between them.
func NewPipeFactoryPair() (*PipeFactory, *PipeFactory) {
	return NewPipeFactoryPairWithConfig(DefaultPipeConfig())
}

// NewPipeFactoryPairWithConfig is NewPipeFactoryPair with an explicit
// PipeConfig — set AutoProcess false for tests that want to call
// f.Pipe().Process() at controlled points instead.
func NewPipeFactoryPairWithConfig(config PipeConfig) (*PipeFactory, *PipeFactory) {
	pipe := NewPipeWithConfig(config)

	f0 := &PipeFactory{pipe: pipe, localID: 0}
	f1 := &PipeFactory{pipe: pipe, localID: 1}
	f0.peerFactory = f1
	f1.peerFactory = f0

	return f0, f1
}

// Pipe returns the underlying Pipe, for SetCondition/SetAutoProcess/Process
// calls.
func (f *PipeFactory) Pipe() *Pipe {
	return f.pipe
}

// LocalAddr returns this factory's own endpoint address.
func (f *PipeFactory) LocalAddr() net.Addr {
	return PipeAddr{ID: f.localID, Port: DefaultPort}
}

// PeerAddr returns the address of the factory on the other end of the Pipe.
func (f *PipeFactory) PeerAddr() net.Addr {
	peerID := 1 - f.localID
	return PipeAddr{ID: peerID, Port: DefaultPort}
}

// CreateUDPConn returns this factory's PipePacketConn, creating it on first
// call and reusing it afterward (a Pipe has exactly one UDP-like conn per
// side).
func (f *PipeFactory) CreateUDPConn(port int) (net.PacketConn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.udpConn != nil {
		return f.udpConn, nil
	}

	var conn net.Conn
	if f.localID == 0 {
		conn = f.pipe.Conn0()
	} else {
		conn = f.pipe.Conn1()
	}

	peerID := 1 - f.localID
	peerAddr := PipeAddr{ID: peerID, Port: port}

	f.udpConn = &PipePacketConn{
		conn:     conn,
		localID:  f.localID,
		port:     port,
		peerAddr: peerAddr,
		pipe:     f.pipe,
	}

	return f.udpConn, nil
}

// CreateTCPListener always returns a nil listener: a Pipe models a single
// packet-oriented link and has no notion of accepting new connections.
func (f *PipeFactory) CreateTCPListener(port int) (net.Listener, error) {
	return nil, nil
}

// SetCondition configures link impairment on this factory's Pipe.
func (f *PipeFactory) SetCondition(cond NetworkCondition) {
	f.pipe.SetCondition(cond)
}

var _ Factory = (*PipeFactory)(nil)
