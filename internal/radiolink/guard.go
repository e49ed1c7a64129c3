package radiolink

import "sync"

// Buffer capacities are fixed at build time; the guard never allocates.
const (
	TxBufferSize = 128
	RxBufferSize = 128
)

// Transceiver is the hardware hook contract for the radio.
// Implementations must be non-blocking and bounded-time.
type Transceiver interface {
	// Init initializes the transceiver and reports success.
	Init() bool

	// Send transmits exactly len(data) bytes and reports success.
	Send(data []byte) bool

	// Receive fills up to len(buf) bytes into buf and reports the byte
	// count actually written together with success. A zero-length receive
	// may still report success.
	Receive(buf []byte) (int, bool)

	// LinkStatus reports current link presence. It must be cheap enough
	// to poll frequently.
	LinkStatus() bool
}

// Guard owns the radio initialization state, the cached link status, and
// the fixed transmit/receive buffers.
//
// linkOK is a cache of the most recent poll, not a live property; it is
// stale until LinkStatus is called again. The mutex serializes the two
// execution contexts that may touch the guard (periodic task and
// callback-driven), so buffer contents are never observed mid-copy.
type Guard struct {
	mu sync.Mutex
	hw Transceiver

	initialized bool
	linkOK      bool

	tx [TxBufferSize]byte
	rx [RxBufferSize]byte
}

// NewGuard creates a guard over the given transceiver. The guard starts
// uninitialized; every send/receive fails until Init succeeds.
func NewGuard(hw Transceiver) *Guard {
	return &Guard{hw: hw}
}

// Init zero-fills both buffers, runs the hardware init hook, and records
// its result. The cached link status is always reset to false: a fresh
// init never assumes link presence, callers must poll. Init failure is
// silent here and observable only via IsReady.
func (g *Guard) Init() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.tx = [TxBufferSize]byte{}
	g.rx = [RxBufferSize]byte{}

	g.initialized = g.hw.Init()
	g.linkOK = false
}

// IsReady returns the cached initialization state.
func (g *Guard) IsReady() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.initialized
}

// LinkStatus re-polls the hardware link-status hook, caches the result,
// and returns it. There is no debouncing or hysteresis.
func (g *Guard) LinkStatus() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.linkOK = g.hw.LinkStatus()
	return g.linkOK
}

// LinkOK returns the cached result of the most recent LinkStatus poll
// without touching hardware.
func (g *Guard) LinkOK() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.linkOK
}

// Send copies data into the internal transmit buffer and forwards exactly
// that buffer to the hardware send hook. It fails without side effects if
// the guard is not initialized, data is empty, or data exceeds the
// transmit capacity. The internal copy means the hardware layer always
// sees a buffer under this package's exclusive control, independent of
// the caller's buffer lifetime.
func (g *Guard) Send(data []byte) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.initialized {
		return false
	}
	if len(data) == 0 || len(data) > TxBufferSize {
		return false
	}

	copy(g.tx[:], data)
	return g.hw.Send(g.tx[:len(data)])
}

// Receive delegates to the hardware receive hook with the internal receive
// buffer at full capacity and returns the byte count the hook reported
// together with its success result. The count is 0 on any failure. A
// hook-reported count beyond the buffer capacity is treated as a hardware
// fault and the call fails.
func (g *Guard) Receive() (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.initialized {
		return 0, false
	}

	n, ok := g.hw.Receive(g.rx[:])
	if !ok || n < 0 || n > RxBufferSize {
		return 0, false
	}
	return n, true
}

// RxBuffer exposes the internal receive buffer. The guard exclusively owns
// the backing array; the returned slice is valid only until the next
// Receive call overwrites it and must not be written to or retained.
func (g *Guard) RxBuffer() []byte {
	return g.rx[:]
}
