// Package sim provides in-memory hardware hook implementations.
//
// It backs the `driver: sim` deployment mode (bench operation without a
// transceiver attached) and every test that needs scriptable hardware
// behavior: settable link state, init/send/receive failure injection, and
// inspection of transmitted frames.
package sim

import (
	"sync"

	"github.com/engine-control/esc/internal/alert"
	"github.com/engine-control/esc/internal/radiolink"
)

// Compile-time assertions against the hook contracts.
var (
	_ alert.IndicatorPanel  = (*Panel)(nil)
	_ alert.Notifier        = (*Notifier)(nil)
	_ radiolink.Transceiver = (*Transceiver)(nil)
)

// Panel is a simulated three-lamp indicator panel.
type Panel struct {
	mu       sync.Mutex
	info     bool
	warning  bool
	critical bool
}

// NewPanel creates a panel with all lamps off.
func NewPanel() *Panel {
	return &Panel{}
}

func (p *Panel) Info(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.info = on
}

func (p *Panel) Warning(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.warning = on
}

func (p *Panel) Critical(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.critical = on
}

// Lamps returns the current (info, warning, critical) lamp states.
func (p *Panel) Lamps() (bool, bool, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.info, p.warning, p.critical
}

// Active returns the name of the single active lamp, or "NONE".
func (p *Panel) Active() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.critical:
		return "CRITICAL"
	case p.warning:
		return "WARNING"
	case p.info:
		return "INFO"
	default:
		return "NONE"
	}
}

// Notification is one alert handed to the telemetry hook.
type Notification struct {
	Severity alert.Severity
	Code     alert.Code
}

// Notifier records hook telemetry notifications.
type Notifier struct {
	mu   sync.Mutex
	sent []Notification
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) SendAlert(level alert.Severity, code alert.Code) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, Notification{Severity: level, Code: code})
}

// Notifications returns every recorded notification in order.
func (n *Notifier) Notifications() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.sent...)
}

// Transceiver is a simulated radio. Transmitted frames are recorded;
// frames queued with QueueFrame are handed out by Receive in FIFO order.
type Transceiver struct {
	mu sync.Mutex

	initResult bool
	link       bool
	failSend   bool
	failRecv   bool

	sent  [][]byte
	inbox [][]byte
}

// NewTransceiver creates a transceiver whose Init succeeds and whose link
// starts down, matching a bench radio before association.
func NewTransceiver() *Transceiver {
	return &Transceiver{initResult: true}
}

// Init reports the configured init result.
func (t *Transceiver) Init() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.initResult
}

// Send records a copy of the frame and reports success unless a send
// failure has been injected.
func (t *Transceiver) Send(data []byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.failSend {
		return false
	}
	t.sent = append(t.sent, append([]byte(nil), data...))
	return true
}

// Receive pops the oldest queued frame into buf. An empty inbox is a
// successful zero-length receive.
func (t *Transceiver) Receive(buf []byte) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.failRecv {
		return 0, false
	}
	if len(t.inbox) == 0 {
		return 0, true
	}

	frame := t.inbox[0]
	t.inbox = t.inbox[1:]
	return copy(buf, frame), true
}

// LinkStatus reports the simulated link state.
func (t *Transceiver) LinkStatus() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.link
}

// SetInitResult controls what the next Init reports.
func (t *Transceiver) SetInitResult(ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.initResult = ok
}

// SetLink sets the simulated link state.
func (t *Transceiver) SetLink(up bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.link = up
}

// FailSends makes every subsequent Send report failure.
func (t *Transceiver) FailSends(fail bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failSend = fail
}

// FailReceives makes every subsequent Receive report failure.
func (t *Transceiver) FailReceives(fail bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failRecv = fail
}

// QueueFrame appends a copy of frame to the receive inbox.
func (t *Transceiver) QueueFrame(frame []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inbox = append(t.inbox, append([]byte(nil), frame...))
}

// SentFrames returns copies of every transmitted frame in order.
func (t *Transceiver) SentFrames() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([][]byte, len(t.sent))
	for i, f := range t.sent {
		out[i] = append([]byte(nil), f...)
	}
	return out
}

// LastSent returns a copy of the most recently transmitted frame, or nil.
func (t *Transceiver) LastSent() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.sent) == 0 {
		return nil
	}
	return append([]byte(nil), t.sent[len(t.sent)-1]...)
}
