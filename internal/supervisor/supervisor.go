package supervisor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/engine-control/esc/internal/alert"
	"github.com/engine-control/esc/internal/audit"
	"github.com/engine-control/esc/internal/observability"
	"github.com/engine-control/esc/internal/radiolink"
	"github.com/engine-control/esc/internal/telemetry"
)

// Compile-time assertion that Supervisor implements Port.
var _ Port = (*Supervisor)(nil)

// Supervisor composes the alert manager and the radio link guard behind
// the maintenance API.
type Supervisor struct {
	alerts *alert.Manager
	radio  *radiolink.Guard
	hub    *telemetry.Hub
	audit  *audit.Logger
	log    zerolog.Logger

	linkPoll time.Duration

	mu         sync.Mutex
	lastLink   bool
	everLinked bool

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New creates a supervisor. Call StartLinkMonitor to begin link
// supervision and Stop on shutdown.
func New(alerts *alert.Manager, radio *radiolink.Guard, hub *telemetry.Hub, auditLogger *audit.Logger, linkPoll time.Duration, log zerolog.Logger) *Supervisor {
	return &Supervisor{
		alerts:   alerts,
		radio:    radio,
		hub:      hub,
		audit:    auditLogger,
		log:      log.With().Str("component", "supervisor").Logger(),
		linkPoll: linkPoll,
		done:     make(chan struct{}),
	}
}

// AlertStatus returns the current severity/code pair.
func (s *Supervisor) AlertStatus() AlertStatus {
	level, code := s.alerts.Snapshot()
	return AlertStatus{
		Severity: level.String(),
		Code:     code.String(),
	}
}

// RaiseAlert attempts an escalation and reports whether it was accepted.
func (s *Supervisor) RaiseAlert(ctx context.Context, level alert.Severity, code alert.Code) bool {
	return s.raise(ctx, level, code, "alert.raise")
}

// raise is the shared path for API raises and monitor-driven raises.
func (s *Supervisor) raise(ctx context.Context, level alert.Severity, code alert.Code, action string) bool {
	accepted := s.alerts.Raise(level, code)

	params := map[string]interface{}{
		"severity": level.String(),
		"code":     code.String(),
	}
	if accepted {
		observability.RecordAlertRaised(level.String())
		s.audit.LogAction(ctx, action, params, "ACCEPTED")
		s.log.Info().Str("severity", level.String()).Str("code", code.String()).Msg("alert raised")
	} else {
		observability.RecordAlertSuppressed()
		s.audit.LogAction(ctx, action, params, "SUPPRESSED")
		s.log.Debug().Str("severity", level.String()).Str("code", code.String()).Msg("alert suppressed below current severity")
	}
	return accepted
}

// ClearAlert unconditionally resets the alert state to (Info, None).
func (s *Supervisor) ClearAlert(ctx context.Context) {
	s.alerts.Clear()
	observability.RecordAlertCleared()
	s.audit.LogAction(ctx, "alert.clear", nil, "OK")
	s.hub.Publish("alertCleared", nil)
	s.log.Info().Msg("alert cleared")
}

// RadioStatus returns the cached radio readiness and link state.
func (s *Supervisor) RadioStatus() RadioStatus {
	return RadioStatus{
		Ready:  s.radio.IsReady(),
		LinkOK: s.radio.LinkOK(),
	}
}

// InitRadio (re-)initializes the transceiver and reports readiness.
func (s *Supervisor) InitRadio(ctx context.Context) bool {
	s.radio.Init()
	ready := s.radio.IsReady()

	outcome := "READY"
	if !ready {
		outcome = "FAILED"
	}
	s.audit.LogAction(ctx, "radio.init", nil, outcome)
	s.hub.Publish("radioInit", map[string]interface{}{"ready": ready})
	s.log.Info().Bool("ready", ready).Msg("radio initialized")

	// A fresh init discards link history; the monitor must observe a new
	// association before a drop can alarm again.
	s.mu.Lock()
	s.lastLink = false
	s.everLinked = false
	s.mu.Unlock()

	return ready
}

// PollLink forces a hardware link poll and returns the fresh result.
func (s *Supervisor) PollLink(ctx context.Context) bool {
	up := s.radio.LinkStatus()
	observability.SetLinkUp(up)
	return up
}

// SendFrame transmits a frame through the guard. The boolean collapses
// guard rejections and hardware failures, matching the guard contract;
// metrics distinguish the two for operators.
func (s *Supervisor) SendFrame(ctx context.Context, data []byte) bool {
	params := map[string]interface{}{"length": len(data)}

	// Mirror the guard's checks so a rejection is counted without
	// reaching hardware. The guard re-checks under its own lock.
	if !s.radio.IsReady() || len(data) == 0 || len(data) > radiolink.TxBufferSize {
		observability.RecordRadioTxRejected()
		s.audit.LogAction(ctx, "radio.send", params, "REJECTED")
		return false
	}

	ok := s.radio.Send(data)
	observability.RecordRadioTx(ok)

	outcome := "SENT"
	if !ok {
		outcome = "FAILED"
	}
	s.audit.LogAction(ctx, "radio.send", params, outcome)
	return ok
}

// ReceiveFrame reads a frame through the guard and returns a copy of the
// received bytes. The copy decouples API serialization from the guard's
// buffer reuse.
func (s *Supervisor) ReceiveFrame(ctx context.Context) ([]byte, bool) {
	n, ok := s.radio.Receive()
	observability.RecordRadioRx(ok)

	if !ok {
		s.audit.LogAction(ctx, "radio.receive", nil, "FAILED")
		return nil, false
	}

	data := append([]byte(nil), s.radio.RxBuffer()[:n]...)
	s.audit.LogAction(ctx, "radio.receive", map[string]interface{}{"length": n}, "OK")
	return data, true
}

// Stop terminates the link monitor.
func (s *Supervisor) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
	s.wg.Wait()
}
