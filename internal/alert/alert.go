package alert

import (
	"fmt"
	"strings"
	"sync"
)

// Severity is the ordered alert level.
type Severity uint8

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

// severityRank defines the escalation order Info < Warning < Critical.
// The comparison goes through this table rather than the raw constant
// values so reordering the declarations cannot silently change escalation.
var severityRank = map[Severity]int{
	SeverityInfo:     0,
	SeverityWarning:  1,
	SeverityCritical: 2,
}

// AtLeast reports whether s is at or above other in the escalation order.
func (s Severity) AtLeast(other Severity) bool {
	return severityRank[s] >= severityRank[other]
}

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return fmt.Sprintf("SEVERITY(%d)", uint8(s))
	}
}

// ParseSeverity converts an API-level severity name to a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INFO":
		return SeverityInfo, nil
	case "WARNING":
		return SeverityWarning, nil
	case "CRITICAL":
		return SeverityCritical, nil
	default:
		return SeverityInfo, fmt.Errorf("unknown severity %q", s)
	}
}

// Code classifies why an alert was raised. It is independent of the
// severity ordering.
type Code uint8

const (
	CodeNone Code = iota
	CodeSensorFail
	CodeOverTemperature
	CodeOverPressure
	CodeEngineFault
	CodeCommunicationLoss
)

func (c Code) String() string {
	switch c {
	case CodeNone:
		return "NONE"
	case CodeSensorFail:
		return "SENSOR_FAIL"
	case CodeOverTemperature:
		return "OVER_TEMPERATURE"
	case CodeOverPressure:
		return "OVER_PRESSURE"
	case CodeEngineFault:
		return "ENGINE_FAULT"
	case CodeCommunicationLoss:
		return "COMMUNICATION_LOSS"
	default:
		return fmt.Sprintf("CODE(%d)", uint8(c))
	}
}

// ParseCode converts an API-level code name to a Code.
func ParseCode(s string) (Code, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NONE":
		return CodeNone, nil
	case "SENSOR_FAIL":
		return CodeSensorFail, nil
	case "OVER_TEMPERATURE":
		return CodeOverTemperature, nil
	case "OVER_PRESSURE":
		return CodeOverPressure, nil
	case "ENGINE_FAULT":
		return CodeEngineFault, nil
	case "COMMUNICATION_LOSS":
		return CodeCommunicationLoss, nil
	default:
		return CodeNone, fmt.Errorf("unknown alert code %q", s)
	}
}

// IndicatorPanel drives the three mutually-exclusive indicator outputs.
// Implementations must be non-blocking and bounded-time; lamp drive has no
// failure path observable by the manager.
type IndicatorPanel interface {
	Info(on bool)
	Warning(on bool)
	Critical(on bool)
}

// Notifier delivers a best-effort telemetry notification for every accepted
// raise. Implementations must be non-blocking and bounded-time.
type Notifier interface {
	SendAlert(level Severity, code Code)
}

// Manager owns the process-wide severity/code pair.
//
// The pair is guarded by a mutex so a reader can never observe a new level
// with a stale code; the hook calls run under the same lock, which keeps
// indicator updates and telemetry emissions ordered with state changes.
type Manager struct {
	mu    sync.Mutex
	level Severity
	code  Code

	panel    IndicatorPanel
	notifier Notifier
}

// NewManager creates a manager wired to the given hooks. Call Init before
// first use; the zero state is not announced until then.
func NewManager(panel IndicatorPanel, notifier Notifier) *Manager {
	return &Manager{
		panel:    panel,
		notifier: notifier,
	}
}

// Init resets to the fail-safe baseline (Info, None) and drives the Info
// indicator. No telemetry is emitted.
func (m *Manager) Init() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.level = SeverityInfo
	m.code = CodeNone
	m.setOutputs(SeverityInfo)
}

// Raise escalates to (level, code) and reports whether the raise was
// accepted. A raise below the current severity is a no-op: no state change,
// no output change, no telemetry. A raise at the current severity does take
// effect, replacing the code and re-emitting outputs and telemetry
// (refresh semantics).
func (m *Manager) Raise(level Severity, code Code) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !level.AtLeast(m.level) {
		return false
	}

	m.level = level
	m.code = code

	m.setOutputs(level)
	if m.notifier != nil {
		m.notifier.SendAlert(level, code)
	}
	return true
}

// Clear unconditionally resets to (Info, None) and re-asserts the Info
// indicator. This is the only path by which severity decreases. Clearing
// never emits telemetry.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.level = SeverityInfo
	m.code = CodeNone
	m.setOutputs(SeverityInfo)
}

// Level returns the current severity.
func (m *Manager) Level() Severity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

// Code returns the current alert code.
func (m *Manager) Code() Code {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.code
}

// Snapshot returns the severity/code pair as observed at a single instant.
func (m *Manager) Snapshot() (Severity, Code) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level, m.code
}

// setOutputs deactivates every indicator and then activates exactly the one
// matching level. Caller holds m.mu.
func (m *Manager) setOutputs(level Severity) {
	if m.panel == nil {
		return
	}

	m.panel.Info(false)
	m.panel.Warning(false)
	m.panel.Critical(false)

	switch level {
	case SeverityWarning:
		m.panel.Warning(true)
	case SeverityCritical:
		m.panel.Critical(true)
	default:
		m.panel.Info(true)
	}
}
