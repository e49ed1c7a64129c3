// Package alert implements the fault-annunciation state machine.
//
// The manager owns a single severity/code pair. Raises are accepted only at
// the current severity or above, so a critical condition can never be masked
// by a later lower-severity event; an explicit Clear is the only way severity
// decreases. Indicator and telemetry outputs are driven through injected
// hooks so the package is testable without hardware.
package alert
