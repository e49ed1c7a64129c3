// Package supervisor routes validated maintenance intents to the alert
// manager and the radio link guard. It is the only place the two cores
// meet: every action is audited, counted, and published to the telemetry
// hub, and a background monitor escalates a dropped radio link into a
// communication-loss alert.
package supervisor
