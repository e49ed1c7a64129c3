// Package telemetry distributes supervision events to SSE subscribers.
//
// The hub keeps a bounded ring of recent events so a reconnecting client
// can resume from its Last-Event-ID, sends periodic heartbeat frames, and
// disconnects clients that cannot keep up rather than blocking publishers.
package telemetry
