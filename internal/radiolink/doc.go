// Package radiolink guards access to a fixed-capacity radio transceiver.
//
// The guard owns two 128-byte buffers and mediates every send/receive
// against an injected Transceiver hook with readiness and bounds checks, so
// callers never touch hardware directly and can never overrun the hardware
// buffers. Every failure surfaces as a boolean; a guard rejection is
// indistinguishable from a hardware-reported failure at the call site.
package radiolink
