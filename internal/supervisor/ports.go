// Ports (interfaces) exposed to the API layer.
package supervisor

import (
	"context"

	"github.com/engine-control/esc/internal/alert"
)

// AlertStatus is the externally visible alert state.
type AlertStatus struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
}

// RadioStatus is the externally visible radio state. LinkOK is the cached
// result of the most recent poll, not a live reading.
type RadioStatus struct {
	Ready  bool `json:"ready"`
	LinkOK bool `json:"linkOk"`
}

// Port is the minimal interface the API needs from the supervisor.
type Port interface {
	AlertStatus() AlertStatus
	RaiseAlert(ctx context.Context, level alert.Severity, code alert.Code) bool
	ClearAlert(ctx context.Context)

	RadioStatus() RadioStatus
	InitRadio(ctx context.Context) bool
	PollLink(ctx context.Context) bool
	SendFrame(ctx context.Context, data []byte) bool
	ReceiveFrame(ctx context.Context) ([]byte, bool)
}
