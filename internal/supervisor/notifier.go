package supervisor

import (
	"github.com/engine-control/esc/internal/alert"
	"github.com/engine-control/esc/internal/telemetry"
)

// hubNotifier forwards accepted raises onto the SSE stream. It implements
// the alert telemetry hook for deployments whose platform has no native
// telemetry channel, and runs alongside the platform notifier otherwise.
type hubNotifier struct {
	hub *telemetry.Hub
}

// NewHubNotifier wraps the telemetry hub as an alert notifier.
func NewHubNotifier(hub *telemetry.Hub) alert.Notifier {
	return &hubNotifier{hub: hub}
}

func (n *hubNotifier) SendAlert(level alert.Severity, code alert.Code) {
	n.hub.Publish("alert", map[string]interface{}{
		"severity": level.String(),
		"code":     code.String(),
	})
}

// fanout delivers each notification to every wrapped notifier in order.
type fanout []alert.Notifier

// Fanout combines notifiers; nil entries are skipped.
func Fanout(notifiers ...alert.Notifier) alert.Notifier {
	var out fanout
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

func (f fanout) SendAlert(level alert.Severity, code alert.Code) {
	for _, n := range f {
		n.SendAlert(level, code)
	}
}
