package sim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/engine-control/esc/internal/alert"
	"github.com/engine-control/esc/internal/radiolink"
)

func TestPanelSingleActiveLamp(t *testing.T) {
	p := NewPanel()
	require.Equal(t, "NONE", p.Active())

	p.Info(true)
	require.Equal(t, "INFO", p.Active())

	p.Info(false)
	p.Critical(true)
	require.Equal(t, "CRITICAL", p.Active())

	info, warn, crit := p.Lamps()
	require.False(t, info)
	require.False(t, warn)
	require.True(t, crit)
}

func TestNotifierRecordsAlerts(t *testing.T) {
	n := NewNotifier()
	n.SendAlert(alert.SeverityWarning, alert.CodeSensorFail)
	n.SendAlert(alert.SeverityCritical, alert.CodeEngineFault)

	sent := n.Notifications()
	require.Len(t, sent, 2)
	require.Equal(t, alert.SeverityWarning, sent[0].Severity)
	require.Equal(t, alert.CodeEngineFault, sent[1].Code)
}

func TestTransceiverLoopback(t *testing.T) {
	tr := NewTransceiver()
	g := radiolink.NewGuard(tr)
	g.Init()
	require.True(t, g.IsReady())

	require.True(t, g.Send([]byte{0x01, 0x02, 0x03}))
	require.Equal(t, []byte{0x01, 0x02, 0x03}, tr.LastSent())

	tr.QueueFrame([]byte{0xAA, 0xBB})
	n, ok := g.Receive()
	require.True(t, ok)
	require.Equal(t, 2, n)
	require.Equal(t, []byte{0xAA, 0xBB}, g.RxBuffer()[:n])
}

func TestTransceiverEmptyInboxIsZeroLengthReceive(t *testing.T) {
	tr := NewTransceiver()
	g := radiolink.NewGuard(tr)
	g.Init()

	n, ok := g.Receive()
	require.True(t, ok)
	require.Zero(t, n)
}

func TestTransceiverFailureInjection(t *testing.T) {
	tr := NewTransceiver()
	g := radiolink.NewGuard(tr)
	g.Init()

	tr.FailSends(true)
	require.False(t, g.Send([]byte{0x01}))
	require.Empty(t, tr.SentFrames())

	tr.FailReceives(true)
	n, ok := g.Receive()
	require.False(t, ok)
	require.Zero(t, n)

	tr.FailSends(false)
	require.True(t, g.Send([]byte{0x02}))
	require.Len(t, tr.SentFrames(), 1)
}

func TestTransceiverInitFailure(t *testing.T) {
	tr := NewTransceiver()
	tr.SetInitResult(false)

	g := radiolink.NewGuard(tr)
	g.Init()
	require.False(t, g.IsReady())
	require.False(t, g.Send([]byte{0x01}))
}

func TestTransceiverLink(t *testing.T) {
	tr := NewTransceiver()
	g := radiolink.NewGuard(tr)
	g.Init()

	require.False(t, g.LinkStatus())
	tr.SetLink(true)
	require.True(t, g.LinkStatus())
}
