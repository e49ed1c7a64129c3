package supervisor

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/engine-control/esc/internal/alert"
	"github.com/engine-control/esc/internal/audit"
	"github.com/engine-control/esc/internal/observability"
	"github.com/engine-control/esc/internal/platform/sim"
	"github.com/engine-control/esc/internal/radiolink"
	"github.com/engine-control/esc/internal/telemetry"
)

type fixture struct {
	sup   *Supervisor
	panel *sim.Panel
	tr    *sim.Transceiver
	hub   *telemetry.Hub
}

func newFixture(t *testing.T, linkPoll time.Duration) *fixture {
	t.Helper()
	observability.RegisterMetrics()

	panel := sim.NewPanel()
	tr := sim.NewTransceiver()
	hub := telemetry.NewHub(16, time.Minute)
	t.Cleanup(hub.Stop)

	auditLogger, err := audit.NewLogger(audit.Options{Dir: t.TempDir(), MaxSizeMB: 1}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { auditLogger.Close() })

	alerts := alert.NewManager(panel, NewHubNotifier(hub))
	alerts.Init()

	radio := radiolink.NewGuard(tr)

	sup := New(alerts, radio, hub, auditLogger, linkPoll, zerolog.Nop())
	t.Cleanup(sup.Stop)

	return &fixture{sup: sup, panel: panel, tr: tr, hub: hub}
}

func TestRaiseAndClearFlow(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()

	require.True(t, f.sup.RaiseAlert(ctx, alert.SeverityWarning, alert.CodeSensorFail))
	status := f.sup.AlertStatus()
	require.Equal(t, "WARNING", status.Severity)
	require.Equal(t, "SENSOR_FAIL", status.Code)
	require.Equal(t, "WARNING", f.panel.Active())

	// A lower raise is suppressed without output changes.
	require.False(t, f.sup.RaiseAlert(ctx, alert.SeverityInfo, alert.CodeNone))
	require.Equal(t, "WARNING", f.sup.AlertStatus().Severity)

	f.sup.ClearAlert(ctx)
	status = f.sup.AlertStatus()
	require.Equal(t, "INFO", status.Severity)
	require.Equal(t, "NONE", status.Code)
	require.Equal(t, "INFO", f.panel.Active())
}

func TestSendFrameGuards(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()

	// Not initialized yet.
	require.False(t, f.sup.SendFrame(ctx, []byte{0x01}))
	require.Empty(t, f.tr.SentFrames())

	require.True(t, f.sup.InitRadio(ctx))

	require.False(t, f.sup.SendFrame(ctx, nil))
	require.False(t, f.sup.SendFrame(ctx, make([]byte, radiolink.TxBufferSize+1)))
	require.Empty(t, f.tr.SentFrames())

	require.True(t, f.sup.SendFrame(ctx, []byte{0xCA, 0xFE}))
	require.Equal(t, []byte{0xCA, 0xFE}, f.tr.LastSent())
}

func TestReceiveFrameCopies(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()

	require.True(t, f.sup.InitRadio(ctx))
	f.tr.QueueFrame([]byte{0x11, 0x22, 0x33})

	data, ok := f.sup.ReceiveFrame(ctx)
	require.True(t, ok)
	require.Equal(t, []byte{0x11, 0x22, 0x33}, data)

	// The returned slice survives a subsequent receive overwriting the
	// guard's buffer.
	f.tr.QueueFrame([]byte{0x99})
	_, ok = f.sup.ReceiveFrame(ctx)
	require.True(t, ok)
	require.Equal(t, []byte{0x11, 0x22, 0x33}, data)
}

func TestRadioStatusUsesCachedLink(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()

	require.True(t, f.sup.InitRadio(ctx))
	f.tr.SetLink(true)

	// Status reflects the cache, which has not polled yet.
	require.False(t, f.sup.RadioStatus().LinkOK)

	require.True(t, f.sup.PollLink(ctx))
	require.True(t, f.sup.RadioStatus().LinkOK)
}

func TestLinkMonitorRaisesCommunicationLoss(t *testing.T) {
	f := newFixture(t, 10*time.Millisecond)
	ctx := context.Background()

	require.True(t, f.sup.InitRadio(ctx))
	f.sup.StartLinkMonitor()

	// Let the monitor observe the link up.
	f.tr.SetLink(true)
	require.Eventually(t, func() bool {
		return f.sup.RadioStatus().LinkOK
	}, 2*time.Second, 5*time.Millisecond)

	require.Equal(t, "INFO", f.sup.AlertStatus().Severity)

	// Drop the link; the monitor must escalate.
	f.tr.SetLink(false)
	require.Eventually(t, func() bool {
		status := f.sup.AlertStatus()
		return status.Severity == "WARNING" && status.Code == "COMMUNICATION_LOSS"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestLinkMonitorIgnoresInitialDown(t *testing.T) {
	f := newFixture(t, 10*time.Millisecond)
	ctx := context.Background()

	require.True(t, f.sup.InitRadio(ctx))
	f.sup.StartLinkMonitor()

	// Link was never up; no alarm may fire.
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, "INFO", f.sup.AlertStatus().Severity)
}

func TestFanoutNotifier(t *testing.T) {
	var a, b []string
	na := notifierFunc(func(l alert.Severity, c alert.Code) { a = append(a, l.String()) })
	nb := notifierFunc(func(l alert.Severity, c alert.Code) { b = append(b, c.String()) })

	n := Fanout(na, nil, nb)
	n.SendAlert(alert.SeverityCritical, alert.CodeEngineFault)

	require.Equal(t, []string{"CRITICAL"}, a)
	require.Equal(t, []string{"ENGINE_FAULT"}, b)
}

type notifierFunc func(alert.Severity, alert.Code)

func (f notifierFunc) SendAlert(l alert.Severity, c alert.Code) { f(l, c) }
