// Package e2e exercises the full container stack over real HTTP: the
// maintenance API in front of the supervisor, alert manager, and radio
// link guard, backed by the simulated platform.
package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/engine-control/esc/internal/alert"
	"github.com/engine-control/esc/internal/api"
	"github.com/engine-control/esc/internal/audit"
	"github.com/engine-control/esc/internal/auth"
	"github.com/engine-control/esc/internal/observability"
	"github.com/engine-control/esc/internal/platform/sim"
	"github.com/engine-control/esc/internal/radiolink"
	"github.com/engine-control/esc/internal/supervisor"
	"github.com/engine-control/esc/internal/telemetry"
)

// Harness is a fully wired container behind a live HTTP listener.
type Harness struct {
	Server   *httptest.Server
	Panel    *sim.Panel
	Notifier *sim.Notifier
	Radio    *sim.Transceiver
	Sup      *supervisor.Supervisor
	Hub      *telemetry.Hub
}

// NewHarness builds the container with the sim platform and disabled
// auth, and starts an HTTP listener that is torn down with the test.
func NewHarness(t *testing.T) *Harness {
	t.Helper()
	observability.RegisterMetrics()

	panel := sim.NewPanel()
	notifier := sim.NewNotifier()
	tr := sim.NewTransceiver()
	hub := telemetry.NewHub(64, 50*time.Millisecond)
	t.Cleanup(hub.Stop)

	auditLogger, err := audit.NewLogger(audit.Options{Dir: t.TempDir(), MaxSizeMB: 1}, auth.Subject)
	if err != nil {
		t.Fatalf("audit logger: %v", err)
	}
	t.Cleanup(func() { auditLogger.Close() })

	alerts := alert.NewManager(panel, supervisor.Fanout(notifier, supervisor.NewHubNotifier(hub)))
	alerts.Init()
	guard := radiolink.NewGuard(tr)

	sup := supervisor.New(alerts, guard, hub, auditLogger, time.Minute, zerolog.Nop())
	t.Cleanup(sup.Stop)

	apiServer := api.NewServer(sup, hub, auth.NewMiddleware(auth.NewDisabledVerifier()), zerolog.Nop(), 5*time.Second, 60*time.Second)
	srv := httptest.NewServer(apiServer.Handler())
	t.Cleanup(srv.Close)

	return &Harness{Server: srv, Panel: panel, Notifier: notifier, Radio: tr, Sup: sup, Hub: hub}
}

// envelope mirrors the API response format.
type envelope struct {
	Result        string                 `json:"result"`
	Data          map[string]interface{} `json:"data"`
	Code          string                 `json:"code"`
	Message       string                 `json:"message"`
	CorrelationID string                 `json:"correlationId"`
}

// Get performs a GET and decodes the envelope.
func (h *Harness) Get(t *testing.T, path string) (int, envelope) {
	t.Helper()
	resp, err := http.Get(h.Server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return decodeResponse(t, resp)
}

// Post performs a POST with an optional JSON body and decodes the
// envelope.
func (h *Harness) Post(t *testing.T, path, body string) (int, envelope) {
	t.Helper()
	resp, err := http.Post(h.Server.URL+path, "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return decodeResponse(t, resp)
}

func decodeResponse(t *testing.T, resp *http.Response) (int, envelope) {
	t.Helper()
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return resp.StatusCode, env
}
