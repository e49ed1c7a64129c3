package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/engine-control/esc/internal/alert"
	"github.com/engine-control/esc/internal/audit"
	"github.com/engine-control/esc/internal/auth"
	"github.com/engine-control/esc/internal/observability"
	"github.com/engine-control/esc/internal/platform/sim"
	"github.com/engine-control/esc/internal/radiolink"
	"github.com/engine-control/esc/internal/supervisor"
	"github.com/engine-control/esc/internal/telemetry"
)

type testEnv struct {
	handler http.Handler
	tr      *sim.Transceiver
	panel   *sim.Panel
}

func newTestEnv(t *testing.T, verifier *auth.Verifier) *testEnv {
	t.Helper()
	observability.RegisterMetrics()

	panel := sim.NewPanel()
	tr := sim.NewTransceiver()
	hub := telemetry.NewHub(16, time.Minute)
	t.Cleanup(hub.Stop)

	auditLogger, err := audit.NewLogger(audit.Options{Dir: t.TempDir(), MaxSizeMB: 1}, auth.Subject)
	if err != nil {
		t.Fatalf("audit logger: %v", err)
	}
	t.Cleanup(func() { auditLogger.Close() })

	alerts := alert.NewManager(panel, supervisor.NewHubNotifier(hub))
	alerts.Init()
	radio := radiolink.NewGuard(tr)

	sup := supervisor.New(alerts, radio, hub, auditLogger, time.Minute, zerolog.Nop())
	t.Cleanup(sup.Stop)

	srv := NewServer(sup, hub, auth.NewMiddleware(verifier), zerolog.Nop(), 5*time.Second, 60*time.Second)
	return &testEnv{handler: srv.Handler(), tr: tr, panel: panel}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return resp
}

func dataField(t *testing.T, resp Response, key string) interface{} {
	t.Helper()
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data is not an object: %#v", resp.Data)
	}
	return data[key]
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, auth.NewDisabledVerifier())

	rec := env.do(t, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if resp.Result != "ok" {
		t.Errorf("expected ok result, got %q", resp.Result)
	}
	if got := dataField(t, resp, "status"); got != "ok" {
		t.Errorf("expected status ok, got %v", got)
	}
	if resp.CorrelationID == "" {
		t.Error("expected a correlation id")
	}
}

func TestAlertRaiseAndStatus(t *testing.T) {
	env := newTestEnv(t, auth.NewDisabledVerifier())

	rec := env.do(t, http.MethodPost, "/api/v1/alert/raise", `{"severity":"WARNING","code":"SENSOR_FAIL"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeEnvelope(t, rec)
	if got := dataField(t, resp, "accepted"); got != true {
		t.Errorf("expected accepted, got %v", got)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/alert", "")
	resp = decodeEnvelope(t, rec)
	if got := dataField(t, resp, "severity"); got != "WARNING" {
		t.Errorf("expected WARNING, got %v", got)
	}
	if got := dataField(t, resp, "code"); got != "SENSOR_FAIL" {
		t.Errorf("expected SENSOR_FAIL, got %v", got)
	}
	if env.panel.Active() != "WARNING" {
		t.Errorf("expected WARNING lamp, got %q", env.panel.Active())
	}
}

func TestAlertRaiseSuppressedBelowCurrent(t *testing.T) {
	env := newTestEnv(t, auth.NewDisabledVerifier())

	env.do(t, http.MethodPost, "/api/v1/alert/raise", `{"severity":"CRITICAL","code":"ENGINE_FAULT"}`)
	rec := env.do(t, http.MethodPost, "/api/v1/alert/raise", `{"severity":"WARNING","code":"SENSOR_FAIL"}`)
	resp := decodeEnvelope(t, rec)

	if got := dataField(t, resp, "accepted"); got != false {
		t.Errorf("expected suppressed raise, got accepted=%v", got)
	}
	if got := dataField(t, resp, "severity"); got != "CRITICAL" {
		t.Errorf("state must be unchanged, got severity %v", got)
	}
}

func TestAlertRaiseRejectsBadInput(t *testing.T) {
	env := newTestEnv(t, auth.NewDisabledVerifier())

	cases := []struct {
		name string
		body string
		code string
	}{
		{"unknown severity", `{"severity":"FATAL","code":"NONE"}`, "INVALID_RANGE"},
		{"unknown code", `{"severity":"INFO","code":"BOGUS"}`, "INVALID_RANGE"},
		{"unknown field", `{"severity":"INFO","code":"NONE","extra":1}`, "BAD_REQUEST"},
		{"malformed json", `{"severity":`, "BAD_REQUEST"},
		{"trailing data", `{"severity":"INFO","code":"NONE"}{}`, "BAD_REQUEST"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/v1/alert/raise", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			resp := decodeEnvelope(t, rec)
			if resp.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, resp.Code)
			}
		})
	}
}

func TestAlertClear(t *testing.T) {
	env := newTestEnv(t, auth.NewDisabledVerifier())

	env.do(t, http.MethodPost, "/api/v1/alert/raise", `{"severity":"CRITICAL","code":"OVER_TEMPERATURE"}`)
	rec := env.do(t, http.MethodPost, "/api/v1/alert/clear", "")
	resp := decodeEnvelope(t, rec)

	if got := dataField(t, resp, "severity"); got != "INFO" {
		t.Errorf("expected INFO after clear, got %v", got)
	}
	if got := dataField(t, resp, "code"); got != "NONE" {
		t.Errorf("expected NONE after clear, got %v", got)
	}
}

func TestRadioInitAndStatus(t *testing.T) {
	env := newTestEnv(t, auth.NewDisabledVerifier())

	rec := env.do(t, http.MethodPost, "/api/v1/radio/init", "")
	resp := decodeEnvelope(t, rec)
	if got := dataField(t, resp, "ready"); got != true {
		t.Errorf("expected ready, got %v", got)
	}

	env.tr.SetLink(true)
	rec = env.do(t, http.MethodGet, "/api/v1/radio/link", "")
	resp = decodeEnvelope(t, rec)
	if got := dataField(t, resp, "linkOk"); got != true {
		t.Errorf("expected link up, got %v", got)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/radio", "")
	resp = decodeEnvelope(t, rec)
	if got := dataField(t, resp, "linkOk"); got != true {
		t.Errorf("expected cached link up, got %v", got)
	}
}

func TestRadioInitFailure(t *testing.T) {
	env := newTestEnv(t, auth.NewDisabledVerifier())
	env.tr.SetInitResult(false)

	rec := env.do(t, http.MethodPost, "/api/v1/radio/init", "")
	resp := decodeEnvelope(t, rec)
	if got := dataField(t, resp, "ready"); got != false {
		t.Errorf("expected ready=false, got %v", got)
	}
}

func TestRadioSend(t *testing.T) {
	env := newTestEnv(t, auth.NewDisabledVerifier())
	env.do(t, http.MethodPost, "/api/v1/radio/init", "")

	frame := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	body := `{"data":"` + base64.StdEncoding.EncodeToString(frame) + `"}`
	rec := env.do(t, http.MethodPost, "/api/v1/radio/send", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeEnvelope(t, rec)
	if got := dataField(t, resp, "length"); got != float64(len(frame)) {
		t.Errorf("expected length %d, got %v", len(frame), got)
	}
	if !bytes.Equal(env.tr.LastSent(), frame) {
		t.Errorf("hardware got %x, want %x", env.tr.LastSent(), frame)
	}
}

func TestRadioSendValidation(t *testing.T) {
	env := newTestEnv(t, auth.NewDisabledVerifier())
	env.do(t, http.MethodPost, "/api/v1/radio/init", "")

	// Empty frames are a client error, not a hardware failure.
	rec := env.do(t, http.MethodPost, "/api/v1/radio/send", `{"data":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty frame, got %d", rec.Code)
	}
	if resp := decodeEnvelope(t, rec); resp.Code != "INVALID_RANGE" {
		t.Errorf("expected INVALID_RANGE, got %s", resp.Code)
	}

	oversize := base64.StdEncoding.EncodeToString(make([]byte, radiolink.TxBufferSize+1))
	rec = env.do(t, http.MethodPost, "/api/v1/radio/send", `{"data":"`+oversize+`"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversize frame, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/radio/send", `{"data":"not base64!!!"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad base64, got %d", rec.Code)
	}
}

func TestRadioSendHardwareFailure(t *testing.T) {
	env := newTestEnv(t, auth.NewDisabledVerifier())
	env.do(t, http.MethodPost, "/api/v1/radio/init", "")
	env.tr.FailSends(true)

	body := `{"data":"` + base64.StdEncoding.EncodeToString([]byte{0x01}) + `"}`
	rec := env.do(t, http.MethodPost, "/api/v1/radio/send", body)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if resp := decodeEnvelope(t, rec); resp.Code != "UNAVAILABLE" {
		t.Errorf("expected UNAVAILABLE, got %s", resp.Code)
	}
}

func TestRadioReceive(t *testing.T) {
	env := newTestEnv(t, auth.NewDisabledVerifier())
	env.do(t, http.MethodPost, "/api/v1/radio/init", "")
	env.tr.QueueFrame([]byte{0x10, 0x20})

	rec := env.do(t, http.MethodPost, "/api/v1/radio/receive", "")
	resp := decodeEnvelope(t, rec)
	if got := dataField(t, resp, "length"); got != float64(2) {
		t.Errorf("expected length 2, got %v", got)
	}
	raw, err := base64.StdEncoding.DecodeString(dataField(t, resp, "data").(string))
	if err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if !bytes.Equal(raw, []byte{0x10, 0x20}) {
		t.Errorf("got frame %x", raw)
	}
}

func TestRadioReceiveEmptyInbox(t *testing.T) {
	env := newTestEnv(t, auth.NewDisabledVerifier())
	env.do(t, http.MethodPost, "/api/v1/radio/init", "")

	// No frame pending is still a successful zero-length receive.
	rec := env.do(t, http.MethodPost, "/api/v1/radio/receive", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if got := dataField(t, resp, "length"); got != float64(0) {
		t.Errorf("expected length 0, got %v", got)
	}
}

func TestRadioReceiveFailure(t *testing.T) {
	env := newTestEnv(t, auth.NewDisabledVerifier())
	env.do(t, http.MethodPost, "/api/v1/radio/init", "")
	env.tr.FailReceives(true)

	rec := env.do(t, http.MethodPost, "/api/v1/radio/receive", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, auth.NewDisabledVerifier())

	for _, path := range []string{"/api/v1/alert", "/api/v1/radio", "/api/v1/health"} {
		rec := env.do(t, http.MethodDelete, path, "")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: expected 405, got %d", path, rec.Code)
		}
	}
	rec := env.do(t, http.MethodGet, "/api/v1/alert/raise", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("raise: expected 405, got %d", rec.Code)
	}
}

func TestAuthEnforcement(t *testing.T) {
	const secret = "test-secret"
	env := newTestEnv(t, auth.NewHS256Verifier(secret))

	// Health stays open.
	if rec := env.do(t, http.MethodGet, "/api/v1/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", rec.Code)
	}

	// No token.
	if rec := env.do(t, http.MethodGet, "/api/v1/alert", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	sign := func(role string) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":  "tester",
			"role": role,
			"exp":  time.Now().Add(time.Hour).Unix(),
		})
		signed, err := token.SignedString([]byte(secret))
		if err != nil {
			t.Fatalf("sign token: %v", err)
		}
		return signed
	}

	doAuth := func(method, path, body, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		return rec
	}

	// Viewer may read but not raise.
	viewer := sign("viewer")
	if rec := doAuth(http.MethodGet, "/api/v1/alert", "", viewer); rec.Code != http.StatusOK {
		t.Errorf("viewer read: expected 200, got %d", rec.Code)
	}
	if rec := doAuth(http.MethodPost, "/api/v1/alert/raise", `{"severity":"INFO","code":"NONE"}`, viewer); rec.Code != http.StatusForbidden {
		t.Errorf("viewer raise: expected 403, got %d", rec.Code)
	}

	// Controller may do both.
	controller := sign("controller")
	if rec := doAuth(http.MethodPost, "/api/v1/alert/raise", `{"severity":"INFO","code":"NONE"}`, controller); rec.Code != http.StatusOK {
		t.Errorf("controller raise: expected 200, got %d", rec.Code)
	}
}

func TestWriteResponseUnmarshalableDataStaysValidJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	writeResponse(rec, http.StatusOK, SuccessResponse(map[string]interface{}{
		"bad": make(chan int),
	}))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 on marshal failure, got %d", rec.Code)
	}

	// The body must be a single well-formed object, never a partial
	// envelope with a fallback appended.
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("body is not valid JSON: %v (%q)", err, rec.Body.String())
	}
	if resp.Result != "error" || resp.Code != "INTERNAL" {
		t.Errorf("expected INTERNAL error envelope, got %+v", resp)
	}

	dec := json.NewDecoder(bytes.NewReader(rec.Body.Bytes()))
	if err := dec.Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		t.Errorf("body contains trailing data: %s", extra)
	}
}

func TestMetricsExposed(t *testing.T) {
	env := newTestEnv(t, auth.NewDisabledVerifier())

	rec := env.do(t, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "esc_") {
		t.Error("expected esc metrics in exposition")
	}
}
