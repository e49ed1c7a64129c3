package e2e

import (
	"bufio"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"
)

// openStream connects to the SSE endpoint and returns a line scanner.
// The connection closes with the test.
func openStream(t *testing.T, h *Harness, lastEventID string) *bufio.Scanner {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.Server.URL+"/api/v1/telemetry", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if lastEventID != "" {
		req.Header.Set("Last-Event-ID", lastEventID)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect stream: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("unexpected content type %q", ct)
	}
	return bufio.NewScanner(resp.Body)
}

// waitForEvent scans the stream until a frame of the given event type
// arrives, skipping heartbeats.
func waitForEvent(t *testing.T, scanner *bufio.Scanner, eventType string) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) && scanner.Scan() {
		if scanner.Text() == "event: "+eventType {
			return
		}
	}
	t.Fatalf("no %q event on stream: %v", eventType, scanner.Err())
}

func TestTelemetryStreamDeliversAlertEvents(t *testing.T) {
	h := NewHarness(t)
	scanner := openStream(t, h, "")

	// Give the subscription a moment to register before publishing.
	waitForClients(t, h, 1)

	h.Post(t, "/api/v1/alert/raise", `{"severity":"CRITICAL","code":"OVER_PRESSURE"}`)
	waitForEvent(t, scanner, "alert")

	h.Post(t, "/api/v1/alert/clear", "")
	waitForEvent(t, scanner, "alertCleared")
}

func TestTelemetryStreamResumesFromLastEventID(t *testing.T) {
	h := NewHarness(t)

	// Events published with no subscriber land in the replay ring.
	h.Post(t, "/api/v1/alert/raise", `{"severity":"WARNING","code":"SENSOR_FAIL"}`)
	h.Post(t, "/api/v1/radio/init", "")

	scanner := openStream(t, h, "0")
	waitForEvent(t, scanner, "alert")
	waitForEvent(t, scanner, "radioInit")
}

func waitForClients(t *testing.T, h *Harness, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.Hub.ClientCount() >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("never saw %d subscribers", n)
}
