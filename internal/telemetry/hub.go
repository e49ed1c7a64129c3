package telemetry

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is a single supervision event on the SSE stream.
type Event struct {
	ID   int64                  `json:"id"`
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data,omitempty"`
	Time time.Time              `json:"ts"`
}

// client is one SSE subscriber. Events are delivered through a buffered
// channel; a full channel marks the client as slow and drops it.
type client struct {
	id     string
	events chan Event
	once   sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.events) })
}

// Hub fans supervision events out to SSE clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	ring    []Event
	ringCap int
	nextID  int64

	heartbeat time.Duration
	done      chan struct{}
	stopOnce  sync.Once
}

const clientQueueSize = 32

// NewHub creates a hub with the given replay ring capacity and per-client
// heartbeat period.
func NewHub(ringCap int, heartbeat time.Duration) *Hub {
	h := &Hub{
		clients:   make(map[string]*client),
		ring:      make([]Event, 0, ringCap),
		ringCap:   ringCap,
		nextID:    1,
		heartbeat: heartbeat,
		done:      make(chan struct{}),
	}
	return h
}

// Publish appends an event to the replay ring and delivers it to every
// connected client. It returns the assigned event ID and never blocks on
// slow clients.
func (h *Hub) Publish(eventType string, data map[string]interface{}) int64 {
	h.mu.Lock()

	evt := Event{
		ID:   h.nextID,
		Type: eventType,
		Data: data,
		Time: time.Now().UTC(),
	}
	h.nextID++

	if len(h.ring) == h.ringCap {
		h.ring = append(h.ring[:0], h.ring[1:]...)
	}
	h.ring = append(h.ring, evt)

	var slow []*client
	for _, c := range h.clients {
		select {
		case c.events <- evt:
		default:
			slow = append(slow, c)
		}
	}
	for _, c := range slow {
		delete(h.clients, c.id)
	}
	h.mu.Unlock()

	for _, c := range slow {
		c.close()
	}
	return evt.ID
}

// Subscribe serves the SSE stream on w until the request context ends or
// the hub stops. Events newer than the client's Last-Event-ID header are
// replayed from the ring before live delivery starts.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported by response writer")
	}

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	lastID := int64(0)
	if raw := r.Header.Get("Last-Event-ID"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			lastID = id
		}
	}

	c := &client{
		id:     uuid.NewString(),
		events: make(chan Event, clientQueueSize),
	}

	// Snapshot the replay backlog and register in one critical section.
	// Live events queued after registration all carry IDs above the
	// snapshot, so writing the backlog first preserves ID order without
	// bounding the backlog to the channel capacity.
	h.mu.Lock()
	var backlog []Event
	for _, evt := range h.ring {
		if evt.ID > lastID {
			backlog = append(backlog, evt)
		}
	}
	h.clients[c.id] = c
	h.mu.Unlock()

	defer h.removeClient(c)

	for _, evt := range backlog {
		if err := writeEvent(w, evt); err != nil {
			return err
		}
	}
	flusher.Flush()

	heartbeatTick := time.NewTicker(h.heartbeat)
	defer heartbeatTick.Stop()

	for {
		select {
		case <-r.Context().Done():
			return nil
		case <-h.done:
			return nil
		case evt, open := <-c.events:
			if !open {
				return nil
			}
			if err := writeEvent(w, evt); err != nil {
				return err
			}
			flusher.Flush()
		case <-heartbeatTick.C:
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return err
			}
			flusher.Flush()
		}
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop disconnects all clients and stops the heartbeat loop.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		clients := make([]*client, 0, len(h.clients))
		for _, c := range h.clients {
			clients = append(clients, c)
		}
		h.clients = make(map[string]*client)
		h.mu.Unlock()

		for _, c := range clients {
			c.close()
		}
	})
}

func (h *Hub) removeClient(c *client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	c.close()
}

// writeEvent writes one SSE frame: id, event name, and JSON data.
func writeEvent(w http.ResponseWriter, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", evt.ID, evt.Type, payload)
	return err
}
