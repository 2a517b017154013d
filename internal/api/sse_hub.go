package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"voteaudit/internal"
	"voteaudit/ports"
)

// AllRuns is the subscription key that receives events of every run.
const AllRuns = "*"

// SSEClient represents a connected SSE client
type SSEClient struct {
	Key     string
	Channel chan ports.RunEvent
}

// SSEHub fans run events out to Server-Sent Events subscribers. Clients
// subscribe to one run id or to AllRuns.
type SSEHub struct {
	clients    map[string]map[chan ports.RunEvent]bool
	clientsMu  sync.RWMutex
	register   chan SSEClient
	unregister chan SSEClient
	broadcast  chan ports.RunEvent
	done       chan struct{}
	keepAlive  time.Duration
	logger     *internal.Logger
}

// NewSSEHub creates a new SSE hub and starts its dispatch loop
func NewSSEHub(logger *internal.Logger) *SSEHub {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	hub := &SSEHub{
		clients:    make(map[string]map[chan ports.RunEvent]bool),
		register:   make(chan SSEClient, 10),
		unregister: make(chan SSEClient, 10),
		broadcast:  make(chan ports.RunEvent, 100),
		done:       make(chan struct{}),
		keepAlive:  30 * time.Second,
		logger:     logger,
	}

	go hub.run()
	return hub
}

// Close stops the dispatch loop
func (h *SSEHub) Close() {
	close(h.done)
}

func (h *SSEHub) run() {
	for {
		select {
		case <-h.done:
			return

		case client := <-h.register:
			h.clientsMu.Lock()
			if h.clients[client.Key] == nil {
				h.clients[client.Key] = make(map[chan ports.RunEvent]bool)
			}
			h.clients[client.Key][client.Channel] = true
			h.logger.Debug("[SSE] client registered for %s (total clients: %d)", client.Key, len(h.clients[client.Key]))
			h.clientsMu.Unlock()

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if clients, exists := h.clients[client.Key]; exists {
				delete(clients, client.Channel)
				if len(clients) == 0 {
					delete(h.clients, client.Key)
				}
			}
			h.clientsMu.Unlock()

		case event := <-h.broadcast:
			h.clientsMu.RLock()
			for _, key := range []string{event.RunID.String(), AllRuns} {
				for clientChan := range h.clients[key] {
					select {
					case clientChan <- event:
					default:
						h.logger.Warn("[SSE] client channel full for %s, skipping %s", key, event.EventType)
					}
				}
			}
			h.clientsMu.RUnlock()
		}
	}
}

// Publish queues an event for delivery; it drops the event when the queue is full.
func (h *SSEHub) Publish(event ports.RunEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("[SSE] broadcast channel full, dropping event: %s", event.EventType)
	}
}

// HandleSSE streams events. The optional run_id query parameter narrows the
// stream to a single run.
func (h *SSEHub) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	key := r.URL.Query().Get("run_id")
	if key == "" {
		key = AllRuns
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	clientChan := make(chan ports.RunEvent, 10)
	client := SSEClient{Key: key, Channel: clientChan}
	select {
	case h.register <- client:
	case <-r.Context().Done():
		return
	}
	defer func() {
		select {
		case h.unregister <- client:
		case <-h.done:
		}
	}()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case event := <-clientChan:
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("[SSE] failed to marshal event: %v", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.EventType, payload)
			flusher.Flush()

		case <-ticker.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\": %q}\n\n", time.Now().UTC().Format(time.RFC3339))
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// ClientCount returns the number of active clients for a key
func (h *SSEHub) ClientCount(key string) int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients[key])
}
