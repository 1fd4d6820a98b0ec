package api

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/go-monolith/mono/pkg/types"
)

// clientBuffer bounds the messages queued for one client before it is dropped.
const clientBuffer = 16

// streamClient is one WebSocket subscriber. The hub closes send when the
// client is removed.
type streamClient struct {
	id   string
	send chan []byte
}

func newStreamClient(id string) *streamClient {
	return &streamClient{id: id, send: make(chan []byte, clientBuffer)}
}

// Hub fans task change messages out to connected stream clients.
type Hub struct {
	clients    map[string]*streamClient
	register   chan *streamClient
	unregister chan *streamClient
	broadcast  chan []byte
	done       chan struct{}
	mu         sync.RWMutex
	logger     types.Logger
}

// NewHub creates a new Hub. Call Run to start it.
func NewHub(logger types.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*streamClient),
		register:   make(chan *streamClient),
		unregister: make(chan *streamClient),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run processes registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			close(h.done)
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			h.mu.Unlock()
			h.logger.Debug("Stream client registered", "client_id", client.id)
		case client := <-h.unregister:
			h.remove(client.id)
		case data := <-h.broadcast:
			h.fanOut(data)
		}
	}
}

// Wait blocks until the hub has stopped.
func (h *Hub) Wait() {
	<-h.done
}

func (h *Hub) fanOut(data []byte) {
	h.mu.RLock()
	var slow []string
	for id, client := range h.clients {
		select {
		case client.send <- data:
		default:
			slow = append(slow, id)
		}
	}
	h.mu.RUnlock()

	for _, id := range slow {
		h.logger.Warn("Dropping slow stream client", "client_id", id)
		h.remove(id)
	}
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(client.send)
		h.logger.Debug("Stream client unregistered", "client_id", id)
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		close(client.send)
		delete(h.clients, id)
	}
}

// Register adds a client. It reports false once the hub has stopped.
func (h *Hub) Register(client *streamClient) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(client *streamClient) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues payload for every client. It never blocks the caller;
// messages are dropped when the queue is full or the hub has stopped.
func (h *Hub) Broadcast(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal stream message", "error", err)
		return
	}

	select {
	case h.broadcast <- data:
	case <-h.done:
	default:
		h.logger.Warn("Stream queue full, dropping message")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
