package websocket

import (
	"context"
	"sync"

	"buddy-tutor-be/internal/pkg/logger"

	"github.com/google/uuid"
)

// Hub tracks the open tutoring sessions.
type Hub struct {
	clients map[uuid.UUID]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Closed when Run returns.
	done chan struct{}

	mu sync.RWMutex

	logger logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID]*Client),
		done:       make(chan struct{}),
		logger:     log,
	}
}

// Run serves register and unregister requests until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			// Closing the socket ends both pumps. Send stays open because
			// readPump may still be writing to it.
			for id, client := range h.clients {
				client.Conn.Close()
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = client
			active := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("Hub", "Session opened", map[string]interface{}{
				"session_id": client.SessionID.String(),
				"active":     active,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.SessionID]; ok {
				delete(h.clients, client.SessionID)
				close(client.Send)
			}
			active := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("Hub", "Session closed", map[string]interface{}{
				"session_id": client.SessionID.String(),
				"active":     active,
			})
		}
	}
}

// Active reports the number of open sessions.
func (h *Hub) Active() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// add reports false once the hub has stopped.
func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
