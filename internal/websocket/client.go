package websocket

import (
	"encoding/json"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
)

// Handler turns one inbound frame into the reply written back to the peer.
type Handler func(raw []byte) interface{}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	SessionID uuid.UUID

	// Buffered channel of outbound messages.
	Send chan []byte

	handle Handler
}

// ServeWs runs one tutoring session until the peer goes away.
func ServeWs(hub *Hub, conn *websocket.Conn, handle Handler) {
	client := &Client{
		Hub:       hub,
		Conn:      conn,
		SessionID: uuid.New(),
		Send:      make(chan []byte, 16),
		handle:    handle,
	}
	if !hub.add(client) {
		conn.Close()
		return
	}

	go client.writePump()
	client.readPump() // Run readPump in current goroutine (handler)
}

// readPump answers frames in arrival order. It is the only sender on Send,
// so the hub may close Send once readPump has unregistered.
func (c *Client) readPump() {
	defer func() {
		c.Hub.remove(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("Hub", "Unexpected close", map[string]interface{}{
					"session_id": c.SessionID.String(),
					"error":      err.Error(),
				})
			}
			return
		}

		data, err := json.Marshal(c.handle(raw))
		if err != nil {
			continue
		}
		select {
		case c.Send <- data:
		default:
			c.Hub.logger.Warn("Hub", "Send buffer full, dropping reply", map[string]interface{}{"session_id": c.SessionID.String()})
		}
		// Answers can take longer than pongWait.
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

// writePump pumps replies to the websocket connection and keeps it alive.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
