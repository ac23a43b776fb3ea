package main

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ServerEvent is a direct notification pushed to a user's socket.
type ServerEvent struct {
	Type string `json:"type"` // "introduction_request" | "introduction_sent" | "introduction_accepted" | "info"
	From string `json:"from,omitempty"`
	Data any    `json:"data,omitempty"`
}

// Notifier is the best-effort "deliver to user X" primitive the introduction
// protocol depends on. No delivery guarantee and no retries are owed: an
// error means the attempt itself failed (user offline), nothing more.
type Notifier interface {
	SendDirect(userID string, evt ServerEvent) error
}

// Client represents one open notification socket.
type Client struct {
	userID string
	conn   *websocket.Conn
	send   chan ServerEvent
}

// Hub manages notification sockets per user. A user may hold several open
// sockets (multiple devices); SendDirect fans out to all of them.
type Hub struct {
	clientsByUser map[string]map[*Client]bool
	mu            sync.RWMutex
}

func newHub() *Hub {
	return &Hub{
		clientsByUser: make(map[string]map[*Client]bool),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clientsByUser[c.userID] == nil {
		h.clientsByUser[c.userID] = make(map[*Client]bool)
	}
	h.clientsByUser[c.userID][c] = true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if peers, ok := h.clientsByUser[c.userID]; ok {
		if _, present := peers[c]; present {
			delete(peers, c)
			// Stops the writer goroutine. Safe against SendDirect: sends
			// happen under the read lock, closes under the write lock.
			close(c.send)
		}
		if len(peers) == 0 {
			delete(h.clientsByUser, c.userID)
		}
	}
}

// SendDirect delivers evt to every open socket of userID. Fails when the user
// has no socket open — the "DMs closed" case callers surface as a soft
// warning.
func (h *Hub) SendDirect(userID string, evt ServerEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	peers, ok := h.clientsByUser[userID]
	if !ok || len(peers) == 0 {
		return fmt.Errorf("user %s has no open notification socket", userID)
	}
	for c := range peers {
		select {
		case c.send <- evt:
		default:
			// Drop event if this socket's buffer is full
		}
	}
	return nil
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dev frontends connect cross-origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

// GET /ws/notifications
// Upgrades to a per-user socket the hub pushes ServerEvents to.
func wsNotificationsHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := getUserIDFromRequest(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WS upgrade error for user %s: %v", userID, err)
			return
		}

		client := &Client{
			userID: userID,
			conn:   conn,
			send:   make(chan ServerEvent, 16),
		}
		hub.register(client)

		// Announce connection to this client
		client.send <- ServerEvent{Type: "info", Data: "connected"}

		go clientWriter(client)
		clientReader(hub, client) // blocks until the socket drops
	}
}

// clientReader drains inbound frames until the peer closes. The notification
// channel is push-only; anything the client sends only feeds the keepalive.
func clientReader(hub *Hub, c *Client) {
	defer func() {
		hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(1 << 20)
	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func clientWriter(c *Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case evt, ok := <-c.send:
			if !ok {
				// unregister closed the channel; we're done
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(evt); err != nil {
				log.Printf("WS write error for user %s: %v", c.userID, err)
				return
			}
		case <-ticker.C:
			// ping to keep the connection alive
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
