package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/pixelsock/matrix-configurator-backend/pkg/logger"
)

const (
	// Rate limiting: maximum inbound messages per client per second
	maxMessagesPerSecond = 10
)

// ClientMessage is an inbound message from a configurator client.
type ClientMessage struct {
	Type string `json:"type"` // ping, refresh
}

// Client is one WebSocket connection bound to a configurator session.
// The same session may be open in several browser tabs, so the hub keeps
// a list of clients per session ID.
type Client struct {
	Hub           *Hub
	Conn          *Conn
	SessionID     string
	Send          chan []byte
	MessageCount  int       // inbound messages in the current window
	LastResetTime time.Time // start of the current rate window
	RateMu        sync.Mutex
}

// Hub fans configurator state updates out to connected clients.
type Hub struct {
	// Registered clients per session ID. Multiple tabs share a session.
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client

	// State pushes addressed to a single session
	push chan *SessionMessage

	// Invoked when an inbound "refresh" message arrives. Wired by the
	// controller so the hub stays free of service dependencies.
	RefreshFunc func(sessionID string)

	mu sync.RWMutex
}

// SessionMessage is a payload addressed to every client of one session.
type SessionMessage struct {
	SessionID string
	Message   []byte
}

// NewHub creates a hub ready for Run
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		push:       make(chan *SessionMessage, 1024),
	}
}

// Run processes register, unregister and push events. Call in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"session_id":        client.SessionID,
				"total_connections": h.ConnectionCount(client.SessionID),
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if clientList, ok := h.clients[client.SessionID]; ok {
				found := false
				newList := make([]*Client, 0, len(clientList))
				for _, c := range clientList {
					if c == client {
						found = true
						continue
					}
					newList = append(newList, c)
				}

				if len(newList) == 0 {
					delete(h.clients, client.SessionID)
				} else {
					h.clients[client.SessionID] = newList
				}

				// A client can be unregistered twice: once by the
				// buffer-full drop path and once by its read pump
				// shutting down. Close the channel only on the pass
				// that actually removed it.
				if found {
					close(client.Send)
				}
			}
			h.mu.Unlock()
			logger.Info("WebSocket client unregistered", map[string]interface{}{
				"session_id":            client.SessionID,
				"remaining_connections": h.ConnectionCount(client.SessionID),
			})

		case message := <-h.push:
			h.mu.RLock()
			if clientList, ok := h.clients[message.SessionID]; ok {
				for _, client := range clientList {
					select {
					case client.Send <- message.Message:
						// delivered
					default:
						// Send buffer is full, drop the connection asynchronously
						go h.Unregister(client)
						logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
							"session_id": message.SessionID,
						})
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Push sends a payload to every connection of the given session. Delivery
// is best effort: when the push buffer is full the message is dropped and
// clients catch up on the next state change.
func (h *Hub) Push(sessionID string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal push payload", err, nil)
		return err
	}

	select {
	case h.push <- &SessionMessage{SessionID: sessionID, Message: data}:
		return nil
	default:
		logger.Warn("Push channel full, message dropped", map[string]interface{}{
			"session_id": sessionID,
		})
		return nil
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// IsSessionConnected reports whether any client of the session is online
func (h *Hub) IsSessionConnected(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[sessionID]
	return ok
}

// ConnectionCount returns the number of open connections for a session
func (h *Hub) ConnectionCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// HandleClientMessage processes an inbound client message
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	client.RateMu.Lock()
	now := time.Now()
	if now.Sub(client.LastResetTime) >= time.Second {
		client.MessageCount = 0
		client.LastResetTime = now
	}
	client.MessageCount++
	count := client.MessageCount
	client.RateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"session_id": client.SessionID,
			"count":      count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"session_id": client.SessionID,
			"error":      err.Error(),
		})
		return
	}

	switch msg.Type {
	case "ping":
		// Keepalive only, the transport-level pong handler covers timeouts
	case "refresh":
		if h.RefreshFunc != nil {
			h.RefreshFunc(client.SessionID)
		}
	default:
		logger.Warn("Unknown client message type", map[string]interface{}{
			"session_id": client.SessionID,
			"type":       msg.Type,
		})
	}
}
