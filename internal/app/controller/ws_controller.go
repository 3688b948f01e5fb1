package controller

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pixelsock/matrix-configurator-backend/internal/app/service"
	apperrors "github.com/pixelsock/matrix-configurator-backend/internal/errors"
	"github.com/pixelsock/matrix-configurator-backend/internal/middleware"
	ws "github.com/pixelsock/matrix-configurator-backend/internal/websocket"
)

// sessionFeed tracks one service subscription shared by every open
// connection of a session.
type sessionFeed struct {
	refs        int
	unsubscribe func()
}

type WSController struct {
	configuratorService service.ConfiguratorService
	hub                 *ws.Hub
	upgrader            websocket.Upgrader

	mu    sync.Mutex
	feeds map[string]*sessionFeed
}

func NewWSController(configuratorService service.ConfiguratorService, hub *ws.Hub, allowedOrigins []string) *WSController {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origins[origin] = true
	}

	ctrl := &WSController{
		configuratorService: configuratorService,
		hub:                 hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					// Non-browser clients (tests, curl) send no Origin
					return true
				}
				return origins[origin]
			},
		},
		feeds: make(map[string]*sessionFeed),
	}

	hub.RefreshFunc = func(sessionID string) {
		state, err := configuratorService.GetSession(sessionID)
		if err != nil {
			return
		}
		hub.Push(sessionID, state)
	}

	return ctrl
}

// Handle upgrades the request and streams session state to the client
// GET /api/v1/sessions/:id/ws
func (ctrl *WSController) Handle(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sessionID := c.Param("id")

	// Reject unknown sessions before upgrading
	state, err := ctrl.configuratorService.GetSession(sessionID)
	if err != nil {
		apperrors.NotFound(c, apperrors.ConfigSessionNotFound, "Configurator session not found")
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}

	client := &ws.Client{
		Hub:           ctrl.hub,
		Conn:          &ws.Conn{Conn: conn},
		SessionID:     sessionID,
		Send:          make(chan []byte, 256),
		LastResetTime: time.Now(),
	}

	if err := ctrl.acquireFeed(sessionID); err != nil {
		conn.Close()
		return
	}

	ctrl.hub.Register(client)

	go client.WritePump()
	go func() {
		client.ReadPump()
		ctrl.releaseFeed(sessionID)
	}()

	// Send the current state right away so the client does not wait for
	// the next change
	ctrl.hub.Push(sessionID, state)

	log.Info("WebSocket connection established", map[string]interface{}{
		"session_id": sessionID,
	})
}

// acquireFeed subscribes to the session on its first connection. Later
// connections share the subscription; the hub fans each push out to all
// of them.
func (ctrl *WSController) acquireFeed(sessionID string) error {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	if feed, ok := ctrl.feeds[sessionID]; ok {
		feed.refs++
		return nil
	}

	unsubscribe, err := ctrl.configuratorService.Subscribe(sessionID, func(state service.SessionState) {
		ctrl.hub.Push(sessionID, state)
	})
	if err != nil {
		return err
	}

	ctrl.feeds[sessionID] = &sessionFeed{refs: 1, unsubscribe: unsubscribe}
	return nil
}

func (ctrl *WSController) releaseFeed(sessionID string) {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	feed, ok := ctrl.feeds[sessionID]
	if !ok {
		return
	}
	feed.refs--
	if feed.refs <= 0 {
		feed.unsubscribe()
		delete(ctrl.feeds, sessionID)
	}
}
