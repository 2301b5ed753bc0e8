package websocket

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Raunaq22/Musicbrew-sub000/internal/hub"
)

// WebSocketHandler upgrades authenticated requests and hands the connection
// to the hub. Room membership is negotiated afterwards via join events on
// the socket itself.
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	hub      *hub.Hub
}

// NewWebSocketHandler creates a WebSocketHandler instance.
func NewWebSocketHandler(sessionHub *hub.Hub) *WebSocketHandler {
	if sessionHub == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// TODO: restrict origins once the frontend domain is settled.
			return true
		},
	}
	return &WebSocketHandler{
		upgrader: upgrader,
		hub:      sessionHub,
	}
}

// HandleConnection handles GET /ws.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	actorIDAny, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	actorID, ok := actorIDAny.(uint)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	displayName := fmt.Sprintf("user-%d", actorID)
	if nameAny, exists := c.Get("display_name"); exists {
		if name, ok := nameAny.(string); ok && name != "" {
			displayName = name
		}
	}
	logCtx := logrus.WithField("actor_id", actorID)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		logCtx.WithError(err).Error("WS Handler: failed to upgrade connection")
		return
	}

	client := hub.NewClient(h.hub, conn, actorID, displayName)
	registerMsg := hub.HubMessage{
		Type:   hub.MessageRegister,
		Client: client,
	}
	if !h.hub.QueueMessage(registerMsg) {
		logCtx.Error("WS Handler: hub message channel full, failed to register client")
		client.CloseConn()
		return
	}

	client.Run()
	logCtx.WithField("conn_id", client.ID()).Info("WS Handler: client connected")
}
