package hub

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Track payloads fit comfortably.
	maxMessageSize = 4096
)

// Client is one WebSocket connection attached to the Hub. A client may be a
// member of any number of rooms at once; membership lives in the presence
// tracker, not here.
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	id          string
	actorID     uint
	displayName string
	send        chan []byte
	// events is the connection's ordered inbound queue, drained by a single
	// goroutine so events from one connection never race each other.
	events chan []byte
	done   chan struct{}
}

// NewClient creates a Client with a fresh connection id.
func NewClient(hub *Hub, conn *websocket.Conn, actorID uint, displayName string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		id:          uuid.NewString(),
		actorID:     actorID,
		displayName: displayName,
		send:        make(chan []byte, 256),
		events:      make(chan []byte, 64),
		done:        make(chan struct{}),
	}
}

// Run starts the read and write pumps.
func (c *Client) Run() {
	go c.WritePump()
	go c.ReadPump()
}

func (c *Client) ID() string          { return c.id }
func (c *Client) ActorID() uint       { return c.actorID }
func (c *Client) DisplayName() string { return c.displayName }
func (c *Client) CloseConn()          { c.conn.Close() }

// ReadPump pumps messages from the WebSocket connection into the Hub's
// message channel. Runs in its own goroutine; exit triggers unregistration.
func (c *Client) ReadPump() {
	defer func() {
		unregisterMsg := HubMessage{Type: MessageUnregister, Client: c}
		if !c.hub.queueMessageWait(unregisterMsg, 1*time.Second) {
			logrus.WithFields(logrus.Fields{"conn_id": c.id, "actor_id": c.actorID}).
				Warn("Failed to send unregister message to Hub channel")
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			logCtx := logrus.WithFields(logrus.Fields{"conn_id": c.id, "actor_id": c.actorID})
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logCtx.WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				logCtx.Debug("WebSocket connection closed")
			}
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}

		eventMsg := HubMessage{
			Type:    MessageEvent,
			Client:  c,
			RawData: message,
		}
		select {
		case c.hub.messageChan <- eventMsg:
		default:
			logrus.WithFields(logrus.Fields{"conn_id": c.id, "actor_id": c.actorID}).
				Warn("Hub message channel full, dropping client message")
		}
	}
}

// WritePump pumps messages from the send channel to the WebSocket connection
// and keeps the connection alive with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			// Hub finished unregistration for this connection.
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logrus.WithFields(logrus.Fields{"conn_id": c.id, "actor_id": c.actorID}).
					WithError(err).Warn("Failed to write message to websocket")
				return
			}
			_ = c.conn.SetWriteDeadline(time.Time{})

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Time{})
		}
	}
}
