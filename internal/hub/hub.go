package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/Raunaq22/Musicbrew-sub000/internal/domain"
	"github.com/Raunaq22/Musicbrew-sub000/internal/dto"
	"github.com/Raunaq22/Musicbrew-sub000/internal/repository"
	"github.com/Raunaq22/Musicbrew-sub000/internal/service"
)

// Hub message types.
const (
	MessageRegister   = "register"
	MessageUnregister = "unregister"
	MessageEvent      = "event"
)

const (
	// Deadline for room store calls made on behalf of an inbound event.
	eventTimeout = 5 * time.Second
	// Deadline for disconnect cleanup broadcasts. Presence UI must settle
	// within this window.
	disconnectTimeout = 500 * time.Millisecond
)

// HubMessage is the unit of work on the Hub's internal channel.
type HubMessage struct {
	Type    string
	Client  *Client
	RawData []byte
}

// Hub is the session gateway: it owns the WebSocket clients, routes their
// events into the services, and fans room broadcasts back out. Broadcasts
// travel through the Redis event bus so that every instance, not just the
// originating one, delivers them to its local connections.
type Hub struct {
	messageChan chan HubMessage
	sendMu      sync.RWMutex
	sendClosed  bool

	clientsMu sync.RWMutex
	clients   map[string]*Client

	presence *PresenceTracker

	roomService  *service.RoomService
	queueService *service.QueueService
	chatService  *service.ChatService

	stateRepo   repository.StateRepository
	redisClient *redis.Client

	subsMu sync.Mutex
	subs   map[uint]*redis.PubSub
}

// NewHub creates a Hub instance.
func NewHub(
	presence *PresenceTracker,
	roomService *service.RoomService,
	queueService *service.QueueService,
	chatService *service.ChatService,
	stateRepo repository.StateRepository,
	redisClient *redis.Client,
) *Hub {
	if presence == nil || roomService == nil || queueService == nil || chatService == nil {
		panic("presence tracker and services must be non-nil for Hub")
	}
	if stateRepo == nil || redisClient == nil {
		panic("state repository and redis client must be non-nil for Hub")
	}
	return &Hub{
		messageChan:  make(chan HubMessage, 512),
		clients:      make(map[string]*Client),
		presence:     presence,
		roomService:  roomService,
		queueService: queueService,
		chatService:  chatService,
		stateRepo:    stateRepo,
		redisClient:  redisClient,
		subs:         make(map[uint]*redis.PubSub),
	}
}

// Presence exposes the tracker so HTTP handlers can read live listener
// counts.
func (h *Hub) Presence() *PresenceTracker {
	return h.presence
}

// Run is the Hub's main dispatch loop. It must run in its own goroutine and
// exits when the message channel is closed.
func (h *Hub) Run() {
	log := logrus.WithField("component", "hub")
	log.Info("Hub is running")

	for msg := range h.messageChan {
		switch msg.Type {
		case MessageRegister:
			h.registerClient(msg.Client)
		case MessageUnregister:
			h.unregisterClient(msg.Client)
		case MessageEvent:
			// Events go through the connection's ordered queue: one goroutine
			// per connection drains it, so a connection's events are handled
			// in arrival order while separate connections stay concurrent and
			// a slow room cannot starve the dispatch loop.
			h.enqueueEvent(msg)
		default:
			log.Warnf("Received unknown hub message type: %s", msg.Type)
		}
	}
	log.Info("Hub is shutting down")
}

// QueueMessage enqueues a message for the dispatch loop without blocking.
// Returns false when the queue is full or the hub has shut down.
func (h *Hub) QueueMessage(msg HubMessage) bool {
	h.sendMu.RLock()
	defer h.sendMu.RUnlock()
	if h.sendClosed {
		return false
	}
	select {
	case h.messageChan <- msg:
		return true
	default:
		logrus.WithField("message_type", msg.Type).Warn("Hub message channel full, dropping message")
		return false
	}
}

// queueMessageWait enqueues a message, waiting up to timeout for channel
// space. Used for unregistration, which must not be dropped lightly.
func (h *Hub) queueMessageWait(msg HubMessage, timeout time.Duration) bool {
	h.sendMu.RLock()
	defer h.sendMu.RUnlock()
	if h.sendClosed {
		return false
	}
	select {
	case h.messageChan <- msg:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Close stops the dispatch loop. Late senders are turned away instead of
// hitting a closed channel.
func (h *Hub) Close() {
	h.sendMu.Lock()
	defer h.sendMu.Unlock()
	if h.sendClosed {
		return
	}
	h.sendClosed = true
	close(h.messageChan)
}

// StopAllSubscriptions tears down every room event-bus subscription. Part of
// shutdown.
func (h *Hub) StopAllSubscriptions() {
	h.subsMu.Lock()
	defer h.subsMu.Unlock()
	for roomID, pubsub := range h.subs {
		if err := pubsub.Close(); err != nil {
			logrus.WithError(err).WithField("room_id", roomID).Warn("Failed to close room subscription")
		}
		delete(h.subs, roomID)
	}
}

func (h *Hub) registerClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: attempted to register a nil client")
		return
	}
	h.clientsMu.Lock()
	h.clients[client.id] = client
	h.clientsMu.Unlock()
	go h.clientEventLoop(client)
	logrus.WithFields(logrus.Fields{"conn_id": client.id, "actor_id": client.actorID}).
		Info("Client registered to Hub")
}

// enqueueEvent hands an inbound event to its client's ordered queue. The
// dispatch loop is the only sender and sees register before any event and
// every event before unregister, so the queue is always open here.
func (h *Hub) enqueueEvent(msg HubMessage) {
	select {
	case msg.Client.events <- msg.RawData:
	default:
		logrus.WithFields(logrus.Fields{"conn_id": msg.Client.id, "actor_id": msg.Client.actorID}).
			Warn("Client event queue full, dropping event")
	}
}

// clientEventLoop processes one connection's events in arrival order. Exits
// when the queue is closed during unregistration.
func (h *Hub) clientEventLoop(client *Client) {
	for raw := range client.events {
		h.handleEvent(HubMessage{Type: MessageEvent, Client: client, RawData: raw})
	}
}

func (h *Hub) unregisterClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: attempted to unregister a nil client")
		return
	}
	h.clientsMu.Lock()
	_, known := h.clients[client.id]
	delete(h.clients, client.id)
	h.clientsMu.Unlock()
	if !known {
		return
	}

	logCtx := logrus.WithFields(logrus.Fields{"conn_id": client.id, "actor_id": client.actorID})

	// Disconnect cleanup is bounded: presence must settle promptly even when
	// the event bus is slow.
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()

	roomIDs := h.presence.DropConnection(client.id)
	for _, roomID := range roomIDs {
		h.publish(ctx, roomID, client.id, dto.EventUserDisconnected, dto.UserDisconnectedPayload{
			ConnectionID: client.id,
			Timestamp:    time.Now().UTC(),
		})
		h.maybeUnsubscribe(roomID)
	}

	// The known-client check above makes this single-shot. The event queue
	// close lets the client's event loop drain and exit; done signals the
	// write pump, which keeps send safe for any straggling deliver.
	close(client.events)
	close(client.done)
	logCtx.WithField("rooms_left", len(roomIDs)).Info("Client unregistered from Hub")
}

// handleEvent routes one inbound client event. Failures are answered with an
// error event to the sender and otherwise dropped; there is no retry.
func (h *Hub) handleEvent(msg HubMessage) {
	client := msg.Client
	logCtx := logrus.WithFields(logrus.Fields{"conn_id": client.id, "actor_id": client.actorID})

	var event dto.Event
	if err := json.Unmarshal(msg.RawData, &event); err != nil {
		logCtx.WithError(err).Warn("Malformed client event, dropping")
		h.sendError(client, "malformed event")
		return
	}
	logCtx = logCtx.WithField("event_type", event.Type)

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	var err error
	switch event.Type {
	case dto.EventJoinRoom:
		err = h.handleJoin(ctx, client, event.Payload)
	case dto.EventLeaveRoom:
		err = h.handleLeave(ctx, client, event.Payload)
	case dto.EventChatMessage:
		err = h.handleChat(ctx, client, event.Payload)
	case dto.EventTypingStart, dto.EventTypingStop:
		err = h.handleTyping(ctx, client, event.Type, event.Payload)
	case dto.EventQueueUpdate:
		err = h.handleQueueUpdate(ctx, client, event.Payload)
	case dto.EventTrackControl:
		err = h.handleTrackControl(ctx, client, event.Payload)
	default:
		logCtx.Warn("Unroutable client event, dropping")
		h.sendError(client, "unknown event type: "+event.Type)
		return
	}

	if err != nil {
		logCtx.WithError(err).Warn("Client event failed")
		h.sendError(client, clientErrorMessage(err))
	}
}

func (h *Hub) handleJoin(ctx context.Context, client *Client, raw json.RawMessage) error {
	var payload dto.JoinRoomPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return errBadPayload
	}
	room, err := h.roomService.Get(ctx, payload.RoomID)
	if err != nil {
		return err
	}
	if !room.IsActive {
		return service.ErrRoomEnded
	}

	joined := h.presence.Join(client.id, room.ID, client.actorID, client.displayName)
	if joined {
		h.subscribeRoom(room.ID)
		h.publish(ctx, room.ID, client.id, dto.EventUserJoined, dto.UserJoinedPayload{
			ConnectionID: client.id,
			DisplayName:  client.displayName,
		})
	}

	// New members get the full room state directly, whether or not this was
	// a duplicate join.
	return h.sendRoomState(client, room)
}

func (h *Hub) handleLeave(ctx context.Context, client *Client, raw json.RawMessage) error {
	var payload dto.LeaveRoomPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return errBadPayload
	}
	if !h.presence.Leave(client.id, payload.RoomID) {
		return errNotMember
	}
	h.publish(ctx, payload.RoomID, client.id, dto.EventUserLeft, dto.UserLeftPayload{
		ConnectionID: client.id,
	})
	h.maybeUnsubscribe(payload.RoomID)
	return nil
}

func (h *Hub) handleChat(ctx context.Context, client *Client, raw json.RawMessage) error {
	var payload dto.ChatMessagePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return errBadPayload
	}
	if !h.presence.IsMember(client.id, payload.RoomID) {
		return errNotMember
	}
	_, err := h.chatService.PostMessage(ctx, payload.RoomID, client.actorID, client.displayName, payload.Message)
	return err
}

func (h *Hub) handleTyping(ctx context.Context, client *Client, eventType string, raw json.RawMessage) error {
	var payload dto.TypingPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return errBadPayload
	}
	if !h.presence.IsMember(client.id, payload.RoomID) {
		return errNotMember
	}
	if eventType == dto.EventTypingStart {
		return h.chatService.TypingStart(ctx, payload.RoomID, client.actorID, client.displayName, client.id)
	}
	return h.chatService.TypingStop(ctx, payload.RoomID, client.actorID, client.displayName, client.id)
}

func (h *Hub) handleQueueUpdate(ctx context.Context, client *Client, raw json.RawMessage) error {
	var payload dto.QueueUpdatePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return errBadPayload
	}
	if !h.presence.IsMember(client.id, payload.RoomID) {
		return errNotMember
	}
	switch payload.Op {
	case dto.QueueOpAppend:
		if payload.Track == nil {
			return errBadPayload
		}
		_, err := h.queueService.Append(ctx, payload.RoomID, client.actorID, *payload.Track)
		return err
	case dto.QueueOpRemove:
		_, err := h.queueService.Remove(ctx, payload.RoomID, client.actorID, payload.TrackID)
		return err
	default:
		return errBadPayload
	}
}

func (h *Hub) handleTrackControl(ctx context.Context, client *Client, raw json.RawMessage) error {
	var payload dto.TrackControlPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return errBadPayload
	}
	if !h.presence.IsMember(client.id, payload.RoomID) {
		return errNotMember
	}
	_, err := h.queueService.RelayTrackControl(ctx, payload.RoomID, client.actorID, payload.Action, payload.Track)
	return err
}

// sendRoomState delivers the current room snapshot directly to one client,
// with the live listener count attached.
func (h *Hub) sendRoomState(client *Client, room *domain.Room) error {
	response, err := dto.NewRoomResponse(room, h.presence.Count(room.ID))
	if err != nil {
		logrus.WithError(err).WithField("room_id", room.ID).Error("Failed to build room state")
		return service.ErrInternalServer
	}
	message, err := dto.EncodeEvent(dto.EventRoomState, response)
	if err != nil {
		logrus.WithError(err).Error("Failed to encode room state")
		return service.ErrInternalServer
	}
	h.deliver(client.id, message)
	return nil
}

// publish pushes a broadcast onto the room event bus, excluding the
// originating connection from delivery.
func (h *Hub) publish(ctx context.Context, roomID uint, excludeConn, eventType string, payload interface{}) {
	envelope, err := dto.EncodeEnvelope(roomID, excludeConn, eventType, payload)
	if err != nil {
		logrus.WithError(err).WithField("event_type", eventType).Error("Failed to encode broadcast envelope")
		return
	}
	if err := h.stateRepo.PublishEvent(ctx, roomID, envelope); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"room_id": roomID, "event_type": eventType}).
			Error("Failed to publish broadcast")
	}
}

// subscribeRoom starts the event-bus subscription for a room when the first
// local connection joins it.
func (h *Hub) subscribeRoom(roomID uint) {
	h.subsMu.Lock()
	defer h.subsMu.Unlock()
	if _, ok := h.subs[roomID]; ok {
		return
	}
	pubsub := h.redisClient.Subscribe(context.Background(), h.stateRepo.EventChannel(roomID))
	h.subs[roomID] = pubsub
	go h.fanOutLoop(roomID, pubsub)
	logrus.WithField("room_id", roomID).Debug("Subscribed to room event channel")
}

// maybeUnsubscribe drops the room subscription once no local connection is
// left in the room.
func (h *Hub) maybeUnsubscribe(roomID uint) {
	if h.presence.Count(roomID) > 0 {
		return
	}
	h.subsMu.Lock()
	defer h.subsMu.Unlock()
	pubsub, ok := h.subs[roomID]
	if !ok {
		return
	}
	delete(h.subs, roomID)
	if err := pubsub.Close(); err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Warn("Failed to close room subscription")
	}
	logrus.WithField("room_id", roomID).Debug("Unsubscribed from room event channel")
}

// fanOutLoop delivers every envelope from the room's event channel to the
// local connections in that room. Exits when the subscription is closed.
func (h *Hub) fanOutLoop(roomID uint, pubsub *redis.PubSub) {
	logCtx := logrus.WithField("room_id", roomID)
	for redisMsg := range pubsub.Channel() {
		envelope, err := dto.DecodeEnvelope([]byte(redisMsg.Payload))
		if err != nil {
			logCtx.WithError(err).Warn("Dropping undecodable broadcast envelope")
			continue
		}
		for _, connID := range h.presence.Connections(roomID) {
			if connID == envelope.Exclude {
				continue
			}
			h.deliver(connID, envelope.Message)
		}
	}
	logCtx.Debug("Room fan-out loop exited")
}

// deliver writes a message to one local client's send queue without
// blocking. A full queue drops the message; the write pump or disconnect
// cleanup deals with the slow client.
func (h *Hub) deliver(connID string, message []byte) {
	h.clientsMu.RLock()
	client, ok := h.clients[connID]
	h.clientsMu.RUnlock()
	if !ok {
		return
	}
	select {
	case client.send <- message:
	default:
		logrus.WithField("conn_id", connID).Warn("Client send channel full, dropping message")
	}
}

// sendError echoes an error event to the originating connection.
func (h *Hub) sendError(client *Client, message string) {
	encoded, err := dto.EncodeEvent(dto.EventError, dto.ErrorPayload{Message: message})
	if err != nil {
		logrus.WithError(err).Error("Failed to encode error event")
		return
	}
	h.deliver(client.id, encoded)
}

var (
	errBadPayload = errors.New("invalid event payload")
	errNotMember  = errors.New("not a member of this room")
)

// clientErrorMessage maps an internal error to the message echoed back to
// the sender. Actionable errors pass through; everything else is masked.
func clientErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrTrackNotFound),
		errors.Is(err, service.ErrRoomEnded),
		errors.Is(err, service.ErrConflict),
		errors.Is(err, errBadPayload),
		errors.Is(err, errNotMember):
		return err.Error()
	default:
		return "internal error"
	}
}
