package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Raunaq22/Musicbrew-sub000/internal/domain"
	"github.com/Raunaq22/Musicbrew-sub000/internal/dto"
	"github.com/Raunaq22/Musicbrew-sub000/internal/hub"
	"github.com/Raunaq22/Musicbrew-sub000/internal/service"
)

// RoomHandler covers the request/response surface for rooms and their
// queues.
type RoomHandler struct {
	roomService  *service.RoomService
	queueService *service.QueueService
	presence     *hub.PresenceTracker
}

// NewRoomHandler creates a RoomHandler instance.
func NewRoomHandler(roomService *service.RoomService, queueService *service.QueueService, presence *hub.PresenceTracker) *RoomHandler {
	if roomService == nil || queueService == nil || presence == nil {
		panic("services and presence tracker must be non-nil for RoomHandler")
	}
	return &RoomHandler{
		roomService:  roomService,
		queueService: queueService,
		presence:     presence,
	}
}

// CreateRoomRequest is the body of POST /rooms.
type CreateRoomRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// UpdateRoomRequest is the body of PUT /rooms/:id. Absent fields are left
// unchanged; an empty current_track_id clears the current track.
type UpdateRoomRequest struct {
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	CurrentTrackID *string `json:"current_track_id"`
}

// AppendTrackRequest is the body of POST /rooms/:id/queue.
type AppendTrackRequest struct {
	Track domain.Track `json:"track" binding:"required"`
}

// CreateRoom handles POST /rooms.
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: name is required")
		return
	}

	room, err := h.roomService.Create(c.Request.Context(), actorID, req.Name, req.Description)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	h.respondRoom(c, http.StatusCreated, room)
}

// ListRooms handles GET /rooms. Active rooms only, newest first, with live
// listener counts.
func (h *RoomHandler) ListRooms(c *gin.Context) {
	rooms, err := h.roomService.List(c.Request.Context(), true)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	responses := make([]dto.RoomResponse, 0, len(rooms))
	for i := range rooms {
		response, buildErr := dto.NewRoomResponse(&rooms[i], h.presence.Count(rooms[i].ID))
		if buildErr != nil {
			logrus.WithError(buildErr).WithField("room_id", rooms[i].ID).Error("Failed to build room response")
			ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred")
			return
		}
		responses = append(responses, response)
	}
	SuccessResponse(c, http.StatusOK, responses)
}

// GetRoom handles GET /rooms/:id.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID, ok := roomIDFromPath(c)
	if !ok {
		return
	}
	room, err := h.roomService.Get(c.Request.Context(), roomID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	h.respondRoom(c, http.StatusOK, room)
}

// UpdateRoom handles PUT /rooms/:id. Host only.
func (h *RoomHandler) UpdateRoom(c *gin.Context) {
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}
	roomID, ok := roomIDFromPath(c)
	if !ok {
		return
	}

	var req UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid input")
		return
	}

	room, err := h.roomService.Update(c.Request.Context(), roomID, actorID, service.RoomPatch{
		Name:           req.Name,
		Description:    req.Description,
		CurrentTrackID: req.CurrentTrackID,
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	h.respondRoom(c, http.StatusOK, room)
}

// EndRoom handles DELETE /rooms/:id. Host only; a soft end, idempotent.
func (h *RoomHandler) EndRoom(c *gin.Context) {
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}
	roomID, ok := roomIDFromPath(c)
	if !ok {
		return
	}

	room, err := h.roomService.End(c.Request.Context(), roomID, actorID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	h.respondRoom(c, http.StatusOK, room)
}

// AppendTrack handles POST /rooms/:id/queue. Open to any participant.
func (h *RoomHandler) AppendTrack(c *gin.Context) {
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}
	roomID, ok := roomIDFromPath(c)
	if !ok {
		return
	}

	var req AppendTrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: track is required")
		return
	}

	room, err := h.queueService.Append(c.Request.Context(), roomID, actorID, req.Track)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	h.respondRoom(c, http.StatusOK, room)
}

// RemoveTrack handles DELETE /rooms/:id/queue/:trackId.
func (h *RoomHandler) RemoveTrack(c *gin.Context) {
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}
	roomID, ok := roomIDFromPath(c)
	if !ok {
		return
	}

	room, err := h.queueService.Remove(c.Request.Context(), roomID, actorID, c.Param("trackId"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	h.respondRoom(c, http.StatusOK, room)
}

// RoomActivity handles GET /rooms/:id/activity.
func (h *RoomHandler) RoomActivity(c *gin.Context) {
	roomID, ok := roomIDFromPath(c)
	if !ok {
		return
	}
	activities, err := h.roomService.RecentActivity(c.Request.Context(), roomID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, activities)
}

func (h *RoomHandler) respondRoom(c *gin.Context, code int, room *domain.Room) {
	response, err := dto.NewRoomResponse(room, h.presence.Count(room.ID))
	if err != nil {
		logrus.WithError(err).WithField("room_id", room.ID).Error("Failed to build room response")
		ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}
	SuccessResponse(c, code, response)
}

func actorFromContext(c *gin.Context) (uint, bool) {
	actorIDAny, exists := c.Get("user_id")
	if !exists {
		logrus.Warn("Handler: user id not found in context, middleware missing or failed?")
		ErrorResponse(c, http.StatusUnauthorized, "User not authenticated")
		return 0, false
	}
	actorID, ok := actorIDAny.(uint)
	if !ok {
		logrus.Error("Handler: user id in context is not uint")
		ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred")
		return 0, false
	}
	return actorID, true
}

func roomIDFromPath(c *gin.Context) (uint, bool) {
	roomID64, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid room id")
		return 0, false
	}
	return uint(roomID64), true
}
