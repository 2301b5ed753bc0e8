package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Raunaq22/Musicbrew-sub000/internal/domain"
	"github.com/Raunaq22/Musicbrew-sub000/internal/dto"
	"github.com/Raunaq22/Musicbrew-sub000/internal/repository"
)

const (
	maxChatMessageLen = 1000

	// DefaultTypingTTL is how long a typing indicator stays alive without a
	// stop from the client. The server expires it on its own so a crashed
	// client cannot leave a stale indicator behind.
	DefaultTypingTTL = 3 * time.Second

	publishTimeout = 2 * time.Second
)

// ChatService fans chat messages and typing indicators out to a room.
// Messages get a per-room monotonic sequence number from Redis and are never
// persisted; they die with the session.
type ChatService struct {
	stateRepo repository.StateRepository
	typingTTL time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// NewChatService creates a ChatService instance.
func NewChatService(stateRepo repository.StateRepository, typingTTL time.Duration) *ChatService {
	if stateRepo == nil {
		panic("StateRepository cannot be nil for ChatService")
	}
	if typingTTL <= 0 {
		typingTTL = DefaultTypingTTL
	}
	return &ChatService{
		stateRepo: stateRepo,
		typingTTL: typingTTL,
		timers:    make(map[string]*time.Timer),
	}
}

// PostMessage assigns the next sequence number for the room and broadcasts
// the message to every participant, sender included.
func (s *ChatService) PostMessage(ctx context.Context, roomID, authorID uint, authorName, text string) (*domain.ChatMessage, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "author_id": authorID})

	if text == "" {
		return nil, fmt.Errorf("%w: message cannot be empty", ErrValidation)
	}
	if len(text) > maxChatMessageLen {
		return nil, fmt.Errorf("%w: message must be at most %d characters", ErrValidation, maxChatMessageLen)
	}

	sequence, err := s.stateRepo.NextChatSequence(ctx, roomID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to get chat sequence")
		return nil, ErrInternalServer
	}

	message := &domain.ChatMessage{
		RoomID:     roomID,
		Sequence:   sequence,
		AuthorID:   authorID,
		AuthorName: authorName,
		Text:       text,
		Timestamp:  time.Now().UTC(),
	}
	payload, err := dto.EncodeEnvelope(roomID, "", dto.EventNewChatMessage, message)
	if err != nil {
		logCtx.WithError(err).Error("Failed to encode chat broadcast")
		return nil, ErrInternalServer
	}
	if err := s.stateRepo.PublishEvent(ctx, roomID, payload); err != nil {
		logCtx.WithError(err).Error("Failed to publish chat broadcast")
		return nil, ErrInternalServer
	}
	return message, nil
}

// TypingStart broadcasts a typing indicator to the rest of the room and arms
// the expiry timer for this (room, author) pair. A repeat start resets the
// timer.
func (s *ChatService) TypingStart(ctx context.Context, roomID, authorID uint, authorName, excludeConn string) error {
	if err := s.publishTyping(ctx, roomID, authorName, excludeConn, dto.EventUserTyping); err != nil {
		return err
	}

	key := typingKey(roomID, authorID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if timer, ok := s.timers[key]; ok {
		timer.Stop()
	}
	s.timers[key] = time.AfterFunc(s.typingTTL, func() {
		s.expireTyping(roomID, authorID, authorName)
	})
	return nil
}

// TypingStop cancels the expiry timer and broadcasts the stop indicator.
func (s *ChatService) TypingStop(ctx context.Context, roomID, authorID uint, authorName, excludeConn string) error {
	key := typingKey(roomID, authorID)
	s.mu.Lock()
	if timer, ok := s.timers[key]; ok {
		timer.Stop()
		delete(s.timers, key)
	}
	s.mu.Unlock()

	return s.publishTyping(ctx, roomID, authorName, excludeConn, dto.EventUserStoppedTyping)
}

// Close stops every pending expiry timer. Part of shutdown.
func (s *ChatService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for key, timer := range s.timers {
		timer.Stop()
		delete(s.timers, key)
	}
}

func (s *ChatService) expireTyping(roomID, authorID uint, authorName string) {
	key := typingKey(roomID, authorID)
	s.mu.Lock()
	delete(s.timers, key)
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := s.publishTyping(ctx, roomID, authorName, "", dto.EventUserStoppedTyping); err != nil {
		logrus.WithFields(logrus.Fields{"room_id": roomID, "author_id": authorID}).
			WithError(err).Warn("Failed to broadcast typing expiry")
	}
}

func (s *ChatService) publishTyping(ctx context.Context, roomID uint, authorName, excludeConn, eventType string) error {
	payload, err := dto.EncodeEnvelope(roomID, excludeConn, eventType, dto.TypingBroadcastPayload{Author: authorName})
	if err != nil {
		logrus.WithError(err).Error("Failed to encode typing broadcast")
		return ErrInternalServer
	}
	if err := s.stateRepo.PublishEvent(ctx, roomID, payload); err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Error("Failed to publish typing broadcast")
		return ErrInternalServer
	}
	return nil
}

func typingKey(roomID, authorID uint) string {
	return fmt.Sprintf("%d:%d", roomID, authorID)
}
