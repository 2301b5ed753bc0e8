package redisstate

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisStateRepository is the Redis implementation of StateRepository.
type RedisStateRepository struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStateRepository creates a RedisStateRepository instance.
func NewRedisStateRepository(client *redis.Client, keyPrefix string) *RedisStateRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisStateRepository")
	}
	if keyPrefix == "" {
		keyPrefix = "lr:"
	}
	return &RedisStateRepository{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (r *RedisStateRepository) chatSequenceKey(roomID uint) string {
	return fmt.Sprintf("%sroom:%d:chat_seq", r.keyPrefix, roomID)
}

// EventChannel returns the pub/sub channel carrying a room's broadcasts.
func (r *RedisStateRepository) EventChannel(roomID uint) string {
	return fmt.Sprintf("%sroom:%d:events", r.keyPrefix, roomID)
}

// NextChatSequence atomically advances the per-room chat sequence counter.
func (r *RedisStateRepository) NextChatSequence(ctx context.Context, roomID uint) (uint64, error) {
	key := r.chatSequenceKey(roomID)
	seq, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: failed to increment chat sequence for room %d on key %s: %w", roomID, key, err)
	}
	return uint64(seq), nil
}

// PublishEvent publishes an encoded broadcast envelope to the room channel.
func (r *RedisStateRepository) PublishEvent(ctx context.Context, roomID uint, payload []byte) error {
	channel := r.EventChannel(roomID)
	if err := r.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: failed to publish event for room %d on channel %s: %w", roomID, channel, err)
	}
	return nil
}

// CleanupRoomState deletes the room's realtime keys. Called when a room ends;
// the chat sequence is meaningless once the session is over.
func (r *RedisStateRepository) CleanupRoomState(ctx context.Context, roomID uint) error {
	if err := r.client.Del(ctx, r.chatSequenceKey(roomID)).Err(); err != nil {
		return fmt.Errorf("redis: failed to clean up state for room %d: %w", roomID, err)
	}
	return nil
}
