package ws

import (
	"context"
	"encoding/json"

	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gukii/tanStartMultiUserAgent/internal/app"
)

// BusMessage is one serialized room frame relayed between instances. Origin
// is the publishing instance's id so a node can skip its own publications,
// which it already delivered locally.
type BusMessage struct {
	RoomID  string          `json:"roomId"`
	Origin  string          `json:"origin"`
	Payload json.RawMessage `json:"payload"`
}

type RedisBus struct {
	rdb *redis.Client
	id  string
	log *slog.Logger
}

// NewRedisBus connects to redis and verifies connectivity
func NewRedisBus(ctx context.Context, cfg app.Config, log *slog.Logger) (*RedisBus, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisBus{rdb: rdb, id: uuid.NewString(), log: log}, nil
}

// Publish relays a frame to every instance serving the room
func (b *RedisBus) Publish(ctx context.Context, roomID string, frame []byte) error {
	raw, _ := json.Marshal(BusMessage{RoomID: roomID, Origin: b.id, Payload: frame})
	return b.rdb.Publish(ctx, channel(roomID), raw).Err()
}

// Subscribe listens to all room channels and invokes fn for each frame
// published by another instance
func (b *RedisBus) Subscribe(ctx context.Context, fn func(roomID string, frame []byte)) {
	pubsub := b.rdb.PSubscribe(ctx, channel("*"))
	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			_ = pubsub.Close()
			return
		case msg := <-ch:
			var bm BusMessage
			_ = json.Unmarshal([]byte(msg.Payload), &bm)
			if bm.RoomID == "" || bm.Origin == b.id {
				continue
			}
			fn(bm.RoomID, bm.Payload)
		}
	}
}

// Close shuts down the redis connection
func (b *RedisBus) Close() { _ = b.rdb.Close() }

// channel namespacing for room pub/sub
func channel(roomID string) string { return "room:" + roomID }
