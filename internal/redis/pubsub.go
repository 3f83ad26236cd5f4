package redisc

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const roomChannelPrefix = "eventsq:room:"

// PublishRoomEvent fans a room change notification out to every server
// instance watching the room.
func PublishRoomEvent(client *redis.Client, roomID string, data []byte) error {
	return client.Publish(context.Background(), roomChannelPrefix+roomID, data).Err()
}

// SubscribeRoomEvents delivers every room event to handler until ctx is
// canceled. Delivery is in publish order per channel; no ordering holds
// across rooms.
func SubscribeRoomEvents(ctx context.Context, client *redis.Client, handler func(roomID string, data []byte)) {
	pubsub := client.PSubscribe(ctx, roomChannelPrefix+"*")
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			roomID := msg.Channel[len(roomChannelPrefix):]
			handler(roomID, []byte(msg.Payload))
			slog.Debug("room event", "room_id", roomID)
		}
	}
}
