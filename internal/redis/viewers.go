package redisc

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ViewerTTL bounds how long a session counts toward a room's audience
// without a refresh. Live connections re-arm it on their ping cycle.
const ViewerTTL = 300 * time.Second

// Room viewer tracking backs the audience counter in room snapshots. Keys
// expire so a crashed instance cannot pin stale viewers forever.

func AddViewer(client *redis.Client, roomID, sessionID string) error {
	ctx := context.Background()
	pipe := client.Pipeline()
	pipe.SAdd(ctx, "eventsq:viewers:"+roomID, sessionID)
	pipe.Expire(ctx, "eventsq:viewers:"+roomID, ViewerTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func RemoveViewer(client *redis.Client, roomID, sessionID string) error {
	return client.SRem(context.Background(), "eventsq:viewers:"+roomID, sessionID).Err()
}

func ViewerCount(client *redis.Client, roomID string) (int64, error) {
	return client.SCard(context.Background(), "eventsq:viewers:"+roomID).Result()
}

func RefreshViewers(client *redis.Client, roomID string) error {
	return client.Expire(context.Background(), "eventsq:viewers:"+roomID, ViewerTTL).Err()
}
