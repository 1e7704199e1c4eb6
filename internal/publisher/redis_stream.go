// Package publisher fans event state changes out to Redis streams for
// downstream consumers.
package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	statusStream   = "events.status.sportslive"
	snapshotStream = "events.live.sportslive"
)

// RedisPublisher publishes event updates to Redis streams.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher connects to Redis and verifies the connection.
func NewRedisPublisher(redisURL string) (*RedisPublisher, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisPublisher{client: client}, nil
}

// Close closes the Redis connection.
func (rp *RedisPublisher) Close() error {
	return rp.client.Close()
}

// PublishStatusChange publishes one event status transition.
func (rp *RedisPublisher) PublishStatusChange(ctx context.Context, change interface{}) error {
	return rp.publish(ctx, statusStream, change)
}

// PublishLiveSnapshot publishes the full live event snapshot.
func (rp *RedisPublisher) PublishLiveSnapshot(ctx context.Context, snapshot interface{}) error {
	return rp.publish(ctx, snapshotStream, snapshot)
}

func (rp *RedisPublisher) publish(ctx context.Context, stream string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return rp.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
}
