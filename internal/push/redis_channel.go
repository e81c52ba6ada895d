package push

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisChannel publishes to a per-session pub/sub channel. The connection
// gateway subscribes each live session to "push:<address>" and forwards
// envelopes to the socket.
type RedisChannel struct {
	client *redis.Client
}

func NewRedisChannel(client *redis.Client) *RedisChannel {
	return &RedisChannel{client: client}
}

type envelope struct {
	Destination string `json:"destination"`
	Payload     string `json:"payload"`
}

func (c *RedisChannel) SendToUser(ctx context.Context, address, destination, payload string) error {
	body, err := json.Marshal(envelope{Destination: destination, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal push envelope: %w", err)
	}

	n, err := c.client.Publish(ctx, "push:"+address, body).Result()
	if err != nil {
		return fmt.Errorf("publish to %s: %w", address, err)
	}
	if n == 0 {
		// Nobody subscribed: the session vanished after the snapshot was
		// taken. Best-effort delivery treats this as a failed push.
		return fmt.Errorf("no subscriber on %s", address)
	}
	return nil
}

func (c *RedisChannel) Name() string { return "redis" }
