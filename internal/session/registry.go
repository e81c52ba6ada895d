// Package session tracks which users currently hold a live connection.
// The registry is the read side of connection state owned by the gateway;
// fan-out only ever takes a snapshot of it.
package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"notifyhub/internal/models"

	"github.com/redis/go-redis/v9"
)

// Registry reports the set of currently-connected users.
type Registry interface {
	ListOnline(ctx context.Context) ([]models.Session, error)
}

// RedisRegistry keeps one hash per live session under <prefix><sessionID>,
// expired by TTL so crashed gateways cannot leak phantom sessions.
type RedisRegistry struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisRegistry(client *redis.Client, prefix string, ttl time.Duration) *RedisRegistry {
	if prefix == "" {
		prefix = "session:online:"
	}
	return &RedisRegistry{client: client, prefix: prefix, ttl: ttl}
}

// Connect registers a live session. Called by the connection gateway, not by
// the dispatch path.
func (r *RedisRegistry) Connect(ctx context.Context, s models.Session) error {
	key := r.prefix + s.ID
	err := r.client.HSet(ctx, key,
		"user_id", strconv.FormatInt(s.UserID, 10),
		"address", s.Address,
		"connected_at", s.ConnectedAt.UTC().Format(time.RFC3339),
	).Err()
	if err != nil {
		return fmt.Errorf("register session %s: %w", s.ID, err)
	}
	if r.ttl > 0 {
		if err := r.client.Expire(ctx, key, r.ttl).Err(); err != nil {
			return fmt.Errorf("set session ttl %s: %w", s.ID, err)
		}
	}
	return nil
}

// Touch renews a session's TTL on activity.
func (r *RedisRegistry) Touch(ctx context.Context, sessionID string) error {
	if r.ttl <= 0 {
		return nil
	}
	return r.client.Expire(ctx, r.prefix+sessionID, r.ttl).Err()
}

// Disconnect removes a session.
func (r *RedisRegistry) Disconnect(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, r.prefix+sessionID).Err()
}

// ListOnline returns a snapshot of live sessions. Sessions connecting or
// disconnecting during the scan may be inconsistently included, which is
// acceptable for best-effort fan-out.
func (r *RedisRegistry) ListOnline(ctx context.Context) ([]models.Session, error) {
	var sessions []models.Session

	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		fields, err := r.client.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("read session %s: %w", key, err)
		}
		if len(fields) == 0 {
			// Expired between scan and read.
			continue
		}

		userID, err := strconv.ParseInt(fields["user_id"], 10, 64)
		if err != nil {
			continue
		}

		s := models.Session{
			ID:      key[len(r.prefix):],
			UserID:  userID,
			Address: fields["address"],
		}
		if ts, err := time.Parse(time.RFC3339, fields["connected_at"]); err == nil {
			s.ConnectedAt = ts
		}
		sessions = append(sessions, s)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan sessions: %w", err)
	}

	return sessions, nil
}
