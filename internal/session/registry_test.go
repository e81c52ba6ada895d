package session

import (
	"context"
	"testing"
	"time"

	"notifyhub/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, ttl time.Duration) (*RedisRegistry, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisRegistry(client, "session:online:", ttl), mr
}

func TestRegistry_ConnectAndListOnline(t *testing.T) {
	r, _ := newTestRegistry(t, 30*time.Minute)
	ctx := context.Background()

	require.NoError(t, r.Connect(ctx, models.Session{
		ID: "sess-1", UserID: 1, Address: "conn-a", ConnectedAt: time.Now(),
	}))
	require.NoError(t, r.Connect(ctx, models.Session{
		ID: "sess-2", UserID: 2, Address: "conn-b", ConnectedAt: time.Now(),
	}))

	sessions, err := r.ListOnline(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	byID := map[string]models.Session{}
	for _, s := range sessions {
		byID[s.ID] = s
	}
	assert.Equal(t, int64(1), byID["sess-1"].UserID)
	assert.Equal(t, "conn-a", byID["sess-1"].Address)
	assert.Equal(t, int64(2), byID["sess-2"].UserID)
}

func TestRegistry_SameUserMultipleSessions(t *testing.T) {
	r, _ := newTestRegistry(t, 30*time.Minute)
	ctx := context.Background()

	require.NoError(t, r.Connect(ctx, models.Session{ID: "laptop", UserID: 1, Address: "conn-a"}))
	require.NoError(t, r.Connect(ctx, models.Session{ID: "phone", UserID: 1, Address: "conn-b"}))

	sessions, err := r.ListOnline(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 2, "every connection is its own session")
}

func TestRegistry_Disconnect(t *testing.T) {
	r, _ := newTestRegistry(t, 30*time.Minute)
	ctx := context.Background()

	require.NoError(t, r.Connect(ctx, models.Session{ID: "sess-1", UserID: 1, Address: "conn-a"}))
	require.NoError(t, r.Disconnect(ctx, "sess-1"))

	sessions, err := r.ListOnline(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestRegistry_TTLExpiry(t *testing.T) {
	r, mr := newTestRegistry(t, 1*time.Second)
	ctx := context.Background()

	require.NoError(t, r.Connect(ctx, models.Session{ID: "sess-1", UserID: 1, Address: "conn-a"}))

	mr.FastForward(2 * time.Second)

	sessions, err := r.ListOnline(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions, "expired sessions are not listed")
}

func TestRegistry_TouchRenewsTTL(t *testing.T) {
	r, mr := newTestRegistry(t, 2*time.Second)
	ctx := context.Background()

	require.NoError(t, r.Connect(ctx, models.Session{ID: "sess-1", UserID: 1, Address: "conn-a"}))

	mr.FastForward(1 * time.Second)
	require.NoError(t, r.Touch(ctx, "sess-1"))
	mr.FastForward(1 * time.Second)

	sessions, err := r.ListOnline(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 1, "touched session outlives the original TTL")
}

func TestRegistry_SkipsMalformedSession(t *testing.T) {
	r, mr := newTestRegistry(t, 0)
	ctx := context.Background()

	mr.HSet("session:online:bad", "user_id", "not-a-number", "address", "conn-x")
	require.NoError(t, r.Connect(ctx, models.Session{ID: "good", UserID: 1, Address: "conn-a"}))

	sessions, err := r.ListOnline(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "good", sessions[0].ID)
}

func TestRegistry_EmptyList(t *testing.T) {
	r, _ := newTestRegistry(t, 0)

	sessions, err := r.ListOnline(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
