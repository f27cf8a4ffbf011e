// internal/store/sessions_test.go
package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-engine/internal/common/logger"
)

func newTestSessionStore(t *testing.T, maxHistory int) *SessionStore {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewSessionStore(client, maxHistory, logger.NewTestLogger(t))
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()

	t.Run("append and read back in order", func(t *testing.T) {
		store := newTestSessionStore(t, 10)

		first := Turn{UserQuery: "where is my order", Response: "Here is the tracking link.", Bucket: "BUCKET_A", Timestamp: time.Now().UTC()}
		second := Turn{UserQuery: "cancel it instead", Response: "Cancelled.", Bucket: "BUCKET_B", Timestamp: time.Now().UTC()}

		require.NoError(t, store.Append(ctx, "sess-1", first))
		require.NoError(t, store.Append(ctx, "sess-1", second))

		turns, err := store.History(ctx, "sess-1")
		require.NoError(t, err)
		require.Len(t, turns, 2)
		assert.Equal(t, "where is my order", turns[0].UserQuery)
		assert.Equal(t, "cancel it instead", turns[1].UserQuery)
	})

	t.Run("history is trimmed to the configured bound", func(t *testing.T) {
		store := newTestSessionStore(t, 3)

		for i := 0; i < 5; i++ {
			turn := Turn{UserQuery: fmt.Sprintf("query %d", i), Bucket: "BUCKET_A"}
			require.NoError(t, store.Append(ctx, "sess-2", turn))
		}

		turns, err := store.History(ctx, "sess-2")
		require.NoError(t, err)
		require.Len(t, turns, 3)
		assert.Equal(t, "query 2", turns[0].UserQuery)
		assert.Equal(t, "query 4", turns[2].UserQuery)
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		store := newTestSessionStore(t, 10)

		require.NoError(t, store.Append(ctx, "sess-a", Turn{UserQuery: "a"}))
		require.NoError(t, store.Append(ctx, "sess-b", Turn{UserQuery: "b"}))

		turns, err := store.History(ctx, "sess-a")
		require.NoError(t, err)
		require.Len(t, turns, 1)
		assert.Equal(t, "a", turns[0].UserQuery)
	})

	t.Run("unknown session returns empty history", func(t *testing.T) {
		store := newTestSessionStore(t, 10)

		turns, err := store.History(ctx, "nope")
		require.NoError(t, err)
		assert.Empty(t, turns)
	})
}
