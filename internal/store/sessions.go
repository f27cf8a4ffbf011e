// internal/store/sessions.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"support-engine/internal/common/logger"
)

// Turn is one user/assistant exchange kept in session history.
type Turn struct {
	UserQuery string    `json:"user_query"`
	Response  string    `json:"response"`
	Bucket    string    `json:"bucket"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionStore keeps a bounded conversation history per session in Redis.
type SessionStore struct {
	client     *redis.Client
	maxHistory int
	ttl        time.Duration
	logger     logger.Logger
}

// NewSessionStore creates a session store. maxHistory bounds the number
// of turns kept per session; older turns are trimmed on append.
func NewSessionStore(client *redis.Client, maxHistory int, log logger.Logger) *SessionStore {
	return &SessionStore{
		client:     client,
		maxHistory: maxHistory,
		ttl:        24 * time.Hour,
		logger: log.With(map[string]interface{}{
			"component": "session-store",
		}),
	}
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID + ":history"
}

// Append adds a turn to the session history and trims it to maxHistory.
func (s *SessionStore) Append(ctx context.Context, sessionID string, turn Turn) error {
	payload, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("failed to marshal turn: %w", err)
	}

	key := sessionKey(sessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, int64(-s.maxHistory), -1)
	pipe.Expire(ctx, key, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append session turn: %w", err)
	}
	return nil
}

// History returns the retained turns for a session, oldest first.
func (s *SessionStore) History(ctx context.Context, sessionID string) ([]Turn, error) {
	raw, err := s.client.LRange(ctx, sessionKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session history: %w", err)
	}

	turns := make([]Turn, 0, len(raw))
	for _, item := range raw {
		var turn Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			s.logger.Warn("skipping malformed session turn", map[string]interface{}{
				"sessionId": sessionID,
				"error":     err.Error(),
			})
			continue
		}
		turns = append(turns, turn)
	}
	return turns, nil
}
