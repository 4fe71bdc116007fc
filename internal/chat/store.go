package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fixmarket_backend/platform/apperr"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "chat:session:"

const sessionNotFoundMsg = "conversation session not found"

// Store persists conversation sessions in redis. Each session is a list of
// JSON-encoded messages whose TTL is refreshed on every append.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a session store on the given redis client.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Create initializes an empty session. The marker element keeps the list
// alive in redis so existence checks work before the first message.
func (s *Store) Create(ctx context.Context, id string) error {
	key := sessionKey(id)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, "")
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Append adds a message to an existing session and refreshes its TTL.
func (s *Store) Append(ctx context.Context, id string, msg Message) error {
	key := sessionKey(id)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	if exists == 0 {
		return apperr.NotFound(sessionNotFoundMsg)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// Messages returns the ordered turns of a session.
func (s *Store) Messages(ctx context.Context, id string) ([]Message, error) {
	raw, err := s.client.LRange(ctx, sessionKey(id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if len(raw) == 0 {
		return nil, apperr.NotFound(sessionNotFoundMsg)
	}

	msgs := make([]Message, 0, len(raw))
	for _, item := range raw {
		if item == "" {
			continue // creation marker
		}
		var m Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, fmt.Errorf("failed to decode message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// Delete removes a session. Deleting an absent session is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
