// Package conversation drives the per-sender booking conversation: the stage
// state machine, the session and rate-limit stores, and the orchestrator that
// ties them to the messaging and calendar collaborators.
package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Stage names the point a conversation has reached. A conversation with no
// stored session has not started; a successful booking removes the session.
type Stage string

const (
	StageAwaitingDateTime Stage = "awaiting_datetime"
	StageAwaitingName     Stage = "awaiting_name"
	StageAwaitingService  Stage = "awaiting_service"
)

// Session holds the accumulated booking fields for one conversation.
type Session struct {
	Stage        Stage     `json:"stage"`
	CalendarID   string    `json:"calendar_id,omitempty"`
	SlotStart    time.Time `json:"slot_start,omitempty"`
	SlotEnd      time.Time `json:"slot_end,omitempty"`
	CustomerName string    `json:"customer_name,omitempty"`
}

// SessionKey builds the globally unique key for one live conversation.
// At most one session exists per (routing key, sender) pair at any time.
func SessionKey(routingKey, sender string) string {
	return routingKey + ":" + sender
}

// SessionStore is the injected key-value store the orchestrator owns. Get
// returns (nil, nil) when no session exists. Implementations must support
// concurrent access from interleaved conversations.
type SessionStore interface {
	Get(ctx context.Context, key string) (*Session, error)
	Set(ctx context.Context, key string, s *Session) error
	Delete(ctx context.Context, key string) error
}

// MemorySessionStore keeps sessions in process memory. A restart loses all
// in-flight conversations, which is accepted.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]Session)}
}

func (s *MemorySessionStore) Get(_ context.Context, key string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[key]
	if !ok {
		return nil, nil
	}
	// Copy so callers never mutate shared state in place.
	out := sess
	return &out, nil
}

func (s *MemorySessionStore) Set(_ context.Context, key string, sess *Session) error {
	if sess == nil {
		return fmt.Errorf("conversation: nil session for key %s", key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[key] = *sess
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
	return nil
}

// sessionTTL caps how long an abandoned conversation lingers in Redis.
const sessionTTL = 24 * time.Hour

// RedisSessionStore persists sessions to Redis so conversations survive a
// restart when a Redis address is configured.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore creates a Redis-backed session store.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (s *RedisSessionStore) Get(ctx context.Context, key string) (*Session, error) {
	data, err := s.client.Get(ctx, redisSessionKey(key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("conversation: load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("conversation: decode session: %w", err)
	}
	return &sess, nil
}

func (s *RedisSessionStore) Set(ctx context.Context, key string, sess *Session) error {
	if sess == nil {
		return fmt.Errorf("conversation: nil session for key %s", key)
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("conversation: marshal session: %w", err)
	}
	if err := s.client.Set(ctx, redisSessionKey(key), data, sessionTTL).Err(); err != nil {
		return fmt.Errorf("conversation: persist session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisSessionKey(key)).Err(); err != nil {
		return fmt.Errorf("conversation: delete session: %w", err)
	}
	return nil
}

func redisSessionKey(key string) string {
	return "session:" + key
}
