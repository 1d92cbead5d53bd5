package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/chatstore-backend/pkg/redis"
)

// kvStore is the slice of the redis client the manager needs.
type kvStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Manager stores per-user sessions in redis as JSON. Every save refreshes the
// TTL, so a session dies only after the user goes quiet.
type Manager struct {
	store kvStore
	ttl   time.Duration
}

// NewManager wires a session manager on the shared redis client.
func NewManager(store kvStore, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("redis store required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Manager{store: store, ttl: ttl}, nil
}

// Get loads the user's session, returning a fresh empty one when nothing is
// stored or the stored blob cannot be decoded.
func (m *Manager) Get(ctx context.Context, platformID int64) (*Session, error) {
	raw, found, err := m.store.Get(ctx, redis.SessionKey(platformID))
	if err != nil {
		return nil, err
	}
	if !found {
		return &Session{}, nil
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return &Session{}, nil
	}
	return &sess, nil
}

// Save persists the session and refreshes its TTL.
func (m *Manager) Save(ctx context.Context, platformID int64, sess *Session) error {
	if sess == nil {
		return fmt.Errorf("session required")
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, redis.SessionKey(platformID), string(raw), m.ttl)
}

// Clear removes the session entirely, dropping any admin elevation with it.
func (m *Manager) Clear(ctx context.Context, platformID int64) error {
	return m.store.Del(ctx, redis.SessionKey(platformID))
}
