package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aecioaam/sistema-de-pedidos/internal/checkout"
)

var ErrSessionNotFound = errors.New("checkout session not found")

// SessionTTL bounds how long an abandoned checkout survives.
const SessionTTL = 24 * time.Hour

// SessionRepository holds ephemeral checkout wizard state in Redis,
// keyed by session id. State is serialized JSON and replaced wholesale
// on every mutation; it is discarded on submission or explicit reset.
type SessionRepository interface {
	Get(ctx context.Context, sessionID string) (*checkout.State, error)
	Save(ctx context.Context, sessionID string, state *checkout.State) error
	Delete(ctx context.Context, sessionID string) error
}

type sessionRepository struct {
	client *redis.Client
}

// NewSessionRepository creates a new instance of SessionRepository
func NewSessionRepository(client *redis.Client) SessionRepository {
	return &sessionRepository{client: client}
}

func sessionKey(sessionID string) string {
	return "checkout:session:" + sessionID
}

// Get loads a session's checkout state.
func (r *sessionRepository) Get(ctx context.Context, sessionID string) (*checkout.State, error) {
	data, err := r.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load checkout session: %w", err)
	}

	state := &checkout.State{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}

	return state, nil
}

// Save stores the full state, refreshing the expiry.
func (r *sessionRepository) Save(ctx context.Context, sessionID string, state *checkout.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode checkout session: %w", err)
	}

	if err := r.client.Set(ctx, sessionKey(sessionID), data, SessionTTL).Err(); err != nil {
		return fmt.Errorf("failed to store checkout session: %w", err)
	}

	return nil
}

// Delete discards a session.
func (r *sessionRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete checkout session: %w", err)
	}
	return nil
}
