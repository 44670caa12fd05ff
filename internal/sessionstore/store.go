// internal/sessionstore/store.go
package sessionstore

import (
	"context"
	"errors"

	"tezloan-workers/internal/models"
)

var ErrSessionNotFound = errors.New("SESSION_NOT_FOUND")

// Store persists conversation sessions by id. Implementations must make
// Save atomic per session id so concurrent journeys on different
// sessions never block each other.
type Store interface {
	Load(ctx context.Context, sessionID string) (*models.Session, error)
	Save(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, sessionID string) error
}

// LoadOrCreate returns the stored session, or a fresh one at the
// greeting stage when the id has never been seen.
func LoadOrCreate(ctx context.Context, store Store, sessionID string) (*models.Session, error) {
	session, err := store.Load(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return models.NewSession(sessionID), nil
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}
