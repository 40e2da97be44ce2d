package storage

import (
	"context"

	"mathtutor-backend/internal/model"
)

// Store is a single durable slot holding the serialized array of all
// chat sessions across all modes. It is read once at startup and
// written after every mutation; the in-memory session collection stays
// the source of truth for the running process.
type Store interface {
	// Load restores all sessions. Missing or malformed slot content
	// yields an empty list, never an error that aborts startup.
	Load(ctx context.Context) ([]model.Session, error)

	// Save replaces the slot with the given collection.
	Save(ctx context.Context, sessions []model.Session) error

	Close() error
}
