// Package artifact keeps rendered graph pages addressable by id so they can be
// served back after the request that produced them.
package artifact

import (
	"context"

	apperrors "friendmap/backend/pkg/errors"

	"github.com/google/uuid"
)

// Store persists rendered pages
type Store interface {
	Put(ctx context.Context, id string, page []byte) error
	Get(ctx context.Context, id string) ([]byte, error)
}

// NewID returns a fresh artifact id
func NewID() string {
	return uuid.New().String()
}

// validID reports whether id is a canonical UUID. Only such ids ever reach a
// backend key or file name.
func validID(id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil || parsed.String() != id {
		return apperrors.NewArtifactNotFound(id)
	}
	return nil
}
