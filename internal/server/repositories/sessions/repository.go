// Package sessions declares the server-side repository contract for issued
// session records. A session row existing is what keeps a token alive;
// deleting it revokes the token before its cookie expiry.
package sessions

import (
	"context"
	"time"

	"github.com/dkovalev/notelist/internal/server/models"
)

type Repository interface {
	// Create stores a new session for userID with an expiry of now+validity.
	Create(ctx context.Context, id string, userID int64, validity time.Duration) error

	// Find looks up a session by its id and returns its metadata.
	// Implementations return common.ErrorNotFound when the session is absent.
	Find(ctx context.Context, id string) (*models.Session, error)

	// Delete removes a session by id. Deleting a non-existent session is not
	// an error.
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes all sessions whose expiry has passed and returns
	// how many rows were purged.
	DeleteExpired(ctx context.Context) (int64, error)
}
