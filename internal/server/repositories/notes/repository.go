// Package notes declares the repository contract for user-owned notes.
// Every read and write is scoped by the owning user id, so a note that
// belongs to someone else is indistinguishable from a note that does not
// exist.
package notes

import (
	"context"

	"github.com/dkovalev/notelist/internal/server/models"
)

type Repository interface {
	// Create inserts a new note owned by note.UserID and returns it with the
	// generated id, creation timestamp and initial version filled in.
	Create(ctx context.Context, note *models.Note) (*models.Note, error)

	// Get returns the note with the given id owned by userID, or
	// common.ErrorNotFound.
	Get(ctx context.Context, noteID, userID int64) (*models.Note, error)

	// List returns all notes owned by userID, newest first.
	List(ctx context.Context, userID int64) ([]models.Note, error)

	// Update applies title/content to the note identified by (noteID, userID,
	// version), stamping updated_at and incrementing the version. A zero row
	// count means the note is gone, foreign, or stale; Update then re-checks
	// owner-scoped existence and returns common.ErrorNotFound or
	// common.ErrVersionConflict accordingly.
	Update(ctx context.Context, note *models.Note) (*models.Note, error)

	// Delete removes the note if it exists and is owned by userID. Deleting a
	// missing or foreign note is a no-op, not an error.
	Delete(ctx context.Context, noteID, userID int64) error
}
