package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dkovalev/notelist/internal/common"
	"github.com/dkovalev/notelist/internal/server/models"
	"github.com/dkovalev/notelist/internal/server/repositories/repomanager"
)

// NoteService exposes note CRUD, every operation scoped by the owning user id
// passed explicitly by the caller. Missing and foreign notes are reported the
// same way so nothing leaks about other users' data.
type NoteService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewNoteService(db *sql.DB, m repomanager.RepositoryManager) *NoteService {
	return &NoteService{db: db, repomanager: m}
}

// List returns the user's notes, newest first. A user with no notes gets an
// empty slice.
func (s *NoteService) List(ctx context.Context, userID int64) ([]models.Note, error) {
	notes, err := s.repomanager.Notes(s.db).List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing notes: %w", err)
	}
	return notes, nil
}

// Create validates the input and inserts a note owned by userID. Ownership,
// creation time and initial version are server-assigned; nothing in the
// request payload can influence them.
func (s *NoteService) Create(ctx context.Context, userID int64, in NoteInput) (*models.Note, error) {
	if verr := checkInput(in); verr != nil {
		return nil, verr
	}

	note, err := s.repomanager.Notes(s.db).Create(ctx, &models.Note{
		UserID:  userID,
		Title:   in.Title,
		Content: in.Content,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating note: %w", err)
	}
	return note, nil
}

// Get returns the note only if it exists and is owned by userID.
func (s *NoteService) Get(ctx context.Context, userID, noteID int64) (*models.Note, error) {
	note, err := s.repomanager.Notes(s.db).Get(ctx, noteID, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error fetching note: %w", err)
	}
	return note, nil
}

// Update validates the input and applies it to the owner-scoped note at the
// given version. A stale version surfaces as common.ErrVersionConflict and is
// never retried here; the caller re-fetches and decides.
func (s *NoteService) Update(ctx context.Context, userID, noteID int64, in NoteInput, version int64) (*models.Note, error) {
	if verr := checkInput(in); verr != nil {
		return nil, verr
	}

	note, err := s.repomanager.Notes(s.db).Update(ctx, &models.Note{
		ID:      noteID,
		UserID:  userID,
		Title:   in.Title,
		Content: in.Content,
		Version: version,
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrVersionConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("error updating note: %w", err)
	}
	return note, nil
}

// Delete removes the owner-scoped note. Deleting a nonexistent or foreign
// note is a silent no-op, which makes the operation idempotent.
func (s *NoteService) Delete(ctx context.Context, userID, noteID int64) error {
	if err := s.repomanager.Notes(s.db).Delete(ctx, noteID, userID); err != nil {
		return fmt.Errorf("error deleting note: %w", err)
	}
	return nil
}
