package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dkovalev/notelist/internal/common"
	"github.com/dkovalev/notelist/internal/server/models"
)

type fakeNotesRepo struct {
	createIn  *models.Note
	createErr error

	getOut *models.Note
	getErr error

	listOut []models.Note
	listErr error

	updateIn  *models.Note
	updateOut *models.Note
	updateErr error

	deletedID     int64
	deletedUserID int64
	deleteErr     error
}

func (f *fakeNotesRepo) Create(ctx context.Context, n *models.Note) (*models.Note, error) {
	f.createIn = n
	if f.createErr != nil {
		return nil, f.createErr
	}
	n.ID = 7
	n.CreatedAt = time.Now()
	n.Version = 1
	return n, nil
}

func (f *fakeNotesRepo) Get(ctx context.Context, noteID, userID int64) (*models.Note, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeNotesRepo) List(ctx context.Context, userID int64) ([]models.Note, error) {
	return f.listOut, f.listErr
}

func (f *fakeNotesRepo) Update(ctx context.Context, n *models.Note) (*models.Note, error) {
	f.updateIn = n
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.updateOut, nil
}

func (f *fakeNotesRepo) Delete(ctx context.Context, noteID, userID int64) error {
	f.deletedID = noteID
	f.deletedUserID = userID
	return f.deleteErr
}

func newNoteService(repo *fakeNotesRepo) *NoteService {
	return NewNoteService(nil, &fakeRepoManager{notes: repo})
}

func TestNoteCreate_ServerAssignsOwnership(t *testing.T) {
	repo := &fakeNotesRepo{}
	svc := newNoteService(repo)

	note, err := svc.Create(context.Background(), 42, NoteInput{Title: "T", Content: "C"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if repo.createIn.UserID != 42 {
		t.Fatalf("owner not assigned from authenticated identity: %+v", repo.createIn)
	}
	if note.ID != 7 || note.Version != 1 || note.CreatedAt.IsZero() {
		t.Fatalf("unexpected note: %+v", note)
	}
}

func TestNoteCreate_Validation(t *testing.T) {
	svc := newNoteService(&fakeNotesRepo{})

	tests := []struct {
		name  string
		in    NoteInput
		field string
	}{
		{"missing title", NoteInput{Content: "C"}, "Title"},
		{"missing content", NoteInput{Title: "T"}, "Content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), 1, tt.in)

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Fatalf("expected error on field %q, got %v", tt.field, verr.Fields)
			}
		})
	}
}

func TestNoteGet_NotFoundPassthrough(t *testing.T) {
	svc := newNoteService(&fakeNotesRepo{getErr: common.ErrorNotFound})

	_, err := svc.Get(context.Background(), 1, 99)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestNoteList_EmptyForNewUser(t *testing.T) {
	svc := newNoteService(&fakeNotesRepo{})

	notes, err := svc.List(context.Background(), 1)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(notes) != 0 {
		t.Fatalf("expected no notes, got %+v", notes)
	}
}

func TestNoteUpdate_PassesVersionThrough(t *testing.T) {
	now := time.Now()
	repo := &fakeNotesRepo{
		updateOut: &models.Note{ID: 7, UserID: 1, Title: "T2", Content: "C2", UpdatedAt: &now, Version: 3},
	}
	svc := newNoteService(repo)

	note, err := svc.Update(context.Background(), 1, 7, NoteInput{Title: "T2", Content: "C2"}, 2)
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if repo.updateIn.Version != 2 || repo.updateIn.UserID != 1 {
		t.Fatalf("unexpected update args: %+v", repo.updateIn)
	}
	if note.Version != 3 || note.UpdatedAt == nil {
		t.Fatalf("unexpected note: %+v", note)
	}
}

func TestNoteUpdate_ConflictPassthrough(t *testing.T) {
	svc := newNoteService(&fakeNotesRepo{updateErr: common.ErrVersionConflict})

	_, err := svc.Update(context.Background(), 1, 7, NoteInput{Title: "T", Content: "C"}, 1)
	if !errors.Is(err, common.ErrVersionConflict) {
		t.Fatalf("want common.ErrVersionConflict, got %v", err)
	}
}

func TestNoteUpdate_NotFoundPassthrough(t *testing.T) {
	svc := newNoteService(&fakeNotesRepo{updateErr: common.ErrorNotFound})

	_, err := svc.Update(context.Background(), 1, 7, NoteInput{Title: "T", Content: "C"}, 1)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestNoteDelete_ScopedByOwner(t *testing.T) {
	repo := &fakeNotesRepo{}
	svc := newNoteService(repo)

	if err := svc.Delete(context.Background(), 1, 7); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if repo.deletedID != 7 || repo.deletedUserID != 1 {
		t.Fatalf("delete not scoped: id=%d user=%d", repo.deletedID, repo.deletedUserID)
	}
}
