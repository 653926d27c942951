package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/dkovalev/notelist/internal/common"
	"github.com/dkovalev/notelist/internal/dbx"
	"github.com/dkovalev/notelist/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, note *models.Note) (*models.Note, error) {

	query :=
		`INSERT INTO notes (user_id, title, content)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, version
		 `

	err := r.db.QueryRowContext(ctx, query, note.UserID, note.Title, note.Content).
		Scan(&note.ID, &note.CreatedAt, &note.Version)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return note, nil
}

func (r *PostgresRepository) Get(ctx context.Context, noteID, userID int64) (*models.Note, error) {
	query :=
		`SELECT id, user_id, title, content, created_at, updated_at, version FROM notes
		 WHERE id = $1 AND user_id = $2
		 `

	note := &models.Note{}
	err := r.db.QueryRowContext(ctx, query, noteID, userID).Scan(
		&note.ID, &note.UserID, &note.Title, &note.Content,
		&note.CreatedAt, &note.UpdatedAt, &note.Version)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return note, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID int64) ([]models.Note, error) {
	queryBuilder := squirrel.
		Select("id",
			"user_id",
			"title",
			"content",
			"created_at",
			"updated_at",
			"version").
		From("notes").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC, id DESC").
		PlaceholderFormat(squirrel.Dollar)

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		var note models.Note
		if err = rows.Scan(&note.ID, &note.UserID, &note.Title, &note.Content,
			&note.CreatedAt, &note.UpdatedAt, &note.Version); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return notes, nil
}

func (r *PostgresRepository) Update(ctx context.Context, note *models.Note) (*models.Note, error) {

	query :=
		`UPDATE notes SET title = $1, content = $2, updated_at = now(), version = version + 1
		 WHERE id = $3 AND user_id = $4 AND version = $5
		 RETURNING created_at, updated_at, version
		 `

	// The caller only carries id/owner/fields/version; created_at has to come
	// back from the row or the returned note would report a zero time.
	updated := *note
	err := r.db.QueryRowContext(ctx, query,
		note.Title, note.Content, note.ID, note.UserID, note.Version).
		Scan(&updated.CreatedAt, &updated.UpdatedAt, &updated.Version)

	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("db error: %w", err)
	}

	// Zero rows: either the note is gone/foreign or the version is stale.
	// Re-check existence scoped by owner to tell the two apart.
	var exists bool
	checkQuery := `SELECT EXISTS(SELECT 1 FROM notes WHERE id = $1 AND user_id = $2)`
	if err := r.db.QueryRowContext(ctx, checkQuery, note.ID, note.UserID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if !exists {
		return nil, common.ErrorNotFound
	}
	return nil, common.ErrVersionConflict
}

func (r *PostgresRepository) Delete(ctx context.Context, noteID, userID int64) error {
	query := `DELETE FROM notes WHERE id = $1 AND user_id = $2`

	if _, err := r.db.ExecContext(ctx, query, noteID, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
