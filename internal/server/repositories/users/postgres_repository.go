package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (username, email, password_hash)
         VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.PasswordHash).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query :=
		`SELECT id, username, email, password_hash, created_at FROM users
		 WHERE username = $1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// FindConflicts checks username and email uniqueness in one round trip so a
// registration attempt can report both collisions at once.
func (r *PostgresRepository) FindConflicts(ctx context.Context, username, email string) (bool, bool, error) {
	query :=
		`SELECT
		   EXISTS(SELECT 1 FROM users WHERE username = $1),
		   EXISTS(SELECT 1 FROM users WHERE email = $2)
		 `

	var usernameTaken, emailTaken bool
	err := r.db.QueryRowContext(ctx, query, username, email).Scan(&usernameTaken, &emailTaken)
	if err != nil {
		return false, false, fmt.Errorf("db error: %w", err)
	}

	return usernameTaken, emailTaken, nil
}
