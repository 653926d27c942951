// Package users declares the repository contract for persisted user accounts.
package users

import (
	"context"

	"github.com/dkovalev/notelist/internal/server/models"
)

type Repository interface {
	// Create inserts a new user and returns it with the generated id and
	// creation timestamp filled in.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByUsername returns the user with the exact username, or
	// common.ErrorNotFound.
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// FindConflicts reports which of username/email are already stored,
	// possibly both in a single call.
	FindConflicts(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error)
}
