// Package services contains server-side business logic. This file implements
// UserService, which handles registration, credential verification, and the
// lifecycle of server-stored sessions backing issued tokens.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dkovalev/notelist/internal/common"
	"github.com/dkovalev/notelist/internal/dbx"
	"github.com/dkovalev/notelist/internal/server/auth"
	"github.com/dkovalev/notelist/internal/server/config"
	"github.com/dkovalev/notelist/internal/server/models"
	"github.com/dkovalev/notelist/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

// UserService provides authentication-related operations:
// - Register: create users
// - Login: verify credentials and mint a session token
// - Authenticate: resolve a token back to verified claims
// - Logout: revoke the server-side session
type UserService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	sessionSecret   []byte
	sessionValidity time.Duration
	bcryptCost      int
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:              db,
		repomanager:     m,
		sessionSecret:   []byte(cfg.SessionSecret),
		sessionValidity: cfg.SessionValidityDuration,
		bcryptCost:      cfg.BcryptCost,
	}
}

// Register validates the input, rejects duplicate usernames/emails (both at
// once when both collide), hashes the password and persists the new user.
// The plaintext password never leaves this call.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if verr := checkInput(in); verr != nil {
		return nil, verr
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, &ValidationError{Fields: map[string]string{
				"Password": "password is too long",
			}}
		}
		return nil, common.ErrorInternal
	}

	var user *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		usernameTaken, emailTaken, err := repo.FindConflicts(ctx, in.Username, in.Email)
		if err != nil {
			return err
		}
		if dup := duplicateError(usernameTaken, emailTaken); dup != nil {
			return dup
		}

		user, err = repo.Create(ctx, &models.User{
			Username:     in.Username,
			Email:        in.Email,
			PasswordHash: hash,
		})
		return err
	})
	if err != nil {
		// A concurrent registration can still trip the unique constraint
		// between the check and the insert.
		if dup := duplicateFromConstraint(err); dup != nil {
			return nil, dup
		}
		if errors.Is(err, common.ErrUsernameTaken) || errors.Is(err, common.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

// Login verifies the credentials and, on success, stores a session row and
// returns a signed token bound to it. Unknown usernames and wrong passwords
// are indistinguishable to the caller, and the absent-user path still pays
// for one hash verification.
func (s *UserService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			auth.VerifyDummy(password)
			return "", nil, common.ErrorUnauthorized
		}
		return "", nil, common.ErrorInternal
	}

	if !auth.VerifyPassword(user.PasswordHash, password) {
		return "", nil, common.ErrorUnauthorized
	}

	sessionID := uuid.NewString()
	if err := s.repomanager.Sessions(s.db).Create(ctx, sessionID, user.ID, s.sessionValidity); err != nil {
		return "", nil, common.ErrorInternal
	}

	token, err := auth.GenerateToken(user, sessionID, s.sessionSecret, s.sessionValidity)
	if err != nil {
		return "", nil, common.ErrorInternal
	}

	return token, user, nil
}

// Authenticate resolves a session token to its verified claims. The token
// must carry a valid signature, be unexpired, and reference a session row
// that still exists and has not passed its own expiry.
func (s *UserService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := auth.ParseToken(token, s.sessionSecret)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Sessions(s.db)
	session, err := repo.Find(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrSessionExpired
		}
		return nil, common.ErrorInternal
	}
	if session.Expires.Before(time.Now()) {
		_ = repo.Delete(ctx, session.ID)
		return nil, common.ErrSessionExpired
	}

	return claims, nil
}

// Logout revokes the session unconditionally. Revoking an already-gone
// session is a no-op.
func (s *UserService) Logout(ctx context.Context, sessionID string) error {
	if err := s.repomanager.Sessions(s.db).Delete(ctx, sessionID); err != nil {
		return common.ErrorInternal
	}
	return nil
}

// PurgeExpiredSessions removes session rows whose expiry has passed.
func (s *UserService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.repomanager.Sessions(s.db).DeleteExpired(ctx)
}

func duplicateError(usernameTaken, emailTaken bool) error {
	switch {
	case usernameTaken && emailTaken:
		return errors.Join(common.ErrUsernameTaken, common.ErrEmailTaken)
	case usernameTaken:
		return common.ErrUsernameTaken
	case emailTaken:
		return common.ErrEmailTaken
	}
	return nil
}

func duplicateFromConstraint(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	switch pgErr.ConstraintName {
	case "users_username_key":
		return common.ErrUsernameTaken
	case "users_email_key":
		return common.ErrEmailTaken
	}
	return common.ErrorInternal
}
