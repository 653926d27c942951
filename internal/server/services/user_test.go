package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dkovalev/notelist/internal/common"
	"github.com/dkovalev/notelist/internal/dbx"
	"github.com/dkovalev/notelist/internal/server/auth"
	"github.com/dkovalev/notelist/internal/server/config"
	"github.com/dkovalev/notelist/internal/server/models"
	notesrepo "github.com/dkovalev/notelist/internal/server/repositories/notes"
	sessionsrepo "github.com/dkovalev/notelist/internal/server/repositories/sessions"
	usersrepo "github.com/dkovalev/notelist/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func newUserService(t *testing.T, db *sql.DB, rm *fakeRepoManager) *UserService {
	t.Helper()
	cfg := &config.Config{
		SessionSecret:           "k",
		SessionValidityDuration: time.Hour,
		BcryptCost:              bcrypt.MinCost, // keep tests fast
	}
	return NewUserService(db, rm, cfg)
}

type fakeUsersRepo struct {
	createOut *models.User
	createErr error

	getOut *models.User
	getErr error

	usernameTaken bool
	emailTaken    bool
	conflictsErr  error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	u.ID = 1
	u.CreatedAt = time.Now()
	return u, nil
}

func (f *fakeUsersRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeUsersRepo) FindConflicts(ctx context.Context, username, email string) (bool, bool, error) {
	return f.usernameTaken, f.emailTaken, f.conflictsErr
}

type fakeSessionsRepo struct {
	createErr error
	created   []string

	findOut *models.Session
	findErr error

	deleted []string
	delErr  error

	purged   int64
	purgeErr error
}

func (f *fakeSessionsRepo) Create(ctx context.Context, id string, userID int64, validity time.Duration) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, id)
	return nil
}

func (f *fakeSessionsRepo) Find(ctx context.Context, id string) (*models.Session, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeSessionsRepo) Delete(ctx context.Context, id string) error {
	if f.delErr != nil {
		return f.delErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSessionsRepo) DeleteExpired(ctx context.Context) (int64, error) {
	return f.purged, f.purgeErr
}

type fakeRepoManager struct {
	users    usersrepo.Repository
	notes    notesrepo.Repository
	sessions sessionsrepo.Repository
}

func (f *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (f *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository         { return f.users }
func (f *fakeRepoManager) Notes(dbx.DBTX) notesrepo.Repository         { return f.notes }
func (f *fakeRepoManager) Sessions(dbx.DBTX) sessionsrepo.Repository   { return f.sessions }

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Username:        "alice",
		Email:           "a@x.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

// --- Register ---

func TestRegister_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := &fakeRepoManager{users: &fakeUsersRepo{}, sessions: &fakeSessionsRepo{}}
	svc := newUserService(t, db, rm)

	user, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if user.ID != 1 || user.Username != "alice" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.PasswordHash == "" || user.PasswordHash == "secret1" {
		t.Fatalf("password was not hashed: %q", user.PasswordHash)
	}
	if !auth.VerifyPassword(user.PasswordHash, "secret1") {
		t.Fatalf("stored hash does not verify against the password")
	}
}

func TestRegister_ValidationErrors(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{users: &fakeUsersRepo{}, sessions: &fakeSessionsRepo{}}
	svc := newUserService(t, db, rm)

	tests := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{"missing username", RegisterInput{Email: "a@x.com", Password: "secret1", ConfirmPassword: "secret1"}, "Username"},
		{"bad email", RegisterInput{Username: "alice", Email: "not-an-email", Password: "secret1", ConfirmPassword: "secret1"}, "Email"},
		{"short password", RegisterInput{Username: "alice", Email: "a@x.com", Password: "abc", ConfirmPassword: "abc"}, "Password"},
		{"mismatched confirmation", RegisterInput{Username: "alice", Email: "a@x.com", Password: "secret1", ConfirmPassword: "secret2"}, "ConfirmPassword"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.in)

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

func TestRegister_DuplicateUsernameOnly(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := &fakeRepoManager{users: &fakeUsersRepo{usernameTaken: true}, sessions: &fakeSessionsRepo{}}
	svc := newUserService(t, db, rm)

	_, err := svc.Register(context.Background(), validRegisterInput())
	if !errors.Is(err, common.ErrUsernameTaken) {
		t.Fatalf("want common.ErrUsernameTaken, got %v", err)
	}
	if errors.Is(err, common.ErrEmailTaken) {
		t.Fatalf("email must not be reported taken: %v", err)
	}
}

func TestRegister_BothDuplicatesReported(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := &fakeRepoManager{users: &fakeUsersRepo{usernameTaken: true, emailTaken: true}, sessions: &fakeSessionsRepo{}}
	svc := newUserService(t, db, rm)

	_, err := svc.Register(context.Background(), validRegisterInput())
	if !errors.Is(err, common.ErrUsernameTaken) || !errors.Is(err, common.ErrEmailTaken) {
		t.Fatalf("want both duplicate errors, got %v", err)
	}
}

// --- Login ---

func TestLogin_UnknownUser(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{
		users:    &fakeUsersRepo{getErr: common.ErrorNotFound},
		sessions: &fakeSessionsRepo{},
	}
	svc := newUserService(t, db, rm)

	_, _, err := svc.Login(context.Background(), "ghost", "whatever")
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("want common.ErrorUnauthorized, got %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	hash, err := auth.HashPassword("secret1", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	rm := &fakeRepoManager{
		users:    &fakeUsersRepo{getOut: &models.User{ID: 1, Username: "alice", PasswordHash: hash}},
		sessions: &fakeSessionsRepo{},
	}
	svc := newUserService(t, db, rm)

	_, _, err = svc.Login(context.Background(), "alice", "wrongpass")
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("want common.ErrorUnauthorized, got %v", err)
	}
}

func TestLogin_Success(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	hash, err := auth.HashPassword("secret1", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	sessRepo := &fakeSessionsRepo{}
	rm := &fakeRepoManager{
		users:    &fakeUsersRepo{getOut: &models.User{ID: 1, Username: "alice", Email: "a@x.com", PasswordHash: hash}},
		sessions: sessRepo,
	}
	svc := newUserService(t, db, rm)

	token, user, err := svc.Login(context.Background(), "alice", "secret1")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if user.ID != 1 {
		t.Fatalf("unexpected user: %+v", user)
	}
	if len(sessRepo.created) != 1 {
		t.Fatalf("expected one session created, got %d", len(sessRepo.created))
	}

	claims, err := auth.ParseToken(token, []byte("k"))
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}
	if claims.UserID != 1 || claims.Username != "alice" || claims.ID != sessRepo.created[0] {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

// --- Authenticate / Logout ---

func TestAuthenticate_Success(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	user := &models.User{ID: 1, Username: "alice", Email: "a@x.com"}
	token, err := auth.GenerateToken(user, "sess-1", []byte("k"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	rm := &fakeRepoManager{
		users: &fakeUsersRepo{},
		sessions: &fakeSessionsRepo{
			findOut: &models.Session{ID: "sess-1", UserID: 1, Expires: time.Now().Add(time.Hour)},
		},
	}
	svc := newUserService(t, db, rm)

	claims, err := svc.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("Authenticate error: %v", err)
	}
	if claims.UserID != 1 {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAuthenticate_RevokedSession(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	user := &models.User{ID: 1, Username: "alice"}
	token, err := auth.GenerateToken(user, "sess-1", []byte("k"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	rm := &fakeRepoManager{
		users:    &fakeUsersRepo{},
		sessions: &fakeSessionsRepo{findErr: common.ErrorNotFound},
	}
	svc := newUserService(t, db, rm)

	_, err = svc.Authenticate(context.Background(), token)
	if !errors.Is(err, common.ErrSessionExpired) {
		t.Fatalf("want common.ErrSessionExpired, got %v", err)
	}
}

func TestAuthenticate_ExpiredSessionRowIsDeleted(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	user := &models.User{ID: 1, Username: "alice"}
	token, err := auth.GenerateToken(user, "sess-1", []byte("k"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	sessRepo := &fakeSessionsRepo{
		findOut: &models.Session{ID: "sess-1", UserID: 1, Expires: time.Now().Add(-time.Minute)},
	}
	rm := &fakeRepoManager{users: &fakeUsersRepo{}, sessions: sessRepo}
	svc := newUserService(t, db, rm)

	_, err = svc.Authenticate(context.Background(), token)
	if !errors.Is(err, common.ErrSessionExpired) {
		t.Fatalf("want common.ErrSessionExpired, got %v", err)
	}
	if len(sessRepo.deleted) != 1 || sessRepo.deleted[0] != "sess-1" {
		t.Fatalf("expected expired session row removed, got %v", sessRepo.deleted)
	}
}

func TestAuthenticate_BadToken(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{users: &fakeUsersRepo{}, sessions: &fakeSessionsRepo{}}
	svc := newUserService(t, db, rm)

	_, err := svc.Authenticate(context.Background(), "garbage")
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("want common.ErrInvalidToken, got %v", err)
	}
}

func TestLogout_DeletesSession(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	sessRepo := &fakeSessionsRepo{}
	rm := &fakeRepoManager{users: &fakeUsersRepo{}, sessions: sessRepo}
	svc := newUserService(t, db, rm)

	if err := svc.Logout(context.Background(), "sess-1"); err != nil {
		t.Fatalf("Logout error: %v", err)
	}
	if len(sessRepo.deleted) != 1 || sessRepo.deleted[0] != "sess-1" {
		t.Fatalf("expected session deleted, got %v", sessRepo.deleted)
	}
}
