package repomanager

import (
	"context"
	"database/sql"

	"github.com/dkovalev/notelist/internal/dbx"
	"github.com/dkovalev/notelist/internal/server/repositories/notes"
	"github.com/dkovalev/notelist/internal/server/repositories/sessions"
	"github.com/dkovalev/notelist/internal/server/repositories/users"
)

// RepositoryManager builds repositories over a DBTX, so services can use the
// same factory against the pooled connection or an open transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Notes(db dbx.DBTX) notes.Repository
	Sessions(db dbx.DBTX) sessions.Repository
}
