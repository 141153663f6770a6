package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/uptask/internal/dbx"
	"github.com/dmitrijs2005/uptask/internal/server/repositories/notes"
	"github.com/dmitrijs2005/uptask/internal/server/repositories/projects"
	"github.com/dmitrijs2005/uptask/internal/server/repositories/ratelimits"
	"github.com/dmitrijs2005/uptask/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/uptask/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/uptask/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/uptask/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// path runs against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Tokens(db dbx.DBTX) tokens.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Projects(db dbx.DBTX) projects.Repository
	Tasks(db dbx.DBTX) tasks.Repository
	Notes(db dbx.DBTX) notes.Repository
	RateLimits(db dbx.DBTX) ratelimits.Repository
}
