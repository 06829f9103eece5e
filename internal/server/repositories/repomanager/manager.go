package repomanager

import (
	"context"

	"github.com/dmitrijs2005/filekeeper/internal/dbx"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/users"
	"github.com/jmoiron/sqlx"
)

// RepositoryManager vends repositories bound to a DB handle or transaction
// and owns schema migrations.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sqlx.DB) error
	Users(db dbx.DBTX) users.Repository
}
