package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophevents/internal/dbx"
	"github.com/dmitrijs2005/gophevents/internal/server/repositories/events"
	"github.com/dmitrijs2005/gophevents/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to a DB handle or an open
// transaction, so services can run several repos inside one dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Events(db dbx.DBTX) events.Repository
}
