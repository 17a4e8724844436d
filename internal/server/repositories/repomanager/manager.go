package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/guildgate/internal/server/repositories/applications"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Applications(db *sql.DB) applications.Repository
}
