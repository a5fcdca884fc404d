package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophvote/internal/dbx"
	"github.com/dmitrijs2005/gophvote/internal/server/migrations"
	"github.com/dmitrijs2005/gophvote/internal/server/repositories/proposals"
	"github.com/dmitrijs2005/gophvote/internal/server/repositories/users"
	_ "modernc.org/sqlite"
)

// SQLiteRepositoryManager vends SQLite-backed repositories. It is used for
// single-node deployments and in tests.
type SQLiteRepositoryManager struct{}

func (m *SQLiteRepositoryManager) Dialect() string { return migrations.SQLite }

func (m *SQLiteRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Proposals(db dbx.DBTX) proposals.Repository {
	return proposals.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrateUp(ctx, db, migrations.SQLite)
}

func NewSQLiteRepositoryManager() RepositoryManager {
	return &SQLiteRepositoryManager{}
}
