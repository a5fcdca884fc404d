// Package repomanager vends storage-specific repositories and owns the schema
// migration hook for each supported database.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophvote/internal/dbx"
	"github.com/dmitrijs2005/gophvote/internal/server/migrations"
	"github.com/dmitrijs2005/gophvote/internal/server/repositories/proposals"
	"github.com/dmitrijs2005/gophvote/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// migrateUp is a seam for testing migrations.Up.
var migrateUp = migrations.Up

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations.
type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Dialect() string { return migrations.Postgres }

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// Proposals returns a proposals.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Proposals(db dbx.DBTX) proposals.Repository {
	return proposals.NewPostgresRepository(db)
}

// RunMigrations applies the embedded PostgreSQL schema.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrateUp(ctx, db, migrations.Postgres)
}

func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
