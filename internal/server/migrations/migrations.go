// Package migrations embeds the schema for every supported SQL dialect and
// applies it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql sqlite/*.sql
var Migrations embed.FS

// Dialects supported by the server.
const (
	Postgres = "postgres"
	SQLite   = "sqlite"
)

var dialects = map[string]goose.Dialect{
	Postgres: goose.DialectPostgres,
	SQLite:   goose.DialectSQLite3,
}

// Up applies all pending migrations for dialect to db.
func Up(ctx context.Context, db *sql.DB, dialect string) error {
	d, ok := dialects[dialect]
	if !ok {
		return fmt.Errorf("unsupported dialect %q", dialect)
	}

	fsys, err := fs.Sub(Migrations, dialect)
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(d, db, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrate %s: %w", dialect, err)
	}
	return nil
}
