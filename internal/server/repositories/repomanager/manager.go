package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophvote/internal/dbx"
	"github.com/dmitrijs2005/gophvote/internal/server/repositories/proposals"
	"github.com/dmitrijs2005/gophvote/internal/server/repositories/users"
)

type RepositoryManager interface {
	Dialect() string
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Proposals(db dbx.DBTX) proposals.Repository
}

var ErrUnsupportedDSN = errors.New("unsupported database DSN")

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// Open picks a driver by DSN, opens the pool, migrates the schema and returns
// the matching RepositoryManager.
//
//	postgres://... or postgresql://...  PostgreSQL via pgx
//	sqlite://path, file:path or :memory: SQLite via modernc
func Open(ctx context.Context, dsn string) (*sql.DB, RepositoryManager, error) {
	var (
		driver string
		source string
		m      RepositoryManager
	)

	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		driver, source, m = "pgx", dsn, NewPostgresRepositoryManager()
	case dsn == ":memory:", strings.HasPrefix(dsn, "sqlite://"), strings.HasPrefix(dsn, "file:"):
		driver, source, m = "sqlite", sqliteSource(dsn), NewSQLiteRepositoryManager()
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedDSN, redact(dsn))
	}

	db, err := sqlOpen(driver, source)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", m.Dialect(), err)
	}
	if driver == "sqlite" {
		// one writer; also keeps a :memory: database alive across calls
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping %s: %w", m.Dialect(), err)
	}

	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return db, m, nil
}

func sqliteSource(dsn string) string {
	path := strings.TrimPrefix(dsn, "sqlite://")
	if path == "" {
		path = ":memory:"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_txlock=immediate&_pragma=busy_timeout(5000)"
}

// redact hides the password part of a URL-shaped DSN.
func redact(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if i := strings.Index(creds, ":"); i >= 0 {
		return dsn[:scheme+3] + creds[:i] + ":***" + dsn[at:]
	}
	return dsn
}
