// Package repomanager opens the record store database for the configured
// driver, applies the embedded goose migrations and vends repositories.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/usersync/internal/dbx"
	"github.com/dmitrijs2005/usersync/internal/filex"
	"github.com/dmitrijs2005/usersync/internal/logging"
	"github.com/dmitrijs2005/usersync/internal/migrations"
	"github.com/dmitrijs2005/usersync/internal/repositories/users"
	"github.com/pressly/goose/v3"
)

// RepositoryManager binds repository constructors and schema migrations to
// one SQL dialect.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// migrate applies the migrations found under dir. goose keeps its settings
// in package globals, so calls are not safe to run in parallel.
func migrate(ctx context.Context, db *sql.DB, dialect, dir string) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return gooseUpContext(ctx, db, dir)
}

// Open connects to dsn with the driver matching the role's store, pings it
// and runs the migrations. The caller owns the returned *sql.DB.
func Open(ctx context.Context, dsn string, postgres bool, log logging.Logger) (*sql.DB, users.Repository, error) {
	var (
		m      RepositoryManager
		driver string
	)
	if postgres {
		m, driver = NewPostgresRepositoryManager(), "pgx"
	} else {
		m, driver = NewSQLiteRepositoryManager(), "sqlite"
		if path := filex.SQLitePath(dsn); path != "" {
			if _, err := filex.EnsureParentDir(path); err != nil {
				return nil, nil, err
			}
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if !postgres {
		// a single connection serializes writers and keeps :memory: databases alive
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	goose.SetLogger(gooseLogger{ctx: ctx, log: log.With("module", "migrations")})
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}

	return db, m.Users(db), nil
}

// gooseLogger routes goose output into the structured logger.
type gooseLogger struct {
	ctx context.Context
	log logging.Logger
}

func (g gooseLogger) Printf(format string, v ...any) {
	g.log.Debug(g.ctx, fmt.Sprintf(format, v...))
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	g.log.Error(g.ctx, fmt.Sprintf(format, v...))
}
