package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/usersync/internal/common"
	"github.com/dmitrijs2005/usersync/internal/dbx"
	"github.com/dmitrijs2005/usersync/internal/models"
)

// queries differ between dialects only in placeholder syntax.
type queries struct {
	exists        string
	insert        string
	updateSecret  string
	delete        string
	list          string
	clear         string
	findByAccount string
}

var sqliteQueries = queries{
	exists:        `SELECT EXISTS(SELECT 1 FROM users WHERE account = ?)`,
	insert:        `INSERT INTO users (username, account, secret) VALUES (?, ?, ?) ON CONFLICT (account) DO NOTHING`,
	updateSecret:  `UPDATE users SET secret = ? WHERE username = ?`,
	delete:        `DELETE FROM users WHERE username = ?`,
	list:          `SELECT username, account, secret FROM users ORDER BY id`,
	clear:         `DELETE FROM users`,
	findByAccount: `SELECT username, account, secret FROM users WHERE account = ?`,
}

var postgresQueries = queries{
	exists:        `SELECT EXISTS(SELECT 1 FROM users WHERE account = $1)`,
	insert:        `INSERT INTO users (username, account, secret) VALUES ($1, $2, $3) ON CONFLICT (account) DO NOTHING`,
	updateSecret:  `UPDATE users SET secret = $1 WHERE username = $2`,
	delete:        `DELETE FROM users WHERE username = $1`,
	list:          `SELECT username, account, secret FROM users ORDER BY id`,
	clear:         `DELETE FROM users`,
	findByAccount: `SELECT username, account, secret FROM users WHERE account = $1`,
}

// SQLRepository implements Repository on top of a DBTX (either *sql.DB or *sql.Tx).
type SQLRepository struct {
	db dbx.DBTX
	q  queries
}

// NewSQLiteRepository returns a repository using SQLite placeholders.
func NewSQLiteRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, q: sqliteQueries}
}

// NewPostgresRepository returns a repository using PostgreSQL placeholders.
func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, q: postgresQueries}
}

func (r *SQLRepository) Exists(ctx context.Context, account string) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, r.q.exists, account).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// InsertIfAbsent relies on the UNIQUE constraint on account, so concurrent
// inserts of the same account leave exactly one row and the loser gets false.
func (r *SQLRepository) InsertIfAbsent(ctx context.Context, u models.UserRecord) (bool, error) {
	n, err := dbx.ExecAffected(ctx, r.db, r.q.insert, u.Username, u.Account, u.Secret)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *SQLRepository) UpdateSecret(ctx context.Context, username, secret string) (int64, error) {
	n, err := dbx.ExecAffected(ctx, r.db, r.q.updateSecret, secret, username)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) Delete(ctx context.Context, username string) (int64, error) {
	n, err := dbx.ExecAffected(ctx, r.db, r.q.delete, username)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) List(ctx context.Context) ([]models.UserRecord, error) {
	rows, err := r.db.QueryContext(ctx, r.q.list)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.UserRecord{}
	for rows.Next() {
		var u models.UserRecord
		if err := rows.Scan(&u.Username, &u.Account, &u.Secret); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) Clear(ctx context.Context) (int64, error) {
	n, err := dbx.ExecAffected(ctx, r.db, r.q.clear)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) FindByAccount(ctx context.Context, account string) (models.UserRecord, error) {
	var u models.UserRecord
	err := r.db.QueryRowContext(ctx, r.q.findByAccount, account).Scan(&u.Username, &u.Account, &u.Secret)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.UserRecord{}, common.ErrorNotFound
		}
		return models.UserRecord{}, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

// Batch runs fn against a repository bound to a single transaction. A
// repository already bound to a transaction runs fn directly.
func (r *SQLRepository) Batch(ctx context.Context, fn func(ctx context.Context, tx Repository) error) error {
	db, ok := r.db.(*sql.DB)
	if !ok {
		return fn(ctx, r)
	}
	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, &SQLRepository{db: tx, q: r.q})
	})
}
