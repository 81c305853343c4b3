// Package users holds the record store: the account-keyed user directory
// that replication reads from and writes into. Implementations exist for
// SQLite (client role), PostgreSQL (server role) and memory (tests, demos).
package users

import (
	"context"

	"github.com/dmitrijs2005/usersync/internal/models"
)

// Repository is the record store. Account is unique across the store;
// InsertIfAbsent is the only way to add a record and reports false when
// the account is already present.
type Repository interface {
	Exists(ctx context.Context, account string) (bool, error)
	InsertIfAbsent(ctx context.Context, u models.UserRecord) (bool, error)
	// UpdateSecret and Delete address records by username and return the
	// number of rows changed.
	UpdateSecret(ctx context.Context, username, secret string) (int64, error)
	Delete(ctx context.Context, username string) (int64, error)
	// List returns all records in insertion order.
	List(ctx context.Context) ([]models.UserRecord, error)
	Clear(ctx context.Context) (int64, error)
	FindByAccount(ctx context.Context, account string) (models.UserRecord, error)
}

// Batcher is implemented by stores that can group several calls into one
// transaction. fn receives a Repository bound to that transaction; an error
// from fn rolls every call back.
type Batcher interface {
	Batch(ctx context.Context, fn func(ctx context.Context, tx Repository) error) error
}
