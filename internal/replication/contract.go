// Package replication keeps two user directories approximately consistent.
//
// Both sides implement the same Contract. Mutations made through CreateUser,
// DeleteUser and ChangeSecret are applied locally and then pushed to the
// peer as the matching Notify call; Notify calls are applied locally and
// never pushed further. At startup each side pulls the peer's records once
// and merges them by account, adding only what is missing locally.
package replication

import (
	"context"

	"github.com/dmitrijs2005/usersync/internal/models"
)

// Contract is the set of operations either side exposes to the other.
type Contract interface {
	// Authenticate returns the username owning account when secret matches,
	// or common.ErrorNotFound.
	Authenticate(ctx context.Context, account, secret string) (string, error)
	// CreateUser reports false without error when the account already exists.
	CreateUser(ctx context.Context, username, account, secret string) (bool, error)
	DeleteUser(ctx context.Context, username string) error
	ChangeSecret(ctx context.Context, username, secret string) error
	ListAllRecords(ctx context.Context) ([]string, error)
	ClearAllRecords(ctx context.Context) error

	NotifyUserCreated(ctx context.Context, username, account, secret string) error
	NotifyUserDeleted(ctx context.Context, username string) error
	NotifySecretChanged(ctx context.Context, username, secret string) error

	AccountExists(ctx context.Context, account string) (bool, error)
}

// Endpoint is a live channel to the peer. It is used for a single session
// and must be closed exactly once.
type Endpoint interface {
	Contract
	Close() error
}

// Connector opens a fresh Endpoint to the peer.
type Connector interface {
	Connect(ctx context.Context) (Endpoint, error)
}

// Publisher receives events for committed mutations and sync outcomes.
type Publisher interface {
	Publish(ev models.SyncEvent)
}

// SecretHasher protects secrets before they reach the record store.
type SecretHasher interface {
	Hash(secret string) (string, error)
	Verify(stored, secret string) (bool, error)
}
